package redistest

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T) *client {
	t.Helper()
	srv := Start(t)
	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

// do sends args as a RESP array and returns the raw reply up to the end of
// the first line, or the whole reply for bulk strings.
func (c *client) do(args ...string) string {
	c.t.Helper()
	var b strings.Builder
	b.WriteString("*" + itoa(len(args)) + "\r\n")
	for _, a := range args {
		b.WriteString("$" + itoa(len(a)) + "\r\n" + a + "\r\n")
	}
	if _, err := c.conn.Write([]byte(b.String())); err != nil {
		c.t.Fatalf("write: %v", err)
	}
	return c.reply()
}

func (c *client) reply() string {
	c.t.Helper()
	line, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	switch line[0] {
	case '$':
		if line == "$-1\r\n" {
			return line
		}
		body, err := c.r.ReadString('\n')
		if err != nil {
			c.t.Fatalf("read bulk: %v", err)
		}
		return line + body
	case '*':
		n := 0
		for _, ch := range line[1 : len(line)-2] {
			n = n*10 + int(ch-'0')
		}
		out := line
		for i := 0; i < n; i++ {
			out += c.reply()
		}
		return out
	}
	return line
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var d []byte
	for ; n > 0; n /= 10 {
		d = append([]byte{byte('0' + n%10)}, d...)
	}
	return string(d)
}

func TestServer_Commands(t *testing.T) {
	c := dial(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"PING"}, "+PONG\r\n"},
		{[]string{"ping", "hi"}, "$2\r\nhi\r\n"},
		{[]string{"GET", "k"}, "$-1\r\n"},
		{[]string{"SET", "k", "v"}, "+OK\r\n"},
		{[]string{"GET", "k"}, "$1\r\nv\r\n"},
		{[]string{"SET", "k", "w", "NX"}, "$-1\r\n"},
		{[]string{"SET", "n", "1", "nx"}, "+OK\r\n"},
		{[]string{"SETNX", "k", "w"}, ":0\r\n"},
		{[]string{"SETNX", "fresh", "w"}, ":1\r\n"},
		{[]string{"INCR", "n"}, ":2\r\n"},
		{[]string{"INCR", "k"}, "-ERR value is not an integer or out of range\r\n"},
		{[]string{"GET", "k"}, "$1\r\nv\r\n"},
		{[]string{"EXISTS", "k", "n", "none"}, ":2\r\n"},
		{[]string{"DBSIZE"}, ":3\r\n"},
		{[]string{"DEL", "k", "none", "fresh"}, ":2\r\n"},
		{[]string{"GET"}, "-ERR wrong number of arguments for 'get' command\r\n"},
		{[]string{"SET", "k", "v", "XX"}, "-ERR syntax error\r\n"},
		{[]string{"HGET", "h", "f"}, "-ERR unknown command 'hget'\r\n"},
		{[]string{"FLUSHDB"}, "+OK\r\n"},
		{[]string{"DBSIZE"}, ":0\r\n"},
	}
	for _, s := range steps {
		if got := c.do(s.args...); got != s.want {
			t.Errorf("%v = %q, want %q", s.args, got, s.want)
		}
	}
}

func TestServer_Scan(t *testing.T) {
	c := dial(t)
	for _, k := range []string{"voter:a", "voter:b", "voter:c", "votes:x"} {
		c.do("SET", k, "1")
	}

	got := c.do("SCAN", "0", "MATCH", "voter:*", "COUNT", "2")
	want := "*2\r\n$1\r\n2\r\n*2\r\n$7\r\nvoter:a\r\n$7\r\nvoter:b\r\n"
	if got != want {
		t.Fatalf("first page = %q, want %q", got, want)
	}

	got = c.do("SCAN", "2", "MATCH", "voter:*", "COUNT", "2")
	want = "*2\r\n$1\r\n0\r\n*1\r\n$7\r\nvoter:c\r\n"
	if got != want {
		t.Errorf("last page = %q, want %q", got, want)
	}

	if got := c.do("SCAN", "x"); got != "-ERR invalid cursor\r\n" {
		t.Errorf("bad cursor = %q", got)
	}
}

func TestServer_InlineAndQuit(t *testing.T) {
	c := dial(t)
	c.conn.Write([]byte("PING\r\n"))
	if got := c.reply(); got != "+PONG\r\n" {
		t.Errorf("inline PING = %q", got)
	}
	if got := c.do("QUIT"); got != "+OK\r\n" {
		t.Errorf("QUIT = %q", got)
	}
	if _, err := c.r.ReadByte(); err == nil {
		t.Error("connection should be closed after QUIT")
	}
}

func TestServer_ProtocolError(t *testing.T) {
	c := dial(t)
	c.conn.Write([]byte("*1\r\n:5\r\n"))
	if got := c.reply(); !strings.HasPrefix(got, "-ERR protocol error") {
		t.Errorf("reply = %q, want protocol error", got)
	}
}

func TestServer_Close(t *testing.T) {
	srv := Start(t)
	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("client should be disconnected")
	}
	if _, err := net.DialTimeout("tcp", srv.Addr(), 200*time.Millisecond); err == nil {
		t.Error("listener should be closed")
	}
}

func TestReadCommand_Limits(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array too long", "*9999\r\n"},
		{"bulk too long", "*1\r\n$999999999\r\n"},
		{"missing crlf", "*1\r\n$1\r\nab"},
		{"bad length", "*x\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input))); err == nil {
				t.Errorf("ReadCommand(%q) should fail", tt.input)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "", true},
		{"voter:*", "voter:a@b.com", true},
		{"voter:*", "votes:a", false},
		{"v?ter:*", "voter:x", true},
		{`a\*b*`, "a*bc", true},
		{`a\*b*`, "axbc", false},
		{"h[ae]llo", "hello", true},
		{"h[^e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{`x\[y\]*`, "x[y]z", true},
		{`a\-b`, "a-b", true},
		{"abc", "abcd", false},
	}
	for _, tt := range tests {
		if got := Match(tt.pattern, tt.s); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
