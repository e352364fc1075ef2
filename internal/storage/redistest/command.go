package redistest

import (
	"bufio"
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/quickvote-go/internal/storage/memory"
)

const defaultScanCount = 10

// dispatch runs one command and reports whether the client asked to quit.
func (s *Server) dispatch(ctx context.Context, w *bufio.Writer, args [][]byte) bool {
	name := strings.ToUpper(string(args[0]))
	argv := make([]string, len(args)-1)
	for i, a := range args[1:] {
		argv[i] = string(a)
	}

	switch name {
	case "PING":
		if len(argv) == 1 {
			writeBulkString(w, argv[0])
		} else {
			writeSimpleString(w, "PONG")
		}
	case "QUIT":
		writeSimpleString(w, "OK")
		return true
	case "GET":
		s.get(ctx, w, argv)
	case "SET":
		s.set(ctx, w, argv)
	case "SETNX":
		s.setnx(ctx, w, argv)
	case "DEL":
		s.del(ctx, w, argv)
	case "EXISTS":
		s.exists(ctx, w, argv)
	case "INCR":
		s.incr(ctx, w, argv)
	case "SCAN":
		s.scan(ctx, w, argv)
	case "DBSIZE":
		writeInteger(w, int64(s.store.Len()))
	case "FLUSHDB":
		keys, _ := s.store.ListKeys(ctx, "")
		s.store.DeleteMany(ctx, keys)
		writeSimpleString(w, "OK")
	default:
		writeError(w, "ERR unknown command '"+strings.ToLower(name)+"'")
	}
	return false
}

func wrongArgs(w *bufio.Writer, cmd string) {
	writeError(w, "ERR wrong number of arguments for '"+cmd+"' command")
}

func (s *Server) get(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) != 1 {
		wrongArgs(w, "get")
		return
	}
	v, found, err := s.store.Get(ctx, argv[0])
	switch {
	case err != nil:
		writeError(w, "ERR "+err.Error())
	case !found:
		writeNullBulk(w)
	default:
		writeBulkString(w, v)
	}
}

func (s *Server) set(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) < 2 {
		wrongArgs(w, "set")
		return
	}
	nx := false
	for _, opt := range argv[2:] {
		if !strings.EqualFold(opt, "NX") {
			writeError(w, "ERR syntax error")
			return
		}
		nx = true
	}

	if !nx {
		if err := s.store.Set(ctx, argv[0], argv[1]); err != nil {
			writeError(w, "ERR "+err.Error())
			return
		}
		writeSimpleString(w, "OK")
		return
	}

	stored, err := s.store.SetIfAbsent(ctx, argv[0], argv[1])
	switch {
	case err != nil:
		writeError(w, "ERR "+err.Error())
	case stored:
		writeSimpleString(w, "OK")
	default:
		writeNullBulk(w)
	}
}

func (s *Server) setnx(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) != 2 {
		wrongArgs(w, "setnx")
		return
	}
	stored, err := s.store.SetIfAbsent(ctx, argv[0], argv[1])
	if err != nil {
		writeError(w, "ERR "+err.Error())
		return
	}
	if stored {
		writeInteger(w, 1)
	} else {
		writeInteger(w, 0)
	}
}

func (s *Server) del(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) == 0 {
		wrongArgs(w, "del")
		return
	}
	var n int64
	for _, k := range argv {
		if _, found, _ := s.store.Get(ctx, k); !found {
			continue
		}
		if err := s.store.Delete(ctx, k); err != nil {
			writeError(w, "ERR "+err.Error())
			return
		}
		n++
	}
	writeInteger(w, n)
}

func (s *Server) exists(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) == 0 {
		wrongArgs(w, "exists")
		return
	}
	var n int64
	for _, k := range argv {
		if _, found, _ := s.store.Get(ctx, k); found {
			n++
		}
	}
	writeInteger(w, n)
}

func (s *Server) incr(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) != 1 {
		wrongArgs(w, "incr")
		return
	}
	n, err := s.store.IncrementAndGet(ctx, argv[0])
	if errors.Is(err, memory.ErrNotInteger) {
		writeError(w, "ERR value is not an integer or out of range")
		return
	}
	if err != nil {
		writeError(w, "ERR "+err.Error())
		return
	}
	writeInteger(w, n)
}

// scan pages through the sorted keyspace. The cursor is an offset, so keys
// added or removed between calls may be missed or repeated, which SCAN
// allows.
func (s *Server) scan(ctx context.Context, w *bufio.Writer, argv []string) {
	if len(argv) == 0 {
		wrongArgs(w, "scan")
		return
	}
	cursor, err := strconv.Atoi(argv[0])
	if err != nil || cursor < 0 {
		writeError(w, "ERR invalid cursor")
		return
	}

	pattern, count := "*", defaultScanCount
	for i := 1; i < len(argv); i += 2 {
		if i+1 >= len(argv) {
			writeError(w, "ERR syntax error")
			return
		}
		switch strings.ToUpper(argv[i]) {
		case "MATCH":
			pattern = argv[i+1]
		case "COUNT":
			count, err = strconv.Atoi(argv[i+1])
			if err != nil || count < 1 {
				writeError(w, "ERR value is not an integer or out of range")
				return
			}
		default:
			writeError(w, "ERR syntax error")
			return
		}
	}

	keys, err := s.store.ListKeys(ctx, "")
	if err != nil {
		writeError(w, "ERR "+err.Error())
		return
	}
	sort.Strings(keys)

	end := cursor + count
	next := end
	if end >= len(keys) {
		end, next = len(keys), 0
	}
	var page []string
	if cursor < len(keys) {
		for _, k := range keys[cursor:end] {
			if Match(pattern, k) {
				page = append(page, k)
			}
		}
	}

	writeArrayHeader(w, 2)
	writeBulkString(w, strconv.Itoa(next))
	writeArrayHeader(w, len(page))
	for _, k := range page {
		writeBulkString(w, k)
	}
}

// Match reports whether s matches the Redis glob pattern. It supports *, ?,
// [...] classes with ranges and ^ negation, and backslash escapes.
func Match(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if Match(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if s == "" {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		case '[':
			if s == "" {
				return false
			}
			rest, ok := matchClass(pattern[1:], s[0])
			if !ok {
				return false
			}
			pattern, s = rest, s[1:]
		case '\\':
			if len(pattern) >= 2 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if s == "" || pattern[0] != s[0] {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		}
	}
	return s == ""
}

// matchClass matches c against the class body starting after '[' and
// returns the pattern after the closing ']'.
func matchClass(p string, c byte) (string, bool) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate, p = true, p[1:]
	}

	matched := false
	for len(p) > 0 && p[0] != ']' {
		lo := p[0]
		if lo == '\\' && len(p) >= 2 {
			p = p[1:]
			lo = p[0]
		}
		p = p[1:]
		hi := lo
		if len(p) >= 2 && p[0] == '-' && p[1] != ']' {
			hi = p[1]
			p = p[2:]
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo <= c && c <= hi {
			matched = true
		}
	}
	if len(p) > 0 {
		p = p[1:]
	}
	return p, matched != negate
}
