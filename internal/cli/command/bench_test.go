package command

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func benchServer() *mockServer {
	server := newMockServer()
	server.handle("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		okResponse(w, map[string]string{"status": "healthy", "container": "node-1"})
	})
	return server
}

func TestBenchCommand_Flags(t *testing.T) {
	cmd := BenchCommand()
	flagNames := make(map[string]bool)
	for _, f := range cmd.Flags {
		flagNames[f.Names()[0]] = true
	}
	for _, name := range []string{"endpoint", "workers", "duration", "rate", "quiet"} {
		if !flagNames[name] {
			t.Errorf("bench should have --%s", name)
		}
	}
}

func TestRunBench(t *testing.T) {
	server := benchServer()
	defer server.Close()

	c, out := makeTestContext(server, nil, map[string]any{
		"endpoint": "health",
		"workers":  2,
		"duration": 150 * time.Millisecond,
		"quiet":    true,
	})
	if err := runBench(c); err != nil {
		t.Fatalf("runBench() error = %v", err)
	}

	for _, want := range []string{"Requests:", "Throughput:", "CONTAINER", "node-1", "100.0%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunBench_JSON(t *testing.T) {
	server := benchServer()
	defer server.Close()

	c, out := makeTestContext(server, []string{"--output", "json"}, map[string]any{
		"endpoint": "health",
		"workers":  1,
		"duration": 100 * time.Millisecond,
	})
	if err := runBench(c); err != nil {
		t.Fatalf("runBench() error = %v", err)
	}
	if !strings.Contains(out.String(), `"endpoint": "/api/health"`) || !strings.Contains(out.String(), `"container": "node-1"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunBench_InvalidFlags(t *testing.T) {
	server := benchServer()
	defer server.Close()

	tests := []struct {
		name  string
		flags map[string]any
		want  string
	}{
		{"endpoint", map[string]any{"endpoint": "vote", "workers": 1, "duration": time.Second}, "unknown endpoint"},
		{"workers", map[string]any{"endpoint": "health", "workers": 0, "duration": time.Second}, "workers"},
		{"duration", map[string]any{"endpoint": "health", "workers": 1, "duration": time.Duration(0)}, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := makeTestContext(server, nil, tt.flags)
			err := runBench(c)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runBench() error = %v, want %q", err, tt.want)
			}
			if server.requestCount() != 0 {
				t.Error("invalid flags should not send requests")
			}
		})
	}
}
