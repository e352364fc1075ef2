package command

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		global []string
		want   string
	}{
		{"liveness", false, nil, "Status: healthy (container node-1)\n"},
		{"readiness", true, nil, "Status: ready (container node-1)\n"},
		{"yaml", false, []string{"-o", "yaml"}, "status: healthy\ncontainer: node-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockServer()
			defer server.Close()
			server.handle("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
				okResponse(w, map[string]string{"status": "healthy", "container": "node-1", "timestamp": "2024-05-01T10:00:00Z"})
			})
			server.handle("GET /api/ready", func(w http.ResponseWriter, r *http.Request) {
				okResponse(w, map[string]string{"status": "ready", "container": "node-1", "timestamp": "2024-05-01T10:00:00Z"})
			})

			c, out := makeTestContext(server, tt.global, map[string]any{"ready": tt.ready})
			if err := health(c); err != nil {
				t.Fatalf("health() error = %v", err)
			}
			if !strings.HasPrefix(out.String(), tt.want) {
				t.Errorf("output = %q, want prefix %q", out.String(), tt.want)
			}
		})
	}
}

func TestHealth_NotReady(t *testing.T) {
	server := newMockServer()
	defer server.Close()
	server.handle("GET /api/ready", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusServiceUnavailable, "QV-SYS-5030", "store unavailable")
	})

	c, _ := makeTestContext(server, nil, map[string]any{"ready": true})
	err := health(c)
	if err == nil || !strings.Contains(err.Error(), "QV-SYS-5030") {
		t.Errorf("health() error = %v", err)
	}
}

func TestHealth_Unreachable(t *testing.T) {
	server := newMockServer()
	server.Close()

	c, _ := makeTestContext(server, nil, nil)
	err := health(c)
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("health() error = %v", err)
	}
}
