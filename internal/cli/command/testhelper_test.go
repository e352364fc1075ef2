package command

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	Method   string
	Path     string
	Password string
	Body     map[string]any
}

// newMockServer creates a new mock server. Handlers are matched on
// "METHOD /path".
func newMockServer() *mockServer {
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			Password: r.Header.Get("X-Admin-Password"),
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		m.mu.Lock()
		m.requests = append(m.requests, rec)
		m.mu.Unlock()

		if handler, ok := m.handlers[r.Method+" "+r.URL.Path]; ok {
			handler(w, r)
			return
		}
		errorResponse(w, http.StatusNotFound, "QV-SYS-4040", "not found")
	}))
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.handlers[pattern] = handler
}

// lastRequest returns the most recent request.
func (m *mockServer) lastRequest() recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return recordedRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockServer) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// okResponse writes a success envelope around data.
func okResponse(w http.ResponseWriter, data any) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"timestamp":  time.Now().UnixMilli(),
		"data":       data,
	})
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// sampleSession returns a session as the server encodes it.
func sampleSession(active bool) map[string]any {
	return map[string]any{
		"id":    "qvs-01hx5v3k9q8w7e6r5t4y3u2i1o",
		"title": "Best Fruit",
		"candidates": []map[string]string{
			{"id": "a", "name": "Apple"},
			{"id": "b", "name": "Banana"},
		},
		"is_active":  active,
		"created_at": "2024-05-01T10:00:00Z",
	}
}

// makeTestContext creates a CLI context for a command action. extraFlags
// maps non-global flag names to the value passed on the command line.
// Output written by the action is collected in the returned buffer.
func makeTestContext(server *mockServer, global []string, extraFlags map[string]any, args ...string) (*cli.Context, *bytes.Buffer) {
	return makeTestContextWithInput(server, "", global, extraFlags, args...)
}

func makeTestContextWithInput(server *mockServer, input string, global []string, extraFlags map[string]any, args ...string) (*cli.Context, *bytes.Buffer) {
	var out bytes.Buffer
	app := &cli.App{
		Name:   "test",
		Flags:  globalFlags(),
		Writer: &out,
		Reader: strings.NewReader(input),
	}

	allFlags := append([]cli.Flag{}, globalFlags()...)
	for name, val := range extraFlags {
		switch val.(type) {
		case string:
			allFlags = append(allFlags, &cli.StringFlag{Name: name})
		case int:
			allFlags = append(allFlags, &cli.IntFlag{Name: name})
		case float64:
			allFlags = append(allFlags, &cli.Float64Flag{Name: name})
		case bool:
			allFlags = append(allFlags, &cli.BoolFlag{Name: name})
		case time.Duration:
			allFlags = append(allFlags, &cli.DurationFlag{Name: name})
		case []string:
			allFlags = append(allFlags, &cli.StringSliceFlag{Name: name})
		}
	}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range allFlags {
		f.Apply(set)
	}

	cliArgs := []string{"--server", server.URL}
	cliArgs = append(cliArgs, global...)
	for name, val := range extraFlags {
		switch v := val.(type) {
		case string:
			cliArgs = append(cliArgs, "--"+name, v)
		case int:
			cliArgs = append(cliArgs, "--"+name, fmt.Sprintf("%d", v))
		case float64:
			cliArgs = append(cliArgs, "--"+name, fmt.Sprintf("%g", v))
		case bool:
			if v {
				cliArgs = append(cliArgs, "--"+name)
			}
		case time.Duration:
			cliArgs = append(cliArgs, "--"+name, v.String())
		case []string:
			for _, s := range v {
				cliArgs = append(cliArgs, "--"+name, s)
			}
		}
	}
	cliArgs = append(cliArgs, args...)
	set.Parse(cliArgs)

	return cli.NewContext(app, set, nil), &out
}
