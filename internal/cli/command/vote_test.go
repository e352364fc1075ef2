package command

import (
	"net/http"
	"strings"
	"testing"
)

func TestVote(t *testing.T) {
	server := newMockServer()
	defer server.Close()
	server.handle("POST /api/vote", func(w http.ResponseWriter, r *http.Request) {
		okResponse(w, map[string]any{"success": true, "message": "Vote recorded", "container": "node-2"})
	})

	c, out := makeTestContext(server, nil, map[string]any{
		"email":     "ann@example.com",
		"candidate": "a",
	})
	if err := vote(c); err != nil {
		t.Fatalf("vote() error = %v", err)
	}

	req := server.lastRequest()
	if req.Body["email"] != "ann@example.com" || req.Body["candidate_id"] != "a" {
		t.Errorf("body = %v", req.Body)
	}
	if out.String() != "Vote recorded (served by node-2).\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestVote_Rejected(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusConflict, "QV-VOTE-4092"},
		{http.StatusNotFound, "QV-VOTE-4040"},
		{http.StatusBadRequest, "QV-VOTE-4002"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			server := newMockServer()
			defer server.Close()
			server.handle("POST /api/vote", func(w http.ResponseWriter, r *http.Request) {
				errorResponse(w, tt.status, tt.code, "rejected")
			})

			c, _ := makeTestContext(server, nil, map[string]any{"email": "a@x.com", "candidate": "a"})
			err := vote(c)
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Errorf("vote() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResults(t *testing.T) {
	tally := map[string]any{
		"total_votes": 4,
		"candidates": []map[string]any{
			{"id": "a", "name": "Apple", "votes": 3, "percentage": 75.0},
			{"id": "b", "name": "Banana", "votes": 1, "percentage": 25.0},
		},
		"container": "node-1",
	}

	t.Run("table", func(t *testing.T) {
		server := newMockServer()
		defer server.Close()
		server.handle("GET /api/results", func(w http.ResponseWriter, r *http.Request) {
			okResponse(w, tally)
		})

		c, out := makeTestContext(server, nil, nil)
		if err := results(c); err != nil {
			t.Fatalf("results() error = %v", err)
		}
		for _, want := range []string{"CANDIDATE", "Apple", "75.0%", "25.0%", "Total: 4 votes (served by node-1)"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("json keeps flat shape", func(t *testing.T) {
		server := newMockServer()
		defer server.Close()
		server.handle("GET /api/results", func(w http.ResponseWriter, r *http.Request) {
			okResponse(w, tally)
		})

		c, out := makeTestContext(server, []string{"-o", "json"}, nil)
		if err := results(c); err != nil {
			t.Fatalf("results() error = %v", err)
		}
		for _, want := range []string{`"total_votes": 4`, `"container": "node-1"`, `"percentage": 75`} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("no session", func(t *testing.T) {
		server := newMockServer()
		defer server.Close()
		server.handle("GET /api/results", func(w http.ResponseWriter, r *http.Request) {
			okResponse(w, map[string]any{"total_votes": 0, "candidates": []any{}, "container": "node-1"})
		})

		c, out := makeTestContext(server, nil, nil)
		if err := results(c); err != nil {
			t.Fatalf("results() error = %v", err)
		}
		if out.String() != "No voting session.\n" {
			t.Errorf("output = %q", out.String())
		}
	})
}

func TestDemo(t *testing.T) {
	server := newMockServer()
	defer server.Close()
	server.handle("POST /api/vote-demo", func(w http.ResponseWriter, r *http.Request) {
		okResponse(w, map[string]any{"success": true, "message": "Vote recorded", "container": "node-1"})
	})
	server.handle("GET /api/votes", func(w http.ResponseWriter, r *http.Request) {
		okResponse(w, map[string]any{"votes": map[string]int{"option1": 2, "option2": 0}, "container": "node-1"})
	})

	c, out := makeTestContext(server, nil, nil, "option1")
	if err := demoVote(c); err != nil {
		t.Fatalf("demoVote() error = %v", err)
	}
	if server.lastRequest().Body["option"] != "option1" {
		t.Errorf("body = %v", server.lastRequest().Body)
	}
	if !strings.Contains(out.String(), "Vote recorded") {
		t.Errorf("output = %q", out.String())
	}

	c, out = makeTestContext(server, nil, nil)
	if err := demoTally(c); err != nil {
		t.Fatalf("demoTally() error = %v", err)
	}
	if out.String() != "KEY      VALUE\noption1  2\noption2  0\n" {
		t.Errorf("output = %q", out.String())
	}

	c, _ = makeTestContext(server, nil, nil)
	if err := demoVote(c); err == nil {
		t.Error("demoVote() without option should fail")
	}
}
