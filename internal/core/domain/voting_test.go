package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fruits() []Candidate {
	return []Candidate{{ID: "a", Name: "Apple"}, {ID: "b", Name: "Banana"}}
}

func TestNewVotingSession(t *testing.T) {
	in := fruits()
	s, err := NewVotingSession("  Best Fruit  ", in)
	if err != nil {
		t.Fatalf("NewVotingSession() error = %v", err)
	}

	if !strings.HasPrefix(s.ID, VotingIDPrefix) {
		t.Errorf("ID should have prefix %q, got %q", VotingIDPrefix, s.ID)
	}
	if len(s.ID) != 30 {
		t.Errorf("ID length = %d, want 30", len(s.ID))
	}
	if s.Title != "Best Fruit" {
		t.Errorf("Title = %q, want trimmed", s.Title)
	}
	if s.IsActive {
		t.Error("new session should be inactive")
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// Caller mutation must not leak into the session.
	in[0].Name = "Apricot"
	if s.Candidates[0].Name != "Apple" {
		t.Error("candidates should be copied")
	}
}

func TestGenerateVotingID_Unique(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateVotingID()
		if err != nil {
			t.Fatalf("GenerateVotingID() error = %v", err)
		}
		if ids[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if id != strings.ToLower(id) {
			t.Errorf("id should be lowercase: %q", id)
		}
		ids[id] = true
	}
}

func TestValidateVotingInput(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		candidates []Candidate
		wantErr    bool
		detail     string
	}{
		{"valid", "Best Fruit", fruits(), false, ""},
		{"empty title", "", fruits(), true, "title is required"},
		{"blank title", "   ", fruits(), true, "title is required"},
		{"one candidate", "Q", []Candidate{{ID: "a", Name: "A"}}, true, "at least 2 candidates"},
		{"no candidates", "Q", nil, true, "at least 2 candidates"},
		{"empty candidate id", "Q", []Candidate{{ID: "a"}, {ID: "", Name: "B"}}, true, "id is required"},
		{"duplicate ids", "Q", []Candidate{{ID: "a"}, {ID: "a"}}, true, "duplicate candidate id a"},
		{"long title", strings.Repeat("x", MaxTitleLength+1), fruits(), true, "title exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVotingInput(tt.title, tt.candidates)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVotingInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should be ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q should mention %q", err.Error(), tt.detail)
			}
		})
	}
}

func TestVotingSession_HasCandidate(t *testing.T) {
	s := &VotingSession{Candidates: fruits()}

	if !s.HasCandidate("a") {
		t.Error("HasCandidate(a) = false")
	}
	if s.HasCandidate("c") {
		t.Error("HasCandidate(c) = true")
	}
	c, ok := s.Candidate("b")
	if !ok || c.Name != "Banana" {
		t.Errorf("Candidate(b) = %+v, %v", c, ok)
	}
}

func TestVotingSession_JSONShape(t *testing.T) {
	s := &VotingSession{
		ID:         "qvs-x",
		Title:      "T",
		Candidates: fruits(),
		IsActive:   true,
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, k := range []string{"id", "title", "candidates", "is_active", "created_at"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing field %q in %s", k, data)
		}
	}
	if raw["created_at"] != "2024-01-02T03:04:05Z" {
		t.Errorf("created_at = %v, want RFC 3339", raw["created_at"])
	}
}

func TestNewResults(t *testing.T) {
	s := &VotingSession{Candidates: []Candidate{
		{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}, {ID: "z", Name: "Z"},
	}}

	t.Run("missing counters are zero", func(t *testing.T) {
		r := NewResults(s, map[string]int64{"x": 3, "y": 1})
		if r.TotalVotes != 4 {
			t.Fatalf("TotalVotes = %d, want 4", r.TotalVotes)
		}
		want := []struct {
			votes int64
			pct   float64
		}{{3, 75}, {1, 25}, {0, 0}}
		for i, w := range want {
			got := r.Candidates[i]
			if got.Votes != w.votes || got.Percentage != w.pct {
				t.Errorf("candidate %s = %d/%v, want %d/%v", got.ID, got.Votes, got.Percentage, w.votes, w.pct)
			}
		}
	})

	t.Run("no votes", func(t *testing.T) {
		r := NewResults(s, nil)
		if r.TotalVotes != 0 {
			t.Errorf("TotalVotes = %d", r.TotalVotes)
		}
		for _, c := range r.Candidates {
			if c.Percentage != 0 {
				t.Errorf("percentage of %s = %v, want 0", c.ID, c.Percentage)
			}
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		r := NewResults(s, nil)
		for i, c := range s.Candidates {
			if r.Candidates[i].ID != c.ID {
				t.Errorf("position %d = %s, want %s", i, r.Candidates[i].ID, c.ID)
			}
		}
	})
}

func TestEmptyResults(t *testing.T) {
	r := EmptyResults()
	if r.TotalVotes != 0 || r.Candidates == nil || len(r.Candidates) != 0 {
		t.Errorf("EmptyResults() = %+v", r)
	}
	data, _ := json.Marshal(r)
	if string(data) != `{"total_votes":0,"candidates":[]}` {
		t.Errorf("json = %s", data)
	}
}

func TestValidateIdentity(t *testing.T) {
	if err := ValidateIdentity("a@b.com"); err != nil {
		t.Errorf("ValidateIdentity() error = %v", err)
	}
	if err := ValidateIdentity(" "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank identity error = %v", err)
	}
	if err := ValidateIdentity(strings.Repeat("a", MaxIdentityLength+1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("long identity error = %v", err)
	}
}

func TestKeys(t *testing.T) {
	if VoteCounterKey("a") != "votes:a" {
		t.Errorf("VoteCounterKey = %q", VoteCounterKey("a"))
	}
	if VoterKey("x@y.com") != "voter:x@y.com" {
		t.Errorf("VoterKey = %q", VoterKey("x@y.com"))
	}
	if DemoCounterKey("option1") != "demo:option1" {
		t.Errorf("DemoCounterKey = %q", DemoCounterKey("option1"))
	}
}
