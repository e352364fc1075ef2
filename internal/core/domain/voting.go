package domain

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Voting constraints.
const (
	MinCandidates     = 2
	MaxTitleLength    = 256
	MaxCandidateIDLen = 64
	MaxCandidateName  = 128
	MaxIdentityLength = 254 // RFC 5321 address limit

	// VotingIDPrefix is the prefix for voting session IDs.
	VotingIDPrefix = "qvs-"
)

// Candidate is one option of a voting session.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VotingSession is the single live poll. At most one exists at a time and it
// is stored under KeyCurrentSession.
type VotingSession struct {
	// ID is an opaque identifier.
	// Format: qvs-{ulid_lowercase}, 30 characters total.
	ID string `json:"id"`

	// Title is the question shown to voters.
	Title string `json:"title"`

	// Candidates in display order.
	Candidates []Candidate `json:"candidates"`

	// IsActive reports whether votes are currently admitted.
	IsActive bool `json:"is_active"`

	// CreatedAt is the creation timestamp, serialized as RFC 3339.
	CreatedAt time.Time `json:"created_at"`
}

// NewVotingSession creates an inactive session with a generated ID.
// The candidate slice is copied so later caller mutations do not leak in.
func NewVotingSession(title string, candidates []Candidate) (*VotingSession, error) {
	id, err := GenerateVotingID()
	if err != nil {
		return nil, err
	}

	cs := make([]Candidate, len(candidates))
	copy(cs, candidates)

	return &VotingSession{
		ID:         id,
		Title:      strings.TrimSpace(title),
		Candidates: cs,
		IsActive:   false,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// GenerateVotingID generates a new voting session ID using ULID.
func GenerateVotingID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return VotingIDPrefix + strings.ToLower(id.String()), nil
}

// ValidateVotingInput checks a create request before anything is persisted.
// Returns ErrInvalidInput with the collected violations as details.
func ValidateVotingInput(title string, candidates []Candidate) error {
	var violations []string

	title = strings.TrimSpace(title)
	if title == "" {
		violations = append(violations, "title is required")
	}
	if len(title) > MaxTitleLength {
		violations = append(violations, "title exceeds 256 characters")
	}

	if len(candidates) < MinCandidates {
		violations = append(violations, "at least 2 candidates required")
	}

	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		switch {
		case c.ID == "":
			violations = append(violations, "candidate "+strconv.Itoa(i)+": id is required")
			continue
		case len(c.ID) > MaxCandidateIDLen:
			violations = append(violations, "candidate "+strconv.Itoa(i)+": id exceeds 64 characters")
		}
		if len(c.Name) > MaxCandidateName {
			violations = append(violations, "candidate "+strconv.Itoa(i)+": name exceeds 128 characters")
		}
		if _, dup := seen[c.ID]; dup {
			violations = append(violations, "duplicate candidate id "+c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	if len(violations) > 0 {
		return ErrInvalidInput.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Candidate returns the candidate with the given id.
func (s *VotingSession) Candidate(id string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// HasCandidate reports whether id belongs to the session.
func (s *VotingSession) HasCandidate(id string) bool {
	_, ok := s.Candidate(id)
	return ok
}

// CandidateResult is the tally of one candidate.
type CandidateResult struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Results is the aggregated tally of the current session.
type Results struct {
	TotalVotes int64             `json:"total_votes"`
	Candidates []CandidateResult `json:"candidates"`
}

// EmptyResults is returned when no session exists.
func EmptyResults() *Results {
	return &Results{TotalVotes: 0, Candidates: []CandidateResult{}}
}

// NewResults builds the tally for the session from per-candidate counts.
// Candidates missing from counts are treated as zero. Percentages are
// votes/total*100, or 0 for every candidate when nothing has been cast.
func NewResults(s *VotingSession, counts map[string]int64) *Results {
	r := &Results{Candidates: make([]CandidateResult, 0, len(s.Candidates))}
	for _, c := range s.Candidates {
		r.TotalVotes += counts[c.ID]
	}
	for _, c := range s.Candidates {
		n := counts[c.ID]
		var pct float64
		if r.TotalVotes > 0 {
			pct = float64(n) / float64(r.TotalVotes) * 100
		}
		r.Candidates = append(r.Candidates, CandidateResult{
			ID:         c.ID,
			Name:       c.Name,
			Votes:      n,
			Percentage: pct,
		})
	}
	return r
}

// ValidateIdentity checks a voter identity.
func ValidateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return ErrInvalidInput.WithDetails("email is required")
	}
	if len(identity) > MaxIdentityLength {
		return ErrInvalidInput.WithDetails("email exceeds 254 characters")
	}
	return nil
}
