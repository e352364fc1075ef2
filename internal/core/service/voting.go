package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

// DemoOptions lists the legacy demo options accepted by CastDemoVote.
var DemoOptions = []string{"option1", "option2"}

// VotingService manages the single voting session.
//
// It is safe for concurrent use. Concurrent submissions are serialized by
// the store: counters rely on IncrementAndGet and dedup relies on
// SetIfAbsent when the store offers it.
type VotingService struct {
	store    KVStore
	cond     ConditionalSetter // nil when the store cannot set-if-absent
	listener EventListener
}

// VotingOption configures a VotingService.
type VotingOption func(*VotingService)

// WithListener registers a listener notified after every successful change.
func WithListener(l EventListener) VotingOption {
	return func(s *VotingService) {
		s.listener = l
	}
}

// WithoutConditionalSet forces the get-then-set dedup path even when the
// store supports SetIfAbsent.
func WithoutConditionalSet() VotingOption {
	return func(s *VotingService) {
		s.cond = nil
	}
}

// NewVotingService creates a new VotingService over store.
func NewVotingService(store KVStore, opts ...VotingOption) *VotingService {
	s := &VotingService{store: store}
	if cs, ok := store.(ConditionalSetter); ok {
		s.cond = cs
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Session Lifecycle
// ============================================================================

// CreateSessionRequest contains parameters for session creation.
type CreateSessionRequest struct {
	Title      string             // Required, trimmed
	Candidates []domain.Candidate // At least two, unique non-empty ids
}

// CreateSession creates an inactive session and zeroes every counter.
func (s *VotingService) CreateSession(ctx context.Context, req *CreateSessionRequest) (*domain.VotingSession, error) {
	// 1. Validate input
	if req == nil {
		return nil, domain.ErrInvalidInput.WithDetails("request is required")
	}
	if err := domain.ValidateVotingInput(req.Title, req.Candidates); err != nil {
		return nil, err
	}

	// 2. Reject when a session is present
	_, found, err := s.store.Get(ctx, domain.KeyCurrentSession)
	if err != nil {
		return nil, storeError("get session", err)
	}
	if found {
		return nil, domain.ErrSessionExists
	}

	// 3. Persist the session inactive
	session, err := domain.NewVotingSession(req.Title, req.Candidates)
	if err != nil {
		return nil, err
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	// 4. Zero every counter
	for _, c := range session.Candidates {
		if err := s.store.Set(ctx, domain.VoteCounterKey(c.ID), "0"); err != nil {
			return nil, storeError("init counter "+c.ID, err)
		}
	}

	s.notify(ctx, domain.NewEvent(domain.EventSessionCreated, session.ID))
	return session, nil
}

// StartSession activates the current session. Starting an active session
// rewrites it unchanged.
func (s *VotingService) StartSession(ctx context.Context) (*domain.VotingSession, error) {
	return s.setActive(ctx, true)
}

// StopSession deactivates the current session. Stopping an inactive session
// rewrites it unchanged.
func (s *VotingService) StopSession(ctx context.Context) (*domain.VotingSession, error) {
	return s.setActive(ctx, false)
}

func (s *VotingService) setActive(ctx context.Context, active bool) (*domain.VotingSession, error) {
	session, err := s.loadSession(ctx)
	if err != nil {
		return nil, err
	}

	// Read-modify-write without a guard; the last writer wins.
	session.IsActive = active
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	ev := domain.EventSessionStopped
	if active {
		ev = domain.EventSessionStarted
	}
	s.notify(ctx, domain.NewEvent(ev, session.ID))
	return session, nil
}

// DeleteSession removes the session together with its counters and every
// voter record. The session record goes last so a partial failure leaves
// the session visible and the delete can be repeated.
func (s *VotingService) DeleteSession(ctx context.Context) error {
	session, err := s.loadSession(ctx)
	if err != nil {
		return err
	}

	// 1. Counters
	counters := make([]string, 0, len(session.Candidates))
	for _, c := range session.Candidates {
		counters = append(counters, domain.VoteCounterKey(c.ID))
	}
	if err := s.store.DeleteMany(ctx, counters); err != nil {
		return storeError("delete counters", err)
	}

	// 2. Voter records
	voters, err := s.store.ListKeys(ctx, domain.VoterKeyPrefix)
	if err != nil {
		return storeError("list voters", err)
	}
	if len(voters) > 0 {
		if err := s.store.DeleteMany(ctx, voters); err != nil {
			return storeError("delete voters", err)
		}
	}

	// 3. Session record
	if err := s.store.Delete(ctx, domain.KeyCurrentSession); err != nil {
		return storeError("delete session", err)
	}

	s.notify(ctx, domain.NewEvent(domain.EventSessionDeleted, session.ID))
	return nil
}

// GetCurrentSession returns the session, or false when none exists.
func (s *VotingService) GetCurrentSession(ctx context.Context) (*domain.VotingSession, bool, error) {
	session, err := s.loadSession(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return session, true, nil
}

// ============================================================================
// Votes
// ============================================================================

// SubmitVoteRequest contains parameters for a vote.
type SubmitVoteRequest struct {
	Identity    string // Voter identity (e-mail)
	CandidateID string
}

// SubmitVoteResponse contains the result of a recorded vote.
type SubmitVoteResponse struct {
	SessionID   string
	CandidateID string
	Votes       int64 // Candidate count after this vote
}

// SubmitVote records one vote per identity for an active session.
func (s *VotingService) SubmitVote(ctx context.Context, req *SubmitVoteRequest) (*SubmitVoteResponse, error) {
	// 1. Validate input
	if req == nil || strings.TrimSpace(req.Identity) == "" || req.CandidateID == "" {
		return nil, domain.ErrInvalidInput.WithDetails("email and candidate_id are required")
	}
	if err := domain.ValidateIdentity(req.Identity); err != nil {
		return nil, err
	}

	// 2. Session must exist and be active
	session, err := s.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, domain.ErrSessionNotActive
	}

	// 3. Reject identities that already voted
	voterKey := domain.VoterKey(req.Identity)
	_, voted, err := s.store.Get(ctx, voterKey)
	if err != nil {
		return nil, storeError("get voter", err)
	}
	if voted {
		return nil, domain.ErrAlreadyVoted
	}

	// 4. Candidate must belong to the session
	if !session.HasCandidate(req.CandidateID) {
		return nil, domain.ErrInvalidCandidate.WithDetails(req.CandidateID)
	}

	// 5. Record the voter. With set-if-absent the write itself decides,
	// so two racing requests for one identity cannot both pass.
	if s.cond != nil {
		stored, err := s.cond.SetIfAbsent(ctx, voterKey, req.CandidateID)
		if err != nil {
			return nil, storeError("record voter", err)
		}
		if !stored {
			return nil, domain.ErrAlreadyVoted
		}
	} else {
		if err := s.store.Set(ctx, voterKey, req.CandidateID); err != nil {
			return nil, storeError("record voter", err)
		}
	}

	// 6. Count the vote
	n, err := s.store.IncrementAndGet(ctx, domain.VoteCounterKey(req.CandidateID))
	if err != nil {
		return nil, storeError("increment counter", err)
	}

	ev := domain.NewEvent(domain.EventVoteRecorded, session.ID)
	ev.CandidateID = req.CandidateID
	ev.Count = n
	s.notify(ctx, ev)

	return &SubmitVoteResponse{
		SessionID:   session.ID,
		CandidateID: req.CandidateID,
		Votes:       n,
	}, nil
}

// GetResults returns the tally of the current session. Without a session
// it returns an empty tally, not an error.
func (s *VotingService) GetResults(ctx context.Context) (*domain.Results, error) {
	session, err := s.loadSession(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.EmptyResults(), nil
		}
		return nil, err
	}

	counts := make(map[string]int64, len(session.Candidates))
	for _, c := range session.Candidates {
		n, err := s.readCounter(ctx, domain.VoteCounterKey(c.ID))
		if err != nil {
			return nil, err
		}
		counts[c.ID] = n
	}
	return domain.NewResults(session, counts), nil
}

// ============================================================================
// Legacy demo counters
// ============================================================================

// CastDemoVote increments the legacy demo counter of option.
func (s *VotingService) CastDemoVote(ctx context.Context, option string) (int64, error) {
	if !isDemoOption(option) {
		return 0, domain.ErrInvalidInput.WithDetails("invalid option")
	}
	n, err := s.store.IncrementAndGet(ctx, domain.DemoCounterKey(option))
	if err != nil {
		return 0, storeError("increment demo counter", err)
	}
	return n, nil
}

// DemoTally returns every legacy demo counter; missing counters are zero.
func (s *VotingService) DemoTally(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(DemoOptions))
	for _, o := range DemoOptions {
		n, err := s.readCounter(ctx, domain.DemoCounterKey(o))
		if err != nil {
			return nil, err
		}
		out[o] = n
	}
	return out, nil
}

func isDemoOption(option string) bool {
	for _, o := range DemoOptions {
		if o == option {
			return true
		}
	}
	return false
}

// ============================================================================
// Helpers
// ============================================================================

func (s *VotingService) loadSession(ctx context.Context) (*domain.VotingSession, error) {
	raw, found, err := s.store.Get(ctx, domain.KeyCurrentSession)
	if err != nil {
		return nil, storeError("get session", err)
	}
	if !found {
		return nil, domain.ErrSessionNotFound
	}

	var session domain.VotingSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, storeError("decode session", err)
	}
	return &session, nil
}

func (s *VotingService) saveSession(ctx context.Context, session *domain.VotingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	if err := s.store.Set(ctx, domain.KeyCurrentSession, string(data)); err != nil {
		return storeError("save session", err)
	}
	return nil
}

func (s *VotingService) readCounter(ctx context.Context, key string) (int64, error) {
	raw, found, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, storeError("get "+key, err)
	}
	if !found {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, storeError(fmt.Sprintf("parse %s", key), err)
	}
	return n, nil
}

func (s *VotingService) notify(ctx context.Context, ev domain.Event) {
	if s.listener != nil {
		s.listener.OnEvent(ctx, ev)
	}
}

func storeError(op string, err error) error {
	return domain.ErrStoreUnavailable.WithDetails(op).WithCause(err)
}
