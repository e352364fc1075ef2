package domain

import "time"

// EventType names a state change of the voting session.
type EventType string

// Event types published on every transition and recorded vote.
const (
	EventSessionCreated EventType = "session.created"
	EventSessionStarted EventType = "session.started"
	EventSessionStopped EventType = "session.stopped"
	EventSessionDeleted EventType = "session.deleted"
	EventVoteRecorded   EventType = "vote.recorded"
)

// Event describes a change observed by the voting service.
// Voter identities are never part of an event.
type Event struct {
	Type        EventType `json:"type"`
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id,omitempty"`
	Count       int64     `json:"count,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType, sessionID string) Event {
	return Event{Type: t, SessionID: sessionID, OccurredAt: time.Now().UTC()}
}
