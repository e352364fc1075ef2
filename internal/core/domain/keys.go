package domain

// Store key layout shared by every backend.
const (
	// KeyCurrentSession holds the JSON-encoded VotingSession.
	KeyCurrentSession = "voting:current"

	// VoteCounterPrefix prefixes per-candidate integer counters.
	VoteCounterPrefix = "votes:"

	// VoterKeyPrefix prefixes per-identity dedup records.
	VoterKeyPrefix = "voter:"

	// DemoCounterPrefix prefixes the legacy demo counters.
	DemoCounterPrefix = "demo:"
)

// VoteCounterKey returns the counter key of a candidate.
func VoteCounterKey(candidateID string) string {
	return VoteCounterPrefix + candidateID
}

// VoterKey returns the dedup record key of an identity.
func VoterKey(identity string) string {
	return VoterKeyPrefix + identity
}

// DemoCounterKey returns the legacy demo counter key of an option.
func DemoCounterKey(option string) string {
	return DemoCounterPrefix + option
}
