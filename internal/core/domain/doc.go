// Package domain defines the core domain models for QuickVote.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - VotingSession: the single live poll and its candidates
//   - Results: the aggregated tally with percentages
//   - Event: session transitions and recorded votes
//   - Keys: the store key layout shared by every backend
//   - Errors: domain-specific error definitions
package domain
