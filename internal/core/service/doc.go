// Package service provides domain services for QuickVote.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - VotingService: session lifecycle, vote admission and tallies
//   - KVStore: the key-value contract every storage backend implements
//
// VotingService keeps no in-process state and takes no locks; all
// coordination between concurrent requests happens in the store.
package service
