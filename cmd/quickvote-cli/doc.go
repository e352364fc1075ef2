// Package main provides the entry point for quickvote-cli.
//
// quickvote-cli manages the voting session, casts votes, reads results and
// generates load against a quickvote-server deployment.
//
// Usage:
//
//	quickvote-cli --server localhost:5000 results
//	quickvote-cli -p admin123 session create --title "Lunch?" -c pizza=Pizza -c sushi=Sushi
//	quickvote-cli bench --workers 50 --duration 10s
package main
