// Package connection is the HTTP client quickvote-cli uses to reach a
// server. It unwraps the response envelope and turns error envelopes
// into *APIError values.
package connection
