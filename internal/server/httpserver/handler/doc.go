// Package handler provides the HTTP endpoints of the voting service.
//
// Every JSON response uses the Response envelope. Errors from the voting
// service are mapped to HTTP statuses by their QV-* code; the live results
// stream and /metrics are plain handlers mounted alongside.
package handler
