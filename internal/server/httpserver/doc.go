// Package httpserver provides the HTTP/HTTPS server of the voting service.
//
// NewRouter assembles the handler package behind the middleware chain
// Recover, RequestID, CORS, RateLimit and AccessLog. Session management
// routes additionally pass AdminAuth. Server owns the listener and
// serves TLS from a reloadable key pair.
package httpserver
