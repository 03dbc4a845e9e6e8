// Package server provides the HTTP server for the envelope relay.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// The package includes the common infrastructure handlers (health, version)
// and wires the envelope handlers from internal/relay/handlers behind the
// bearer-token middleware.
//
// middleware is in internal/server/middleware
package server
