// Package relay contains the domain types for the opaque-envelope relay.
//
// **envelopes**
// An envelope is one opaque ciphertext blob plus routing metadata. The relay
// never parses or authenticates envelope content - the recipient id is a
// routing tag, the sender id is display-only, and the ciphertext is opaque.
// Envelopes are immutable after creation except for the single pending→acked
// transition, which happens at most once.
//
// **store**
// EnvelopeStore is the persistence contract. Every operation maps to a single
// atomic SQL statement (see internal/store for the pgx implementation), which
// is what makes ack idempotent under concurrent retries and the sweeper safe
// to run from multiple instances.
//
// **error handling**
// RelayError carries a wire error code. Handlers pass errors to
// RespondWithErrorResponse, which maps the code to an HTTP status and a
// sanitized response body; raw store errors are logged server-side and never
// leave the process.
//
// **testing**
// The handlers are unit tested against an in-memory store fake; the SQL layer
// is covered by the integration tests in test/integration.
package relay
