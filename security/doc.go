// Package security provides the defensive middleware primitives for the
// listings API: per-client fixed-window rate limiting, single-use CSRF
// tokens, input sanitization and validation, client IP derivation, secure
// response headers, request IDs, and audit logging.
package security
