// Package storage defines interfaces for persisting property listings,
// collections, and administrative data. It supports multiple backend
// implementations including in-memory (development, tests) and PostgreSQL.
package storage
