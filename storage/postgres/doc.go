// Package postgres provides a PostgreSQL implementation of the storage
// interfaces backed by a pgx connection pool. Schema migrations are embedded
// in the binary and applied with golang-migrate.
package postgres
