// Package postgres provides Postgres-backed account persistence.
//
// It is selected when DATABASE_URL carries a postgres:// or postgresql://
// scheme. Schema and behavior mirror the SQLite store; email uniqueness is
// enforced by a unique index on lower(email).
package postgres
