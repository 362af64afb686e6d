// Package storage defines persistence contracts for user accounts.
//
// Handlers and services depend on these interfaces so the SQLite and Postgres
// backends stay interchangeable. Email uniqueness is the store's job: both
// backends enforce it with a unique index and report ErrEmailTaken.
package storage
