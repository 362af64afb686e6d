// Package sqlite provides SQLite-backed account persistence.
//
// It is the default store: a single file holds users and pending OAuth
// state. Writes go through one connection so the unique email index is the
// only arbiter of concurrent registrations.
package sqlite
