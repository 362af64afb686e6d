// Package user defines the account record shared by every auth flow.
//
// It owns input normalization (trimmed names, lowercased emails), the role
// enum, and the rule that a password hash only changes when a new plaintext
// is set.
package user
