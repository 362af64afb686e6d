// Package account implements the credential flows of the user API:
// registration, password login, bearer authentication, self password change
// and the administrator operations over stored users.
//
// HTTP and OAuth adapters call into Service; none of them touch the store or
// the hasher directly.
package account
