// Package auth is the user account boundary: registration, sign-in, and
// administration of the people allowed to use the platform.
//
// Subpackages:
//   - app: server wiring and lifecycle
//   - api/http: REST handlers, middleware and response envelopes
//   - account: credential and administration use cases
//   - oauth: Google sign-in with PKCE and single-use state
//   - password, token: bcrypt hashing and signed bearer tokens
//   - storage: persistence contracts with SQLite and Postgres backends
//   - user: user domain model and validation
package auth
