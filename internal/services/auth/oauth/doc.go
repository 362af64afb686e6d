// Package oauth signs users in through Google's authorization-code flow.
//
// Bridge.Start records a one-time state with a PKCE verifier and returns the
// provider URL; Bridge.Complete consumes that state, exchanges the code,
// reads the OpenID userinfo profile and maps it onto a local account by
// email before issuing the same bearer token a password login would.
package oauth
