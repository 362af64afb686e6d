// Package server composes and runs the user API process.
//
// It opens the configured store, wires the account and OAuth services into the
// REST handler, and optionally exposes a gRPC health endpoint for probes.
package server
