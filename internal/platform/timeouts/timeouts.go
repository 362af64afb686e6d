// Package timeouts defines shared timeout constants used by the service.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the time a single HTTP request may spend in handlers.
const Request = 30 * time.Second

// Shutdown limits how long the servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 10 * time.Second

// StoreReconnect is the delay between database connection attempts.
const StoreReconnect = 5 * time.Second

// StorePing caps a single health ping against the database.
const StorePing = 2 * time.Second
