// Package timeouts defines shared timeout constants used across the service.
package timeouts

import "time"

// Transaction caps how long a multi-document write may wait for and hold
// the store's transactional isolation.
const Transaction = 5 * time.Second

// Geocode caps a single outbound geocoding request.
const Geocode = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
