// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between the HTTP surface and the
// storage layer and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Scan caps the wall-clock budget for a full paginated node scan. A scan
// that exceeds it is aborted; no partial result is returned.
const Scan = 5 * time.Second

// JWKSRefresh sets how often cached signing keys are refreshed from the
// identity provider.
const JWKSRefresh = time.Hour
