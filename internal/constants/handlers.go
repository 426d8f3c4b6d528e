// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Handler pagination constants
const (
	// DefaultRecordLimit is the page size for attendance listings
	DefaultRecordLimit = 100

	// MaxRecordLimit caps the limit a client may request
	MaxRecordLimit = 1000
)

// Websocket constants
const (
	// HubBroadcastBuffer is the buffer size for the hub broadcast channel
	HubBroadcastBuffer = 16
)

// Server constants
const (
	// ShutdownTimeout bounds how long in-flight requests may take to drain
	ShutdownTimeout = 30 * time.Second
)
