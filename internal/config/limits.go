package config

import "time"

// WebSocket connection limits and constraints
const (
	// Connection limits
	MaxViewersPerSession = 50
	MaxLiveSessions      = 200

	// Rate limiting
	MaxMessagesPerSecond     = 10
	MaxBridgeEventsPerSecond = 200
	RateLimitWindow          = time.Second

	// Roster coalescing
	DefaultCoalesceWindow = 100 * time.Millisecond
	MaxCoalesceWindow     = 5 * time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second
	PongTimeout  = 20 * time.Second // Must stay below PingInterval

	// Channel buffers
	ClientSendBufferSize    = 256
	HubBroadcastBufferSize  = 256
	HubRegisterBufferSize   = 100
	HubUnregisterBufferSize = 100

	// Bridge payloads
	MaxBridgeMessageBytes = 1 << 20
	MaxSnapshotSize       = 500
)
