package services

import "errors"

var (
	// ErrMalformedEvent marks a bridge message that could not be decoded or
	// was over the rate limit. The connection stays open; the message is
	// dropped.
	ErrMalformedEvent = errors.New("malformed meeting event")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrTooManySessions = errors.New("too many live sessions")
)
