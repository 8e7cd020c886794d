package services

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/security"
)

// BridgeSource reads meeting events from the SDK bridge socket. It is the
// MeetingSource used in production.
type BridgeSource struct {
	id      string
	conn    Conn
	decoder *EventDecoder
	limiter *security.RateLimiter
	metrics *Metrics
}

func NewBridgeSource(conn Conn, decoder *EventDecoder, limiter *security.RateLimiter, metrics *Metrics) *BridgeSource {
	return &BridgeSource{
		id:      uuid.NewString(),
		conn:    conn,
		decoder: decoder,
		limiter: limiter,
		metrics: metrics,
	}
}

func (b *BridgeSource) ID() string {
	return b.id
}

// Next blocks for the next bridge message. Binary frames come back as
// ErrMalformedEvent so the caller can skip them. The rate limit applies to
// speaker and video notifications only; joins, leaves and snapshots always
// pass, since dropping one would leave the roster wrong until the next
// snapshot.
func (b *BridgeSource) Next(ctx context.Context) (models.MeetingEvent, error) {
	typ, data, err := b.conn.Read(ctx)
	if err != nil {
		return models.MeetingEvent{}, err
	}

	if typ != websocket.MessageText {
		return models.MeetingEvent{}, fmt.Errorf("%w: expected text frame", ErrMalformedEvent)
	}

	ev, err := b.decoder.Decode(data)
	if err != nil {
		return models.MeetingEvent{}, err
	}

	if rateLimited(ev.Kind) && b.limiter != nil && !b.limiter.Allow(b.id) {
		b.metrics.IncrementRateLimitViolations()
		return models.MeetingEvent{}, fmt.Errorf("%w: bridge rate limit exceeded for %s", ErrMalformedEvent, ev.Kind)
	}
	return ev, nil
}

func rateLimited(kind models.EventKind) bool {
	return kind == models.EventActiveSpeaker || kind == models.EventVideoUpdate
}

// Close releases the rate limiter slot and closes the socket.
func (b *BridgeSource) Close() {
	if b.limiter != nil {
		b.limiter.Remove(b.id)
	}
	_ = b.conn.Close(websocket.StatusNormalClosure, "")
}
