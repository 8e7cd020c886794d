package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/damione1/recording-view/internal/layout"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/roster"
)

// MeetingSource delivers notifications from the conferencing SDK for one
// call. Next blocks until an event is available, ctx is done or the source
// fails. Errors wrapping ErrMalformedEvent are skipped by consumers; any
// other error ends consumption.
type MeetingSource interface {
	Next(ctx context.Context) (models.MeetingEvent, error)
}

// PublishFunc receives every recomputed layout together with the one it
// replaces.
type PublishFunc func(update models.LayoutUpdate, previous models.Assignment)

// Session is the live layout state of one recording session: the roster
// tracker, the active speaker and the assignment derived from both.
type Session struct {
	id      string
	tracker *roster.Tracker
	metrics *Metrics
	publish PublishFunc

	// Serializes recompute+publish so updates go out in version order
	publishMu sync.Mutex

	mu            sync.RWMutex
	roster        roster.Roster
	activeSpeaker string
	current       models.Assignment
	version       uint64
	closed        bool

	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// NewSession starts live state for sessionID. Roster changes are coalesced
// over window; publish is called after every recomputation.
func NewSession(sessionID string, window time.Duration, metrics *Metrics, publish PublishFunc) *Session {
	s := &Session{
		id:      sessionID,
		tracker: roster.NewTracker(window),
		metrics: metrics,
		publish: publish,
		roster:  roster.New(nil),
		current: layout.Select(nil, ""),
		done:    make(chan struct{}),
	}
	s.unsubscribe = s.tracker.Subscribe(s.onRoster)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) log() *logrus.Entry {
	return logger.Session(s.id)
}

// Apply routes one meeting event to the tracker or the speaker state.
func (s *Session) Apply(ev models.MeetingEvent) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	s.metrics.IncrementEventsReceived()

	switch ev.Kind {
	case models.EventSnapshot:
		s.tracker.Initialize(ev.Participants)
	case models.EventJoined:
		s.tracker.OnJoin(ev.Participant)
	case models.EventLeft:
		s.tracker.OnLeave(ev.ParticipantID)
	case models.EventVideoUpdate:
		s.tracker.OnVideoUpdate(ev.ParticipantID, ev.VideoReady)
	case models.EventActiveSpeaker:
		s.SetActiveSpeaker(ev.ParticipantID)
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrMalformedEvent, ev.Kind)
	}
	return nil
}

// Consume applies events from src until ctx is done, src fails or the
// session is closed. Malformed events are logged and skipped. Closing the
// session cancels the context passed to src.Next and Consume returns
// ErrSessionClosed.
func (s *Session) Consume(ctx context.Context, src MeetingSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if s.isClosed() {
				return ErrSessionClosed
			}
			if errors.Is(err, ErrMalformedEvent) {
				s.metrics.IncrementMalformedEvents()
				s.log().WithError(err).Warn("⚠️  Dropping malformed bridge event")
				continue
			}
			return err
		}

		if err := s.Apply(ev); err != nil {
			if errors.Is(err, ErrSessionClosed) {
				return err
			}
			s.metrics.IncrementMalformedEvents()
			s.log().WithError(err).Warn("⚠️  Dropping bridge event")
		}
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// SetActiveSpeaker updates the speaker and recomputes the layout right away;
// speaker changes are not coalesced.
func (s *Session) SetActiveSpeaker(participantID string) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.closed || s.activeSpeaker == participantID {
		s.mu.Unlock()
		return
	}
	s.activeSpeaker = participantID
	update, previous := s.recomputeLocked()
	s.mu.Unlock()

	s.publish(update, previous)
}

func (s *Session) onRoster(r roster.Roster) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.metrics.IncrementRosterBatches()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.roster = r
	update, previous := s.recomputeLocked()
	s.mu.Unlock()

	s.log().WithFields(logrus.Fields{
		"participants": r.Len(),
		"template":     update.Assignment.Template,
	}).Debug("Roster batch applied")

	s.publish(update, previous)
}

func (s *Session) recomputeLocked() (models.LayoutUpdate, models.Assignment) {
	previous := s.current
	s.current = layout.Select(s.roster.Participants(), s.activeSpeaker)
	s.version++
	s.metrics.IncrementLayoutsComputed()
	return s.updateLocked(), previous
}

func (s *Session) updateLocked() models.LayoutUpdate {
	return models.LayoutUpdate{
		Assignment:    s.current,
		ActiveSpeaker: s.activeSpeaker,
		Version:       s.version,
	}
}

// Update returns the current layout.
func (s *Session) Update() models.LayoutUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateLocked()
}

// Roster returns the roster the current layout was computed from.
func (s *Session) Roster() roster.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Flush applies pending roster events immediately.
func (s *Session) Flush() {
	s.tracker.Flush()
}

// Close flushes pending events, publishes the final layout and stops the
// session. Further events are rejected with ErrSessionClosed and running
// Consume calls return.
func (s *Session) Close() {
	s.tracker.Close()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	s.closeOnce.Do(func() { close(s.done) })
}
