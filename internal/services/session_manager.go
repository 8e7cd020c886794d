package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
)

// SessionLookup is the part of the session store the manager needs.
type SessionLookup interface {
	GetSession(id string) (*models.RecordingSession, error)
	SaveLayout(id string, assignment models.Assignment) error
}

// LayoutBroadcaster fans layout updates out to viewers.
type LayoutBroadcaster interface {
	BroadcastToSession(sessionID string, message *models.WSMessage)
}

// SessionManager owns the live sessions. A session is opened the first time
// a bridge or viewer connects to it and lives until Close.
type SessionManager struct {
	store       SessionLookup
	broadcaster LayoutBroadcaster
	metrics     *Metrics
	window      time.Duration

	mu   sync.Mutex
	live map[string]*Session
}

func NewSessionManager(store SessionLookup, broadcaster LayoutBroadcaster, metrics *Metrics, window time.Duration) *SessionManager {
	return &SessionManager{
		store:       store,
		broadcaster: broadcaster,
		metrics:     metrics,
		window:      window,
		live:        make(map[string]*Session),
	}
}

// Open returns the live session for id, starting it if needed. The session
// must exist in the store.
func (sm *SessionManager) Open(id string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.live[id]; ok {
		return s, nil
	}

	if _, err := sm.store.GetSession(id); err != nil {
		return nil, err
	}

	if len(sm.live) >= config.MaxLiveSessions {
		return nil, ErrTooManySessions
	}

	s := NewSession(id, sm.window, sm.metrics, func(update models.LayoutUpdate, previous models.Assignment) {
		sm.publish(id, update, previous)
	})
	sm.live[id] = s
	sm.metrics.IncrementSessions()

	logger.Session(id).WithField("window", sm.window).Info("✓ Live session opened")
	return s, nil
}

// Live returns the live session for id, if one is open.
func (sm *SessionManager) Live(id string) (*Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.live[id]
	return s, ok
}

// Close stops the live session for id. It reports whether one was open.
func (sm *SessionManager) Close(id string) bool {
	sm.mu.Lock()
	s, ok := sm.live[id]
	delete(sm.live, id)
	sm.mu.Unlock()

	if !ok {
		return false
	}

	s.Close()
	sm.metrics.DecrementSessions()
	logger.Session(id).Info("Live session closed")
	return true
}

// CloseAll stops every live session.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	ids := make([]string, 0, len(sm.live))
	for id := range sm.live {
		ids = append(ids, id)
	}
	sm.mu.Unlock()

	for _, id := range ids {
		sm.Close(id)
	}
}

// LiveCount returns the number of open sessions.
func (sm *SessionManager) LiveCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.live)
}

// LayoutMessage wraps an update for the viewer socket.
func LayoutMessage(sessionID string, update models.LayoutUpdate) *models.WSMessage {
	return &models.WSMessage{
		Type:      models.MsgTypeLayoutUpdate,
		SessionID: sessionID,
		Payload:   update,
	}
}

func (sm *SessionManager) publish(id string, update models.LayoutUpdate, previous models.Assignment) {
	sm.broadcaster.BroadcastToSession(id, LayoutMessage(id, update))

	current := update.Assignment
	if current.Template == previous.Template && current.Placed() == previous.Placed() {
		return
	}

	if current.Template != previous.Template {
		sm.metrics.IncrementTemplateChanges()
		logger.Session(id).WithFields(logrus.Fields{
			"from": previous.Template,
			"to":   current.Template,
		}).Info("🔀 Layout template changed")
	}

	if err := sm.store.SaveLayout(id, current); err != nil {
		sm.metrics.IncrementStoreErrors()
		logger.Session(id).WithError(err).Error("Failed to persist layout")
	}
}
