package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
)

// Conn is the subset of *websocket.Conn the hub and clients use.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

// Hub fans layout updates out to the viewers of each session.
type Hub struct {
	// Viewer connections: sessionId -> set of clients
	sessions map[string]map[*Client]bool

	// Broadcast message to session viewers
	broadcast chan *BroadcastMessage

	// Register viewer to session
	register chan *Registration

	// Unregister viewer from session
	unregister chan *Client

	metrics *Metrics

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

type Registration struct {
	Client *Client
	// Initial is evaluated once the client is registered, so the first
	// message a viewer gets is never older than a broadcast it missed.
	Initial func() *models.WSMessage
}

type BroadcastMessage struct {
	SessionID string
	Message   *models.WSMessage
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, config.HubBroadcastBufferSize),
		register:   make(chan *Registration, config.HubRegisterBufferSize),
		unregister: make(chan *Client, config.HubUnregisterBufferSize),
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case reg := <-h.register:
			h.registerClient(reg)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastToSession(msg)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(reg *Registration) {
	c := reg.Client

	h.mu.Lock()
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*Client]bool)
	}
	h.sessions[c.sessionID][c] = true
	total := len(h.sessions[c.sessionID])
	h.mu.Unlock()

	h.metrics.IncrementViewers()

	logger.Session(c.sessionID).WithFields(logrus.Fields{
		"viewer":  c.id,
		"viewers": total,
	}).Info("✓ Viewer registered")

	if reg.Initial != nil {
		if msg := reg.Initial(); msg != nil {
			h.SendToClient(c, msg)
		}
	}
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	if _, exists := clients[c]; !exists {
		return
	}

	delete(clients, c)
	h.metrics.DecrementViewers()

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
}

func (h *Hub) broadcastToSession(msg *BroadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[msg.SessionID]))
	for c := range h.sessions[msg.SessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		logger.Session(msg.SessionID).Debug("No viewers connected, skipping broadcast")
		return
	}

	data, err := json.Marshal(msg.Message)
	if err != nil {
		logger.Session(msg.SessionID).WithError(err).Error("Error marshaling message")
		return
	}

	logger.Session(msg.SessionID).WithFields(logrus.Fields{
		"type":    msg.Message.Type,
		"viewers": len(clients),
	}).Debug("📤 Broadcasting")

	for _, c := range clients {
		c.Send(data)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, clients := range sessions {
		for c := range clients {
			c.Close()
			h.metrics.DecrementViewers()
		}
	}
}

// BroadcastToSession queues message for every viewer of sessionID.
func (h *Hub) BroadcastToSession(sessionID string, message *models.WSMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{SessionID: sessionID, Message: message}:
	case <-h.done:
	}
}

// SendToClient delivers message to a single viewer.
func (h *Hub) SendToClient(c *Client, message *models.WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Session(c.sessionID).WithError(err).Error("Error marshaling message")
		return
	}
	c.Send(data)
}

// Register adds a viewer. initial, if set, produces the first message the
// viewer receives.
func (h *Hub) Register(c *Client, initial func() *models.WSMessage) {
	select {
	case <-h.done:
		c.Close()
		return
	default:
	}

	select {
	case h.register <- &Registration{Client: c, Initial: initial}:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ViewerCount returns the number of registered viewers of sessionID.
func (h *Hub) ViewerCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
