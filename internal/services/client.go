package services

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
)

// Client represents a single viewer WebSocket connection with its own send goroutine
type Client struct {
	id        string
	conn      Conn
	send      chan []byte
	hub       *Hub
	sessionID string

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new viewer client instance
func NewClient(conn Conn, hub *Hub, sessionID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, config.ClientSendBufferSize),
		hub:       hub,
		sessionID: sessionID,
		lastReset: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Start begins the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the client has shut down.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Client) log() *logrus.Entry {
	return logger.Session(c.sessionID).WithField("viewer", c.id)
}

// writePump handles outgoing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed, connection is closing
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				c.log().WithError(err).Warn("❌ Write error")
				c.hub.metrics.IncrementBroadcastErrors()
				return
			}
			c.hub.metrics.IncrementMessagesSent()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				c.log().WithError(err).Warn("❌ Ping error")
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump drains the viewer side of the connection. Viewers have nothing to
// say; reading keeps control frames flowing and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	for {
		// No read deadline: viewers stay silent, and dead peers are caught
		// by the ping in writePump.
		_, _, err := c.conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && c.ctx.Err() == nil {
				c.log().WithError(err).Debug("Viewer read ended")
			}
			return
		}

		if !c.checkRateLimit() {
			c.log().Warn("⚠️  Rate limit exceeded")
			c.hub.metrics.IncrementRateLimitViolations()

			c.hub.SendToClient(c, &models.WSMessage{
				Type: models.MsgTypeError,
				Payload: map[string]string{
					"message": "Rate limit exceeded. Please slow down.",
				},
			})
		}
	}
}

// checkRateLimit verifies the client hasn't exceeded message rate limits
func (c *Client) checkRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for sending to the client
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel full, client is too slow
		c.log().Warn("⚠️  Send buffer full, closing slow viewer")
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
