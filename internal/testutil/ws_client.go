package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/damione1/recording-view/internal/models"
)

// WSClient is a real websocket client for tests against a running server.
// It records every text frame it receives.
type WSClient struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	frames [][]byte
	err    error
}

// DialWS connects to url and starts receiving in the background. The
// connection is closed when the test ends.
func DialWS(t testing.TB, url string) *WSClient {
	t.Helper()

	c, err := TryDialWS(url)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", url, err)
	}
	t.Cleanup(c.Close)
	return c
}

// TryDialWS connects to url and returns the handshake error, with the HTTP
// status when the server refused the upgrade.
func TryDialWS(url string) (*WSClient, error) {
	dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &WSClient{
		conn:   conn,
		ctx:    ctx,
		cancel: stop,
	}
	go c.receiveMessages()
	return c, nil
}

func (c *WSClient) receiveMessages() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.frames = append(c.frames, data)
		c.mu.Unlock()
	}
}

// Send writes data as a text frame.
func (c *WSClient) Send(data []byte) error {
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Messages returns every received frame decoded as a WSMessage.
func (c *WSClient) Messages() []models.WSMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.WSMessage, 0, len(c.frames))
	for _, f := range c.frames {
		var msg models.WSMessage
		if err := json.Unmarshal(f, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

// LayoutUpdates returns the payloads of the layout_update messages received
// so far, in arrival order.
func (c *WSClient) LayoutUpdates() []models.LayoutUpdate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.LayoutUpdate
	for _, f := range c.frames {
		var msg struct {
			Type    string              `json:"type"`
			Payload models.LayoutUpdate `json:"payload"`
		}
		if err := json.Unmarshal(f, &msg); err != nil || msg.Type != models.MsgTypeLayoutUpdate {
			continue
		}
		out = append(out, msg.Payload)
	}
	return out
}

// WaitForLayout polls until a received layout update satisfies match.
func (c *WSClient) WaitForLayout(match func(models.LayoutUpdate) bool, timeout time.Duration) (models.LayoutUpdate, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, u := range c.LayoutUpdates() {
			if match(u) {
				return u, true
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return models.LayoutUpdate{}, false
}

// WaitForClose waits until the server ends the connection and returns the
// close status it sent.
func (c *WSClient) WaitForClose(timeout time.Duration) (websocket.StatusCode, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.RLock()
		err := c.err
		c.mu.RUnlock()
		if err != nil {
			return websocket.CloseStatus(err), true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return -1, false
}

// Close closes the connection.
func (c *WSClient) Close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	c.cancel()
}
