package testutil

import (
	"context"
	"net"
	"sync"

	"github.com/coder/websocket"
)

type frame struct {
	typ  websocket.MessageType
	data []byte
}

// MockWSConn is an in-memory stand-in for *websocket.Conn. Writes are
// recorded; reads are served from frames queued with Push and block until
// one is available, the context ends or the connection closes.
type MockWSConn struct {
	mu          sync.RWMutex
	messages    [][]byte
	pings       int
	closed      bool
	closeStatus websocket.StatusCode
	closeReason string
	writeErr    error
	readErr     error

	inbox chan frame
	done  chan struct{}
}

func NewMockWSConn() *MockWSConn {
	return &MockWSConn{
		messages: make([][]byte, 0),
		inbox:    make(chan frame, 64),
		done:     make(chan struct{}),
	}
}

// Write records a message being sent
func (m *MockWSConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return net.ErrClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.messages = append(m.messages, dataCopy)
	return nil
}

// Read returns the next pushed frame
func (m *MockWSConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	m.mu.RLock()
	readErr := m.readErr
	m.mu.RUnlock()
	if readErr != nil {
		return 0, nil, readErr
	}

	select {
	case f := <-m.inbox:
		return f.typ, f.data, nil
	case <-m.done:
		return 0, nil, net.ErrClosed
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// Push queues a text frame for Read
func (m *MockWSConn) Push(data []byte) {
	m.inbox <- frame{typ: websocket.MessageText, data: data}
}

// PushBinary queues a binary frame for Read
func (m *MockWSConn) PushBinary(data []byte) {
	m.inbox <- frame{typ: websocket.MessageBinary, data: data}
}

func (m *MockWSConn) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return net.ErrClosed
	}
	m.pings++
	return nil
}

// Close marks the connection as closed and unblocks pending reads
func (m *MockWSConn) Close(status websocket.StatusCode, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.closeStatus = status
	m.closeReason = reason
	close(m.done)
	return nil
}

// ReceivedMessages returns all messages sent through this connection
func (m *MockWSConn) ReceivedMessages() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([][]byte, len(m.messages))
	for i, msg := range m.messages {
		msgCopy := make([]byte, len(msg))
		copy(msgCopy, msg)
		result[i] = msgCopy
	}
	return result
}

func (m *MockWSConn) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockWSConn) CloseStatus() websocket.StatusCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeStatus
}

// SetWriteErr sets an error to be returned on Write calls
func (m *MockWSConn) SetWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetReadErr sets an error to be returned on Read calls
func (m *MockWSConn) SetReadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}
