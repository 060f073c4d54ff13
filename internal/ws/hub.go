// Package ws tracks live persistent connections and pushes JSON
// envelopes to them.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafsight/internal/logger"
)

// ErrClosed is returned by Send when the target connection has been
// unregistered or its transport is no longer writable. Callers must
// treat it as a no-op, not a fatal condition.
var ErrClosed = errors.New("connection closed")

// Transport is the write side of one persistent channel. The hub owns
// it exclusively after Register.
type Transport interface {
	Write(ctx context.Context, data []byte) error
	Close(reason string) error
}

// connection is one live channel tracked by the hub.
type connection struct {
	id        string
	transport Transport

	mu     sync.Mutex // serializes writes and guards the fields below
	userID string
	closed bool
}

// Hub is the connection registry. It supports safe concurrent
// register/unregister/send/broadcast; a disconnect mid-broadcast never
// corrupts iteration because broadcasts snapshot the live set first.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*connection
	logger logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*connection),
		logger: log,
	}
}

// Register adds a transport and returns its connection ID. The identity
// stays unbound until BindIdentity.
func (h *Hub) Register(t Transport) string {
	id := uuid.NewString()

	h.mu.Lock()
	h.conns[id] = &connection{id: id, transport: t}
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		logger.String("conn_id", id))
	return id
}

// BindIdentity attaches an identity to a connection. Rebinding with a
// different identity overwrites the previous one.
func (h *Hub) BindIdentity(connID, userID string) error {
	c, ok := h.get(connID)
	if !ok {
		return ErrClosed
	}

	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()

	h.logger.Info("websocket client authenticated",
		logger.String("conn_id", connID),
		logger.String("user_id", userID))
	return nil
}

// Identity returns the identity bound to a connection, if any.
func (h *Hub) Identity(connID string) (string, bool) {
	c, ok := h.get(connID)
	if !ok {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.userID != ""
}

// Send marshals msg and writes it to one connection. Sending to an
// unknown or closed connection returns ErrClosed and does nothing else;
// a transport write failure closes the connection for future sends.
func (h *Hub) Send(ctx context.Context, connID string, msg Message) error {
	c, ok := h.get(connID)
	if !ok {
		return ErrClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.transport.Write(ctx, data); err != nil {
		c.closed = true
		h.logger.Debug("websocket write failed, marking connection closed",
			logger.String("conn_id", connID),
			logger.Error(err))
		return ErrClosed
	}
	return nil
}

// Broadcast sends msg to every live connection whose bound identity
// satisfies pred (a nil pred matches all). The live set is snapshotted
// at call time; failed sends are dropped silently.
func (h *Hub) Broadcast(ctx context.Context, msg Message, pred func(userID string) bool) {
	h.mu.RLock()
	snapshot := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		c.mu.Lock()
		userID := c.userID
		c.mu.Unlock()

		if pred != nil && !pred(userID) {
			continue
		}
		_ = h.Send(ctx, c.id, msg)
	}
}

// Unregister removes a connection. Subsequent sends to it return
// ErrClosed. Safe to call more than once.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()

	if !ok {
		return
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	h.logger.Info("websocket client disconnected",
		logger.String("conn_id", connID))
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) get(connID string) (*connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	return c, ok
}
