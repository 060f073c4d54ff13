package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds a single frame write so one stalled client cannot
// block a job's delivery goroutine forever.
const writeTimeout = 10 * time.Second

// wsTransport adapts a *websocket.Conn to the hub's Transport.
type wsTransport struct {
	conn *websocket.Conn
}

// NewTransport wraps an accepted websocket connection.
func NewTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(reason string) error {
	return t.conn.Close(websocket.StatusNormalClosure, reason)
}
