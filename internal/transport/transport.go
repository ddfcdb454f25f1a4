// Package transport wraps nhooyr.io/websocket into the frame
// read/write primitives the session fabric needs, adapting the
// teacher's pkg/server/connection.go send/read-loop shape to this
// project's JSON frame schema (internal/protocol) instead of Rustpad's.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/catalyst-ai-dev/white-room/internal/protocol"
)

// ReadTimeout bounds a single inbound frame read, matching the
// teacher's 30s per-read timeout.
const ReadTimeout = 30 * time.Second

// WriteTimeout bounds a single outbound frame write.
const WriteTimeout = 10 * time.Second

// Conn wraps a single upgraded WebSocket connection. Writes are
// serialized with sendMu since multiple goroutines (the read loop and
// the fan-out broadcaster) may write concurrently.
type Conn struct {
	ws     *websocket.Conn
	sendMu sync.Mutex
}

// New wraps an already-upgraded websocket.Conn.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadFrame blocks for the next inbound frame, bounded by ReadTimeout
// derived from ctx.
func (c *Conn) ReadFrame(ctx context.Context) (protocol.InboundFrame, error) {
	readCtx, cancel := context.WithTimeout(ctx, ReadTimeout)
	defer cancel()

	var frame protocol.InboundFrame
	if err := wsjson.Read(readCtx, c.ws, &frame); err != nil {
		return protocol.InboundFrame{}, err
	}
	return frame, nil
}

// WriteJSON marshals and writes v as a single text frame, serialized
// against concurrent writers.
func (c *Conn) WriteJSON(ctx context.Context, v any) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return c.ws.Write(writeCtx, websocket.MessageText, data)
}

// Close closes the connection with code and reason.
func (c *Conn) Close(code int, reason string) error {
	return c.ws.Close(websocket.StatusCode(code), reason)
}

// IsNormalClosure reports whether err represents the peer closing
// normally (vs. a read/network error worth logging).
func IsNormalClosure(err error) bool {
	return websocket.CloseStatus(err) == websocket.StatusNormalClosure
}
