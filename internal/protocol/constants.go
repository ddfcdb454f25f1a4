// Package protocol defines the JSON wire schema exchanged over the
// collaboration WebSocket: inbound client frames, outbound broadcast
// frames, and the handshake/heartbeat/close conventions around them.
package protocol

import "time"

// FrameType names the tagged-union "type" field every frame carries.
type FrameType string

const (
	FrameConnection   FrameType = "connection"
	FrameOperation    FrameType = "operation"
	FrameHeartbeat    FrameType = "heartbeat"
	FrameSubscribe    FrameType = "subscribe"
	FrameUnsubscribe  FrameType = "unsubscribe"
	FrameNotification FrameType = "notification"
)

// HeartbeatInterval is the liveness tick period.
const HeartbeatInterval = 30 * time.Second

// Close codes and reasons (WebSocket status 1000, normal closure, with
// a reason string distinguishing why).
const (
	CloseCodeNormal = 1000

	CloseReasonHeartbeatTimeout = "Heartbeat timeout"
	CloseReasonServerShutdown   = "Server shutdown"
)
