package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// ConnectionFrame is sent once, immediately after a successful upgrade
// handshake, carrying the server-assigned sessionId.
type ConnectionFrame struct {
	Type      FrameType `json:"type"`
	SessionID string    `json:"sessionId"`
	Timestamp int64     `json:"timestamp"`
}

// NewConnectionFrame builds a ConnectionFrame for sessionID at now.
func NewConnectionFrame(sessionID string, timestamp int64) ConnectionFrame {
	return ConnectionFrame{Type: FrameConnection, SessionID: sessionID, Timestamp: timestamp}
}

// OperationPayload is the payload of an inbound "operation" frame.
type OperationPayload struct {
	DocumentID string          `json:"documentId"`
	Operation  model.Operation `json:"operation"`
	Version    int             `json:"version"`
}

// SubscriptionPayload is the payload of "subscribe"/"unsubscribe" frames.
type SubscriptionPayload struct {
	DocumentID string `json:"documentId"`
}

// InboundFrame is a raw inbound client frame, decoded in two passes:
// the envelope first, then payload re-decoded per Type once it's known.
type InboundFrame struct {
	Type      FrameType       `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Validate enforces the envelope-level rules spec.md §4.7 names:
// non-empty type and sessionId. Payload shape is validated by the
// caller once it knows which concrete payload to decode.
func (f InboundFrame) Validate() error {
	if f.Type == "" {
		return fmt.Errorf("%w: frame missing type", model.ErrInvalidMessage)
	}
	if f.SessionID == "" {
		return fmt.Errorf("%w: frame missing sessionId", model.ErrInvalidMessage)
	}
	return nil
}

// DecodeOperationPayload parses f.Payload as an OperationPayload and
// validates its required fields (documentId, operation, version >= 1).
func (f InboundFrame) DecodeOperationPayload() (OperationPayload, error) {
	var p OperationPayload
	if len(f.Payload) == 0 {
		return p, fmt.Errorf("%w: operation frame missing payload", model.ErrInvalidMessage)
	}
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return p, fmt.Errorf("%w: malformed operation payload: %v", model.ErrInvalidMessage, err)
	}
	if p.DocumentID == "" {
		return p, fmt.Errorf("%w: operation payload missing documentId", model.ErrInvalidMessage)
	}
	if p.Operation.Type == "" {
		return p, fmt.Errorf("%w: operation payload missing operation", model.ErrInvalidMessage)
	}
	if p.Version < 1 {
		return p, fmt.Errorf("%w: operation payload version must be >= 1, got %d", model.ErrInvalidMessage, p.Version)
	}
	return p, nil
}

// DecodeSubscriptionPayload parses f.Payload as a SubscriptionPayload.
func (f InboundFrame) DecodeSubscriptionPayload() (SubscriptionPayload, error) {
	var p SubscriptionPayload
	if len(f.Payload) == 0 {
		return p, fmt.Errorf("%w: subscribe frame missing payload", model.ErrInvalidMessage)
	}
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return p, fmt.Errorf("%w: malformed subscription payload: %v", model.ErrInvalidMessage, err)
	}
	if p.DocumentID == "" {
		return p, fmt.Errorf("%w: subscription payload missing documentId", model.ErrInvalidMessage)
	}
	return p, nil
}

// BroadcastFrame is the outbound frame fanned out to subscribers of a
// document: either a transformed operation, or a general notification.
type BroadcastFrame struct {
	Type             FrameType `json:"type"`
	DocumentID       string    `json:"documentId"`
	Data             any       `json:"data"`
	ExcludeSessionID string    `json:"excludeSessionId,omitempty"`
	Timestamp        int64     `json:"timestamp"`
}

// NewOperationBroadcast wraps a transformed operation for fan-out,
// excluding the sender's own session.
func NewOperationBroadcast(documentID string, data any, excludeSessionID string, timestamp int64) BroadcastFrame {
	return BroadcastFrame{
		Type:             FrameOperation,
		DocumentID:       documentID,
		Data:             data,
		ExcludeSessionID: excludeSessionID,
		Timestamp:        timestamp,
	}
}

// NewNotificationBroadcast wraps an arbitrary notification payload
// (remote user joined/left, cursor update) for fan-out to every
// subscriber of a document with no exclusion.
func NewNotificationBroadcast(documentID string, data any, timestamp int64) BroadcastFrame {
	return BroadcastFrame{
		Type:       FrameNotification,
		DocumentID: documentID,
		Data:       data,
		Timestamp:  timestamp,
	}
}

// HeartbeatFrame is sent by the server on each liveness tick and may
// also be sent by a client to mark itself alive between ticks.
type HeartbeatFrame struct {
	Type      FrameType `json:"type"`
	Timestamp int64     `json:"timestamp"`
}

func NewHeartbeatFrame(timestamp int64) HeartbeatFrame {
	return HeartbeatFrame{Type: FrameHeartbeat, Timestamp: timestamp}
}
