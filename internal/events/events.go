// Package events defines the domain-event records the engine emits and
// the EventBus collaborator spec.md treats as external ("an EventBus
// that receives domain-event records"). Two concrete implementations
// are provided: an in-memory bus for tests and standalone operation,
// and a NATS-backed bus for production fan-out to external sinks.
package events

import "time"

// Kind names the event types the engine emits.
type Kind string

const (
	KindOperationApplied       Kind = "operation.applied"
	KindOperationBatchReceived Kind = "operation.batch_received"
	KindOperationConflict      Kind = "operation.conflict"
	KindRemoteUserConnected    Kind = "remote_user.connected"
	KindRemoteUserDisconnected Kind = "remote_user.disconnected"
	KindCursorUpdated          Kind = "cursor.updated"
)

// Event is a primitive-payload domain event. Per spec.md §9 ("Cyclic
// references"), payloads carry only primitive values and IDs — never
// back-pointers into engine state.
type Event struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	EditorID  string         `json:"editorId"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Bus is the collaborator the engine publishes events to. Publish must
// not block the caller for long — implementations that talk to a
// remote broker should buffer or drop under backpressure rather than
// stall the editor's serialized mutation path.
type Bus interface {
	Publish(Event)
}

// NopBus discards every event. Useful as a zero-value-safe default.
type NopBus struct{}

func (NopBus) Publish(Event) {}
