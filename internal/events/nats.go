package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes events to a NATS subject per editor
// ("whiteroom.events.<editorId>"), so an external sink can subscribe
// per-document or with a wildcard. Grounded on the pack's
// PerplexedSphex-binrun manifest (github.com/nats-io/nats.go).
type NATSBus struct {
	conn          *nats.Conn
	subjectPrefix string
	onError       func(error)
}

// NewNATSBus connects to url and returns a Bus. onError, if non-nil, is
// invoked for publish failures (the engine never blocks or fails on a
// sink error per spec.md §5 — publish is best-effort).
func NewNATSBus(url, subjectPrefix string, onError func(error)) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	if subjectPrefix == "" {
		subjectPrefix = "whiteroom.events"
	}
	return &NATSBus{conn: conn, subjectPrefix: subjectPrefix, onError: onError}, nil
}

// Publish marshals ev and publishes it to "<prefix>.<editorId>".
func (b *NATSBus) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.reportError(fmt.Errorf("marshal event: %w", err))
		return
	}
	subject := fmt.Sprintf("%s.%s", b.subjectPrefix, ev.EditorID)
	if err := b.conn.Publish(subject, data); err != nil {
		b.reportError(fmt.Errorf("publish event: %w", err))
	}
}

func (b *NATSBus) reportError(err error) {
	if b.onError != nil {
		b.onError(err)
	}
}

// Close closes the underlying connection; it does not drain it first.
func (b *NATSBus) Close() {
	b.conn.Close()
}
