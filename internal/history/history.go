// Package history implements OperationHistory: an append-only log of
// operations plus a monotonic version counter.
package history

import (
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// Snapshot is a deep-copied capture of the history at a point in time.
type Snapshot struct {
	Operations []model.Operation
	Version    int
	Timestamp  time.Time
}

// History is an append-only vector of operations plus a version
// counter. It is not safe for concurrent use on its own — callers
// (internal/engine) serialize access per editor.
type History struct {
	operations []model.Operation
	version    int
}

// New returns an empty history at version 0.
func New() *History {
	return &History{}
}

// Version returns the current version: the count of applied operations.
func (h *History) Version() int {
	return h.version
}

// Append pushes op and advances the version counter. The caller must
// have already validated op.Version == h.Version() before calling —
// History does not re-check (spec.md §4.2).
func (h *History) Append(op model.Operation) {
	h.operations = append(h.operations, op)
	if op.Version+1 > h.version {
		h.version = op.Version + 1
	}
}

// SinceVersion returns operations with Version >= v, in history order.
func (h *History) SinceVersion(v int) []model.Operation {
	out := make([]model.Operation, 0)
	for _, op := range h.operations {
		if op.Version >= v {
			out = append(out, op)
		}
	}
	return out
}

// Between returns operations with Version in [a,b).
func (h *History) Between(a, b int) []model.Operation {
	out := make([]model.Operation, 0)
	for _, op := range h.operations {
		if op.Version >= a && op.Version < b {
			out = append(out, op)
		}
	}
	return out
}

// ByClient returns operations authored by clientID, in history order.
func (h *History) ByClient(clientID string) []model.Operation {
	out := make([]model.Operation, 0)
	for _, op := range h.operations {
		if op.ClientID == clientID {
			out = append(out, op)
		}
	}
	return out
}

// Snapshot returns a deep-copied view of the full log.
func (h *History) Snapshot() Snapshot {
	ops := make([]model.Operation, len(h.operations))
	copy(ops, h.operations)
	return Snapshot{
		Operations: ops,
		Version:    h.version,
		Timestamp:  time.Now(),
	}
}

// Rebase retains operations with Version < fromVersion, appends newOps,
// and sets the version counter to toVersion. Intended for recovery
// after server-authoritative reordering (spec.md §4.2).
func (h *History) Rebase(fromVersion, toVersion int, newOps []model.Operation) {
	retained := make([]model.Operation, 0, len(h.operations)+len(newOps))
	for _, op := range h.operations {
		if op.Version < fromVersion {
			retained = append(retained, op)
		}
	}
	retained = append(retained, newOps...)
	h.operations = retained
	h.version = toVersion
}

// Clear resets the history to empty, version 0.
func (h *History) Clear() {
	h.operations = nil
	h.version = 0
}
