// Package cursortracker implements CursorTracker: a per-editor remote
// user registry plus cursor transform through operations.
package cursortracker

import (
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// Tracker maps userId to RemoteUser for a single editor. Not safe for
// concurrent use — internal/engine serializes access per editor.
type Tracker struct {
	users map[string]*model.RemoteUser
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{users: make(map[string]*model.RemoteUser)}
}

// Add inserts or overwrites the user entry for id.
func (t *Tracker) Add(user model.RemoteUser) {
	u := user
	t.users[user.ID] = &u
}

// Remove deletes the user entry for id, if present.
func (t *Tracker) Remove(id string) {
	delete(t.users, id)
}

// Get returns the user entry for id, if present.
func (t *Tracker) Get(id string) (model.RemoteUser, bool) {
	u, ok := t.users[id]
	if !ok {
		return model.RemoteUser{}, false
	}
	return *u, true
}

// UpdateCursor sets the user's cursor/selection and bumps LastSeen.
func (t *Tracker) UpdateCursor(id string, cursor *model.Cursor, selection *model.Selection) (model.RemoteUser, bool) {
	u, ok := t.users[id]
	if !ok {
		return model.RemoteUser{}, false
	}
	u.Cursor = cursor
	u.Selection = selection
	u.LastSeen = time.Now()
	return *u, true
}

// GetActiveRemoteUsers returns every user with IsActive == true
// (spec.md §3 invariant 6).
func (t *Tracker) GetActiveRemoteUsers() []model.RemoteUser {
	out := make([]model.RemoteUser, 0, len(t.users))
	for _, u := range t.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	return out
}

// TransformCursorForOperation applies the same flat-offset arithmetic
// operational transform uses, but to a cursor's Column while treating
// Line as always 0 (spec.md §4.4, §9 open question 1 — a documented
// multi-line limitation inherited from the source).
func TransformCursorForOperation(cursor model.Cursor, op model.Operation) model.Cursor {
	switch op.Type {
	case model.OpInsert:
		if op.Position <= cursor.Column {
			cursor.Column += model.UTF16Len(op.Content)
		}
	case model.OpDelete:
		end := op.End()
		switch {
		case cursor.Column <= op.Position:
			// unchanged
		case cursor.Column >= end:
			cursor.Column -= op.Length
		default:
			cursor.Column = op.Position
		}
	}
	if cursor.Column < 0 {
		cursor.Column = 0
	}
	return cursor
}
