// Package model defines the immutable value shapes shared by the OT
// engine and the session fabric: operations, cursors, remote users,
// snapshots, and sessions, along with their validation rules.
package model

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf16"
)

// OpType distinguishes the two operation kinds the engine understands.
// Multi-line-aware editing and attribute ops are out of scope.
type OpType string

const (
	OpInsert OpType = "insert"
	OpDelete OpType = "delete"
)

// Operation is the atomic edit unit. Position and Length are UTF-16
// code-unit offsets into the document's flat character view — not byte
// offsets and not rune counts — matching the common JS-client
// convention (String.prototype.length) referenced in spec.md §9.
type Operation struct {
	ID        string    `json:"id"`
	Type      OpType    `json:"type"`
	Position  int       `json:"position"`
	Content   string    `json:"content,omitempty"`
	Length    int       `json:"length"`
	ClientID  string    `json:"clientId"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"` // baseVersion the author observed
}

// UTF16Len returns the length of s in UTF-16 code units, the unit
// Operation.Position/Length are expressed in.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Validate checks the structural invariants of an operation in
// isolation (spec.md §3): non-negative position/length, a known type,
// and a non-empty client tie-breaker.
func (op Operation) Validate() error {
	if op.ID == "" {
		return fmt.Errorf("%w: operation id is empty", ErrInvalidMessage)
	}
	if op.Type != OpInsert && op.Type != OpDelete {
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidMessage, op.Type)
	}
	if op.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidCursorPosition, op.Position)
	}
	if op.Length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrInvalidCursorPosition, op.Length)
	}
	if op.ClientID == "" {
		return fmt.Errorf("%w: operation clientId is empty", ErrInvalidMessage)
	}
	if op.Type == OpInsert && op.Length != 0 {
		return fmt.Errorf("%w: insert op must carry length=0, got %d", ErrInvalidMessage, op.Length)
	}
	return nil
}

// End returns the exclusive end offset of a delete's span, or Position
// for an insert (which has no span).
func (op Operation) End() int {
	if op.Type == OpDelete {
		return op.Position + op.Length
	}
	return op.Position
}

// OperationBatch is an ordered sequence of operations sharing a common
// base version, bounded to [1,100] per spec.md §3.
type OperationBatch struct {
	ID          string      `json:"id"`
	BaseVersion int         `json:"baseVersion"`
	ClientID    string      `json:"clientId"`
	Operations  []Operation `json:"operations"`
}

const (
	MinBatchSize = 1
	MaxBatchSize = 100
)

// Validate enforces the batch size bound. Per-op validation happens
// separately as each op is applied (spec.md §9, open question 3: batch
// application is non-atomic on failure).
func (b OperationBatch) Validate() error {
	if len(b.Operations) < MinBatchSize || len(b.Operations) > MaxBatchSize {
		return fmt.Errorf("%w: batch size %d outside [%d,%d]", ErrOperationBatchValidation, len(b.Operations), MinBatchSize, MaxBatchSize)
	}
	return nil
}

// Cursor is an opaque structured point: line is preserved, column is
// the position adjusted as if the whole document were line 0. This is
// a documented limitation inherited from the source (spec.md §9, open
// question 1) — multi-line cursor transforms are not line-aware.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Validate rejects negative coordinates.
func (c Cursor) Validate() error {
	if c.Line < 0 || c.Column < 0 {
		return fmt.Errorf("%w: negative cursor coordinate {line:%d,column:%d}", ErrInvalidCursorPosition, c.Line, c.Column)
	}
	return nil
}

// Selection is a pair of cursor endpoints.
type Selection struct {
	Start Cursor `json:"start"`
	End   Cursor `json:"end"`
}

func (s Selection) Validate() error {
	if err := s.Start.Validate(); err != nil {
		return err
	}
	return s.End.Validate()
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RemoteUser is a participant visible to other collaborators on an
// editor. Color must be a #RRGGBB hex string.
type RemoteUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Cursor    *Cursor    `json:"cursor,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
	IsActive  bool       `json:"isActive"`
	LastSeen  time.Time  `json:"lastSeen"`
}

func (u RemoteUser) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: remote user id is empty", ErrInvalidMessage)
	}
	if !colorPattern.MatchString(u.Color) {
		return fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalidMessage, u.Color)
	}
	return nil
}

// EditorSnapshot is a point-in-time content+version capture.
type EditorSnapshot struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"clientId"`
}

// Session is one connected client. A userId may hold several sessions.
// SubscribedDocuments is an ordered set: additions append, no
// duplicates, order preserved for deterministic iteration in tests.
type Session struct {
	SessionID           string
	UserID              string
	SubscribedDocuments []string
	LastActivityTime    time.Time
	IsAlive             bool
}

// HasSubscription reports whether the session is subscribed to documentID.
func (s *Session) HasSubscription(documentID string) bool {
	for _, d := range s.SubscribedDocuments {
		if d == documentID {
			return true
		}
	}
	return false
}

// AddSubscription appends documentID if not already present. Returns
// true if it was newly added.
func (s *Session) AddSubscription(documentID string) bool {
	if s.HasSubscription(documentID) {
		return false
	}
	s.SubscribedDocuments = append(s.SubscribedDocuments, documentID)
	return true
}

// RemoveSubscription removes documentID if present. Returns true if it
// was present.
func (s *Session) RemoveSubscription(documentID string) bool {
	for i, d := range s.SubscribedDocuments {
		if d == documentID {
			s.SubscribedDocuments = append(s.SubscribedDocuments[:i], s.SubscribedDocuments[i+1:]...)
			return true
		}
	}
	return false
}
