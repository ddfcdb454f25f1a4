// Package engine implements CollaborationEngine: the orchestrator that
// ties EditorState, OperationHistory, CursorTracker, and cursor
// broadcast scheduling together per editorId, emitting domain events
// as state changes (spec.md §4.5).
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/cursortracker"
	"github.com/catalyst-ai-dev/white-room/internal/editorstate"
	"github.com/catalyst-ai-dev/white-room/internal/events"
	"github.com/catalyst-ai-dev/white-room/internal/history"
	"github.com/catalyst-ai-dev/white-room/internal/idgen"
	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/catalyst-ai-dev/white-room/internal/ot"
)

// CursorBroadcastInterval bounds. spec.md §4.5: default 75ms,
// configurable in [50,100].
const (
	MinCursorBroadcastInterval     = 50 * time.Millisecond
	MaxCursorBroadcastInterval     = 100 * time.Millisecond
	DefaultCursorBroadcastInterval = 75 * time.Millisecond
)

// CursorBroadcast is the payload scheduleCursorBroadcast hands to its
// callback once its debounce timer fires.
type CursorBroadcast struct {
	ID        string
	EditorID  string
	UserID    string
	Cursor    model.Cursor
	Selection *model.Selection
	Timestamp time.Time
}

// editorEntry is the engine's internal per-editor bookkeeping: the
// four leaf components spec.md §2 lists plus its pending cursor-
// broadcast timers. It is guarded by its own mutex so editors never
// contend with each other (spec.md §5: per-editor serialization, no
// cross-editor ordering).
type editorEntry struct {
	mu       sync.Mutex
	state    *editorstate.EditorState
	history  *history.History
	cursors  *cursortracker.Tracker
	snapshot *model.EditorSnapshot
	timers   map[string]*time.Timer // keyed by userID
}

func newEditorEntry(content string) *editorEntry {
	return &editorEntry{
		state:   editorstate.New(content),
		history: history.New(),
		cursors: cursortracker.New(),
		timers:  make(map[string]*time.Timer),
	}
}

// Engine is the CollaborationEngine.
type Engine struct {
	mu      sync.RWMutex
	editors map[string]*editorEntry
	bus     events.Bus
	ids     idgen.Generator

	cursorBroadcastInterval time.Duration
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithEventBus overrides the default no-op bus.
func WithEventBus(bus events.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithIDGenerator overrides the default ULID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(e *Engine) { e.ids = gen }
}

// WithCursorBroadcastInterval overrides the debounce interval; it is
// clamped to [MinCursorBroadcastInterval, MaxCursorBroadcastInterval].
func WithCursorBroadcastInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d < MinCursorBroadcastInterval {
			d = MinCursorBroadcastInterval
		}
		if d > MaxCursorBroadcastInterval {
			d = MaxCursorBroadcastInterval
		}
		e.cursorBroadcastInterval = d
	}
}

// New returns an Engine with no editors initialized.
func New(opts ...Option) *Engine {
	e := &Engine{
		editors:                 make(map[string]*editorEntry),
		bus:                     events.NopBus{},
		ids:                     idgen.NewULIDGenerator(),
		cursorBroadcastInterval: DefaultCursorBroadcastInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitializeEditor creates editor state lazily; re-initialization is
// idempotent and does not clobber existing state (spec.md §3 Lifecycle).
func (e *Engine) InitializeEditor(editorID string, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.editors[editorID]; exists {
		return
	}
	e.editors[editorID] = newEditorEntry(content)
}

// entry returns the editorEntry for editorID, or an error satisfying
// ErrCollaborationDisabled if it hasn't been initialized.
func (e *Engine) entry(editorID string) (*editorEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.editors[editorID]
	if !ok {
		return nil, fmt.Errorf("%w: editor %s", model.ErrCollaborationDisabled, editorID)
	}
	return ent, nil
}

// HasEditor reports whether editorID has been initialized.
func (e *Engine) HasEditor(editorID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.editors[editorID]
	return ok
}

// GetEditorContent returns the editor's current content.
func (e *Engine) GetEditorContent(editorID string) (string, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return "", err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.state.Content(), nil
}

// GetEditorVersion returns the editor's current version.
func (e *Engine) GetEditorVersion(editorID string) (int, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return 0, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.history.Version(), nil
}

// ApplyOperation validates op.Version against history, mutates editor
// state, appends to history, and emits OperationAppliedEvent.
func (e *Engine) ApplyOperation(editorID string, op model.Operation) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return e.applyOperationLocked(editorID, ent, op)
}

func (e *Engine) applyOperationLocked(editorID string, ent *editorEntry, op model.Operation) error {
	if ent.state.Mode() != editorstate.ModeActive {
		return fmt.Errorf("%w: editor %s is not active", model.ErrCollaborationDisabled, editorID)
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if op.Version != ent.history.Version() {
		return fmt.Errorf("%w: op version %d, history version %d", model.ErrVersionConflict, op.Version, ent.history.Version())
	}

	if err := ent.state.Apply(op); err != nil {
		ent.state.SetMode(editorstate.ModeReadOnly)
		return err
	}
	ent.history.Append(op)
	e.transformCursorsLocked(ent, op)

	e.bus.Publish(events.Event{
		ID:        e.ids.New(),
		Kind:      events.KindOperationApplied,
		EditorID:  editorID,
		Timestamp: time.Now(),
		Payload: map[string]any{
			"operationId": op.ID,
			"clientId":    op.ClientID,
			"version":     ent.history.Version(),
		},
	})
	return nil
}

// SubmitOperation is the entry point the session fabric calls for an
// inbound operation frame: it transforms op against every operation
// appended since the client's observed baseVersion, then applies the
// transformed result at the editor's current version. Returns the
// applied (post-transform) operation so the caller can fan it out.
func (e *Engine) SubmitOperation(editorID string, op model.Operation, baseVersion int) (model.Operation, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return model.Operation{}, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	concurrent := ent.history.SinceVersion(baseVersion)
	transformed, err := ot.TransformAgainstMany(op, concurrent)
	if err != nil {
		return model.Operation{}, err
	}
	transformed.Version = ent.history.Version()

	if err := e.applyOperationLocked(editorID, ent, transformed); err != nil {
		return model.Operation{}, err
	}
	return transformed, nil
}

// ApplyOperationBatch applies every op in order after validating
// baseVersion and size. Per spec.md §9 open question 3, application is
// non-atomic: a mid-batch failure leaves prior ops applied.
func (e *Engine) ApplyOperationBatch(editorID string, batch model.OperationBatch) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.BaseVersion != ent.history.Version() {
		return fmt.Errorf("%w: batch baseVersion %d, history version %d", model.ErrVersionConflict, batch.BaseVersion, ent.history.Version())
	}

	for _, op := range batch.Operations {
		if err := e.applyOperationLocked(editorID, ent, op); err != nil {
			return err
		}
	}

	e.bus.Publish(events.Event{
		ID:        e.ids.New(),
		Kind:      events.KindOperationBatchReceived,
		EditorID:  editorID,
		Timestamp: time.Now(),
		Payload: map[string]any{
			"batchId":        batch.ID,
			"clientId":       batch.ClientID,
			"operationCount": len(batch.Operations),
		},
	})
	return nil
}

// TransformOperation folds op through against, skipping entries
// authored by the same clientId (spec.md §4.5 — transform is identity
// against one's own prior ops). Emits OperationConflictEvent when any
// of {position, length, content} differs from the input.
func (e *Engine) TransformOperation(editorID string, op model.Operation, against []model.Operation) (model.Operation, error) {
	filtered := make([]model.Operation, 0, len(against))
	for _, a := range against {
		if a.ClientID != op.ClientID {
			filtered = append(filtered, a)
		}
	}

	result, err := ot.TransformAgainstMany(op, filtered)
	if err != nil {
		return model.Operation{}, err
	}

	if result.Position != op.Position || result.Length != op.Length || result.Content != op.Content {
		e.bus.Publish(events.Event{
			ID:        e.ids.New(),
			Kind:      events.KindOperationConflict,
			EditorID:  editorID,
			Timestamp: time.Now(),
			Payload: map[string]any{
				"operationId":         op.ID,
				"originalPosition":    op.Position,
				"transformedPosition": result.Position,
			},
		})
	}
	return result, nil
}

// transformCursorsLocked adjusts every tracked cursor/selection through
// op, mirroring ApplyEdit's cursor transform in the teacher.
func (e *Engine) transformCursorsLocked(ent *editorEntry, op model.Operation) {
	for _, u := range ent.cursors.GetActiveRemoteUsers() {
		var newCursor *model.Cursor
		if u.Cursor != nil {
			c := cursortracker.TransformCursorForOperation(*u.Cursor, op)
			newCursor = &c
		}
		var newSelection *model.Selection
		if u.Selection != nil {
			s := model.Selection{
				Start: cursortracker.TransformCursorForOperation(u.Selection.Start, op),
				End:   cursortracker.TransformCursorForOperation(u.Selection.End, op),
			}
			newSelection = &s
		}
		ent.cursors.UpdateCursor(u.ID, newCursor, newSelection)
	}
}

// AddRemoteUser registers user on editorID's tracker and emits
// RemoteUserConnectedEvent.
func (e *Engine) AddRemoteUser(editorID string, user model.RemoteUser) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return err
	}

	ent.mu.Lock()
	user.IsActive = true
	user.LastSeen = time.Now()
	ent.cursors.Add(user)
	ent.mu.Unlock()

	e.bus.Publish(events.Event{
		ID:        e.ids.New(),
		Kind:      events.KindRemoteUserConnected,
		EditorID:  editorID,
		Timestamp: time.Now(),
		Payload:   map[string]any{"userId": user.ID},
	})
	return nil
}

// RemoveRemoteUser removes user from editorID's tracker and emits
// RemoteUserDisconnectedEvent.
func (e *Engine) RemoveRemoteUser(editorID, userID string) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}
	ent.mu.Lock()
	ent.cursors.Remove(userID)
	ent.mu.Unlock()

	e.bus.Publish(events.Event{
		ID:        e.ids.New(),
		Kind:      events.KindRemoteUserDisconnected,
		EditorID:  editorID,
		Timestamp: time.Now(),
		Payload:   map[string]any{"userId": userID},
	})
	return nil
}

// GetRemoteUsers returns every active remote user tracked for editorID.
func (e *Engine) GetRemoteUsers(editorID string) ([]model.RemoteUser, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.cursors.GetActiveRemoteUsers(), nil
}

// UpdateRemoteUserCursor validates and updates a tracked user's cursor
// and/or selection, emitting CursorUpdatedEvent.
func (e *Engine) UpdateRemoteUserCursor(editorID, userID string, cursor *model.Cursor, selection *model.Selection) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}
	if cursor != nil {
		if err := cursor.Validate(); err != nil {
			return err
		}
	}
	if selection != nil {
		if err := selection.Validate(); err != nil {
			return err
		}
	}

	ent.mu.Lock()
	_, ok := ent.cursors.UpdateCursor(userID, cursor, selection)
	ent.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: user %s not tracked on editor %s", model.ErrInvalidCursorPosition, userID, editorID)
	}

	e.bus.Publish(events.Event{
		ID:        e.ids.New(),
		Kind:      events.KindCursorUpdated,
		EditorID:  editorID,
		Timestamp: time.Now(),
		Payload:   map[string]any{"userId": userID},
	})
	return nil
}

// CreateSnapshot captures editorID's current content+version and
// stores it as the editor's current snapshot.
func (e *Engine) CreateSnapshot(editorID, clientID string) (model.EditorSnapshot, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return model.EditorSnapshot{}, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	snap := model.EditorSnapshot{
		ID:        e.ids.New(),
		Content:   ent.state.Content(),
		Version:   ent.history.Version(),
		Timestamp: time.Now(),
		ClientID:  clientID,
	}
	ent.snapshot = &snap
	return snap, nil
}

// GetSnapshot returns the editor's current stored snapshot, if any.
func (e *Engine) GetSnapshot(editorID string) (model.EditorSnapshot, bool, error) {
	ent, err := e.entry(editorID)
	if err != nil {
		return model.EditorSnapshot{}, false, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.snapshot == nil {
		return model.EditorSnapshot{}, false, nil
	}
	return *ent.snapshot, true, nil
}

// ScheduleCursorBroadcast debounces cursor broadcasts per (editorId,
// userId): any pending timer for the key is canceled and replaced.
// When the new timer fires it builds a CursorBroadcast with a fresh ID
// and invokes cb; errors from cb are logged by the caller, never
// thrown (spec.md §4.5) — onCallbackError lets cmd/server route those
// to its structured logger.
func (e *Engine) ScheduleCursorBroadcast(editorID, userID string, cursor model.Cursor, selection *model.Selection, cb func(CursorBroadcast) error, onCallbackError func(error)) error {
	ent, err := e.entry(editorID)
	if err != nil {
		return err
	}

	ent.mu.Lock()
	if existing, ok := ent.timers[userID]; ok {
		existing.Stop()
	}
	ent.timers[userID] = time.AfterFunc(e.cursorBroadcastInterval, func() {
		b := CursorBroadcast{
			ID:        e.ids.New(),
			EditorID:  editorID,
			UserID:    userID,
			Cursor:    cursor,
			Selection: selection,
			Timestamp: time.Now(),
		}
		if err := cb(b); err != nil && onCallbackError != nil {
			onCallbackError(err)
		}
	})
	ent.mu.Unlock()
	return nil
}

// ClearCursorBroadcast cancels the pending timer for (editorID,userID),
// if any.
func (e *Engine) ClearCursorBroadcast(editorID, userID string) {
	ent, err := e.entry(editorID)
	if err != nil {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if t, ok := ent.timers[userID]; ok {
		t.Stop()
		delete(ent.timers, userID)
	}
}

// Reset clears an editor's content, history, tracker, snapshot, and
// every pending cursor-broadcast timer (spec.md §3 Lifecycle).
func (e *Engine) Reset(editorID string) {
	ent, err := e.entry(editorID)
	if err != nil {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	ent.state.Reset()
	ent.history.Clear()
	ent.cursors = cursortracker.New()
	ent.snapshot = nil
	for _, t := range ent.timers {
		t.Stop()
	}
	ent.timers = make(map[string]*time.Timer)
}

// RemoveEditor drops an editor from the registry entirely (used by
// cmd/server's idle-document cleanup, supplementing spec.md's in-memory
// scope with an eviction path — see SPEC_FULL.md §10).
func (e *Engine) RemoveEditor(editorID string) {
	e.Reset(editorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.editors, editorID)
}

// EditorIDs returns every currently registered editor id.
func (e *Engine) EditorIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.editors))
	for id := range e.editors {
		ids = append(ids, id)
	}
	return ids
}
