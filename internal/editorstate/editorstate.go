// Package editorstate implements EditorState: the content buffer, mode
// gate, and undo/redo stacks for a single editor.
package editorstate

import (
	"fmt"
	"unicode/utf16"

	"github.com/catalyst-ai-dev/white-room/internal/model"
)

// Mode gates whether EditorState.Apply accepts mutations.
type Mode string

const (
	ModeActive       Mode = "active"
	ModeReadOnly     Mode = "read_only"
	ModeDisconnected Mode = "disconnected"
)

// undoEntry pairs an applied operation with its inverse, so either
// direction can be replayed without reconstructing lost information
// (e.g. the text a delete removed).
type undoEntry struct {
	forward model.Operation
	inverse model.Operation
}

// EditorState holds the document content, mode, version, and undo/redo
// stacks for one editor. Not safe for concurrent use — internal/engine
// serializes access per editor.
type EditorState struct {
	content string
	mode    Mode
	version int
	undo    []undoEntry
	redo    []undoEntry
}

// New returns an EditorState seeded with content (possibly empty) in
// ModeActive, at version 0.
func New(content string) *EditorState {
	return &EditorState{content: content, mode: ModeActive}
}

func (e *EditorState) Content() string { return e.content }
func (e *EditorState) Mode() Mode      { return e.mode }
func (e *EditorState) Version() int    { return e.version }

// SetMode is free; transitions are not restricted (spec.md §4.3).
func (e *EditorState) SetMode(m Mode) { e.mode = m }

// SetContent wipes undo/redo and version, replacing the buffer wholesale.
func (e *EditorState) SetContent(s string) {
	e.content = s
	e.version = 0
	e.undo = nil
	e.redo = nil
}

// Reset returns the editor to its initial state: ModeActive, empty
// content, version 0, empty undo/redo.
func (e *EditorState) Reset() {
	e.content = ""
	e.mode = ModeActive
	e.version = 0
	e.undo = nil
	e.redo = nil
}

// Apply mutates content per op, gated by mode and bounds-checked per
// spec.md §3 invariant 3. It clears the redo stack and records an
// inverse on the undo stack on success.
func (e *EditorState) Apply(op model.Operation) error {
	if e.mode == ModeDisconnected {
		return fmt.Errorf("%w: editor is disconnected", model.ErrOperationApply)
	}
	if e.mode == ModeReadOnly {
		return fmt.Errorf("%w: editor is read-only", model.ErrOperationApply)
	}

	units := utf16.Encode([]rune(e.content))
	docLen := len(units)

	switch op.Type {
	case model.OpInsert:
		if op.Position < 0 || op.Position > docLen {
			return fmt.Errorf("%w: insert position %d out of bounds [0,%d]", model.ErrInvalidCursorPosition, op.Position, docLen)
		}
		insUnits := utf16.Encode([]rune(op.Content))
		newUnits := make([]uint16, 0, docLen+len(insUnits))
		newUnits = append(newUnits, units[:op.Position]...)
		newUnits = append(newUnits, insUnits...)
		newUnits = append(newUnits, units[op.Position:]...)
		e.content = string(utf16.Decode(newUnits))

		e.undo = append(e.undo, undoEntry{
			forward: op,
			inverse: model.Operation{
				ID:       op.ID + "-undo",
				Type:     model.OpDelete,
				Position: op.Position,
				Length:   model.UTF16Len(op.Content),
				ClientID: op.ClientID,
				Version:  op.Version,
			},
		})

	case model.OpDelete:
		end := op.Position + op.Length
		if op.Position < 0 || end < op.Position || end > docLen {
			return fmt.Errorf("%w: delete span [%d,%d) out of bounds [0,%d]", model.ErrInvalidCursorPosition, op.Position, end, docLen)
		}
		removed := string(utf16.Decode(units[op.Position:end]))
		newUnits := make([]uint16, 0, docLen-op.Length)
		newUnits = append(newUnits, units[:op.Position]...)
		newUnits = append(newUnits, units[end:]...)
		e.content = string(utf16.Decode(newUnits))

		e.undo = append(e.undo, undoEntry{
			forward: op,
			inverse: model.Operation{
				ID:       op.ID + "-undo",
				Type:     model.OpInsert,
				Position: op.Position,
				Content:  removed,
				ClientID: op.ClientID,
				Version:  op.Version,
			},
		})

	default:
		return fmt.Errorf("%w: unknown operation type %q", model.ErrOperationApply, op.Type)
	}

	if op.Version+1 > e.version {
		e.version = op.Version + 1
	}
	e.redo = nil
	return nil
}

// CanUndo/CanRedo report whether the respective stack has entries.
func (e *EditorState) CanUndo() bool { return len(e.undo) > 0 }
func (e *EditorState) CanRedo() bool { return len(e.redo) > 0 }

// Undo applies the inverse of the most recently applied operation,
// moving it to the redo stack. Returns the inverse op applied, or an
// error if there is nothing to undo.
func (e *EditorState) Undo() (model.Operation, error) {
	if len(e.undo) == 0 {
		return model.Operation{}, fmt.Errorf("%w: nothing to undo", model.ErrOperationApply)
	}
	entry := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]

	if err := e.applyInverse(entry.inverse); err != nil {
		return model.Operation{}, err
	}
	e.redo = append(e.redo, entry)
	return entry.inverse, nil
}

// Redo re-applies the most recently undone operation.
func (e *EditorState) Redo() (model.Operation, error) {
	if len(e.redo) == 0 {
		return model.Operation{}, fmt.Errorf("%w: nothing to redo", model.ErrOperationApply)
	}
	entry := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]

	if err := e.applyInverse(entry.forward); err != nil {
		return model.Operation{}, err
	}
	e.undo = append(e.undo, entry)
	return entry.forward, nil
}

// applyInverse mutates content per op without touching the undo/redo
// stacks or the version counter — undo/redo traversal is local and
// does not advance the authoritative version (the caller manages both
// stacks around this call).
func (e *EditorState) applyInverse(op model.Operation) error {
	return e.rawApply(op)
}

// rawApply performs the same mutation Apply does, without mode gating
// or stack bookkeeping (those are the caller's responsibility here).
func (e *EditorState) rawApply(op model.Operation) error {
	units := utf16.Encode([]rune(e.content))
	docLen := len(units)

	switch op.Type {
	case model.OpInsert:
		if op.Position < 0 || op.Position > docLen {
			return fmt.Errorf("%w: insert position %d out of bounds [0,%d]", model.ErrInvalidCursorPosition, op.Position, docLen)
		}
		insUnits := utf16.Encode([]rune(op.Content))
		newUnits := make([]uint16, 0, docLen+len(insUnits))
		newUnits = append(newUnits, units[:op.Position]...)
		newUnits = append(newUnits, insUnits...)
		newUnits = append(newUnits, units[op.Position:]...)
		e.content = string(utf16.Decode(newUnits))
	case model.OpDelete:
		end := op.Position + op.Length
		if op.Position < 0 || end < op.Position || end > docLen {
			return fmt.Errorf("%w: delete span [%d,%d) out of bounds [0,%d]", model.ErrInvalidCursorPosition, op.Position, end, docLen)
		}
		newUnits := make([]uint16, 0, docLen-op.Length)
		newUnits = append(newUnits, units[:op.Position]...)
		newUnits = append(newUnits, units[end:]...)
		e.content = string(utf16.Decode(newUnits))
	}
	return nil
}
