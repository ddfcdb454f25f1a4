package editorstate

import (
	"testing"

	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: insert.
func TestApply_Insert(t *testing.T) {
	e := New("Hello")
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 5, Content: " World", ClientID: "c1", Version: 0})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", e.Content())
	assert.Equal(t, 1, e.Version())
}

// S2: delete.
func TestApply_Delete(t *testing.T) {
	e := New("Hello World")
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpDelete, Position: 5, Length: 6, ClientID: "c1", Version: 0})
	require.NoError(t, err)
	assert.Equal(t, "Hello", e.Content())
	assert.Equal(t, 1, e.Version())
}

func TestApply_OutOfBoundsInsert(t *testing.T) {
	e := New("Hi")
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 99, Content: "x", ClientID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidCursorPosition)
}

func TestApply_OutOfBoundsDelete(t *testing.T) {
	e := New("Hi")
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpDelete, Position: 1, Length: 5, ClientID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidCursorPosition)
}

func TestApply_RejectsDisconnectedMode(t *testing.T) {
	e := New("Hi")
	e.SetMode(ModeDisconnected)
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 0, Content: "x", ClientID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrOperationApply)
}

func TestApply_RejectsReadOnlyMode(t *testing.T) {
	e := New("Hi")
	e.SetMode(ModeReadOnly)
	err := e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 0, Content: "x", ClientID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrOperationApply)
}

func TestUndoRedo_Insert(t *testing.T) {
	e := New("Hello")
	require.NoError(t, e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 5, Content: " World", ClientID: "c1"}))
	assert.Equal(t, "Hello World", e.Content())

	_, err := e.Undo()
	require.NoError(t, err)
	assert.Equal(t, "Hello", e.Content())
	assert.True(t, e.CanRedo())

	_, err = e.Redo()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", e.Content())
}

func TestUndoRedo_Delete(t *testing.T) {
	e := New("Hello World")
	require.NoError(t, e.Apply(model.Operation{ID: "o1", Type: model.OpDelete, Position: 5, Length: 6, ClientID: "c1"}))
	assert.Equal(t, "Hello", e.Content())

	_, err := e.Undo()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", e.Content())

	_, err = e.Redo()
	require.NoError(t, err)
	assert.Equal(t, "Hello", e.Content())
}

func TestApply_ClearsRedoStack(t *testing.T) {
	e := New("Hello")
	require.NoError(t, e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 5, Content: "!", ClientID: "c1"}))
	_, err := e.Undo()
	require.NoError(t, err)
	assert.True(t, e.CanRedo())

	require.NoError(t, e.Apply(model.Operation{ID: "o2", Type: model.OpInsert, Position: 5, Content: "?", ClientID: "c1"}))
	assert.False(t, e.CanRedo(), "a new apply invalidates the redo stack")
}

func TestSetContent_ResetsVersionAndStacks(t *testing.T) {
	e := New("Hello")
	require.NoError(t, e.Apply(model.Operation{ID: "o1", Type: model.OpInsert, Position: 5, Content: "!", ClientID: "c1"}))

	e.SetContent("fresh")
	assert.Equal(t, "fresh", e.Content())
	assert.Equal(t, 0, e.Version())
	assert.False(t, e.CanUndo())
}

func TestReset(t *testing.T) {
	e := New("Hello")
	e.SetMode(ModeReadOnly)
	e.Reset()

	assert.Equal(t, "", e.Content())
	assert.Equal(t, ModeActive, e.Mode())
	assert.Equal(t, 0, e.Version())
}
