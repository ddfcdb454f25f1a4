package session

import (
	"testing"

	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesAliveConnectionWithNoSubscriptions(t *testing.T) {
	r := NewRegistry()
	conn := r.Register("s1", "u1", nil)

	assert.True(t, conn.Session.IsAlive)
	assert.Empty(t, conn.Session.SubscribedDocuments)
}

func TestSubscribe_RequiresExistingSession(t *testing.T) {
	r := NewRegistry()
	err := r.Subscribe("missing", "doc1")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSubscribe_IsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)

	require.NoError(t, r.Subscribe("s1", "doc1"))
	require.NoError(t, r.Subscribe("s1", "doc1"))

	conn, _ := r.Get("s1")
	assert.Len(t, conn.Session.SubscribedDocuments, 1)
	assert.ElementsMatch(t, []string{"s1"}, r.SubscriberSessionIDs("doc1"))
}

func TestUnsubscribe_IsSilentWhenAbsent(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)
	r.Unsubscribe("s1", "doc1") // no panic, no error return
	assert.Empty(t, r.SubscriberSessionIDs("doc1"))
}

func TestUnsubscribe_RemovesEmptyDocumentEntry(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)
	require.NoError(t, r.Subscribe("s1", "doc1"))
	r.Unsubscribe("s1", "doc1")

	assert.Empty(t, r.SubscriberSessionIDs("doc1"))
}

func TestUnregister_RemovesFromEverySubscribedDocument(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)
	require.NoError(t, r.Subscribe("s1", "doc1"))
	require.NoError(t, r.Subscribe("s1", "doc2"))

	conn, ok := r.Unregister("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", conn.Session.SessionID)

	assert.Empty(t, r.SubscriberSessionIDs("doc1"))
	assert.Empty(t, r.SubscriberSessionIDs("doc2"))
	_, ok = r.Get("s1")
	assert.False(t, ok)
}

func TestMarkAlive_SetsIsAliveTrue(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)
	conn, _ := r.Get("s1")
	conn.Session.IsAlive = false

	r.MarkAlive("s1")
	conn, _ = r.Get("s1")
	assert.True(t, conn.Session.IsAlive)
}

func TestClear_EmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "u1", nil)
	require.NoError(t, r.Subscribe("s1", "doc1"))

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.SubscriberSessionIDs("doc1"))
}
