package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_MissingDocumentReturnsNilNil(t *testing.T) {
	s := openTestStore(t)
	doc, err := s.Load("doc1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStoreThenLoad_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1700000000, 0)

	require.NoError(t, s.Store(PersistedDocument{
		EditorID:  "doc1",
		Content:   "hello world",
		Version:   3,
		UpdatedAt: now,
	}))

	doc, err := s.Load("doc1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "hello world", doc.Content)
	assert.Equal(t, 3, doc.Version)
	assert.Equal(t, now.Unix(), doc.UpdatedAt.Unix())
}

func TestStore_UpsertsOnConflict(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Store(PersistedDocument{EditorID: "doc1", Content: "v1", Version: 1, UpdatedAt: time.Unix(1, 0)}))
	require.NoError(t, s.Store(PersistedDocument{EditorID: "doc1", Content: "v2", Version: 2, UpdatedAt: time.Unix(2, 0)}))

	doc, err := s.Load("doc1")
	require.NoError(t, err)
	assert.Equal(t, "v2", doc.Content)
	assert.Equal(t, 2, doc.Version)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete_RemovesDocument(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Store(PersistedDocument{EditorID: "doc1", Content: "x", UpdatedAt: time.Unix(1, 0)}))
	require.NoError(t, s.Delete("doc1"))

	doc, err := s.Load("doc1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIDs_ListsAllPersistedDocuments(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Store(PersistedDocument{EditorID: "doc1", UpdatedAt: time.Unix(1, 0)}))
	require.NoError(t, s.Store(PersistedDocument{EditorID: "doc2", UpdatedAt: time.Unix(1, 0)}))

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc1", "doc2"}, ids)
}
