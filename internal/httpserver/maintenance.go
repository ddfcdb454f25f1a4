package httpserver

import (
	"context"
	"math/rand"
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/storage"
)

// RunPersister periodically snapshots every active editor's content to
// the store, mirroring the teacher's per-document persister goroutine:
// debounced, jittered, and skipped when the version hasn't advanced
// since the last write.
func (s *Server) RunPersister(ctx context.Context, interval time.Duration) {
	if s.store == nil {
		return
	}
	lastPersistedVersion := make(map[string]int)
	jitter := interval / 3
	if jitter <= 0 {
		jitter = time.Second
	}

	for {
		wait := interval + time.Duration(rand.Int63n(int64(jitter)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		for _, editorID := range s.engine.EditorIDs() {
			version, err := s.engine.GetEditorVersion(editorID)
			if err != nil {
				continue
			}
			if version <= lastPersistedVersion[editorID] {
				continue
			}
			content, err := s.engine.GetEditorContent(editorID)
			if err != nil {
				continue
			}

			if err := s.store.Store(storage.PersistedDocument{
				EditorID:  editorID,
				Content:   content,
				Version:   version,
				UpdatedAt: time.Now(),
			}); err != nil {
				s.log.Error("persisting editor %s: %v", editorID, err)
				continue
			}
			lastPersistedVersion[editorID] = version
		}
	}
}

// RunCleaner evicts editors idle longer than expiry, mirroring the
// teacher's cleanupExpiredDocuments sweep.
func (s *Server) RunCleaner(ctx context.Context, checkInterval, expiry time.Duration) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpiredEditors(expiry)
		}
	}
}

func (s *Server) cleanupExpiredEditors(expiry time.Duration) {
	now := time.Now()
	var stale []string

	s.lastAccessMu.Lock()
	for editorID, t := range s.lastAccess {
		if now.Sub(t) > expiry {
			stale = append(stale, editorID)
		}
	}
	for _, id := range stale {
		delete(s.lastAccess, id)
	}
	s.lastAccessMu.Unlock()

	if len(stale) == 0 {
		return
	}
	s.log.Info("cleaner evicting %d idle editor(s)", len(stale))
	for _, editorID := range stale {
		s.engine.RemoveEditor(editorID)
	}
}
