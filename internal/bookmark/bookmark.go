// Package bookmark keeps the set of topics the user pinned, in the order they were pinned.
package bookmark

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/examprep/examprep/internal/storage"
)

const StorageKey = "nysit-bookmarked-topics"

type Store struct {
	store    storage.Store
	mu       sync.Mutex
	topicIDs []string
}

func NewStore(ctx context.Context, store storage.Store) *Store {
	return &Store{
		store:    store,
		topicIDs: storage.LoadJSON[[]string](ctx, store, StorageKey),
	}
}

// Refresh replaces the in-memory bookmarks with what the backend holds now.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

func (s *Store) reloadLocked(ctx context.Context) {
	topicIDs, err := storage.ReadJSON[[]string](ctx, s.store, StorageKey)
	if err != nil {
		slog.Default().Warn("failed to reload bookmarks, using the in-memory copy",
			"error", err)
		return
	}
	s.topicIDs = topicIDs
}

// Toggle adds topicID when it is not bookmarked and removes it otherwise.
// The backend is re-read first so bookmarks set by another process are kept.
// It reports whether the topic is bookmarked afterwards.
func (s *Store) Toggle(ctx context.Context, topicID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)

	bookmarked := false
	if i := slices.Index(s.topicIDs, topicID); i >= 0 {
		s.topicIDs = slices.Delete(slices.Clone(s.topicIDs), i, i+1)
	} else {
		s.topicIDs = append(slices.Clone(s.topicIDs), topicID)
		bookmarked = true
	}
	return bookmarked, storage.SaveJSON(ctx, s.store, StorageKey, s.topicIDs)
}

func (s *Store) IsBookmarked(topicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.topicIDs, topicID)
}

// List returns the bookmarked topic ids in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.topicIDs)
}
