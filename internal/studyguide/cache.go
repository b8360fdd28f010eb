// Package studyguide generates, caches and exports the study guide of a topic.
package studyguide

import (
	"context"
	"time"

	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/storage"
)

const cacheKeyPrefix = "studyGuideCache_"

// CacheKey is the storage key of a topic's cached guide.
func CacheKey(topicID string) string {
	return cacheKeyPrefix + topicID
}

// Entry is a cached study guide. Entries never expire; a regenerate overwrites them.
type Entry struct {
	Content string             `json:"content"`
	Sources []inference.Source `json:"sources"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

func (e Entry) GeneratedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

type Cache struct {
	store storage.Store
}

func NewCache(store storage.Store) *Cache {
	return &Cache{store: store}
}

// Load returns the cached guide of topicID. Missing and corrupt entries are reported as absent.
func (c *Cache) Load(ctx context.Context, topicID string) (Entry, bool) {
	entry := storage.LoadJSON[*Entry](ctx, c.store, CacheKey(topicID))
	if entry == nil {
		return Entry{}, false
	}
	return *entry, true
}

// Save overwrites the cached guide of topicID.
func (c *Cache) Save(ctx context.Context, topicID string, guide inference.StudyGuide, now time.Time) (Entry, error) {
	entry := Entry{
		Content:   guide.Content,
		Sources:   guide.Sources,
		Timestamp: now.UnixMilli(),
	}
	if entry.Sources == nil {
		entry.Sources = []inference.Source{}
	}
	return entry, storage.SaveJSON(ctx, c.store, CacheKey(topicID), entry)
}
