// Package history keeps the results of completed quizzes, newest first.
package history

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/transfer"
)

const (
	StorageKey     = "nysit-quiz-history"
	ExportFileName = "quiz_history.json"

	// MaxEntries caps the history after a quiz completes.
	MaxEntries = 50
	// MaxImportedEntries caps the history after an import merge.
	MaxImportedEntries = 100
)

// ClearConfirmation is asked before the history is deleted.
const ClearConfirmation = "Are you sure you want to permanently delete your quiz history?"

var ImportMessages = transfer.Messages{
	NotASequence: "Error: Imported file is not a valid history format.",
	NoValidItems: "Warning: No valid quiz results found in the imported file.",
	Imported:     "Successfully imported %d quiz results.",
	SaveFailed:   "Error: Could not save the imported history.",
}

// idLayout matches an ISO-8601 timestamp with milliseconds in UTC.
const idLayout = "2006-01-02T15:04:05.000Z"

type QuizResult struct {
	ID             string               `json:"id"`
	TopicID        string               `json:"topicId"`
	TopicTitle     string               `json:"topicTitle"`
	Difficulty     inference.Difficulty `json:"difficulty"`
	Score          int                  `json:"score"`
	TotalQuestions int                  `json:"totalQuestions"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewResult records a quiz completed at now.
func NewResult(topic catalog.Topic, difficulty inference.Difficulty, score, totalQuestions int, now time.Time) QuizResult {
	return QuizResult{
		ID:             now.UTC().Format(idLayout),
		TopicID:        topic.ID,
		TopicTitle:     topic.Title,
		Difficulty:     difficulty,
		Score:          score,
		TotalQuestions: totalQuestions,
		Timestamp:      now.UnixMilli(),
	}
}

// Percentage is the rounded share of correct answers.
func (r QuizResult) Percentage() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(r.Score) / float64(r.TotalQuestions) * 100))
}

func (r QuizResult) CompletedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// importedResult is the shape an import file item has to satisfy. Any JSON number is a valid
// score; fractions are rounded to the nearest whole answer.
type importedResult struct {
	ID             string               `json:"id" validate:"required"`
	TopicID        string               `json:"topicId" validate:"required"`
	TopicTitle     string               `json:"topicTitle"`
	Difficulty     inference.Difficulty `json:"difficulty"`
	Score          *float64             `json:"score" validate:"required"`
	TotalQuestions int                  `json:"totalQuestions"`
	Timestamp      int64                `json:"timestamp"`
}

func (r importedResult) toResult() QuizResult {
	return QuizResult{
		ID:             r.ID,
		TopicID:        r.TopicID,
		TopicTitle:     r.TopicTitle,
		Difficulty:     r.Difficulty,
		Score:          int(math.Round(*r.Score)),
		TotalQuestions: r.TotalQuestions,
		Timestamp:      r.Timestamp,
	}
}

// Store is the quiz history. Every change re-reads the backend, applies itself to what another
// process may have written meanwhile and writes through; when a write fails the change is kept
// in memory and a *storage.PersistError is returned.
type Store struct {
	store   storage.Store
	mu      sync.Mutex
	results []QuizResult
}

func NewStore(ctx context.Context, store storage.Store) *Store {
	return &Store{
		store:   store,
		results: storage.LoadJSON[[]QuizResult](ctx, store, StorageKey),
	}
}

// List returns the results, newest first.
func (s *Store) List() []QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]QuizResult(nil), s.results...)
}

// Refresh replaces the in-memory history with what the backend holds now.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

// reloadLocked keeps the in-memory copy when the backend cannot be read.
func (s *Store) reloadLocked(ctx context.Context) {
	results, err := storage.ReadJSON[[]QuizResult](ctx, s.store, StorageKey)
	if err != nil {
		slog.Default().Warn("failed to reload quiz history, using the in-memory copy",
			"error", err)
		return
	}
	s.results = results
}

// Append prepends result and evicts the oldest entries beyond MaxEntries.
func (s *Store) Append(ctx context.Context, result QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	results := append([]QuizResult{result}, s.results...)
	if len(results) > MaxEntries {
		results = results[:MaxEntries]
	}
	s.results = results
	return storage.SaveJSON(ctx, s.store, StorageKey, s.results)
}

// Clear deletes the whole history. Asking the user for confirmation is the caller's job.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = nil
	return storage.RemoveKey(ctx, s.store, StorageKey)
}

// Import merges the valid results of an import file. Imported results win over existing ones
// with the same id; the merge is sorted newest first and capped at MaxImportedEntries.
func (s *Store) Import(ctx context.Context, r io.Reader) (transfer.Summary, error) {
	items, summary, err := transfer.DecodeItems[importedResult](r)
	if err != nil {
		return summary, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadLocked(ctx)
	seen := make(map[string]bool, len(items)+len(s.results))
	merged := make([]QuizResult, 0, len(items)+len(s.results))
	add := func(result QuizResult) {
		if seen[result.ID] {
			return
		}
		seen[result.ID] = true
		merged = append(merged, result)
	}
	for _, item := range items {
		add(item.toResult())
	}
	for _, result := range s.results {
		add(result)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	if len(merged) > MaxImportedEntries {
		merged = merged[:MaxImportedEntries]
	}

	s.results = merged
	summary.Imported = len(items)
	return summary, storage.SaveJSON(ctx, s.store, StorageKey, s.results)
}

// Export writes the history as indented JSON.
func (s *Store) Export(w io.Writer) error {
	results := s.List()
	if len(results) == 0 {
		return transfer.ErrNothingToExport
	}
	return transfer.Encode(w, results)
}

// ExportFile writes the history to dir/quiz_history.json.
func (s *Store) ExportFile(dir string) (string, error) {
	return transfer.WriteFile(dir, ExportFileName, s.List())
}
