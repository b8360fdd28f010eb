package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/inference"
	mock_storage "github.com/examprep/examprep/internal/mocks/storage"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/transfer"
)

func result(id string, timestamp int64) QuizResult {
	return QuizResult{ID: id, TopicID: "sdlc", TopicTitle: "SDLC", Difficulty: inference.DifficultyEasy, Score: 3, TotalQuestions: 5, Timestamp: timestamp}
}

func TestNewResult(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("EST", -5*60*60))
	got := NewResult(catalog.Topic{ID: "sdlc", Title: "SDLC"}, inference.DifficultyMedium, 4, 5, now)

	assert.Equal(t, QuizResult{
		ID:             "2026-03-04T10:06:07.890Z",
		TopicID:        "sdlc",
		TopicTitle:     "SDLC",
		Difficulty:     inference.DifficultyMedium,
		Score:          4,
		TotalQuestions: 5,
		Timestamp:      now.UnixMilli(),
	}, got)
	assert.Equal(t, 80, got.Percentage())
}

func TestQuizResult_Percentage(t *testing.T) {
	assert.Equal(t, 67, QuizResult{Score: 2, TotalQuestions: 3}.Percentage())
	assert.Equal(t, 0, QuizResult{}.Percentage())
}

func TestStore_Append(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()
	s := NewStore(ctx, backing)

	for i := 1; i <= 51; i++ {
		require.NoError(t, s.Append(ctx, result(fmt.Sprintf("r%d", i), int64(i))))
	}

	got := s.List()
	require.Len(t, got, MaxEntries)
	assert.Equal(t, "r51", got[0].ID)
	assert.Equal(t, "r2", got[MaxEntries-1].ID)

	reloaded := NewStore(ctx, backing).List()
	assert.Equal(t, got, reloaded)
}

func TestStore_LoadTreatsCorruptionAsEmpty(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()
	require.NoError(t, backing.Set(ctx, StorageKey, "{broken"))

	assert.Empty(t, NewStore(ctx, backing).List())
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backing := mock_storage.NewMockStore(ctrl)
	backing.EXPECT().Get(gomock.Any(), StorageKey).Return("", false, nil).Times(2)
	backing.EXPECT().Set(gomock.Any(), StorageKey, gomock.Any()).Return(errors.New("quota exceeded"))

	s := NewStore(ctx, backing)
	err := s.Append(ctx, result("r1", 1))

	assert.ErrorIs(t, err, storage.ErrNotPersisted)
	assert.Len(t, s.List(), 1)
}

func TestStore_AppendKeepsWritesOfOtherStores(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()
	cli := NewStore(ctx, backing)
	server := NewStore(ctx, backing)

	require.NoError(t, cli.Append(ctx, result("from-cli", 1)))
	require.NoError(t, server.Append(ctx, result("from-server", 2)))

	var ids []string
	for _, r := range NewStore(ctx, backing).List() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"from-server", "from-cli"}, ids)

	cli.Refresh(ctx)
	assert.Len(t, cli.List(), 2)
}

func TestStore_AppendFallsBackToMemoryWhenReloadFails(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backing := mock_storage.NewMockStore(ctrl)
	gomock.InOrder(
		backing.EXPECT().Get(gomock.Any(), StorageKey).Return(`[{"id":"r1","topicId":"sdlc","score":3,"timestamp":1}]`, true, nil),
		backing.EXPECT().Get(gomock.Any(), StorageKey).Return("", false, errors.New("connection refused")),
	)
	backing.EXPECT().Set(gomock.Any(), StorageKey, gomock.Any()).Return(nil)

	s := NewStore(ctx, backing)
	require.NoError(t, s.Append(ctx, result("r2", 2)))

	got := s.List()
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID)
	assert.Equal(t, "r1", got[1].ID)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()
	s := NewStore(ctx, backing)
	require.NoError(t, s.Append(ctx, result("r1", 1)))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List())
	_, ok, _ := backing.Get(ctx, StorageKey)
	assert.False(t, ok)
}

func TestStore_Import(t *testing.T) {
	tests := []struct {
		name        string
		existing    []QuizResult
		input       string
		wantIDs     []string
		wantScoreOf map[string]int
		wantSummary transfer.Summary
		wantErr     error
	}{
		{
			name:     "imported items win and merge is sorted newest first",
			existing: []QuizResult{result("a", 30), result("b", 10)},
			input: `[
				{"id":"b","topicId":"sdlc","score":5,"timestamp":10},
				{"id":"c","topicId":"sdlc","score":0,"timestamp":20},
				{"id":"bad","score":1},
				{"id":"d","topicId":"x","score":"2"}
			]`,
			wantIDs:     []string{"a", "c", "b"},
			wantScoreOf: map[string]int{"b": 5, "a": 3, "c": 0},
			wantSummary: transfer.Summary{Total: 4, Valid: 2, Rejected: 2, Imported: 2},
		},
		{
			name:        "fractional scores are rounded",
			input:       `[{"id":"a","topicId":"t","score":4.5,"timestamp":1},{"id":"b","topicId":"t","score":2.4,"timestamp":2}]`,
			wantIDs:     []string{"b", "a"},
			wantScoreOf: map[string]int{"a": 5, "b": 2},
			wantSummary: transfer.Summary{Total: 2, Valid: 2, Imported: 2},
		},
		{
			name:        "duplicate ids within the file keep the first",
			input:       `[{"id":"a","topicId":"t","score":1,"timestamp":1},{"id":"a","topicId":"t","score":2,"timestamp":2}]`,
			wantIDs:     []string{"a"},
			wantScoreOf: map[string]int{"a": 1},
			wantSummary: transfer.Summary{Total: 2, Valid: 2, Imported: 2},
		},
		{
			name:        "no valid results",
			existing:    []QuizResult{result("a", 1)},
			input:       `[{"id":"x"}]`,
			wantIDs:     []string{"a"},
			wantSummary: transfer.Summary{Total: 1, Rejected: 1},
			wantErr:     transfer.ErrNoValidItems,
		},
		{
			name:     "not a list",
			existing: []QuizResult{result("a", 1)},
			input:    `{"id":"x"}`,
			wantIDs:  []string{"a"},
			wantErr:  transfer.ErrNotASequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backing := storage.NewMemoryStore()
			require.NoError(t, storage.SaveJSON(ctx, backing, StorageKey, tt.existing))
			s := NewStore(ctx, backing)

			summary, err := s.Import(ctx, strings.NewReader(tt.input))
			assert.Equal(t, tt.wantSummary, summary)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			var ids []string
			for _, r := range s.List() {
				ids = append(ids, r.ID)
				if want, ok := tt.wantScoreOf[r.ID]; ok {
					assert.Equal(t, want, r.Score, r.ID)
				}
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_ImportCapsAtHundred(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemoryStore())
	for i := 0; i < MaxEntries; i++ {
		require.NoError(t, s.Append(ctx, result(fmt.Sprintf("old%d", i), int64(i))))
	}

	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 80; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":"new%d","topicId":"t","score":1,"timestamp":%d}`, i, 1000+i)
	}
	b.WriteString("]")

	summary, err := s.Import(ctx, strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 80, summary.Imported)

	got := s.List()
	require.Len(t, got, MaxImportedEntries)
	assert.Equal(t, "new79", got[0].ID)
	assert.Equal(t, "old30", got[MaxImportedEntries-1].ID)
}

func TestStore_Export(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemoryStore())

	var buf bytes.Buffer
	assert.ErrorIs(t, s.Export(&buf), transfer.ErrNothingToExport)

	require.NoError(t, s.Append(ctx, result("r1", 1)))
	require.NoError(t, s.Export(&buf))
	assert.Contains(t, buf.String(), "\n  {\n    \"id\": \"r1\",")

	path, err := s.ExportFile(t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ExportFileName))
}
