// Package testutil provides shared test helpers for creating config files and in-memory services.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examprep/examprep/internal/bookmark"
	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/config"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/studyguide"
)

// SetupTestConfig creates a config file that keeps storage and outputs under tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")

	configContent := fmt.Sprintf(`storage:
  backend: file
  file:
    path: %s
diagram:
  kroki_url: ""
outputs:
  directory: %s
`,
		filepath.Join(tmpDir, "storage.yml"),
		OutputsDirectory(tmpDir),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// OutputsDirectory is where a config from SetupTestConfig writes exports.
func OutputsDirectory(tmpDir string) string {
	return filepath.Join(tmpDir, "outputs")
}

// NewServices wires every service on a memory store. Exports go to a temporary directory
// and no diagram renderer is set.
func NewServices(t *testing.T, client inference.Client) *bootstrap.Services {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	outputs := t.TempDir()
	return &bootstrap.Services{
		Config: &config.Config{
			Diagram: config.DiagramConfig{TimeoutSeconds: 1, Concurrency: 2},
			Quiz:    config.QuizConfig{QuestionCount: 5},
			Outputs: config.OutputsConfig{Directory: outputs},
		},
		Catalog:    catalog.Default(),
		Store:      store,
		History:    history.NewStore(ctx, store),
		Saved:      savedquestion.NewStore(ctx, store),
		Bookmarks:  bookmark.NewStore(ctx, store),
		Inference:  client,
		StudyCache: studyguide.NewCache(store),
		Exporter:   studyguide.NewExporter("", outputs),
	}
}

// Topic returns the catalog topic with id and fails the test when there is none.
func Topic(t *testing.T, id string) catalog.Topic {
	t.Helper()
	topic, ok := catalog.Default().Find(id)
	require.True(t, ok, "topic %s should be in the catalog", id)
	return topic
}
