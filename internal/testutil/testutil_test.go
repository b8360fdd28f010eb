package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/examprep/internal/config"
	"github.com/examprep/examprep/internal/inference"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	got := SetupTestConfig(t, tmpDir)

	want := filepath.Join(tmpDir, "config.yml")
	assert.Equal(t, want, got)

	loader, err := config.NewConfigLoader(got)
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(tmpDir, "storage.yml"), cfg.Storage.File.Path)
	assert.Equal(t, OutputsDirectory(tmpDir), cfg.Outputs.Directory)
	assert.Empty(t, cfg.Diagram.KrokiURL)
	assert.Empty(t, cfg.Inference.APIKey())
}

func TestNewServices(t *testing.T) {
	services := NewServices(t, inference.Unconfigured{KeyEnv: "GEMINI_API_KEY"})

	ctx := context.Background()
	bookmarked, err := services.Bookmarks.Toggle(ctx, "sdlc")
	require.NoError(t, err)
	assert.True(t, bookmarked)

	other := NewServices(t, nil)
	assert.False(t, other.Bookmarks.IsBookmarked("sdlc"), "services should not share a store")
	assert.Nil(t, services.Diagrams)
	assert.DirExists(t, services.Config.Outputs.Directory)
}

func TestTopic(t *testing.T) {
	topic := Topic(t, "sdlc")
	assert.Equal(t, "Systems Development Life Cycle (SDLC)", topic.Title)
	assert.True(t, topic.IsLeaf())
}
