package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "examprep-server", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("config"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}

func TestSetupLogger(t *testing.T) {
	setupLogger(true)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	setupLogger(false)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unsupported storage backend",
			content: "storage:\n  backend: tape\n",
			wantErr: "invalid configuration",
		},
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
			wantErr: "invalid configuration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			old := configFile
			configFile = path
			defer func() { configFile = old }()

			assert.ErrorContains(t, run(context.Background()), tt.wantErr)
		})
	}
}
