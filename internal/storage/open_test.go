package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/examprep/internal/config"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     func(dir string) config.StorageConfig
		want    any
		wantErr string
	}{
		{
			name: "memory",
			cfg:  func(string) config.StorageConfig { return config.StorageConfig{Backend: "memory"} },
			want: &MemoryStore{},
		},
		{
			name: "file",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Backend: "file", File: config.FileStorageConfig{Path: filepath.Join(dir, "s.yml")}}
			},
			want: &FileStore{},
		},
		{
			name: "sqlite3 runs migrations",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Backend: "sqlite3", Database: config.DatabaseConfig{Path: filepath.Join(dir, "db", "examprep.db")}}
			},
			want: &SQLStore{},
		},
		{
			name: "redis",
			cfg: func(string) config.StorageConfig {
				return config.StorageConfig{Backend: "redis", Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "t:"}}
			},
			want: &RedisStore{},
		},
		{
			name:    "unknown backend",
			cfg:     func(string) config.StorageConfig { return config.StorageConfig{Backend: "localstorage"} },
			wantErr: "unsupported storage backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := Open(context.Background(), tt.cfg(t.TempDir()))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() {
				assert.NoError(t, closeFn())
			}()

			assert.IsType(t, tt.want, store)
			testStoreContract(t, store)
		})
	}
}
