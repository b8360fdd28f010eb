package storage

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/examprep/examprep/internal/config"
	"github.com/examprep/examprep/internal/database"
)

// Open builds the configured backend. The returned close function releases its connections.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file":
		return NewFileStore(cfg.File.Path), noop, nil
	case "mysql", "sqlite3":
		dbCfg := cfg.Database
		dbCfg.Driver = cfg.Backend
		db, err := database.Open(dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("database.Open() > %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		return NewSQLStore(db), db.Close, nil
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(rdb, cfg.Redis.Prefix), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}
