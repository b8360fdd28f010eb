// Package database provides database connection management.
package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/examprep/examprep/internal/config"
	"github.com/examprep/examprep/schemas"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Open opens a connection for the configured driver. It does not contact the server.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var dsn string
	switch cfg.Driver {
	case DriverMySQL:
		dsn = mysqlDSN(cfg)
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite3 requires a database path")
		}
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(cfg.Path), err)
			}
		}
		dsn = cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY under concurrent handlers
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return db, nil
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Database
	mysqlCfg.ParseTime = true
	mysqlCfg.MultiStatements = true
	if cfg.TLS {
		mysqlCfg.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		mysqlCfg.Params = cfg.Params
	}
	return mysqlCfg.FormatDSN()
}

// Migrate applies the embedded migrations for the connection's driver in file-name order.
// Every migration is idempotent, so it runs them all on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dir := "migrations/" + db.DriverName()
	entries, err := fs.ReadDir(schemas.Migrations, dir)
	if err != nil {
		return fmt.Errorf("fs.ReadDir(%s) > %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return RunInTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, name := range names {
			path := dir + "/" + name
			query, err := fs.ReadFile(schemas.Migrations, path)
			if err != nil {
				return fmt.Errorf("fs.ReadFile(%s) > %w", path, err)
			}
			if _, err := tx.ExecContext(ctx, string(query)); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			slog.Default().Debug("applied migration", "driver", db.DriverName(), "name", name)
		}
		return nil
	})
}

// RunInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
