package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ReadJSON reads key and decodes it into T. Only a failed read is returned as an error;
// an absent key or a corrupt value yield the zero T.
func ReadJSON[T any](ctx context.Context, store Store, key string) (T, error) {
	var result T
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return result, fmt.Errorf("store.Get(%s) > %w", key, err)
	}
	if !ok || raw == "" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Default().Warn("corrupt value in storage, treating as empty",
			"key", key,
			"error", err)
		var zero T
		return zero, nil
	}
	return result, nil
}

// LoadJSON is ReadJSON for callers with nothing to fall back on:
// a collection that cannot be read is treated as empty.
func LoadJSON[T any](ctx context.Context, store Store, key string) T {
	result, err := ReadJSON[T](ctx, store, key)
	if err != nil {
		slog.Default().Warn("failed to read from storage, treating as empty",
			"key", key,
			"error", err)
	}
	return result
}

// SaveJSON encodes value and writes it under key.
// Failures are wrapped in *PersistError so callers can report a degraded, memory-only state.
func SaveJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &PersistError{Key: key, Err: fmt.Errorf("json.Marshal() > %w", err)}
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		slog.Default().Warn("failed to write to storage",
			"key", key,
			"error", err)
		return &PersistError{Key: key, Err: err}
	}
	return nil
}

// RemoveKey deletes key, wrapping failures in *PersistError.
func RemoveKey(ctx context.Context, store Store, key string) error {
	if err := store.Remove(ctx, key); err != nil {
		slog.Default().Warn("failed to remove from storage",
			"key", key,
			"error", err)
		return &PersistError{Key: key, Err: err}
	}
	return nil
}
