package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps all keys in a single YAML document on disk.
// Every operation re-reads the file so that several processes sharing it see each other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	values := make(map[string]string)
	if err := yaml.NewDecoder(file).Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("yaml.NewDecoder().Decode(%s) > %w", s.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

// write replaces the file through a rename so a crash never leaves a half-written document.
func (s *FileStore) write(values map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp(%s) > %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	encoder := yaml.NewEncoder(tmp)
	if err := encoder.Encode(values); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("yaml.NewEncoder().Encode() > %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoder.Close() > %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close() > %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("os.Rename(%s, %s) > %w", tmpPath, s.path, err)
	}
	return nil
}
