package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes each record to <dir>/<key>.json
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put writes through a temp file and rename so a crash never leaves a
// half-written record behind
func (s *FileStore) Put(_ context.Context, key string, data []byte) Result {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return Result{Key: key, Err: fmt.Errorf("failed to create temp file for %s: %w", key, err)}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Result{Key: key, Err: fmt.Errorf("failed to write %s: %w", key, err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Result{Key: key, Err: fmt.Errorf("failed to close %s: %w", key, err)}
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return Result{Key: key, Err: fmt.Errorf("failed to commit %s: %w", key, err)}
	}

	return Result{Key: key, Bytes: len(data)}
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
