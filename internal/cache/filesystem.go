package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemBackend stores one file per entry under a directory. Keys are
// already hex digests, so they are safe as file names.
type FilesystemBackend struct {
	dir string
}

func NewFilesystemBackend(dir string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemBackend{dir: dir}, nil
}

func (b *FilesystemBackend) path(key string) string {
	return filepath.Join(b.dir, key)
}

func (b *FilesystemBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *FilesystemBackend) Set(_ context.Context, key string, data []byte) error {
	return os.WriteFile(b.path(key), data, 0o644)
}

func (b *FilesystemBackend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (b *FilesystemBackend) Close() error { return nil }
