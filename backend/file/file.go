// Package file implements a KeyValueStore that keeps each key in its own file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"tidytodo/backend"
)

const lockName = ".tidytodo.lock"

// Backend implements backend.KeyValueStore on a directory of files.
// Writes go to a temp file and are renamed into place while an
// advisory lock is held, so other processes never observe a torn value.
type Backend struct {
	dir  string
	lock *flock.Flock
}

func init() {
	backend.Register("file", func(path string) (backend.KeyValueStore, error) {
		return New(path)
	})
}

// New creates a file backend rooted at dir
func New(dir string) (*Backend, error) {
	if dir == "" {
		dir = "."
	}

	// Resolve relative paths
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Backend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockName)),
	}, nil
}

// Dir returns the directory holding the values
func (b *Backend) Dir() string {
	return b.dir
}

// KeyPath returns the file that stores key
func (b *Backend) KeyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(b.dir, key+".json"), nil
}

// Get returns the contents of the key's file
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := b.KeyPath(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set atomically replaces the key's file
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	path, err := b.KeyPath(key)
	if err != nil {
		return err
	}

	if err := b.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock storage: %w", err)
	}
	defer func() { _ = b.lock.Unlock() }()

	tmp, err := os.CreateTemp(b.dir, "."+key+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Delete removes the key's file
func (b *Backend) Delete(ctx context.Context, key string) error {
	path, err := b.KeyPath(key)
	if err != nil {
		return err
	}

	if err := b.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock storage: %w", err)
	}
	defer func() { _ = b.lock.Unlock() }()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close releases the lock file handle
func (b *Backend) Close() error {
	return b.lock.Close()
}

// Verify interface compliance at compile time
var _ backend.KeyValueStore = (*Backend)(nil)
