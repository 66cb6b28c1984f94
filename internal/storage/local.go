package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const localTempDir = ".tmp"

// LocalDisk stores objects as flat files under a root directory.
type LocalDisk struct {
	root string
}

// NewLocalDisk constructs a local disk backend rooted at root.
// The directory itself is created by EnsureBucket.
func NewLocalDisk(root string) (*LocalDisk, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage path is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &LocalDisk{root: abs}, nil
}

// EnsureBucket creates the root directory, including parents, if absent.
func (l *LocalDisk) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(l.root, localTempDir), 0o755)
}

// Put writes r to a temp file and renames it to key. An existing object with
// the same key is replaced.
func (l *LocalDisk) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := l.pathFromKey(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(l.root, localTempDir), "put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Get opens the object stored under key.
func (l *LocalDisk) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes an object. Missing files are ignored.
func (l *LocalDisk) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Bucket returns the root directory.
func (l *LocalDisk) Bucket() string {
	return l.root
}

func (l *LocalDisk) pathFromKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("object key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || key == localTempDir {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.root, key), nil
}
