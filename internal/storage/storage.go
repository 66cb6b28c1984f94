package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jjudge-oj/roster/types"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// WriteError reports a blob write that could not complete.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write %q failed: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Storage wraps an ObjectStorage backend and owns the blob naming policy.
type Storage struct {
	backend ObjectStorage
	now     func() time.Time
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return NewStorageWithClock(backend, time.Now)
}

// NewStorageWithClock is NewStorage with an explicit clock used for key naming.
func NewStorageWithClock(backend ObjectStorage, now func() time.Time) *Storage {
	if now == nil {
		now = time.Now
	}
	return &Storage{backend: backend, now: now}
}

// BlobKey returns the stored key for an upload made at t.
// Two uploads of the same filename within one millisecond get the same key.
func BlobKey(t time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), originalName)
}

// Store writes the upload under a key derived from the current time and the
// original filename, and returns that key.
func (s *Storage) Store(ctx context.Context, upload types.Upload) (string, error) {
	key := BlobKey(s.now(), upload.Filename)
	if upload.Content == nil {
		return "", &WriteError{Key: key, Err: errors.New("missing upload content")}
	}
	if err := s.backend.Put(ctx, key, upload.Content, upload.Size, upload.ContentType); err != nil {
		return "", &WriteError{Key: key, Err: err}
	}
	return key, nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend client, if it holds one.
func (s *Storage) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
