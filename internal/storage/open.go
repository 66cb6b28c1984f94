package storage

import (
	"context"
	"fmt"

	"github.com/jjudge-oj/roster/config"
)

// Open builds the configured backend, ensures its bucket exists and wraps it
// in a Storage.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "", config.StorageLocal:
		backend, err = NewLocalDisk(cfg.Path)
	case config.StorageMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage failed: %w", cfg.Backend, err)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ensure bucket %s failed: %w", s.Bucket(), err)
	}
	return s, nil
}
