package services

import (
	"context"
	"errors"

	"github.com/jjudge-oj/roster/internal/metrics"
	"github.com/jjudge-oj/roster/internal/storage"
	"github.com/jjudge-oj/roster/internal/store"
	"github.com/jjudge-oj/roster/types"
	"go.uber.org/zap"
)

const photoUploadFailed = "photo upload failed"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Insert(ctx context.Context, user types.NewUser) (types.User, error)
	ListAll(ctx context.Context) ([]types.User, error)
}

// BlobStore writes an uploaded payload and returns its key.
type BlobStore interface {
	Store(ctx context.Context, upload types.Upload) (string, error)
}

// UserService encapsulates user ingestion and listing.
type UserService struct {
	repo    UserRepository
	blobs   BlobStore
	events  EventPublisher
	logger  *zap.Logger
	metrics metrics.Recorder
}

func NewUserService(repo UserRepository, blobs BlobStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repo:    repo,
		blobs:   blobs,
		logger:  logger,
		metrics: metrics.Nop{},
	}
}

// WithEvents publishes a user.created event after every successful ingest.
func (s *UserService) WithEvents(events EventPublisher) *UserService {
	s.events = events
	return s
}

func (s *UserService) WithMetrics(recorder metrics.Recorder) *UserService {
	if recorder != nil {
		s.metrics = recorder
	}
	return s
}

// Ingest stores the submitted photo, if any, and then inserts the user record.
// The two writes are not transactional: the insert is skipped when the photo
// write fails, and a photo written before a failed insert is left in place.
// Ingest never returns an error; failures are reported in the result.
func (s *UserService) Ingest(ctx context.Context, sub types.Submission) types.IngestResult {
	var photoRef *string
	if sub.Photo != nil {
		key, err := s.blobs.Store(ctx, *sub.Photo)
		if err != nil {
			s.logger.Error("photo upload failed",
				zap.String("filename", sub.Photo.Filename),
				zap.Error(err),
			)
			s.metrics.RecordIngest(metrics.OutcomeStorageError)
			return failure(err)
		}
		s.metrics.RecordBlobBytes(sub.Photo.Size)
		photoRef = &key
	}

	user, err := s.repo.Insert(ctx, types.NewUser{
		Name:     sub.Name,
		Email:    sub.Email,
		PhotoURL: photoRef,
		Status:   types.UserStatusActive,
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if photoRef != nil {
			fields = append(fields, zap.String("orphan_blob", *photoRef))
		}
		s.logger.Error("database insert failed", fields...)
		s.metrics.RecordIngest(metrics.OutcomePersistenceError)
		return failure(err)
	}

	s.logger.Info("user created",
		zap.Int64("id", user.ID),
		zap.Bool("has_photo", photoRef != nil),
	)
	s.metrics.RecordIngest(metrics.OutcomeOK)

	if s.events != nil {
		if err := s.events.PublishUserCreated(ctx, user); err != nil {
			s.logger.Warn("publish user.created failed", zap.Int64("id", user.ID), zap.Error(err))
			s.metrics.RecordPublishFailure()
		}
	}

	return types.IngestResult{Success: true}
}

// List returns every user, newest first. Store failures are logged and
// yield an empty list.
func (s *UserService) List(ctx context.Context) []types.User {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		s.metrics.RecordListFailure()
		return []types.User{}
	}
	if users == nil {
		return []types.User{}
	}
	return users
}

func failure(err error) types.IngestResult {
	return types.IngestResult{Success: false, Message: failureMessage(err), Err: err}
}

// failureMessage reports the driver message for persistence failures. Blob
// write details can carry server paths, so they stay in the log.
func failureMessage(err error) string {
	var perr *store.PersistenceError
	if errors.As(err, &perr) && perr.Err != nil {
		return perr.Err.Error()
	}
	var werr *storage.WriteError
	if errors.As(err, &werr) {
		return photoUploadFailed
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "ingestion failed"
}
