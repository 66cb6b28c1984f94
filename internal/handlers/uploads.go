package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/roster/internal/storage"
	"go.uber.org/zap"
)

// ObjectReader opens stored blobs by key.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadHandler serves stored photos.
type UploadHandler struct {
	objects ObjectReader
	logger  *zap.Logger
}

func NewUploadHandler(objects ObjectReader, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{objects: objects, logger: logger}
}

// UploadRouter registers the blob route on the given router.
func UploadRouter(r chi.Router, objects ObjectReader, logger *zap.Logger) {
	handler := NewUploadHandler(objects, logger)
	r.Get("/{key}", handler.GetUpload)
}

// GetUpload streams the blob named by the key path parameter.
func (h *UploadHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	key, err := uploadKey(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	rc, err := h.objects.Get(r.Context(), key)
	if err != nil {
		// Keys the backend refuses are reported the same as missing ones.
		if !errors.Is(err, storage.ErrObjectNotFound) {
			h.logger.Warn("open upload failed", zap.String("key", key), zap.Error(err))
		}
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream upload failed", zap.String("key", key), zap.Error(err))
	}
}

// uploadKey returns the decoded key path parameter. chi matches on the raw
// path whenever the request keeps one, so the parameter is still escaped then.
func uploadKey(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, nil
	}
	return url.PathUnescape(key)
}
