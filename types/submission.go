package types

import "io"

// Upload is a file attached to a submission.
type Upload struct {
	// Filename is the client-supplied original filename. It is untrusted.
	Filename string

	// ContentType is the client-supplied media type, if any.
	ContentType string

	// Size is the payload length in bytes, or -1 when unknown.
	Size int64

	// Content streams the payload.
	Content io.Reader
}

// Submission is a parsed request to create a user.
type Submission struct {
	Name  *string
	Email *string

	// Photo is nil when no file was submitted.
	Photo *Upload
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	// Err is the typed cause of a failed ingestion. It is never serialized.
	Err error `json:"-"`
}
