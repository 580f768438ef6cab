// Package storage keeps spooled export artifacts and reads stored assets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an artifact does not exist
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidPath is returned for paths that escape the store root
	ErrInvalidPath = errors.New("invalid artifact path")
)

// ArtifactStore spools finished artifacts so they can be downloaded later
type ArtifactStore interface {
	// Store writes the artifact atomically: readers see all of it or none
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Open returns the artifact at path
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the artifact; a missing artifact is not an error
	Delete(ctx context.Context, path string) error
	// CleanupOlderThan removes artifacts older than age and returns how many were removed
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// StoreRequest describes one artifact to spool
type StoreRequest struct {
	JobID       uuid.UUID
	Data        []byte
	ContentType string
	Extension   string // including the dot, e.g. ".pdf"
}

func (r *StoreRequest) validate() error {
	if r == nil {
		return errors.New("store request is nil")
	}
	if r.JobID == uuid.Nil {
		return errors.New("job ID is required")
	}
	if len(r.Data) == 0 {
		return errors.New("artifact data is empty")
	}
	return nil
}

// objectPath is the relative location of an artifact: {yyyy}/{mm}/{job}{ext}
func (r *StoreRequest) objectPath(now time.Time) string {
	ext := r.Extension
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("%d/%02d/%s%s", now.Year(), now.Month(), r.JobID, ext)
}

// StoreResult describes a stored artifact
type StoreResult struct {
	// Path is the store-relative location
	Path string
	// URL is a direct download link when the backend can mint one, otherwise empty
	URL  string
	Size int64
}
