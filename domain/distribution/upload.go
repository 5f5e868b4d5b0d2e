package distribution

import (
	"errors"
	"fmt"
	"io"
)

// UploadRequest contains the parameters needed to store a file
type UploadRequest struct {
	Name       string     // Target filename in the store
	FolderID   string     // Target folder
	MimeType   string     // MIME type of the content
	Properties Properties // Searchable key/value metadata
	Body       io.Reader  // File content
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID      string
	Name        string
	ViewURL     string
	DownloadURL string
	Size        int64
}

// MIME type constants for the supported containers
const (
	MimeTypeWebM = "video/webm"
	MimeTypeMP4  = "video/mp4"
)

// ErrUploadFailure is matched by every UploadError
var ErrUploadFailure = errors.New("upload failure")

// UploadError wraps a rejected or unreachable upload
type UploadError struct {
	Name  string
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUploadFailure, e.Name, e.Cause)
}

// Unwrap exposes the originating cause
func (e *UploadError) Unwrap() error {
	return e.Cause
}

// Is matches ErrUploadFailure
func (e *UploadError) Is(target error) bool {
	return target == ErrUploadFailure
}
