package distribution

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the remote object store holding segments and clips.
// This is a port that can be implemented by different infrastructure adapters
type BlobStore interface {
	// Upload stores the request body under the given name and folder
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)

	// Download streams the content of a stored file into w
	Download(ctx context.Context, fileID string, w io.Writer) error

	// List lists files in a folder matching the filter, newest first
	List(ctx context.Context, folderID string, filter ListFilter) ([]FileInfo, error)

	// SetPubliclyReadable grants read access to anyone with the link
	SetPubliclyReadable(ctx context.Context, fileID string) error
}

// ListFilter narrows a List call. Zero values mean no constraint.
type ListFilter struct {
	MatchID      string
	CreatedAfter time.Time
}

// FileInfo represents metadata about a stored file
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedTime time.Time
	Properties  Properties
}
