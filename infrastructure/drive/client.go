package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"match-highlights/domain/distribution"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const listFields = "id, name, mimeType, size, createdTime, properties"

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error)
	CreateFile(ctx context.Context, file *drive.File, mimeType string, content io.Reader) (*drive.File, error)
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
	CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// ListFiles lists all files matching the query, following pagination
func (s *GoogleDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	var files []*drive.File
	err := s.service.Files.List().
		Q(query).
		Fields(googleapi.Field("nextPageToken, files(" + fields + ")")).
		OrderBy(orderBy).
		PageSize(1000).
		Pages(ctx, func(r *drive.FileList) error {
			files = append(files, r.Files...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CreateFile uploads content as a new file
func (s *GoogleDriveService) CreateFile(ctx context.Context, file *drive.File, mimeType string, content io.Reader) (*drive.File, error) {
	return s.service.Files.Create(file).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id, name, size").
		Context(ctx).
		Do()
}

// DownloadFile opens the content of a file
func (s *GoogleDriveService) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CreatePermission adds a permission to a file
func (s *GoogleDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	_, err := s.service.Permissions.Create(fileID, permission).Context(ctx).Do()
	return err
}

// Client implements distribution.BlobStore using Google Drive API
type Client struct {
	driveService DriveService
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// NewClient creates a new Google Drive client authenticated as a service account
// If no options are provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	// If no custom drive service was provided, create a real one
	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := config.Client(ctx)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// Upload implements distribution.BlobStore
func (c *Client) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	file := &drive.File{
		Name:       req.Name,
		MimeType:   req.MimeType,
		Properties: req.Properties,
	}
	if req.FolderID != "" {
		file.Parents = []string{req.FolderID}
	}

	created, err := c.driveService.CreateFile(ctx, file, req.MimeType, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", req.Name, err)
	}

	return &distribution.UploadResult{
		FileID:      created.Id,
		Name:        created.Name,
		ViewURL:     distribution.ViewURL(created.Id),
		DownloadURL: distribution.DownloadURL(created.Id),
		Size:        created.Size,
	}, nil
}

// Download implements distribution.BlobStore
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) error {
	body, err := c.driveService.DownloadFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	defer body.Close()

	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileID, err)
	}
	return nil
}

// List implements distribution.BlobStore
func (c *Client) List(ctx context.Context, folderID string, filter distribution.ListFilter) ([]distribution.FileInfo, error) {
	files, err := c.driveService.ListFiles(ctx, buildQuery(folderID, filter), listFields, "createdTime desc")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	result := make([]distribution.FileInfo, 0, len(files))
	for _, f := range files {
		result = append(result, distribution.FileInfo{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			Size:        f.Size,
			CreatedTime: parseTime(f.CreatedTime),
			Properties:  distribution.Properties(f.Properties),
		})
	}
	return result, nil
}

// SetPubliclyReadable implements distribution.BlobStore
func (c *Client) SetPubliclyReadable(ctx context.Context, fileID string) error {
	perm := &drive.Permission{Role: "reader", Type: "anyone"}
	if err := c.driveService.CreatePermission(ctx, fileID, perm); err != nil {
		return fmt.Errorf("failed to share %s: %w", fileID, err)
	}
	return nil
}

// buildQuery renders a Drive search query for a folder and filter
func buildQuery(folderID string, filter distribution.ListFilter) string {
	clauses := []string{"trashed = false"}
	if folderID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", escape(folderID)))
	}
	if filter.MatchID != "" {
		clauses = append(clauses, fmt.Sprintf("properties has { key='%s' and value='%s' }",
			distribution.PropMatchID, escape(filter.MatchID)))
	}
	if !filter.CreatedAfter.IsZero() {
		clauses = append(clauses, fmt.Sprintf("createdTime > '%s'", filter.CreatedAfter.UTC().Format(time.RFC3339)))
	}
	return strings.Join(clauses, " and ")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// parseTime parses a Google Drive timestamp string
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure Client implements distribution.BlobStore
var _ distribution.BlobStore = (*Client)(nil)
