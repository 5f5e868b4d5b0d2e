package distribution

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"match-highlights/domain/distribution"

	"github.com/sirupsen/logrus/hooks/test"
)

// mockStore implements distribution.BlobStore for testing
type mockStore struct {
	uploads   []distribution.UploadRequest
	bodies    []string
	shared    []string
	listed    []listCall
	files     []distribution.FileInfo
	uploadErr error
	shareErr  error
	listErr   error
}

type listCall struct {
	folderID string
	filter   distribution.ListFilter
}

func (m *mockStore) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	b, _ := io.ReadAll(req.Body)
	m.uploads = append(m.uploads, req)
	m.bodies = append(m.bodies, string(b))
	return &distribution.UploadResult{
		FileID:      "file-1",
		Name:        req.Name,
		ViewURL:     distribution.ViewURL("file-1"),
		DownloadURL: distribution.DownloadURL("file-1"),
		Size:        int64(len(b)),
	}, nil
}

func (m *mockStore) Download(ctx context.Context, fileID string, w io.Writer) error {
	return errors.New("not implemented")
}

func (m *mockStore) List(ctx context.Context, folderID string, filter distribution.ListFilter) ([]distribution.FileInfo, error) {
	m.listed = append(m.listed, listCall{folderID: folderID, filter: filter})
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.files, nil
}

func (m *mockStore) SetPubliclyReadable(ctx context.Context, fileID string) error {
	if m.shareErr != nil {
		return m.shareErr
	}
	m.shared = append(m.shared, fileID)
	return nil
}

// mockSessions implements SessionResolver for testing
type mockSessions struct {
	calls []float64
}

func (m *mockSessions) Resolve(callerID string, segmentStart float64) string {
	m.calls = append(m.calls, segmentStart)
	if segmentStart == 0 {
		return callerID + "_1700000000000"
	}
	return callerID
}

func newTestService(store *mockStore, sessions *mockSessions) *UploadService {
	tagger := distribution.NewTagger("full-folder", "short-folder", ".webm",
		distribution.WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
		distribution.WithIDGenerator(func() string { return "cid" }),
	)
	log, _ := test.NewNullLogger()
	return NewUploadService(store, tagger, sessions, distribution.MimeTypeWebM, log)
}

func TestUploadService_PublishRoutesShortClips(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store, &mockSessions{})

	props := distribution.Properties{
		distribution.PropMatchID:    "m1",
		distribution.PropActionType: "goal",
		distribution.PropClipID:     "cid",
	}
	clip, err := svc.Publish(context.Background(), "clip_m1_cid.webm", props, []byte("data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.uploads[0].FolderID != "short-folder" {
		t.Errorf("folder = %q, want short-folder", store.uploads[0].FolderID)
	}
	if store.uploads[0].MimeType != distribution.MimeTypeWebM {
		t.Errorf("mime = %q", store.uploads[0].MimeType)
	}
	if store.bodies[0] != "data" {
		t.Errorf("body = %q", store.bodies[0])
	}
	if len(store.shared) != 1 || store.shared[0] != "file-1" {
		t.Errorf("shared = %v, want [file-1]", store.shared)
	}
	if clip.ExternalID != "cid" || clip.GoogleFileID != "file-1" || clip.MatchID != "m1" {
		t.Errorf("unexpected clip %+v", clip)
	}
}

func TestUploadService_PublishFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *mockStore
	}{
		{"upload rejected", &mockStore{uploadErr: errors.New("googleapi: Error 403")}},
		{"share rejected", &mockStore{shareErr: errors.New("googleapi: Error 500")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.store, &mockSessions{})
			_, err := svc.Publish(context.Background(), "n", distribution.Properties{}, []byte("x"))
			if !errors.Is(err, distribution.ErrUploadFailure) {
				t.Errorf("expected upload failure, got %v", err)
			}
		})
	}
}

func TestUploadService_UploadSegment(t *testing.T) {
	store := &mockStore{}
	sessions := &mockSessions{}
	svc := newTestService(store, sessions)

	result, err := svc.UploadSegment(context.Background(), SegmentInput{
		MatchID:         "m1",
		StartTimeInGame: 0,
		FileName:        "segment_000.webm",
		Body:            strings.NewReader("raw"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MatchID != "m1_1700000000000" {
		t.Errorf("match id = %q", result.MatchID)
	}
	req := store.uploads[0]
	if req.FolderID != "full-folder" {
		t.Errorf("folder = %q, want full-folder", req.FolderID)
	}
	if req.Name != "segment_000.webm" {
		t.Errorf("name = %q", req.Name)
	}
	if req.Properties.Get(distribution.PropSegmentStartTimeInGame) != "0" {
		t.Errorf("segment start = %q", req.Properties.Get(distribution.PropSegmentStartTimeInGame))
	}
	if req.Properties.Get(distribution.PropDuration) != "20" {
		t.Errorf("duration = %q, want default 20", req.Properties.Get(distribution.PropDuration))
	}
	if result.Clip.SegmentStartTimeInGame != "0" {
		t.Errorf("clip segment start = %q", result.Clip.SegmentStartTimeInGame)
	}
}

func TestUploadService_UploadSegmentGeneratesNameAndParsesDuration(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store, &mockSessions{})

	_, err := svc.UploadSegment(context.Background(), SegmentInput{
		MatchID:         "m1",
		StartTimeInGame: 40,
		Duration:        "00:00:19",
		Body:            strings.NewReader("raw"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := store.uploads[0]
	if req.Name != "clip_m1_cid.webm" {
		t.Errorf("name = %q", req.Name)
	}
	if req.Properties.Get(distribution.PropDuration) != "19" {
		t.Errorf("duration = %q, want 19", req.Properties.Get(distribution.PropDuration))
	}
}

func TestUploadService_UploadSegmentValidation(t *testing.T) {
	svc := newTestService(&mockStore{}, &mockSessions{})

	tests := []struct {
		name  string
		input SegmentInput
		want  string
	}{
		{"missing match id", SegmentInput{Body: strings.NewReader("x")}, "match id is required"},
		{"missing body", SegmentInput{MatchID: "m1"}, "segment content is required"},
		{"bad duration", SegmentInput{MatchID: "m1", Duration: "twenty", Body: strings.NewReader("x")}, "invalid segment duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadSegment(context.Background(), tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestUploadService_ListClips(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &mockStore{files: []distribution.FileInfo{
		{ID: "f1", Name: "clip_m1_a.webm", CreatedTime: created, Properties: distribution.Properties{distribution.PropMatchID: "m1"}},
		{ID: "f2", Name: "clip_m1_b.webm", CreatedTime: created, Properties: distribution.Properties{distribution.PropMatchID: "m1"}},
	}}
	svc := newTestService(store, &mockSessions{})

	filter := distribution.ListFilter{MatchID: "m1", CreatedAfter: created.Add(-time.Hour)}
	clips, err := svc.ListClips(context.Background(), filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if store.listed[0].folderID != "short-folder" {
		t.Errorf("listed folder = %q", store.listed[0].folderID)
	}
	if store.listed[0].filter != filter {
		t.Errorf("filter = %+v, want %+v", store.listed[0].filter, filter)
	}
	if clips[1].ViewURL != distribution.ViewURL("f2") {
		t.Errorf("view url = %q", clips[1].ViewURL)
	}
}

func TestUploadService_ListClipsError(t *testing.T) {
	svc := newTestService(&mockStore{listErr: errors.New("boom")}, &mockSessions{})
	if _, err := svc.ListClips(context.Background(), distribution.ListFilter{}); err == nil {
		t.Error("expected error")
	}
}
