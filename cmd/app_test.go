package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"match-highlights/application/batch"
	appdist "match-highlights/application/distribution"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"
	"match-highlights/infrastructure/config"
	"match-highlights/infrastructure/filesystem"
	"match-highlights/infrastructure/jobstore"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedFile struct {
	info   distribution.FileInfo
	folder string
	body   []byte
	public bool
}

// memoryBlobStore keeps uploads in memory
type memoryBlobStore struct {
	mu    sync.Mutex
	files []*storedFile
}

func (s *memoryBlobStore) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("file-%d", len(s.files)+1)
	s.files = append(s.files, &storedFile{
		info:   distribution.FileInfo{ID: id, Name: req.Name, MimeType: req.MimeType, Size: int64(len(body)), Properties: req.Properties},
		folder: req.FolderID,
		body:   body,
	})
	return &distribution.UploadResult{
		FileID:      id,
		Name:        req.Name,
		ViewURL:     distribution.ViewURL(id),
		DownloadURL: distribution.DownloadURL(id),
		Size:        int64(len(body)),
	}, nil
}

func (s *memoryBlobStore) Download(ctx context.Context, fileID string, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.info.ID == fileID {
			_, err := w.Write(f.body)
			return err
		}
	}
	return fmt.Errorf("file %s not found", fileID)
}

func (s *memoryBlobStore) List(ctx context.Context, folderID string, filter distribution.ListFilter) ([]distribution.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []distribution.FileInfo
	for i := len(s.files) - 1; i >= 0; i-- {
		f := s.files[i]
		if f.folder != folderID {
			continue
		}
		if filter.MatchID != "" && f.info.Properties.Get(distribution.PropMatchID) != filter.MatchID {
			continue
		}
		out = append(out, f.info)
	}
	return out, nil
}

func (s *memoryBlobStore) SetPubliclyReadable(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.info.ID == fileID {
			f.public = true
		}
	}
	return nil
}

// copyTranscoder writes a textual description of each operation
type copyTranscoder struct{}

func (copyTranscoder) Trim(ctx context.Context, inputPath, outputPath string, startOffsetSec, durationSec float64) error {
	in, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	out := fmt.Sprintf("trim(%s,%s,%s)", in, media.FormatOffset(startOffsetSec), media.FormatOffset(durationSec))
	return os.WriteFile(outputPath, []byte(out), 0644)
}

func (copyTranscoder) Concat(ctx context.Context, inputPaths []string, outputPath string) error {
	var parts []string
	for _, p := range inputPaths {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		parts = append(parts, string(b))
	}
	return os.WriteFile(outputPath, []byte(strings.Join(parts, "+")), 0644)
}

func newTestApp(t *testing.T) (*app, *memoryBlobStore, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Google.FullFolderID = "full"
	cfg.Google.ShortFolderID = "short"
	cfg.Paths.ScratchDirectory = filepath.Join(dir, "scratch")
	cfg.Paths.JobDatabase = filepath.Join(dir, "jobs.db")

	log := logrus.New()
	log.SetOutput(io.Discard)

	workspace, err := filesystem.NewWorkspace(cfg.Paths.ScratchDirectory)
	require.NoError(t, err)
	jobs, err := jobstore.Open(cfg.Paths.JobDatabase, log)
	require.NoError(t, err)

	store := &memoryBlobStore{}
	a := wireApp(cfg, log, store, copyTranscoder{}, workspace, jobs)
	t.Cleanup(func() { a.Close() })
	return a, store, cfg.Paths.ScratchDirectory
}

func TestApp_SegmentsToClips(t *testing.T) {
	ctx := context.Background()
	a, store, scratch := newTestApp(t)

	first, err := a.uploads.UploadSegment(ctx, appdist.SegmentInput{
		MatchID: "m1", StartTimeInGame: 0, Duration: "20", Body: strings.NewReader("A"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.MatchID, "m1_"), first.MatchID)

	second, err := a.uploads.UploadSegment(ctx, appdist.SegmentInput{
		MatchID: "m1", StartTimeInGame: 20, Duration: "20", Body: strings.NewReader("B"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.MatchID, second.MatchID)

	job, err := a.orchestrator.Run(ctx, batch.Batch{
		MatchID: "m1",
		Actions: []media.Action{
			{TimestampInGame: 22, ActionType: "goal", PlayerName: "Dana"},
			{TimestampInGame: 35},
			{TimestampInGame: 200},
		},
		Segments: []media.Segment{
			{FileRef: first.Clip.GoogleFileID, StartTimeInGame: 0, DurationSec: 20},
			{FileRef: second.Clip.GoogleFileID, StartTimeInGame: 20, DurationSec: 20},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, batch.StatusDone, job.Status)
	assert.Equal(t, first.MatchID, job.MatchID)
	require.Len(t, job.Results, 3)
	assert.True(t, job.Results[0].Success)
	assert.True(t, job.Results[1].Success)
	assert.Equal(t, batch.KindNoMatchingSegment, job.Results[2].ErrorKind)

	// merged previous+current, offset 22-8 into the merged file
	merged := store.files[2]
	assert.Equal(t, "short", merged.folder)
	assert.Equal(t, "trim(A+B,14.000,8.000)", string(merged.body))
	assert.True(t, merged.public)
	assert.Equal(t, first.MatchID, merged.info.Properties.Get(distribution.PropMatchID))
	assert.Equal(t, "Dana", merged.info.Properties.Get(distribution.PropPlayerName))

	// 35-8 = 27 lies in the current segment at offset 7
	assert.Equal(t, "trim(B,7.000,8.000)", string(store.files[3].body))

	stored, err := a.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusDone, stored.Status)
	assert.Len(t, stored.Results, 3)

	clips, err := a.uploads.ListClips(ctx, distribution.ListFilter{MatchID: first.MatchID})
	require.NoError(t, err)
	assert.Len(t, clips, 2)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories must be removed")

	var out bytes.Buffer
	require.NoError(t, RunJobGetWithDependencies(ctx, a.jobs, job.ID, false, &out))
	assert.Contains(t, out.String(), "2/3 clip(s) created")
}

func TestOpenJobs(t *testing.T) {
	log, hook := test.NewNullLogger()
	cfg := config.Default()

	cfg.Paths.JobDatabase = ""
	jobs, err := openJobs(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &batch.MemoryStore{}, jobs)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	cfg.Paths.JobDatabase = filepath.Join(t.TempDir(), "jobs.db")
	jobs, err = openJobs(cfg, log)
	require.NoError(t, err)
	require.IsType(t, &jobstore.Store{}, jobs)
	assert.NoError(t, jobs.(io.Closer).Close())
}

func TestApp_InMemoryJobs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Google.FullFolderID = "full"
	cfg.Google.ShortFolderID = "short"
	cfg.Paths.JobDatabase = ""

	log, _ := test.NewNullLogger()
	workspace, err := filesystem.NewWorkspace(filepath.Join(dir, "scratch"))
	require.NoError(t, err)
	jobs, err := openJobs(cfg, log)
	require.NoError(t, err)

	store := &memoryBlobStore{}
	a := wireApp(cfg, log, store, copyTranscoder{}, workspace, jobs)

	seg, err := a.uploads.UploadSegment(ctx, appdist.SegmentInput{
		MatchID: "m1", StartTimeInGame: 0, Duration: "20", Body: strings.NewReader("A"),
	})
	require.NoError(t, err)

	job, err := a.orchestrator.Run(ctx, batch.Batch{
		MatchID:  "m1",
		Actions:  []media.Action{{TimestampInGame: 12}},
		Segments: []media.Segment{{FileRef: seg.Clip.GoogleFileID, StartTimeInGame: 0, DurationSec: 20}},
	})
	require.NoError(t, err)

	stored, err := a.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusDone, stored.Status)
	assert.Len(t, stored.Results, 1)

	_, recovers := a.jobs.(interruptRecoverer)
	assert.False(t, recovers, "memory jobs have nothing to recover")
	assert.NoError(t, a.Close())
}
