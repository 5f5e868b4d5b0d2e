//go:build integration

package steps

import (
	"context"
	"fmt"
	"io"
	"sync"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"
)

// memoryBlobStore keeps uploaded files in memory
type memoryBlobStore struct {
	mu    sync.Mutex
	files []distribution.FileInfo
}

func (s *memoryBlobStore) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("file-%d", len(s.files)+1)
	s.files = append(s.files, distribution.FileInfo{ID: id, Name: req.Name, Size: int64(len(body)), Properties: req.Properties})
	return &distribution.UploadResult{FileID: id, Name: req.Name, ViewURL: distribution.ViewURL(id), Size: int64(len(body))}, nil
}

func (s *memoryBlobStore) Download(ctx context.Context, fileID string, w io.Writer) error {
	return fmt.Errorf("download not supported")
}

func (s *memoryBlobStore) List(ctx context.Context, folderID string, filter distribution.ListFilter) ([]distribution.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]distribution.FileInfo(nil), s.files...), nil
}

func (s *memoryBlobStore) SetPubliclyReadable(ctx context.Context, fileID string) error {
	return nil
}

// recordingProducer records produced actions and fails on request
type recordingProducer struct {
	mu       sync.Mutex
	produced []float64
	failAt   map[float64]error
}

func (p *recordingProducer) Produce(ctx context.Context, matchID string, action media.Action, cut media.ResolvedCut) (*distribution.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failAt[action.Timestamp()]; err != nil {
		return nil, err
	}
	p.produced = append(p.produced, action.Timestamp())
	id := fmt.Sprintf("clip-%d", len(p.produced))
	return &distribution.Clip{GoogleFileID: id, MatchID: matchID, ViewURL: distribution.ViewURL(id)}, nil
}
