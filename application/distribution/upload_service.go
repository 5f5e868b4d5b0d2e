package distribution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/sirupsen/logrus"
)

// ErrInvalidSegment is returned for segment uploads with missing or malformed input
var ErrInvalidSegment = errors.New("invalid segment")

// SessionResolver maps a caller match id to the effective id of the run
type SessionResolver interface {
	Resolve(callerID string, segmentStart float64) string
}

// UploadService stores clips and segments in the blob store and shares them
type UploadService struct {
	store    distribution.BlobStore
	tagger   *distribution.Tagger
	sessions SessionResolver
	mimeType string
	log      logrus.FieldLogger
}

// NewUploadService creates a new upload service
func NewUploadService(store distribution.BlobStore, tagger *distribution.Tagger, sessions SessionResolver, mimeType string, log logrus.FieldLogger) *UploadService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UploadService{
		store:    store,
		tagger:   tagger,
		sessions: sessions,
		mimeType: mimeType,
		log:      log.WithField("component", "upload"),
	}
}

// Publish uploads clip bytes to the folder chosen by their properties and
// makes them publicly readable
func (s *UploadService) Publish(ctx context.Context, name string, props distribution.Properties, body []byte) (*distribution.Clip, error) {
	return s.uploadAndShare(ctx, name, props, bytes.NewReader(body))
}

// SegmentInput describes a raw segment upload
type SegmentInput struct {
	MatchID         string    // caller-chosen match id
	StartTimeInGame float64   // seconds from match start
	Duration        string    // seconds or HH:MM:SS, defaults to 20s
	FileName        string    // original filename, used as the stored name when set
	Body            io.Reader // segment content
}

// SegmentResult is the outcome of a segment upload
type SegmentResult struct {
	Clip    *distribution.Clip
	MatchID string
}

// UploadSegment stores a raw segment in the full clips folder under the
// effective match id of its session
func (s *UploadService) UploadSegment(ctx context.Context, input SegmentInput) (*SegmentResult, error) {
	if input.MatchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidSegment)
	}
	if input.Body == nil {
		return nil, fmt.Errorf("%w: segment content is required", ErrInvalidSegment)
	}

	duration, err := media.ParseSeconds(input.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid segment duration: %v", ErrInvalidSegment, err)
	}
	if duration <= 0 {
		duration = media.DefaultSegmentDuration
	}

	matchID := s.sessions.Resolve(input.MatchID, input.StartTimeInGame)
	clipID := s.tagger.NewClipID()
	props := s.tagger.TagSegment(matchID, clipID, input.StartTimeInGame, duration)

	name := input.FileName
	if name == "" {
		name = s.tagger.Name(matchID, clipID)
	}

	s.log.WithFields(logrus.Fields{
		"match_id":                   matchID,
		"name":                       name,
		"segment_start_time_in_game": input.StartTimeInGame,
	}).Info("uploading segment")

	clip, err := s.uploadAndShare(ctx, name, props, input.Body)
	if err != nil {
		return nil, err
	}

	return &SegmentResult{Clip: clip, MatchID: matchID}, nil
}

// ListClips lists generated action clips, newest first
func (s *UploadService) ListClips(ctx context.Context, filter distribution.ListFilter) ([]distribution.Clip, error) {
	files, err := s.store.List(ctx, s.tagger.ShortFolder(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}

	clips := make([]distribution.Clip, 0, len(files))
	for _, f := range files {
		clips = append(clips, distribution.ClipFromFile(f))
	}
	return clips, nil
}

// uploadAndShare uploads content and sets public sharing permissions
func (s *UploadService) uploadAndShare(ctx context.Context, name string, props distribution.Properties, body io.Reader) (*distribution.Clip, error) {
	folder := s.tagger.Folder(props)

	result, err := s.store.Upload(ctx, distribution.UploadRequest{
		Name:       name,
		FolderID:   folder,
		MimeType:   s.mimeType,
		Properties: props,
		Body:       body,
	})
	if err != nil {
		return nil, &distribution.UploadError{Name: name, Cause: err}
	}

	if err := s.store.SetPubliclyReadable(ctx, result.FileID); err != nil {
		return nil, &distribution.UploadError{Name: name, Cause: fmt.Errorf("share %s: %w", result.FileID, err)}
	}

	clip := distribution.NewClip(result, props)
	s.log.WithFields(logrus.Fields{
		"match_id": clip.MatchID,
		"name":     clip.Name,
		"file_id":  clip.GoogleFileID,
		"full":     distribution.IsFullClip(clip.ActionType),
	}).Info("uploaded")

	return &clip, nil
}
