// Package clip turns resolved cuts into stored, tagged clips.
package clip

import (
	"context"
	"errors"
	"fmt"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"
)

// ErrInvalidCut is returned for manual cuts with missing or out of range input
var ErrInvalidCut = errors.New("invalid cut")

// Publisher stores clip bytes and makes them reachable
type Publisher interface {
	Publish(ctx context.Context, name string, props distribution.Properties, body []byte) (*distribution.Clip, error)
}

// Service produces one clip: assemble, tag, publish
type Service struct {
	assembler *Assembler
	tagger    *distribution.Tagger
	publisher Publisher
}

// NewService creates a new clip Service
func NewService(assembler *Assembler, tagger *distribution.Tagger, publisher Publisher) *Service {
	return &Service{
		assembler: assembler,
		tagger:    tagger,
		publisher: publisher,
	}
}

// Produce assembles the cut for action and publishes it under matchID
func (s *Service) Produce(ctx context.Context, matchID string, action media.Action, cut media.ResolvedCut) (*distribution.Clip, error) {
	data, err := s.assembler.Assemble(ctx, cut)
	if err != nil {
		return nil, err
	}

	clipID := s.tagger.NewClipID()
	props := s.tagger.Tag(matchID, clipID, action, cut.DurationSec)
	return s.publisher.Publish(ctx, s.tagger.Name(matchID, clipID), props, data)
}

// CutInput describes a manual cut of one stored file
type CutInput struct {
	FileID      string
	StartSec    float64
	DurationSec float64
	MatchID     string
	ActionType  string
}

// Cut trims a single stored file without segment resolution
func (s *Service) Cut(ctx context.Context, input CutInput) (*distribution.Clip, error) {
	if input.FileID == "" {
		return nil, fmt.Errorf("%w: file id is required", ErrInvalidCut)
	}
	if input.StartSec < 0 {
		return nil, fmt.Errorf("%w: start time must not be negative, got %v", ErrInvalidCut, input.StartSec)
	}
	if input.DurationSec <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidCut, input.DurationSec)
	}

	cut := media.ResolvedCut{
		Segment:        media.Segment{FileRef: input.FileID},
		StartOffsetSec: input.StartSec,
		DurationSec:    input.DurationSec,
	}
	action := media.Action{ActionType: input.ActionType}
	return s.Produce(ctx, input.MatchID, action, cut)
}
