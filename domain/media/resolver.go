package media

import (
	"fmt"
	"math"
)

// Defaults for the highlight window
const (
	DefaultBackwardOffset = 8.0
	DefaultClipDuration   = 8.0
)

// ResolvedCut describes which media to cut and where
type ResolvedCut struct {
	Segment         Segment
	PreviousSegment *Segment // set when the window spans the segment boundary
	StartOffsetSec  float64  // into Segment, or into PreviousSegment+Segment when merging
	DurationSec     float64
}

// NeedsMerge reports whether the previous segment must be concatenated first
func (c ResolvedCut) NeedsMerge() bool {
	return c.PreviousSegment != nil
}

// Resolver maps actions to cuts.
// BackwardOffset is how far before the action the clip starts and is also
// the merge threshold: an action less than BackwardOffset seconds into its
// segment is merged with the preceding segment.
type Resolver struct {
	BackwardOffset float64
	ClipDuration   float64
}

// NewResolver creates a Resolver; non-positive values fall back to the defaults
func NewResolver(backwardOffset, clipDuration float64) *Resolver {
	if backwardOffset <= 0 {
		backwardOffset = DefaultBackwardOffset
	}
	if clipDuration <= 0 {
		clipDuration = DefaultClipDuration
	}
	return &Resolver{
		BackwardOffset: backwardOffset,
		ClipDuration:   clipDuration,
	}
}

// Resolve locates the segment holding the action and computes the trim window.
// An action inside an overlap between two segments fails with
// ErrMalformedSegments.
func (r *Resolver) Resolve(action Action, index *SegmentIndex) (ResolvedCut, error) {
	t := action.Timestamp()
	seg, i, ok := index.Find(t)
	if !ok {
		return ResolvedCut{}, fmt.Errorf("%w for action at %vs", ErrNoMatchingSegment, t)
	}
	if o, ok := index.OverlapAt(t); ok {
		return ResolvedCut{}, fmt.Errorf("%w: action at %vs lies in both %q and %q",
			ErrMalformedSegments, t, o.Earlier.FileRef, o.Later.FileRef)
	}

	duration := r.ClipDuration
	if action.RequestedDurationSec > 0 {
		duration = action.RequestedDurationSec.Float()
	}

	relative := t - seg.Start()
	cut := ResolvedCut{
		Segment:     seg,
		DurationSec: duration,
	}

	if relative >= r.BackwardOffset {
		cut.StartOffsetSec = relative - r.BackwardOffset
		return cut, nil
	}

	if prev, ok := index.Previous(i); ok {
		cut.PreviousSegment = &prev
		cut.StartOffsetSec = math.Max(0, prev.Duration()+relative-r.BackwardOffset)
		return cut, nil
	}

	cut.StartOffsetSec = math.Max(0, relative-r.BackwardOffset)
	return cut, nil
}
