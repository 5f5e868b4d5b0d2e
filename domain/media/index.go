package media

import (
	"fmt"
	"math"
	"sort"
)

// BoundaryTolerance is how far, in seconds, one segment's end may drift from
// the next segment's start while the two still count as back to back.
// Recorders round segment lengths, so 20.04s next to a 20s start is normal.
const BoundaryTolerance = 0.5

// Overlap is a pair of segments covering the same stretch of game time by
// more than BoundaryTolerance
type Overlap struct {
	Earlier Segment
	Later   Segment
}

// Start returns the first second covered by both segments
func (o Overlap) Start() float64 {
	return o.Later.Start()
}

// End returns the second at which the shared stretch stops (exclusive)
func (o Overlap) End() float64 {
	return math.Min(o.Earlier.End(), o.Later.End())
}

// Contains reports whether t lies in the shared stretch
func (o Overlap) Contains(t float64) bool {
	return t >= o.Start() && t < o.End()
}

// SegmentIndex holds the known segments of one match ordered by start time
type SegmentIndex struct {
	segments []Segment
	overlaps []Overlap
}

// NewSegmentIndex builds an index from segments in any order.
// Duplicate start times and negative times are rejected with
// ErrMalformedSegments. Gaps are allowed. Overlaps are kept and reported by
// Overlaps; only actions inside an overlap fail to resolve.
func NewSegmentIndex(segments []Segment) (*SegmentIndex, error) {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start() < sorted[j].Start()
	})

	x := &SegmentIndex{segments: sorted}
	furthest := -1
	for i, s := range sorted {
		if s.Start() < 0 {
			return nil, fmt.Errorf("%w: segment %q starts at negative time %v", ErrMalformedSegments, s.FileRef, s.Start())
		}
		if s.DurationSec < 0 {
			return nil, fmt.Errorf("%w: segment %q has negative duration %v", ErrMalformedSegments, s.FileRef, s.DurationSec)
		}
		if i > 0 && sorted[i-1].Start() == s.Start() {
			return nil, fmt.Errorf("%w: segments %q and %q both start at %v", ErrMalformedSegments, sorted[i-1].FileRef, s.FileRef, s.Start())
		}

		if furthest >= 0 && sorted[furthest].End()-s.Start() > BoundaryTolerance {
			x.overlaps = append(x.overlaps, Overlap{Earlier: sorted[furthest], Later: s})
		}
		if furthest < 0 || s.End() > sorted[furthest].End() {
			furthest = i
		}
	}

	return x, nil
}

// Len returns the number of segments
func (x *SegmentIndex) Len() int {
	return len(x.segments)
}

// Segments returns the ordered segments
func (x *SegmentIndex) Segments() []Segment {
	out := make([]Segment, len(x.segments))
	copy(out, x.segments)
	return out
}

// Overlaps returns the overlapping pairs found when the index was built
func (x *SegmentIndex) Overlaps() []Overlap {
	out := make([]Overlap, len(x.overlaps))
	copy(out, x.overlaps)
	return out
}

// OverlapAt returns the overlap covering t, if any
func (x *SegmentIndex) OverlapAt(t float64) (Overlap, bool) {
	for _, o := range x.overlaps {
		if o.Contains(t) {
			return o, true
		}
	}
	return Overlap{}, false
}

// Find returns the segment whose interval [start, start+duration) contains t.
// When drift makes two segments contain t, the later-starting one wins.
func (x *SegmentIndex) Find(t float64) (Segment, int, bool) {
	last := sort.Search(len(x.segments), func(i int) bool {
		return x.segments[i].Start() > t
	}) - 1
	for i := last; i >= 0; i-- {
		if x.segments[i].Contains(t) {
			return x.segments[i], i, true
		}
	}
	return Segment{}, -1, false
}

// Previous returns the segment immediately preceding the one at position i.
// A predecessor whose end is more than BoundaryTolerance away from i's start
// does not count.
func (x *SegmentIndex) Previous(i int) (Segment, bool) {
	if i <= 0 || i >= len(x.segments) {
		return Segment{}, false
	}
	prev := x.segments[i-1]
	if math.Abs(prev.End()-x.segments[i].Start()) > BoundaryTolerance {
		return Segment{}, false
	}
	return prev, true
}
