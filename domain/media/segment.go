package media

// DefaultSegmentDuration is the nominal length of a recorded segment in seconds
const DefaultSegmentDuration = 20.0

// Segment is one contiguously recorded chunk of match video
type Segment struct {
	FileRef         string  `json:"file_id"`
	StartTimeInGame Seconds `json:"segment_start_time_in_game"`
	DurationSec     Seconds `json:"duration"`
}

// Start returns the game-clock second at which the segment begins
func (s Segment) Start() float64 {
	return s.StartTimeInGame.Float()
}

// Duration returns the segment length, falling back to DefaultSegmentDuration
// when the duration is absent
func (s Segment) Duration() float64 {
	if s.DurationSec <= 0 {
		return DefaultSegmentDuration
	}
	return s.DurationSec.Float()
}

// End returns the game-clock second at which the segment stops (exclusive)
func (s Segment) End() float64 {
	return s.Start() + s.Duration()
}

// Contains reports whether t lies in [start, end)
func (s Segment) Contains(t float64) bool {
	return t >= s.Start() && t < s.End()
}
