package media

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Timestamp represents a game-clock position in HH:MM:SS format
type Timestamp struct {
	Hours   int
	Minutes int
	Seconds int
}

// timestampRegex matches H:MM:SS and HH:MM:SS
var timestampRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)

// ParseTimestamp parses a timestamp string in HH:MM:SS format
func ParseTimestamp(s string) (Timestamp, error) {
	matches := timestampRegex.FindStringSubmatch(s)
	if matches == nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp format %q: expected HH:MM:SS", s)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	if minutes > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: minutes must be 0-59", s)
	}
	if seconds > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: seconds must be 0-59", s)
	}

	return Timestamp{
		Hours:   hours,
		Minutes: minutes,
		Seconds: seconds,
	}, nil
}

// TimestampFromSeconds converts whole seconds to a Timestamp, dropping fractions
func TimestampFromSeconds(sec float64) Timestamp {
	total := int(math.Max(0, math.Floor(sec)))
	return Timestamp{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// String returns the timestamp in HH:MM:SS format
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// TotalSeconds returns the timestamp as total seconds
func (t Timestamp) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// ParseSeconds accepts either a plain number of seconds ("20", "7.5") or an
// HH:MM:SS timestamp and returns the value in seconds. An empty string is 0.
func ParseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ":") {
		ts, err := ParseTimestamp(s)
		if err != nil {
			return 0, err
		}
		return float64(ts.TotalSeconds()), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds value %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid seconds value %q", s)
	}
	return v, nil
}

// FormatOffset renders seconds the single way ffmpeg is invoked with them:
// decimal seconds with millisecond precision.
func FormatOffset(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// Seconds is a JSON-friendly seconds value. It decodes from a number, a
// numeric string or an HH:MM:SS string, and encodes as a number.
type Seconds float64

// UnmarshalJSON implements json.Unmarshaler
func (s *Seconds) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Seconds(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("seconds must be a number or string: %w", err)
	}
	v, err := ParseSeconds(str)
	if err != nil {
		return err
	}
	*s = Seconds(v)
	return nil
}

// Float returns the value as float64 seconds
func (s Seconds) Float() float64 {
	return float64(s)
}
