package media

import (
	"errors"
	"fmt"
)

// Errors returned by segment resolution and clip assembly
var (
	ErrNoMatchingSegment = errors.New("no matching segment")
	ErrMalformedSegments = errors.New("malformed segment set")
	ErrTranscodeFailure  = errors.New("transcode failure")
)

// Assembly steps reported by TranscodeError
const (
	StepFetch  = "fetch"
	StepConcat = "concat"
	StepTrim   = "trim"
	StepRead   = "read"
)

// TranscodeError wraps a failure in one step of clip assembly
type TranscodeError struct {
	Step  string
	Cause error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", ErrTranscodeFailure, e.Step, e.Cause)
}

// Unwrap exposes the originating cause
func (e *TranscodeError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTranscodeFailure so callers can classify without a type switch
func (e *TranscodeError) Is(target error) bool {
	return target == ErrTranscodeFailure
}
