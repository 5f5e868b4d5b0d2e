package batch

import (
	"context"
	"errors"
	"time"

	"match-highlights/domain/distribution"
	"match-highlights/domain/media"
)

// Errors for job handling
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobQueueFull    = errors.New("job queue full")
	ErrNotAccepting    = errors.New("orchestrator is not accepting jobs")
	ErrBatchValidation = errors.New("invalid batch")
)

// Status is the lifecycle state of a batch job
type Status string

// Job states in order: received -> acknowledged -> processing -> done.
// failed is terminal for batch-level errors.
const (
	StatusReceived     Status = "received"
	StatusAcknowledged Status = "acknowledged"
	StatusProcessing   Status = "processing"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// Error kinds recorded on failed action results
const (
	KindNoMatchingSegment = "no_matching_segment"
	KindTranscodeFailure  = "transcode_failure"
	KindUploadFailure     = "upload_failure"
	KindMalformedSegments = "malformed_segments"
	KindUnknown           = "unknown"
)

// Batch is a request to cut clips for a list of actions
type Batch struct {
	MatchID  string          `json:"match_id"`
	Actions  []media.Action  `json:"actions"`
	Segments []media.Segment `json:"segments"`
}

// ActionResult is the outcome of one action of a batch
type ActionResult struct {
	Index           int                `json:"index"`
	TimestampInGame float64            `json:"timestamp_in_game"`
	Success         bool               `json:"success"`
	ErrorKind       string             `json:"error_kind,omitempty"`
	Error           string             `json:"error,omitempty"`
	Clip            *distribution.Clip `json:"clip,omitempty"`
}

// Job tracks a batch from acknowledgment to completion
type Job struct {
	ID            string         `json:"job_id"`
	CallerMatchID string         `json:"caller_match_id"`
	MatchID       string         `json:"match_id"`
	Status        Status         `json:"status"`
	Error         string         `json:"error,omitempty"`
	Total         int            `json:"total"`
	Results       []ActionResult `json:"results"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Succeeded returns the number of actions that produced a clip
func (j *Job) Succeeded() int {
	n := 0
	for _, r := range j.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// Finished reports whether the job reached a terminal state
func (j *Job) Finished() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// JobStore persists jobs and their per-action results
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
	AppendResult(ctx context.Context, id string, result ActionResult) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit int) ([]*Job, error)
}

// errorKind classifies a per-action failure
func errorKind(err error) string {
	switch {
	case errors.Is(err, media.ErrNoMatchingSegment):
		return KindNoMatchingSegment
	case errors.Is(err, media.ErrTranscodeFailure):
		return KindTranscodeFailure
	case errors.Is(err, distribution.ErrUploadFailure):
		return KindUploadFailure
	case errors.Is(err, media.ErrMalformedSegments):
		return KindMalformedSegments
	default:
		return KindUnknown
	}
}
