package httpapi

import (
	"fmt"
	"strings"

	"match-highlights/application/batch"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ActionRequest is one action of an auto-generate request
type ActionRequest struct {
	TimestampInGame  media.Seconds `json:"timestamp_in_game" validate:"gte=0"`
	Duration         media.Seconds `json:"duration" validate:"gte=0"`
	ActionType       string        `json:"action_type"`
	PlayerName       string        `json:"player_name"`
	TeamColor        string        `json:"team_color"`
	AssistPlayerName string        `json:"assist_player_name"`
}

// SegmentRequest is one segment of an auto-generate request
type SegmentRequest struct {
	FileID                 string        `json:"file_id" validate:"required"`
	SegmentStartTimeInGame media.Seconds `json:"segment_start_time_in_game" validate:"gte=0"`
	Duration               media.Seconds `json:"duration" validate:"gte=0"`
}

// AutoGenerateRequest asks for clips of several actions of one match
type AutoGenerateRequest struct {
	MatchID  string           `json:"match_id"`
	Actions  []ActionRequest  `json:"actions" validate:"dive"`
	Segments []SegmentRequest `json:"segments" validate:"dive"`
}

// Batch converts the request into a batch
func (r AutoGenerateRequest) Batch() batch.Batch {
	b := batch.Batch{
		MatchID:  strings.TrimSpace(r.MatchID),
		Actions:  make([]media.Action, 0, len(r.Actions)),
		Segments: make([]media.Segment, 0, len(r.Segments)),
	}
	for _, a := range r.Actions {
		b.Actions = append(b.Actions, media.Action{
			TimestampInGame:      a.TimestampInGame,
			RequestedDurationSec: a.Duration,
			ActionType:           a.ActionType,
			PlayerName:           a.PlayerName,
			TeamColor:            a.TeamColor,
			AssistPlayerName:     a.AssistPlayerName,
		})
	}
	for _, s := range r.Segments {
		b.Segments = append(b.Segments, media.Segment{
			FileRef:         s.FileID,
			StartTimeInGame: s.SegmentStartTimeInGame,
			DurationSec:     s.Duration,
		})
	}
	return b
}

// AutoGenerateResponse acknowledges a queued batch
type AutoGenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	MatchID string `json:"match_id"`
	JobID   string `json:"job_id"`
}

// GenerateClipRequest is a manual cut of one stored file
type GenerateClipRequest struct {
	FileID     string   `json:"file_id" validate:"required"`
	StartTime  *float64 `json:"start_time" validate:"required,gte=0"`
	Duration   *float64 `json:"duration" validate:"required,gt=0"`
	MatchID    string   `json:"match_id"`
	ActionType string   `json:"action_type"`
}

// UploadSegmentResponse is returned after a segment upload
type UploadSegmentResponse struct {
	Success bool               `json:"success"`
	Clip    *distribution.Clip `json:"clip"`
	MatchID string             `json:"match_id"`
}

// ClipsResponse lists clips
type ClipsResponse struct {
	Success bool                `json:"success"`
	Clips   []distribution.Clip `json:"clips"`
}

// formatValidationErrors renders validator errors one line per field
func formatValidationErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := fmt.Sprintf("field '%s' failed on the '%s' tag", e.Namespace(), e.Tag())
		if e.Param() != "" {
			msg = fmt.Sprintf("%s (%s)", msg, e.Param())
		}
		out = append(out, msg)
	}
	return out
}
