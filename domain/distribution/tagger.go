package distribution

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"match-highlights/domain/media"

	"github.com/google/uuid"
)

// Property keys persisted with every artifact
const (
	PropClipID                 = "clip_id"
	PropMatchID                = "match_id"
	PropActionType             = "action_type"
	PropPlayerName             = "player_name"
	PropTeamColor              = "team_color"
	PropAssistPlayerName       = "assist_player_name"
	PropDuration               = "duration"
	PropCreatedDate            = "created_date"
	PropSegmentStartTimeInGame = "segment_start_time_in_game"
)

// ActionTypeSegmentUpload marks raw segment uploads; they go to the full clips folder
const ActionTypeSegmentUpload = "segment_upload"

// Properties is the searchable metadata stored alongside a file
type Properties map[string]string

// Get returns the value for key or "" when absent
func (p Properties) Get(key string) string {
	return p[key]
}

// Tagger builds persisted properties, names and target folders for artifacts
type Tagger struct {
	fullFolderID  string
	shortFolderID string
	extension     string
	now           func() time.Time
	newID         func() string
}

// TaggerOption is a functional option for configuring Tagger
type TaggerOption func(*Tagger)

// WithClock sets the time source used for created_date
func WithClock(now func() time.Time) TaggerOption {
	return func(t *Tagger) {
		t.now = now
	}
}

// WithIDGenerator sets the clip id generator
func WithIDGenerator(newID func() string) TaggerOption {
	return func(t *Tagger) {
		t.newID = newID
	}
}

// NewTagger creates a Tagger routing to the given folders.
// extension is appended to generated names, e.g. ".webm".
func NewTagger(fullFolderID, shortFolderID, extension string, opts ...TaggerOption) *Tagger {
	t := &Tagger{
		fullFolderID:  fullFolderID,
		shortFolderID: shortFolderID,
		extension:     extension,
		now:           time.Now,
		newID:         uuid.NewString,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewClipID returns a fresh clip identifier
func (t *Tagger) NewClipID() string {
	return t.newID()
}

// Tag builds the properties of an action-derived clip
func (t *Tagger) Tag(matchID, clipID string, action media.Action, durationSec float64) Properties {
	return Properties{
		PropClipID:           clipID,
		PropMatchID:          matchID,
		PropActionType:       action.Type(),
		PropPlayerName:       action.PlayerName,
		PropTeamColor:        action.TeamColor,
		PropAssistPlayerName: action.AssistPlayerName,
		PropDuration:         formatSeconds(durationSec),
		PropCreatedDate:      t.now().UTC().Format(time.RFC3339),
	}
}

// TagSegment builds the properties of a raw segment upload
func (t *Tagger) TagSegment(matchID, clipID string, segmentStart, durationSec float64) Properties {
	props := t.Tag(matchID, clipID, media.Action{ActionType: ActionTypeSegmentUpload}, durationSec)
	props[PropSegmentStartTimeInGame] = formatSeconds(segmentStart)
	return props
}

// IsFullClip reports whether an action type is routed to the full clips folder
func IsFullClip(actionType string) bool {
	return strings.ToLower(strings.TrimSpace(actionType)) == ActionTypeSegmentUpload
}

// Folder returns the target folder for an artifact with the given properties
func (t *Tagger) Folder(props Properties) string {
	if IsFullClip(props.Get(PropActionType)) {
		return t.fullFolderID
	}
	return t.shortFolderID
}

// ShortFolder returns the folder holding action clips
func (t *Tagger) ShortFolder() string {
	return t.shortFolderID
}

// Name returns the deterministic artifact name clip_{matchID}_{clipID}{ext}
func (t *Tagger) Name(matchID, clipID string) string {
	return fmt.Sprintf("clip_%s_%s%s", matchID, clipID, t.extension)
}

// formatSeconds renders seconds without trailing zeros ("8", "7.5")
func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
