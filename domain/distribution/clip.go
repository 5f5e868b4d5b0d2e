package distribution

import "fmt"

// Clip is the caller-facing view of a stored artifact
type Clip struct {
	ExternalID             string `json:"external_id"`
	Name                   string `json:"name"`
	ViewURL                string `json:"view_url"`
	DownloadURL            string `json:"download_url"`
	ThumbnailURL           string `json:"thumbnail_url"`
	Duration               string `json:"duration"`
	CreatedDate            string `json:"created_date"`
	MatchID                string `json:"match_id"`
	GoogleFileID           string `json:"google_file_id"`
	ActionType             string `json:"action_type,omitempty"`
	PlayerName             string `json:"player_name,omitempty"`
	TeamColor              string `json:"team_color,omitempty"`
	AssistPlayerName       string `json:"assist_player_name,omitempty"`
	SegmentStartTimeInGame string `json:"segment_start_time_in_game,omitempty"`
}

// NewClip combines an upload result with the properties it was stored with
func NewClip(result *UploadResult, props Properties) Clip {
	return Clip{
		ExternalID:             props.Get(PropClipID),
		Name:                   result.Name,
		ViewURL:                result.ViewURL,
		DownloadURL:            result.DownloadURL,
		Duration:               props.Get(PropDuration),
		CreatedDate:            props.Get(PropCreatedDate),
		MatchID:                props.Get(PropMatchID),
		GoogleFileID:           result.FileID,
		ActionType:             props.Get(PropActionType),
		PlayerName:             props.Get(PropPlayerName),
		TeamColor:              props.Get(PropTeamColor),
		AssistPlayerName:       props.Get(PropAssistPlayerName),
		SegmentStartTimeInGame: props.Get(PropSegmentStartTimeInGame),
	}
}

// ClipFromFile builds a Clip from a listed file
func ClipFromFile(f FileInfo) Clip {
	c := NewClip(&UploadResult{
		FileID:      f.ID,
		Name:        f.Name,
		ViewURL:     ViewURL(f.ID),
		DownloadURL: DownloadURL(f.ID),
	}, f.Properties)
	if c.CreatedDate == "" && !f.CreatedTime.IsZero() {
		c.CreatedDate = f.CreatedTime.UTC().Format("2006-01-02T15:04:05Z")
	}
	return c
}

// ViewURL returns the browser link for a stored file
func ViewURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
}

// DownloadURL returns the direct download link for a stored file
func DownloadURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)
}
