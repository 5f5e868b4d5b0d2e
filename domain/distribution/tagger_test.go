package distribution

import (
	"testing"
	"time"

	"match-highlights/domain/media"
)

func newTestTagger() *Tagger {
	fixed := time.Date(2025, 6, 1, 18, 30, 0, 0, time.FixedZone("IDT", 3*60*60))
	return NewTagger("full-folder", "short-folder", ".webm",
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "fixed-id" }),
	)
}

func TestTagger_Tag(t *testing.T) {
	tagger := newTestTagger()
	action := media.Action{
		TimestampInGame:  22,
		ActionType:       "goal",
		PlayerName:       "Dana",
		TeamColor:        "red",
		AssistPlayerName: "Noa",
	}

	props := tagger.Tag("m1_1700000000000", "clip-1", action, 8)

	want := map[string]string{
		PropClipID:           "clip-1",
		PropMatchID:          "m1_1700000000000",
		PropActionType:       "goal",
		PropPlayerName:       "Dana",
		PropTeamColor:        "red",
		PropAssistPlayerName: "Noa",
		PropDuration:         "8",
		PropCreatedDate:      "2025-06-01T15:30:00Z",
	}
	for k, v := range want {
		if props.Get(k) != v {
			t.Errorf("property %s = %q, want %q", k, props.Get(k), v)
		}
	}
	if _, ok := props[PropSegmentStartTimeInGame]; ok {
		t.Error("action clips must not carry segment_start_time_in_game")
	}
}

func TestTagger_TagDefaultsActionType(t *testing.T) {
	props := newTestTagger().Tag("m1", "c", media.Action{}, 7.5)
	if got := props.Get(PropActionType); got != media.DefaultActionType {
		t.Errorf("action_type = %q, want %q", got, media.DefaultActionType)
	}
	if got := props.Get(PropDuration); got != "7.5" {
		t.Errorf("duration = %q, want 7.5", got)
	}
}

func TestTagger_TagSegment(t *testing.T) {
	props := newTestTagger().TagSegment("m1", "c", 40, 20)

	if got := props.Get(PropActionType); got != ActionTypeSegmentUpload {
		t.Errorf("action_type = %q, want %q", got, ActionTypeSegmentUpload)
	}
	if got := props.Get(PropSegmentStartTimeInGame); got != "40" {
		t.Errorf("segment_start_time_in_game = %q, want 40", got)
	}
}

func TestTagger_Folder(t *testing.T) {
	tagger := newTestTagger()

	tests := []struct {
		actionType string
		want       string
	}{
		{"segment_upload", "full-folder"},
		{" Segment_Upload ", "full-folder"},
		{"goal", "short-folder"},
		{"", "short-folder"},
		{"segment", "short-folder"},
	}

	for _, tt := range tests {
		t.Run(tt.actionType, func(t *testing.T) {
			got := tagger.Folder(Properties{PropActionType: tt.actionType})
			if got != tt.want {
				t.Errorf("Folder(%q) = %q, want %q", tt.actionType, got, tt.want)
			}
		})
	}
}

func TestTagger_Name(t *testing.T) {
	tagger := newTestTagger()
	if got := tagger.Name("m1_17", "abc"); got != "clip_m1_17_abc.webm" {
		t.Errorf("Name() = %q, want clip_m1_17_abc.webm", got)
	}
	if got := tagger.NewClipID(); got != "fixed-id" {
		t.Errorf("NewClipID() = %q, want fixed-id", got)
	}
}

func TestClipFromFile(t *testing.T) {
	f := FileInfo{
		ID:          "file-9",
		Name:        "clip_m1_abc.webm",
		CreatedTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Properties:  Properties{PropMatchID: "m1", PropPlayerName: "Dana"},
	}

	c := ClipFromFile(f)

	if c.ViewURL != "https://drive.google.com/file/d/file-9/view" {
		t.Errorf("ViewURL = %q", c.ViewURL)
	}
	if c.DownloadURL != "https://drive.google.com/uc?export=download&id=file-9" {
		t.Errorf("DownloadURL = %q", c.DownloadURL)
	}
	if c.CreatedDate != "2025-06-01T10:00:00Z" {
		t.Errorf("CreatedDate = %q", c.CreatedDate)
	}
	if c.MatchID != "m1" || c.PlayerName != "Dana" || c.GoogleFileID != "file-9" {
		t.Errorf("unexpected clip %+v", c)
	}
}
