package media

// DefaultActionDuration is the clip length used when an action does not ask for one
const DefaultActionDuration = 8.0

// DefaultActionType is used when an action arrives without a type
const DefaultActionType = "auto_clip"

// Action is a single timestamped game event to turn into a clip
type Action struct {
	TimestampInGame      Seconds `json:"timestamp_in_game"`
	RequestedDurationSec Seconds `json:"duration,omitempty"`
	ActionType           string  `json:"action_type,omitempty"`
	PlayerName           string  `json:"player_name,omitempty"`
	TeamColor            string  `json:"team_color,omitempty"`
	AssistPlayerName     string  `json:"assist_player_name,omitempty"`
}

// Timestamp returns the action's game-clock second
func (a Action) Timestamp() float64 {
	return a.TimestampInGame.Float()
}

// Type returns the action type or DefaultActionType when empty
func (a Action) Type() string {
	if a.ActionType == "" {
		return DefaultActionType
	}
	return a.ActionType
}
