package state

import "time"

// TimestampLayout is the ISO-8601 layout used when stamping new saves.
// Timestamps read from a save are kept verbatim and never reparsed.
const TimestampLayout = "2006-01-02T15:04:05"

// GameMetadata describes a save slot.
type GameMetadata struct {
	SaveID    string `json:"save_id"`
	Timestamp string `json:"timestamp"`
	PlayTime  int    `json:"play_time"` // seconds
}

// NewGameMetadata stamps a new save with the given time and zero play time.
func NewGameMetadata(saveID string, at time.Time) GameMetadata {
	return GameMetadata{
		SaveID:    saveID,
		Timestamp: at.Format(TimestampLayout),
	}
}
