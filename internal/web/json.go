package web

import (
	"encoding/json"

	"github.com/sentalyr/simple-timer-card/internal/status"
)

// TimersJSON is the JSON representation of the derived timer list.
type TimersJSON struct {
	Timers []status.TimerJSON `json:"timers"`
	Count  int                `json:"count"`
}

// CommandRequest is the body posted to /command.
type CommandRequest struct {
	Action   string `json:"action"`
	ID       string `json:"id,omitempty"`
	Duration string `json:"duration,omitempty"`
	Label    string `json:"label,omitempty"`
}

// CommandResponse reports the outcome of a command. Notice is the
// user-visible message when the command was rejected or not applicable.
type CommandResponse struct {
	OK     bool   `json:"ok"`
	Notice string `json:"notice,omitempty"`
}

func formatTimers(snap status.Snapshot) []byte {
	timers := make([]status.TimerJSON, 0, len(snap.Timers))
	for _, t := range snap.Timers {
		timers = append(timers, status.BuildTimer(t))
	}
	data, _ := json.MarshalIndent(TimersJSON{Timers: timers, Count: len(timers)}, "", "  ")
	return data
}
