package web

import (
	"encoding/json"
	"net/http"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, CommandResponse{Notice: "invalid request body"})
		return
	}

	var notice string
	switch req.Action {
	case "create":
		notice = s.commands.Create(req.Duration, req.Label)
	case "start", "pause", "resume", "cancel", "snooze", "dismiss":
		t, ok := s.findTimer(req.ID)
		if !ok {
			writeResponse(w, http.StatusNotFound, CommandResponse{Notice: "timer not found"})
			return
		}
		switch req.Action {
		case "start":
			notice = s.commands.Start(t)
		case "pause":
			notice = s.commands.Pause(t)
		case "resume":
			notice = s.commands.Resume(t)
		case "cancel":
			notice = s.commands.Cancel(t)
		case "snooze":
			notice = s.commands.Snooze(t)
		case "dismiss":
			notice = s.commands.Dismiss(t)
		}
	default:
		writeResponse(w, http.StatusBadRequest, CommandResponse{Notice: "unknown action"})
		return
	}

	writeResponse(w, http.StatusOK, CommandResponse{OK: notice == "", Notice: notice})
}

// findTimer resolves a timer id against the last tick's derived list,
// so commands operate on the same view the client saw.
func (s *Server) findTimer(id string) (timer.Timer, bool) {
	for _, t := range s.tracker.Snapshot().Timers {
		if t.ID == id {
			return t, true
		}
	}
	return timer.Timer{}, false
}

func writeResponse(w http.ResponseWriter, code int, resp CommandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
