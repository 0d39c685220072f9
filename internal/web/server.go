// Package web provides the HTTP surface of the timer daemon: a status
// endpoint and a command endpoint the rendering layer posts to.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sentalyr/simple-timer-card/internal/status"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Commander is the mutation surface the command endpoint dispatches to.
// Methods return a user-visible notice; empty means accepted.
type Commander interface {
	Create(durationText, label string) string
	Start(t timer.Timer) string
	Pause(t timer.Timer) string
	Resume(t timer.Timer) string
	Cancel(t timer.Timer) string
	Snooze(t timer.Timer) string
	Dismiss(t timer.Timer) string
}

// Server serves the daemon state over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   Commander
}

// New creates a Server that reads state from the given tracker and
// routes mutations through the given Commander.
func New(addr string, tracker *status.Tracker, commands Commander) *Server {
	s := &Server{tracker: tracker, commands: commands}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/index.json", s.handleStatus)
	mux.HandleFunc("/timers", s.handleTimers)
	mux.HandleFunc("/command", s.handleCommand)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.json" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatTimers(snap))
}
