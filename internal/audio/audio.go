// Package audio defines the play/stop contract for ring notification
// sounds and the settings resolution precedence. Actual device playback
// lives behind the Player interface; the core only starts and stops
// handles keyed by timer id.
package audio

import (
	"net/url"
	"strings"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

const maxRepeatCount = 10

// Settings is a fully resolved audio configuration for one timer.
type Settings struct {
	Enabled            bool
	FileURL            string
	RepeatCount        int
	PlayUntilDismissed bool
}

// Player starts and stops notification audio. Implementations must be
// idempotent: stopping an unknown id is a no-op, playing an already
// ringing id restarts it.
type Player interface {
	Play(timerID string, s Settings)
	Stop(timerID string)
}

// Resolve computes the effective audio settings for a timer. Each field
// is resolved independently: the timer's own override wins, then the
// per-entity config, then the global defaults.
func Resolve(t timer.Record, entity *config.Entity, cfg *config.Config) Settings {
	o := t.Override()
	s := Settings{
		Enabled:            cfg.AudioEnabled,
		FileURL:            cfg.AudioFileURL,
		RepeatCount:        cfg.AudioRepeatCount,
		PlayUntilDismissed: cfg.AudioPlayUntilDismissed,
	}
	if entity != nil {
		applyOverride(&s, timer.AudioOverride{
			Enabled:            entity.AudioEnabled,
			FileURL:            entity.AudioFileURL,
			RepeatCount:        entity.AudioRepeatCount,
			PlayUntilDismissed: entity.AudioPlayUntilDismissed,
		})
	}
	applyOverride(&s, o)
	s.RepeatCount = clampRepeat(s.RepeatCount)
	return s
}

func applyOverride(s *Settings, o timer.AudioOverride) {
	if o.Enabled != nil {
		s.Enabled = *o.Enabled
	}
	if o.FileURL != nil {
		s.FileURL = *o.FileURL
	}
	if o.RepeatCount != nil {
		s.RepeatCount = *o.RepeatCount
	}
	if o.PlayUntilDismissed != nil {
		s.PlayUntilDismissed = *o.PlayUntilDismissed
	}
}

func clampRepeat(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxRepeatCount {
		return maxRepeatCount
	}
	return n
}

// ValidURL reports whether an audio file reference is playable: http,
// https or file URLs, or the platform-local asset paths.
func ValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "/local/") || strings.HasPrefix(raw, "/hacsfiles/") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "file":
		return true
	}
	return false
}
