// Package status provides a thread-safe status tracker for the timer
// daemon. It is read by the HTTP handlers and the -print-timers mode.
package status

import (
	"sync"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	Storage      string
	Namespace    string
	Broker       string
	Topic        string
	HTTPAddr     string
	ExpireAction string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Timers        []timer.Timer
	TickCount     int64
	LastTick      time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	ShadowActive  bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ringing returns the timers currently at zero and unacknowledged.
func (s Snapshot) Ringing() []timer.Timer {
	var out []timer.Timer
	for _, t := range s.Timers {
		if t.State == timer.StateExpired || t.State == timer.StateFinished {
			out = append(out, t)
		}
	}
	return out
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the derived timer list. Called from runLoop on every
// tick; the slice must not be mutated by the caller afterwards.
func (t *Tracker) Update(timers []timer.Timer, at time.Time) {
	t.mu.Lock()
	t.snap.Timers = timers
	t.snap.TickCount++
	t.snap.LastTick = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetShadowActive records whether the synced store is currently masking
// remote state with a local shadow.
func (t *Tracker) SetShadowActive(active bool) {
	t.mu.Lock()
	t.snap.ShadowActive = active
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
