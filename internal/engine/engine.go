// Package engine implements the periodic normalization pass. Tick is a
// pure function over an external snapshot and the prior engine state;
// all IO (audio, events, storage writes) is returned as effects for the
// shell to apply. This keeps a single tick fully testable with a fake
// clock.
package engine

import (
	"time"

	"github.com/sentalyr/simple-timer-card/internal/audio"
	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/source"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// TickPeriod is the fixed normalization interval.
const TickPeriod = 250 * time.Millisecond

// State is the engine's keyed bookkeeping, owned by the shell and
// threaded through Tick. All maps key on timer.Record.Key(), which is
// scoped per (sourceRef, id).
type State struct {
	// Ringing is the previous tick's ringing membership, for edge
	// detection.
	Ringing map[string]bool
	// ExpirationTimes holds session-local expiredAt anchors for sources
	// that cannot persist one.
	ExpirationTimes map[string]int64
	// BeingRemoved guards expiry dismissal so it fires exactly once.
	BeingRemoved map[string]bool
	// Dismissed is the session-dismissed set for read-only sources.
	Dismissed map[string]bool
	// LastAction maps "action:timerID" to the last invocation, for
	// mutation throttling.
	LastAction  map[string]int64
	LastCleanup int64
}

// NewState returns empty bookkeeping.
func NewState() *State {
	return &State{
		Ringing:         make(map[string]bool),
		ExpirationTimes: make(map[string]int64),
		BeingRemoved:    make(map[string]bool),
		Dismissed:       make(map[string]bool),
		LastAction:      make(map[string]int64),
	}
}

// Dismiss marks a key session-dismissed and clears its ring bookkeeping.
func (s *State) Dismiss(key string) {
	s.Dismissed[key] = true
	delete(s.Ringing, key)
	delete(s.ExpirationTimes, key)
	delete(s.BeingRemoved, key)
}

// EntitySnapshot is one configured source's current external state.
type EntitySnapshot struct {
	ID      string
	Conf    *config.Entity
	State   provider.EntityState
	Present bool
}

// Snapshot is everything external a tick observes.
type Snapshot struct {
	Entities  []EntitySnapshot
	Stored    []timer.Record
	Templates []timer.Record
	States    provider.States
}

// EffectKind enumerates the side effects a tick can request.
type EffectKind int

const (
	// EffectStartAudio starts ring audio for Timer.
	EffectStartAudio EffectKind = iota
	// EffectStopAudio stops ring audio for Key.
	EffectStopAudio
	// EffectEmitExpired publishes the expired lifecycle event for Timer.
	EffectEmitExpired
	// EffectPersistExpiredAt stores ExpiredAt on Timer's backing record.
	EffectPersistExpiredAt
	// EffectDismiss removes Timer after DelayMs.
	EffectDismiss
)

// Effect is one side effect requested by a tick.
type Effect struct {
	Kind      EffectKind
	Key       string
	Timer     timer.Timer
	ExpiredAt int64
	DelayMs   int64
}

// Tick runs one normalization pass at nowMs. It returns fresh state
// (prev is not mutated beyond map reuse semantics), the sorted derived
// timer list and the effects the shell must apply.
func Tick(nowMs int64, snap Snapshot, prev *State, cfg *config.Config) (*State, []timer.Timer, []Effect) {
	now := time.UnixMilli(nowMs)

	// 1. Parse every source, then append stored records and templates.
	var raw []timer.Record
	for _, e := range snap.Entities {
		if !e.Present {
			continue
		}
		raw = append(raw, source.Parse(source.Mode(entityMode(e)), e.ID, e.State, e.Conf, snap.States, now)...)
	}
	raw = append(raw, snap.Stored...)
	raw = append(raw, snap.Templates...)

	// 2. Drop session-dismissed records and dedupe by (sourceRef, id).
	seen := make(map[string]bool, len(raw))
	records := raw[:0]
	for _, r := range raw {
		key := r.Key()
		if prev.Dismissed[key] || seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, r)
	}

	// 3. Derive per-tick fields.
	timers := make([]timer.Timer, 0, len(records))
	for _, r := range records {
		timers = append(timers, Derive(r, nowMs))
	}

	// A native timer entity flipping back to idle while still ringing
	// must not yield an idle ringing contradiction. Stay ringing with
	// zero remaining until dismissed. Other sources own their own state,
	// an idle flip there ends the ring.
	for i := range timers {
		t := &timers[i]
		if t.Idle && t.Record.Source == timer.SourceNative && prev.Ringing[t.Key()] {
			t.Idle = false
			t.Remaining = 0
			t.State = timer.StateExpired
		}
	}

	// 4. Base sort: ascending remaining, finished last.
	sortBase(timers)

	next := &State{
		Ringing:         make(map[string]bool, len(prev.Ringing)),
		ExpirationTimes: make(map[string]int64, len(prev.ExpirationTimes)),
		BeingRemoved:    make(map[string]bool, len(prev.BeingRemoved)),
		Dismissed:       prev.Dismissed,
		LastAction:      prev.LastAction,
		LastCleanup:     prev.LastCleanup,
	}

	var effects []Effect

	// 5. Ring edge detection.
	present := make(map[string]bool, len(timers))
	for _, t := range timers {
		key := t.Key()
		present[key] = true
		if !isRinging(t) {
			if prev.Ringing[key] {
				effects = append(effects, Effect{Kind: EffectStopAudio, Key: key, Timer: t})
			}
			continue
		}
		next.Ringing[key] = true
		if !prev.Ringing[key] {
			effects = append(effects, Effect{Kind: EffectStartAudio, Key: key, Timer: t})
			effects = append(effects, Effect{Kind: EffectEmitExpired, Key: key, Timer: t})
		}
	}
	for key := range prev.Ringing {
		if !present[key] {
			effects = append(effects, Effect{Kind: EffectStopAudio, Key: key})
		}
	}

	// 6. Expiry policy.
	for _, t := range timers {
		if !isRinging(t) {
			continue
		}
		key := t.Key()
		switch cfg.ExpireAction {
		case "keep":
			expiredAt, ok := expiryAnchor(t, prev)
			if !ok {
				expiredAt = nowMs
				if writableSource(t.Record.Source) {
					effects = append(effects, Effect{Kind: EffectPersistExpiredAt, Key: key, Timer: t, ExpiredAt: expiredAt})
				}
			}
			next.ExpirationTimes[key] = expiredAt
			keepFor := int64(cfg.ExpireKeepFor) * 1000
			if nowMs-expiredAt >= keepFor && !prev.BeingRemoved[key] {
				next.BeingRemoved[key] = true
				effects = append(effects, Effect{Kind: EffectDismiss, Key: key, Timer: t})
			} else if prev.BeingRemoved[key] {
				next.BeingRemoved[key] = true
			}
		case "remove":
			if prev.BeingRemoved[key] {
				next.BeingRemoved[key] = true
				continue
			}
			next.BeingRemoved[key] = true
			var delay int64
			if settings := audio.Resolve(t.Record, cfg.EntityConfig(t.SourceEntity), cfg); settings.Enabled {
				delay = int64(cfg.AudioCompletionDelay) * 1000
			}
			effects = append(effects, Effect{Kind: EffectDismiss, Key: key, Timer: t, DelayMs: delay})
		}
		// "dismiss" leaves expired timers in place for manual dismissal.
	}

	// 7. Bookkeeping for vanished or no-longer-ringing timers is dropped
	// implicitly: next's ring maps were rebuilt from this tick's ringing
	// membership only. Prune the throttle map on its own schedule.
	next.sweepThrottle(nowMs)

	return next, timers, effects
}

// isRinging reports the ring condition: zero remaining on a timer that
// is neither paused nor idle.
func isRinging(t timer.Timer) bool {
	return t.Remaining <= 0 && !t.Paused && !t.Idle
}

// expiryAnchor returns the moment a timer hit zero: a persisted
// expiredAt when the record carries one, otherwise the session-local
// anchor from a previous tick.
func expiryAnchor(t timer.Timer, prev *State) (int64, bool) {
	if t.ExpiredAt != nil {
		return *t.ExpiredAt, true
	}
	if at, ok := prev.ExpirationTimes[t.Key()]; ok {
		return at, true
	}
	return 0, false
}

// writableSource reports whether expiredAt can be persisted on the
// record's backing store so it survives a reload.
func writableSource(s timer.Source) bool {
	switch s {
	case timer.SourceHelper, timer.SourceLocal, timer.SourceSynced:
		return true
	}
	return false
}

func entityMode(e EntitySnapshot) string {
	if e.Conf != nil {
		return e.Conf.Mode
	}
	return ""
}
