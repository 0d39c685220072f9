// Package command implements the mutation operations. Each command
// resolves the right backend for a timer's source and issues the
// matching storage mutation or service call. Unsupported combinations
// return a user-visible notice instead of an error; remote failures are
// logged and swallowed, the next tick's re-parse is the retry.
package command

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/sentalyr/simple-timer-card/internal/audio"
	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/engine"
	"github.com/sentalyr/simple-timer-card/internal/event"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Store is the storage subset commands need.
type Store interface {
	Load() []timer.Record
	Save(records []timer.Record)
	Update(id string, mutate func(*timer.Record))
	Remove(id string)
}

// Commands routes mutations to the right backend. All methods return a
// notice string for the user; empty means the mutation was accepted
// (or silently throttled).
type Commands struct {
	cfg    *config.Config
	local  Store
	synced Store
	caller provider.Caller
	states provider.States
	events *event.Publisher
	player audio.Player
	state  *engine.State
	now    func() int64
}

func New(cfg *config.Config, local, synced Store, caller provider.Caller, states provider.States, events *event.Publisher, player audio.Player, state *engine.State, now func() int64) *Commands {
	return &Commands{
		cfg:    cfg,
		local:  local,
		synced: synced,
		caller: caller,
		states: states,
		events: events,
		player: player,
		state:  state,
		now:    now,
	}
}

// storeFor returns the backing store for a stored source, nil for
// sources that live outside the card's own storage.
func (c *Commands) storeFor(s timer.Source) Store {
	switch s {
	case timer.SourceLocal:
		return c.local
	case timer.SourceSynced:
		return c.synced
	}
	return nil
}

// defaultStore is where new timers land when no external target is
// configured.
func (c *Commands) defaultStore() (Store, timer.Source) {
	if c.cfg.Storage == "mqtt" && c.synced != nil {
		return c.synced, timer.SourceSynced
	}
	return c.local, timer.SourceLocal
}

// Create makes a new running timer. durationText is free-form ("5",
// "1:30", "1h 30m"); empty falls back to the configured default length.
func (c *Commands) Create(durationText, label string) string {
	nowMs := c.now()
	if c.state.Throttled("create", "global", nowMs, engine.CreateInterval) {
		return ""
	}
	d := timer.ParseFreeform(durationText)
	if durationText == "" {
		d = int64(c.cfg.DefaultNewTimerDurationMins) * timer.MsPerMinute
	}
	if err := timer.ValidateInput(d, label); err != nil {
		return err.Error()
	}

	if c.cfg.VoiceControlEntity != "" {
		cmd := fmt.Sprintf("start:%d", d/1000)
		if label != "" {
			cmd += ":" + label
		}
		if notice := c.sendVoiceCommand(c.cfg.VoiceControlEntity, cmd); notice != "" {
			return notice
		}
		c.events.EmitRecord(event.Started, timer.Record{
			Source:       timer.SourceVoice,
			SourceEntity: c.cfg.VoiceControlEntity,
			Label:        label,
			DurationMs:   timer.I64(d),
		})
		return ""
	}

	if isHelperEntity(c.cfg.DefaultTimerEntity) {
		rec := c.newRecord(d, label, timer.SourceHelper, c.cfg.DefaultTimerEntity, nowMs)
		if notice := c.mutateHelper(c.cfg.DefaultTimerEntity, func(list []timer.Record) []timer.Record {
			return append(list, rec)
		}); notice != "" {
			return notice
		}
		c.emitCreate(rec)
		return ""
	}

	store, src := c.defaultStore()
	rec := c.newRecord(d, label, src, storageEntity(src), nowMs)
	store.Save(append(store.Load(), rec))
	c.emitCreate(rec)
	return ""
}

func (c *Commands) newRecord(d int64, label string, src timer.Source, sourceEntity string, nowMs int64) timer.Record {
	if label == "" {
		label = timer.FormatCompact(d)
	}
	return timer.Record{
		ID:           uuid.NewString(),
		Source:       src,
		SourceEntity: sourceEntity,
		Label:        label,
		Icon:         c.cfg.DefaultTimerIcon,
		Color:        c.cfg.DefaultTimerColor,
		DurationMs:   timer.I64(d),
		StartTs:      timer.I64(nowMs),
		EndTs:        timer.I64(nowMs + d),
	}
}

func (c *Commands) emitCreate(rec timer.Record) {
	c.events.EmitRecord(event.Created, rec)
	c.events.EmitRecord(event.Started, rec)
}

// Start launches an idle timer: a provider start command for native
// timers, or materializing a template preset into a real stored timer.
func (c *Commands) Start(t timer.Timer) string {
	nowMs := c.now()
	switch t.Record.Source {
	case timer.SourceTemplate:
		if c.state.Throttled("start", t.ID, nowMs, engine.TemplateStartInterval) {
			return ""
		}
		return c.startTemplate(t, nowMs)
	case timer.SourceNative:
		if c.state.Throttled("start", t.ID, nowMs, engine.ThrottleInterval) {
			return ""
		}
		if !t.Idle {
			return "Timer is already running"
		}
		d := t.Duration()
		args := map[string]any{"entity_id": t.SourceEntity}
		if d > 0 {
			args["duration"] = timer.FormatService(d / 1000)
		}
		if err := c.caller.Invoke("timer", "start", args); err != nil {
			log.Printf("command: start %s: %v", t.SourceEntity, err)
		}
		c.events.Emit(event.Started, t)
		return ""
	}
	return "This timer can't be started from here"
}

// startTemplate creates a real running timer from a pinned preset,
// carrying the preset's display and audio overrides plus its pinned id
// so expiry handling can show the configured subtitle.
func (c *Commands) startTemplate(t timer.Timer, nowMs int64) string {
	d := t.Duration()
	if d <= 0 {
		return "This preset has no duration"
	}
	store, src := c.defaultStore()
	rec := c.newRecord(d, t.Label, src, storageEntity(src), nowMs)
	rec.Icon = t.Icon
	rec.Color = t.Color
	rec.PinnedID = t.PinnedID
	rec.ExpiredSubtitle = t.ExpiredSubtitle
	rec.AudioEnabled = t.AudioEnabled
	rec.AudioFileURL = t.AudioFileURL
	rec.AudioRepeatCount = t.AudioRepeatCount
	rec.AudioPlayUntilDismissed = t.AudioPlayUntilDismissed
	store.Save(append(store.Load(), rec))
	c.emitCreate(rec)
	return ""
}

// Pause freezes a running timer.
func (c *Commands) Pause(t timer.Timer) string {
	if !t.Supports.Pause {
		return "This timer can't be paused from here"
	}
	if t.Paused {
		return ""
	}
	nowMs := c.now()
	if c.state.Throttled("pause", t.ID, nowMs, engine.ThrottleInterval) {
		return ""
	}
	rem := timer.PauseUpdates(t, nowMs)
	switch t.Record.Source {
	case timer.SourceVoice:
		if notice := c.sendVoiceCommand(t.ControlEntity, "pause:"+t.VoiceTimerID); notice != "" {
			return notice
		}
	case timer.SourceNative:
		if err := c.caller.Invoke("timer", "pause", map[string]any{"entity_id": t.SourceEntity}); err != nil {
			log.Printf("command: pause %s: %v", t.SourceEntity, err)
		}
	case timer.SourceHelper:
		if notice := c.mutateHelper(t.SourceEntity, updateOne(t.ID, func(r *timer.Record) {
			pauseRecord(r, rem)
		})); notice != "" {
			return notice
		}
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Update(t.ID, func(r *timer.Record) {
			pauseRecord(r, rem)
		})
	default:
		return "This timer can't be paused from here"
	}
	c.events.Emit(event.Paused, t)
	return ""
}

// Resume restarts a paused timer with its frozen remaining time.
func (c *Commands) Resume(t timer.Timer) string {
	if !t.Supports.Pause {
		return "This timer can't be resumed from here"
	}
	if !t.Paused {
		return ""
	}
	nowMs := c.now()
	if c.state.Throttled("resume", t.ID, nowMs, engine.ThrottleInterval) {
		return ""
	}
	startTs, endTs := timer.ResumeUpdates(t, nowMs)
	switch t.Record.Source {
	case timer.SourceVoice:
		if notice := c.sendVoiceCommand(t.ControlEntity, "resume:"+t.VoiceTimerID); notice != "" {
			return notice
		}
	case timer.SourceNative:
		if err := c.caller.Invoke("timer", "start", map[string]any{"entity_id": t.SourceEntity}); err != nil {
			log.Printf("command: resume %s: %v", t.SourceEntity, err)
		}
	case timer.SourceHelper:
		if notice := c.mutateHelper(t.SourceEntity, updateOne(t.ID, func(r *timer.Record) {
			resumeRecord(r, startTs, endTs)
		})); notice != "" {
			return notice
		}
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Update(t.ID, func(r *timer.Record) {
			resumeRecord(r, startTs, endTs)
		})
	default:
		return "This timer can't be resumed from here"
	}
	c.events.Emit(event.Resumed, t)
	return ""
}

// Cancel removes a timer upstream.
func (c *Commands) Cancel(t timer.Timer) string {
	if !t.Supports.Cancel {
		return "This timer can't be cancelled from here"
	}
	nowMs := c.now()
	if c.state.Throttled("cancel", t.ID, nowMs, engine.ThrottleInterval) {
		return ""
	}
	c.stopRinging(t.Key())
	switch t.Record.Source {
	case timer.SourceVoice:
		if notice := c.sendVoiceCommand(t.ControlEntity, "cancel:"+t.VoiceTimerID); notice != "" {
			return notice
		}
	case timer.SourceNative:
		if err := c.caller.Invoke("timer", "cancel", map[string]any{"entity_id": t.SourceEntity}); err != nil {
			log.Printf("command: cancel %s: %v", t.SourceEntity, err)
		}
	case timer.SourceHelper:
		if notice := c.mutateHelper(t.SourceEntity, removeOne(t.ID)); notice != "" {
			return notice
		}
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Remove(t.ID)
	default:
		// No writable path upstream. Hide it for this session.
		c.state.Dismiss(t.Key())
	}
	c.events.Emit(event.Cancelled, t)
	return ""
}

// Snooze restarts an expired timer with a fresh duration equal to the
// configured snooze length.
func (c *Commands) Snooze(t timer.Timer) string {
	if !t.Supports.Snooze {
		return "This timer can't be snoozed from here"
	}
	if c.cfg.SnoozeDuration <= 0 {
		return "Snooze duration is not configured"
	}
	nowMs := c.now()
	if c.state.Throttled("snooze", t.ID, nowMs, engine.ThrottleInterval) {
		return ""
	}
	fresh := int64(c.cfg.SnoozeDuration * float64(timer.MsPerMinute))
	c.stopRinging(t.Key())
	switch t.Record.Source {
	case timer.SourceNative:
		args := map[string]any{
			"entity_id": t.SourceEntity,
			"duration":  timer.FormatService(fresh / 1000),
		}
		if err := c.caller.Invoke("timer", "start", args); err != nil {
			log.Printf("command: snooze %s: %v", t.SourceEntity, err)
		}
	case timer.SourceHelper:
		if notice := c.mutateHelper(t.SourceEntity, updateOne(t.ID, func(r *timer.Record) {
			snoozeRecord(r, nowMs, fresh)
		})); notice != "" {
			return notice
		}
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Update(t.ID, func(r *timer.Record) {
			snoozeRecord(r, nowMs, fresh)
		})
	default:
		return "This timer can't be snoozed from here"
	}
	c.events.Emit(event.Snoozed, t)
	return ""
}

// Dismiss stops ringing and removes the timer, or marks it
// session-dismissed when its source has no writable path.
func (c *Commands) Dismiss(t timer.Timer) string {
	key := t.Key()
	c.stopRinging(key)
	switch t.Record.Source {
	case timer.SourceVoice:
		if t.ControlEntity != "" && t.VoiceTimerID != "" {
			return c.sendVoiceCommand(t.ControlEntity, "cancel:"+t.VoiceTimerID)
		}
		c.state.Dismiss(key)
	case timer.SourceNative:
		if err := c.caller.Invoke("timer", "finish", map[string]any{"entity_id": t.SourceEntity}); err != nil {
			log.Printf("command: dismiss %s: %v", t.SourceEntity, err)
		}
	case timer.SourceHelper:
		if notice := c.mutateHelper(t.SourceEntity, removeOne(t.ID)); notice != "" {
			return notice
		}
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Remove(t.ID)
	default:
		c.state.Dismiss(key)
	}
	return ""
}

// PersistExpiredAt records the moment a timer hit zero on its backing
// store, so the keep policy's countdown survives a reload. Only sources
// the card can write to reach here.
func (c *Commands) PersistExpiredAt(t timer.Timer, at int64) {
	set := func(r *timer.Record) {
		r.ExpiredAt = timer.I64(at)
	}
	switch t.Record.Source {
	case timer.SourceHelper:
		c.mutateHelper(t.SourceEntity, updateOne(t.ID, set))
	case timer.SourceLocal, timer.SourceSynced:
		c.storeFor(t.Record.Source).Update(t.ID, set)
	}
}

// stopRinging clears the ring bookkeeping for a key and stops audio.
// Unlike Dismiss on the engine state, the key stays visible.
func (c *Commands) stopRinging(key string) {
	delete(c.state.Ringing, key)
	delete(c.state.ExpirationTimes, key)
	delete(c.state.BeingRemoved, key)
	if c.player != nil {
		c.player.Stop(key)
	}
}

func pauseRecord(r *timer.Record, remainingMs int64) {
	r.Paused = true
	r.RemainingMs = timer.I64(remainingMs)
	r.EndTs = nil
}

func resumeRecord(r *timer.Record, startTs, endTs int64) {
	r.Paused = false
	r.StartTs = timer.I64(startTs)
	r.EndTs = timer.I64(endTs)
	r.RemainingMs = nil
}

func snoozeRecord(r *timer.Record, nowMs, fresh int64) {
	r.Paused = false
	r.Idle = false
	r.Finished = false
	r.FinishedAt = nil
	r.ExpiredAt = nil
	r.StartTs = timer.I64(nowMs)
	r.EndTs = timer.I64(nowMs + fresh)
	r.DurationMs = timer.I64(fresh)
	r.RemainingMs = nil
}

func updateOne(id string, mutate func(*timer.Record)) func([]timer.Record) []timer.Record {
	return func(list []timer.Record) []timer.Record {
		for i := range list {
			if list[i].ID == id {
				mutate(&list[i])
			}
		}
		return list
	}
}

func removeOne(id string) func([]timer.Record) []timer.Record {
	return func(list []timer.Record) []timer.Record {
		out := list[:0]
		for _, r := range list {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	}
}

func isHelperEntity(entityID string) bool {
	return strings.HasPrefix(entityID, "input_text.") || strings.HasPrefix(entityID, "text.")
}

// storageEntity is the sourceRef recorded on store-backed timers so the
// (sourceRef, id) dismissal key stays stable.
func storageEntity(s timer.Source) string {
	return string(s)
}
