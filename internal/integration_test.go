package internal

import (
	"testing"

	"github.com/sentalyr/simple-timer-card/internal/audio"
	"github.com/sentalyr/simple-timer-card/internal/command"
	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/engine"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/storage"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// TestIntegrationCreateToDismiss walks one timer through its whole life
// using the real store, command layer and tick engine: create a 5s
// timer, watch it count down, ring exactly once at zero, and get
// removed by the keep policy after the configured hold.
func TestIntegrationCreateToDismiss(t *testing.T) {
	t0 := int64(1_760_000_000_000)
	nowMs := t0

	cfg := &config.Config{
		ExpireAction:  "keep",
		ExpireKeepFor: 120,
	}
	cfg.Normalize()

	store := storage.NewLocal(t.TempDir(), "default")
	player := &audio.FakePlayer{}
	state := engine.NewState()
	caller := provider.NewFakeCaller()
	states := provider.NewFakeStates()
	cmds := command.New(cfg, store, nil, caller, states, nil, player, state, func() int64 { return nowMs })

	if notice := cmds.Create("5s", "Egg"); notice != "" {
		t.Fatalf("create: %q", notice)
	}

	tick := func() ([]timer.Timer, []engine.Effect) {
		next, timers, effects := engine.Tick(nowMs, engine.Snapshot{Stored: store.Load(), States: states}, state, cfg)
		*state = *next
		// Apply the persistence effects the daemon shell would.
		for _, e := range effects {
			switch e.Kind {
			case engine.EffectPersistExpiredAt:
				cmds.PersistExpiredAt(e.Timer, e.ExpiredAt)
			case engine.EffectStartAudio:
				player.Play(e.Key, audio.Settings{})
			case engine.EffectStopAudio:
				player.Stop(e.Key)
			}
		}
		return timers, effects
	}

	// t=0: the timer is live with the full 5s remaining.
	timers, _ := tick()
	if len(timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(timers))
	}
	if timers[0].State != timer.StateActive || timers[0].Remaining != 5000 {
		t.Fatalf("t=0: state=%s remaining=%d", timers[0].State, timers[0].Remaining)
	}

	// t=2s: counting down.
	nowMs = t0 + 2000
	timers, _ = tick()
	if timers[0].Remaining != 3000 {
		t.Errorf("t=2s: remaining=%d, want 3000", timers[0].Remaining)
	}

	// Pause at 2s, wait 10s, resume: the frozen 3s survives the gap.
	if notice := cmds.Pause(timers[0]); notice != "" {
		t.Fatalf("pause: %q", notice)
	}
	nowMs = t0 + 12_000
	timers, _ = tick()
	if timers[0].State != timer.StatePaused || timers[0].Remaining != 3000 {
		t.Fatalf("paused: state=%s remaining=%d", timers[0].State, timers[0].Remaining)
	}
	if notice := cmds.Resume(timers[0]); notice != "" {
		t.Fatalf("resume: %q", notice)
	}
	timers, _ = tick()
	if timers[0].State != timer.StateActive || timers[0].Remaining != 3000 {
		t.Fatalf("resumed: state=%s remaining=%d", timers[0].State, timers[0].Remaining)
	}

	// t=+3s after resume: the timer hits zero and rings exactly once.
	expireAt := nowMs + 3000
	nowMs = expireAt
	timers, effects := tick()
	if timers[0].State != timer.StateExpired {
		t.Fatalf("expired: state=%s", timers[0].State)
	}
	rings := 0
	for _, e := range effects {
		if e.Kind == engine.EffectStartAudio {
			rings++
		}
	}
	if rings != 1 {
		t.Fatalf("ring effects = %d, want 1", rings)
	}
	if len(player.Plays) != 1 {
		t.Fatalf("player plays = %d, want 1", len(player.Plays))
	}

	// Further ticks while ringing stay quiet.
	nowMs += 250
	_, effects = tick()
	for _, e := range effects {
		if e.Kind == engine.EffectStartAudio || e.Kind == engine.EffectEmitExpired {
			t.Fatalf("repeat ring effect %v", e.Kind)
		}
	}

	// The expiry anchor was persisted, so the keep countdown survives.
	stored := store.Load()
	if len(stored) != 1 || stored[0].ExpiredAt == nil {
		t.Fatalf("expected persisted ExpiredAt, got %+v", stored)
	}

	// Just short of the keep window nothing happens; past it the timer
	// is dismissed from the store.
	nowMs = expireAt + 119_000
	timers, _ = tick()
	if len(timers) != 1 {
		t.Fatalf("t=+119s: expected timer still shown, got %d", len(timers))
	}

	nowMs = expireAt + 121_000
	_, effects = tick()
	dismissed := false
	for _, e := range effects {
		if e.Kind == engine.EffectDismiss {
			dismissed = true
			cmds.Dismiss(e.Timer)
		}
	}
	if !dismissed {
		t.Fatal("expected dismiss effect after keep window")
	}
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("store still holds %d timers after dismissal", len(got))
	}

	nowMs += 250
	timers, _ = tick()
	if len(timers) != 0 {
		t.Fatalf("expected empty list, got %d", len(timers))
	}
}

// TestIntegrationNativeTimerMirrored drives a platform timer entity
// through the states fake and checks the derived view plus the cancel
// service call.
func TestIntegrationNativeTimerMirrored(t *testing.T) {
	t0 := int64(1_760_000_000_000)
	nowMs := t0

	cfg := &config.Config{Entities: []config.Entity{{Entity: "timer.kitchen"}}}
	cfg.Normalize()

	states := provider.NewFakeStates()
	states.Set("timer.kitchen", provider.EntityState{
		State: "active",
		Attributes: map[string]any{
			"duration":      "0:05:00",
			"finishes_at":   "2025-10-09T08:58:20+00:00",
			"friendly_name": "Kitchen",
		},
	})

	caller := provider.NewFakeCaller()
	state := engine.NewState()
	cmds := command.New(cfg, &nullStore{}, nil, caller, states, nil, &audio.FakePlayer{}, state, func() int64 { return nowMs })

	st, _ := states.GetState("timer.kitchen")
	snap := engine.Snapshot{
		Entities: []engine.EntitySnapshot{{ID: "timer.kitchen", Conf: &cfg.Entities[0], State: st, Present: true}},
		States:   states,
	}
	next, timers, _ := engine.Tick(nowMs, snap, state, cfg)
	*state = *next

	if len(timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(timers))
	}
	if timers[0].Record.Source != timer.SourceNative || timers[0].State != timer.StateActive {
		t.Fatalf("timer = %+v", timers[0])
	}

	if notice := cmds.Cancel(timers[0]); notice != "" {
		t.Fatalf("cancel: %q", notice)
	}
	if len(caller.Calls) != 1 || caller.Calls[0].Service != "cancel" {
		t.Fatalf("calls = %+v", caller.Calls)
	}
}

type nullStore struct{}

func (nullStore) Load() []timer.Record               { return nil }
func (nullStore) Save([]timer.Record)                {}
func (nullStore) Update(string, func(*timer.Record)) {}
func (nullStore) Remove(string)                      {}
