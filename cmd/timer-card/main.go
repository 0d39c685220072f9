// Command timer-card runs the timer normalization daemon: it mirrors
// entity state over MQTT, merges every configured timer source with the
// stored timers, derives remaining/percent/state on a fixed tick and
// serves the result over HTTP while handling ring, expiry and mutation
// commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/sentalyr/simple-timer-card/internal/audio"
	"github.com/sentalyr/simple-timer-card/internal/command"
	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/engine"
	"github.com/sentalyr/simple-timer-card/internal/event"
	"github.com/sentalyr/simple-timer-card/internal/mqtt"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/status"
	"github.com/sentalyr/simple-timer-card/internal/storage"
	"github.com/sentalyr/simple-timer-card/internal/timer"
	"github.com/sentalyr/simple-timer-card/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML options file")
	tick := flag.Duration("tick", engine.TickPeriod, "Normalization tick interval")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	dataDir := flag.String("data", "", "Local storage directory (overrides config)")
	httpAddr := flag.String("http", ":8099", "HTTP address (empty to disable)")
	printTimers := flag.Bool("print-timers", false, "Print the current timer list and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	cfg.Normalize()

	if err := run(cfg, *tick, *httpAddr, *printTimers); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// deps bundles everything runLoop touches, so tests can assemble it
// from fakes.
type deps struct {
	cfg      *config.Config
	states   provider.States
	local    *storage.Local
	synced   *storage.Synced
	commands *command.Commands
	events   *event.Publisher
	player   audio.Player
	tracker  *status.Tracker
	connStat mqtt.ConnectionStatus
	state    *engine.State
}

func run(cfg *config.Config, tick time.Duration, httpAddr string, printTimers bool) error {
	nowMs := func() int64 { return time.Now().UnixMilli() }

	local := storage.NewLocal(cfg.DataDir, cfg.StorageNamespace)

	var (
		client   *mqtt.RealClient
		states   provider.States
		caller   provider.Caller
		synced   *storage.Synced
		events   *event.Publisher
		connStat mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		var err error
		client, err = mqtt.NewRealClient(cfg.MQTT.Broker, "timer-card")
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer client.Close()
		connStat = client

		states, err = provider.NewMirror(client, cfg.MQTT.StatesPrefix, nil)
		if err != nil {
			return fmt.Errorf("subscribe states: %w", err)
		}
		caller = provider.NewMQTTCaller(client, cfg.MQTT.ServiceTopic)

		if cfg.Storage == "mqtt" {
			synced = storage.NewSynced(storage.SyncedOptions{
				Client:       client,
				States:       states,
				Topic:        cfg.MQTT.Topic,
				StateTopic:   cfg.MQTT.StateTopic,
				SensorEntity: cfg.MQTT.SensorEntity,
				Compat:       cfg.CompatibilityMode,
				CacheDir:     cfg.DataDir,
			})
		}
		if cfg.SyncedSink() {
			events = event.NewPublisher(client, cfg.MQTT.EventsTopic, nowMs)
		}
	} else {
		states = provider.NewFakeStates()
		caller = provider.NewFakeCaller()
		log.Printf("no MQTT broker configured, running on local storage only")
	}

	player := audio.NewLogPlayer()
	engState := engine.NewState()
	commands := command.New(cfg, local, syncedStore(synced), caller, states, events, player, engState, nowMs)

	d := &deps{
		cfg:      cfg,
		states:   states,
		local:    local,
		synced:   synced,
		commands: commands,
		events:   events,
		player:   player,
		connStat: connStat,
		state:    engState,
	}

	if printTimers {
		// Give retained state messages a moment to replay.
		if client != nil {
			time.Sleep(2 * time.Second)
		}
		_, timers, _ := engine.Tick(nowMs(), gatherSnapshot(d), engState, cfg)
		engine.DisplaySort(timers, cfg.SortBy, cfg.SortOrder)
		printTimerList(timers)
		return nil
	}

	d.tracker = status.NewTracker(time.Now(), status.Config{
		TickMs:       tick.Milliseconds(),
		Storage:      cfg.Storage,
		Namespace:    cfg.StorageNamespace,
		Broker:       cfg.MQTT.Broker,
		Topic:        cfg.MQTT.Topic,
		HTTPAddr:     httpAddr,
		ExpireAction: cfg.ExpireAction,
	})

	if httpAddr != "" {
		srv := web.New(httpAddr, d.tracker, commands)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v storage=%s namespace=%s broker=%s expire=%s",
		tick, cfg.Storage, cfg.StorageNamespace, cfg.MQTT.Broker, cfg.ExpireAction)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

// syncedStore converts a possibly-nil *Synced into the command.Store
// interface without producing a typed nil.
func syncedStore(s *storage.Synced) command.Store {
	if s == nil {
		return nil
	}
	return s
}

// runLoop is the daemon's single-threaded core: every tick gathers an
// external snapshot, runs the pure normalization pass and applies the
// returned effects. It exits cleanly on SIGINT/SIGTERM.
func runLoop(d *deps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	templates := engine.Templates(d.cfg)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			teardown(d)
			return nil

		case <-tick:
			nowMs := now().UnixMilli()
			snap := gatherSnapshot(d)
			snap.Templates = templates

			next, timers, effects := engine.Tick(nowMs, snap, d.state, d.cfg)
			*d.state = *next

			applyEffects(d, effects)

			display := make([]timer.Timer, len(timers))
			copy(display, timers)
			engine.DisplaySort(display, d.cfg.SortBy, d.cfg.SortOrder)

			if d.tracker != nil {
				d.tracker.Update(display, now())
				if d.connStat != nil {
					d.tracker.SetMQTTConnected(d.connStat.IsConnected())
				}
				if d.synced != nil {
					d.tracker.SetShadowActive(d.synced.ShadowActive())
				}
			}
		}
	}
}

// gatherSnapshot reads every configured entity plus the stored records.
func gatherSnapshot(d *deps) engine.Snapshot {
	snap := engine.Snapshot{States: d.states}
	for i := range d.cfg.Entities {
		conf := &d.cfg.Entities[i]
		st, ok := d.states.GetState(conf.Entity)
		snap.Entities = append(snap.Entities, engine.EntitySnapshot{
			ID:      conf.Entity,
			Conf:    conf,
			State:   st,
			Present: ok,
		})
	}
	if d.cfg.Storage == "mqtt" && d.synced != nil {
		snap.Stored = tagSource(d.synced.Load(), timer.SourceSynced)
	} else {
		snap.Stored = tagSource(d.local.Load(), timer.SourceLocal)
	}
	return snap
}

// tagSource backfills the source on stored records written before the
// field existed.
func tagSource(records []timer.Record, src timer.Source) []timer.Record {
	for i := range records {
		if records[i].Source == "" {
			records[i].Source = src
		}
		if records[i].SourceEntity == "" {
			records[i].SourceEntity = string(src)
		}
	}
	return records
}

// applyEffects is the imperative half of the tick: audio, events,
// expiredAt persistence and delayed dismissal.
func applyEffects(d *deps, effects []engine.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case engine.EffectStartAudio:
			settings := audio.Resolve(e.Timer.Record, d.cfg.EntityConfig(e.Timer.SourceEntity), d.cfg)
			if settings.Enabled && audio.ValidURL(settings.FileURL) {
				d.player.Play(e.Key, settings)
			}
		case engine.EffectStopAudio:
			d.player.Stop(e.Key)
		case engine.EffectEmitExpired:
			d.events.Emit(event.Expired, e.Timer)
		case engine.EffectPersistExpiredAt:
			d.commands.PersistExpiredAt(e.Timer, e.ExpiredAt)
		case engine.EffectDismiss:
			t := e.Timer
			if e.DelayMs > 0 {
				time.AfterFunc(time.Duration(e.DelayMs)*time.Millisecond, func() {
					d.commands.Dismiss(t)
				})
			} else {
				d.commands.Dismiss(t)
			}
		}
	}
}

// teardown releases per-session state so a restart starts clean.
func teardown(d *deps) {
	for key := range d.state.Ringing {
		d.player.Stop(key)
	}
	*d.state = *engine.NewState()
}

func printTimerList(timers []timer.Timer) {
	if len(timers) == 0 {
		fmt.Println("no timers")
		return
	}
	active := color.New(color.FgGreen)
	paused := color.New(color.FgYellow)
	expired := color.New(color.FgRed, color.Bold)
	idle := color.New(color.Faint)

	for _, t := range timers {
		line := fmt.Sprintf("%-24s %-10s %8s %5.1f%%  [%s]",
			t.DisplayName(), t.State, timer.FormatCompact(t.Remaining), t.Percent, t.Record.Source)
		switch t.State {
		case timer.StateActive:
			active.Println(line)
		case timer.StatePaused:
			paused.Println(line)
		case timer.StateExpired, timer.StateFinished:
			expired.Println(line)
		default:
			idle.Println(line)
		}
	}
}
