package storage

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/sentalyr/simple-timer-card/internal/mqtt"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// shadow is the last locally-written snapshot plus its write timestamp.
// It is preferred over freshly observed remote state until the remote's
// own lastUpdated catches up, or until every shadowed timer id is
// confirmed present remotely. This masks the round-trip latency window
// so a just-performed mutation does not visually revert.
type shadow struct {
	timers      []timer.Record
	lastUpdated int64
}

// Synced persists timers over an MQTT retained topic and observes them
// back through a sensor entity. A diskv cache mirrors the last
// known-good remote list to survive transient read failures.
type Synced struct {
	client       mqtt.Client
	states       provider.States
	topic        string
	stateTopic   string
	sensorEntity string
	// compat selects the publish payload shape: anything but "latest"
	// keeps the wrapped {timers, version, lastUpdated} envelope for
	// older consumers of the same channel.
	compat string

	cache    *diskv.Diskv
	cacheKey string

	shadow *shadow
	now    func() time.Time
}

// SyncedOptions configures a Synced store.
type SyncedOptions struct {
	Client       mqtt.Client
	States       provider.States
	Topic        string
	StateTopic   string
	SensorEntity string
	Compat       string
	CacheDir     string
}

// NewSynced creates a Synced store.
func NewSynced(opts SyncedOptions) *Synced {
	cacheKey := "simple_timer_card_mqtt"
	if opts.Topic != "" {
		cacheKey = "simple_timer_card_mqtt_" + strings.ReplaceAll(opts.Topic, "/", "_")
	}
	return &Synced{
		client:       opts.Client,
		states:       opts.States,
		topic:        opts.Topic,
		stateTopic:   opts.StateTopic,
		sensorEntity: opts.SensorEntity,
		compat:       opts.Compat,
		cache: diskv.New(diskv.Options{
			BasePath:     opts.CacheDir,
			CacheSizeMax: 1024 * 1024,
		}),
		cacheKey: cacheKey,
		now:      time.Now,
	}
}

// Load implements Store. Preference order: fresh remote state (which
// may invalidate the shadow), then the shadow, then the cache mirror.
func (s *Synced) Load() []timer.Record {
	if s.sensorEntity == "" {
		if s.shadow != nil {
			return s.normalized(s.shadow.timers)
		}
		return s.normalized(s.readCache())
	}

	st, ok := s.states.GetState(s.sensorEntity)
	if ok {
		if remote, present := remoteTimers(st); present {
			s.writeCache(remote)
			s.maybeClearShadow(st, remote)
			if s.shadow != nil {
				return s.normalized(s.shadow.timers)
			}
			return s.normalized(remote)
		}
	}

	if s.shadow != nil {
		return s.normalized(s.shadow.timers)
	}
	return s.normalized(s.readCache())
}

// maybeClearShadow drops the shadow once the remote echo qualifies:
// its update timestamp has caught up, or every shadowed id is present.
func (s *Synced) maybeClearShadow(st provider.EntityState, remote []timer.Record) {
	if s.shadow == nil {
		return
	}
	if lu, ok := st.NumAttr("lastUpdated"); ok && int64(lu) >= s.shadow.lastUpdated {
		s.shadow = nil
		return
	}
	for _, t := range s.shadow.timers {
		if t.ID == "" {
			return
		}
		found := false
		for _, r := range remote {
			if r.ID == t.ID {
				found = true
				break
			}
		}
		if !found {
			return
		}
	}
	s.shadow = nil
}

// Save implements Store. The shadow and cache are written first; the
// publish is best-effort and a failure leaves the optimistic local
// state standing until the next reconciliation.
func (s *Synced) Save(records []timer.Record) {
	if records == nil {
		records = []timer.Record{}
	}
	lastUpdated := s.now().UnixMilli()
	s.shadow = &shadow{timers: records, lastUpdated: lastUpdated}
	s.writeCache(records)

	if s.topic != "" {
		var payload []byte
		var err error
		if s.compat != "" && s.compat != "latest" {
			payload, err = json.Marshal(timer.Envelope{Timers: records, Version: 1, LastUpdated: lastUpdated})
		} else {
			payload, err = json.Marshal(records)
		}
		if err != nil {
			log.Printf("storage: encode synced payload: %v", err)
			return
		}
		if err := s.client.Publish(s.topic, 0, true, payload); err != nil {
			log.Printf("storage: publish %s: %v", s.topic, err)
		}
	}

	if s.stateTopic != "" {
		version := 2
		if s.compat != "" && s.compat != "latest" {
			version = 1
		}
		payload, _ := json.Marshal(map[string]any{"version": version, "t": lastUpdated})
		if err := s.client.Publish(s.stateTopic, 0, true, payload); err != nil {
			log.Printf("storage: publish %s: %v", s.stateTopic, err)
		}
	}
}

// Update implements Store.
func (s *Synced) Update(id string, mutate func(*timer.Record)) {
	records := s.Load()
	for i := range records {
		if records[i].ID == id {
			mutate(&records[i])
			s.Save(records)
			return
		}
	}
}

// Remove implements Store.
func (s *Synced) Remove(id string) {
	s.Save(removeID(s.Load(), id))
}

// ShadowActive reports whether an optimistic overlay is masking remote
// state. Exposed for the status tracker.
func (s *Synced) ShadowActive() bool {
	return s.shadow != nil
}

func (s *Synced) normalized(records []timer.Record) []timer.Record {
	out, changed := timer.NormalizeAll(records)
	if changed {
		s.Save(out)
	}
	return out
}

func (s *Synced) readCache() []timer.Record {
	data, err := s.cache.Read(s.cacheKey)
	if err != nil {
		return nil
	}
	env, err := timer.DecodeEnvelope(data)
	if err != nil {
		return nil
	}
	return env.Timers
}

func (s *Synced) writeCache(records []timer.Record) {
	data, err := json.Marshal(timer.Envelope{Timers: records})
	if err != nil {
		return
	}
	if err := s.cache.Write(s.cacheKey, data); err != nil {
		log.Printf("storage: write cache %s: %v", s.cacheKey, err)
	}
}

// remoteTimers extracts the timers attribute from the sensor entity.
func remoteTimers(st provider.EntityState) ([]timer.Record, bool) {
	attr := st.Attr("timers")
	if attr == nil {
		return nil, false
	}
	data, err := json.Marshal(attr)
	if err != nil {
		return nil, false
	}
	var records []timer.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}
