package storage

import (
	"log"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Local persists timers in a diskv key-value slot, one slot per storage
// namespace. A corrupt slot is cleared and treated as empty rather than
// surfaced as an error.
type Local struct {
	d   *diskv.Diskv
	key string
	now func() time.Time
}

// NewLocal creates a Local store rooted at basePath.
func NewLocal(basePath, namespace string) *Local {
	if namespace == "" {
		namespace = "default"
	}
	return &Local{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		key: "simple-timer-card-" + namespace,
		now: time.Now,
	}
}

// Load implements Store.
func (l *Local) Load() []timer.Record {
	data, err := l.d.Read(l.key)
	if err != nil {
		// Missing slot is the common first-run case, not corruption.
		return nil
	}
	env, err := timer.DecodeEnvelope(data)
	if err != nil {
		log.Printf("storage: clearing corrupt local slot %s: %v", l.key, err)
		if err := l.d.Erase(l.key); err != nil {
			log.Printf("storage: erase %s: %v", l.key, err)
		}
		return nil
	}
	records, changed := timer.NormalizeAll(env.Timers)
	if changed {
		l.Save(records)
	}
	return records
}

// Save implements Store.
func (l *Local) Save(records []timer.Record) {
	data, err := timer.EncodeEnvelope(records, l.now().UnixMilli())
	if err != nil {
		log.Printf("storage: encode local slot: %v", err)
		return
	}
	if err := l.d.Write(l.key, data); err != nil {
		log.Printf("storage: write %s: %v", l.key, err)
	}
}

// Update implements Store.
func (l *Local) Update(id string, mutate func(*timer.Record)) {
	records := l.Load()
	for i := range records {
		if records[i].ID == id {
			mutate(&records[i])
			l.Save(records)
			return
		}
	}
}

// Remove implements Store.
func (l *Local) Remove(id string) {
	l.Save(removeID(l.Load(), id))
}
