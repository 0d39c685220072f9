// Package storage provides a uniform load/save/update/remove contract
// over the two timer persistence backends: a local diskv-backed
// key-value slot, and an MQTT-synchronized store with an optimistic
// shadow overlay.
//
// Update is read-modify-write over the whole list, not atomic across
// concurrent writers. The card is the sole writer within a session;
// concurrent sessions on the synced backend get last-write-wins.
package storage

import "github.com/sentalyr/simple-timer-card/internal/timer"

// Store is the persistence contract shared by both backends. All
// methods degrade to empty results or silent no-ops on failure: a
// corrupt slot or an unreachable broker must never take the session
// down.
type Store interface {
	// Load returns the stored records, migrated to the current field
	// spellings. Corruption clears the slot and returns nothing.
	Load() []timer.Record

	// Save replaces the stored list.
	Save(records []timer.Record)

	// Update applies mutate to the record with the given id, if present,
	// and saves the whole list back.
	Update(id string, mutate func(*timer.Record))

	// Remove deletes the record with the given id.
	Remove(id string)
}

func removeID(records []timer.Record, id string) []timer.Record {
	out := records[:0]
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
