package timer

import (
	"encoding/json"
	"fmt"
)

// EnvelopeVersion is written on every save.
const EnvelopeVersion = 2

// Envelope is the persisted state layout shared by the storage backends
// and the helper record format.
type Envelope struct {
	Timers      []Record `json:"timers"`
	Version     int      `json:"version,omitempty"`
	LastUpdated int64    `json:"lastUpdated,omitempty"`
}

// DecodeEnvelope parses a stored payload. Both the wrapped envelope and
// the legacy bare-array form are accepted. Records are validated; any
// malformed record invalidates the whole payload so a corrupt slot can
// be cleared rather than half-trusted.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		var bare []Record
		if err2 := json.Unmarshal(data, &bare); err2 != nil {
			return Envelope{}, fmt.Errorf("decode envelope: %w", err)
		}
		env = Envelope{Timers: bare, Version: 1}
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate checks the stored record shape.
func (e Envelope) Validate() error {
	for i, t := range e.Timers {
		if !t.Valid() {
			return fmt.Errorf("timer %d: missing id", i)
		}
		switch t.LegacyStart.(type) {
		case nil, float64, string:
		default:
			return fmt.Errorf("timer %q: bad start field", t.ID)
		}
	}
	return nil
}

// EncodeEnvelope marshals the wrapped form with a fresh lastUpdated.
func EncodeEnvelope(timers []Record, lastUpdated int64) ([]byte, error) {
	if timers == nil {
		timers = []Record{}
	}
	return json.Marshal(Envelope{Timers: timers, Version: EnvelopeVersion, LastUpdated: lastUpdated})
}
