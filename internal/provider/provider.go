// Package provider abstracts the smart-home platform's entity query and
// service call transport. The engine only ever sees these two
// interfaces; the platform behind them is opaque.
package provider

import "time"

// EntityState is a point-in-time snapshot of an external entity.
type EntityState struct {
	State       string
	Attributes  map[string]any
	LastUpdated time.Time
}

// States answers entity state queries. An absent entity means "this
// source currently has no timer".
type States interface {
	GetState(entityID string) (EntityState, bool)
}

// Caller issues opaque service invocations (native timer start/pause/
// cancel/finish, text-write primitives for voice commands).
type Caller interface {
	Invoke(domain, service string, args map[string]any) error
}

// Attr returns a raw attribute value, nil when missing.
func (s EntityState) Attr(name string) any {
	if s.Attributes == nil {
		return nil
	}
	return s.Attributes[name]
}

// StrAttr returns a string attribute, trimmed; empty for missing or
// non-string values.
func (s EntityState) StrAttr(name string) string {
	v, _ := s.Attr(name).(string)
	return v
}

// NumAttr returns a numeric attribute and whether it was present and
// numeric. JSON decoding gives float64; ints are tolerated for
// hand-built test states.
func (s EntityState) NumAttr(name string) (float64, bool) {
	switch n := s.Attr(name).(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Unavailable reports whether the state value carries no usable data.
func (s EntityState) Unavailable() bool {
	return s.State == "" || s.State == "unknown" || s.State == "unavailable"
}
