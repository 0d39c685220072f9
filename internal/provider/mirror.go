package provider

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/mqtt"
)

// Mirror maintains a local copy of entity states published over MQTT in
// the statestream layout: <prefix>/<domain>/<object>/state carries the
// state string, and every other leaf under the same node is one
// attribute with a JSON value. Retained messages replay the full
// picture on connect, so the mirror is usable shortly after startup.
type Mirror struct {
	mu     sync.RWMutex
	prefix string
	states map[string]EntityState
	now    func() time.Time
}

// NewMirror subscribes to the statestream prefix and starts mirroring.
func NewMirror(client mqtt.Client, prefix string, now func() time.Time) (*Mirror, error) {
	if now == nil {
		now = time.Now
	}
	m := &Mirror{
		prefix: strings.TrimSuffix(prefix, "/"),
		states: make(map[string]EntityState),
		now:    now,
	}
	if err := client.Subscribe(m.prefix+"/#", 0, m.handle); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mirror) handle(topic string, payload []byte) {
	rel := strings.TrimPrefix(topic, m.prefix+"/")
	parts := strings.Split(rel, "/")
	if len(parts) < 3 {
		return
	}
	leaf := parts[len(parts)-1]
	domain := parts[0]
	object := strings.Join(parts[1:len(parts)-1], "_")
	entityID := domain + "." + object

	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[entityID]
	if !ok {
		st = EntityState{Attributes: make(map[string]any)}
	}
	if leaf == "state" {
		st.State = decodeScalar(payload)
	} else {
		var v any
		if err := json.Unmarshal(payload, &v); err != nil {
			v = string(payload)
		}
		st.Attributes[leaf] = v
	}
	st.LastUpdated = m.now()
	m.states[entityID] = st
}

// GetState implements States.
func (m *Mirror) GetState(entityID string) (EntityState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[entityID]
	if !ok {
		return EntityState{}, false
	}
	// Copy the attribute map so readers never race with handle.
	attrs := make(map[string]any, len(st.Attributes))
	for k, v := range st.Attributes {
		attrs[k] = v
	}
	st.Attributes = attrs
	return st, true
}

// Entities returns the mirrored entity ids, for diagnostics.
func (m *Mirror) Entities() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids
}

// decodeScalar unwraps a JSON string payload, otherwise returns the raw
// text. Statestream publishes state strings both quoted and bare
// depending on version.
func decodeScalar(payload []byte) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return string(payload)
}
