package provider

import "sync"

// FakeStates is an in-memory States for tests and the -print-timers mode.
type FakeStates struct {
	mu     sync.RWMutex
	states map[string]EntityState
}

// NewFakeStates creates an empty FakeStates.
func NewFakeStates() *FakeStates {
	return &FakeStates{states: make(map[string]EntityState)}
}

// Set stores an entity state.
func (f *FakeStates) Set(entityID string, st EntityState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[entityID] = st
}

// Remove deletes an entity.
func (f *FakeStates) Remove(entityID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, entityID)
}

// GetState implements States.
func (f *FakeStates) GetState(entityID string) (EntityState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	st, ok := f.states[entityID]
	return st, ok
}

// Call records one Invoke for assertions.
type Call struct {
	Domain  string
	Service string
	Args    map[string]any
}

// FakeCaller records service invocations for test assertions.
type FakeCaller struct {
	mu    sync.Mutex
	Calls []Call

	// InvokeError, if set, is returned by Invoke.
	InvokeError error
}

// NewFakeCaller creates a FakeCaller.
func NewFakeCaller() *FakeCaller {
	return &FakeCaller{}
}

// Invoke records the call.
func (f *FakeCaller) Invoke(domain, service string, args map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InvokeError != nil {
		return f.InvokeError
	}
	f.Calls = append(f.Calls, Call{Domain: domain, Service: service, Args: args})
	return nil
}

// Last returns the most recent call, or a zero Call.
func (f *FakeCaller) Last() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}

// Reset clears recorded calls.
func (f *FakeCaller) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
	f.InvokeError = nil
}
