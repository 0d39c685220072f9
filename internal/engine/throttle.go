package engine

const (
	// ThrottleInterval is the minimum gap between repeats of the same
	// action on the same timer.
	ThrottleInterval int64 = 1000
	// TemplateStartInterval is the tighter window for starting a template,
	// where a double tap creates two real timers instead of one.
	TemplateStartInterval int64 = 500
	// CreateInterval guards creation the same way. New timers have no id
	// yet, so creates throttle on a single global key.
	CreateInterval int64 = 500

	throttleMaxAge      int64 = 60 * 1000
	throttleSweepPeriod int64 = 10 * 1000
)

// Throttled reports whether action on timerID fired within interval ms
// and, when it did not, records the new timestamp.
func (s *State) Throttled(action, timerID string, nowMs, interval int64) bool {
	key := action + ":" + timerID
	if last, ok := s.LastAction[key]; ok && nowMs-last < interval {
		return true
	}
	s.LastAction[key] = nowMs
	return false
}

// sweepThrottle drops action timestamps older than the max age. Runs at
// most once per sweep period.
func (s *State) sweepThrottle(nowMs int64) {
	if nowMs-s.LastCleanup < throttleSweepPeriod {
		return
	}
	s.LastCleanup = nowMs
	for key, last := range s.LastAction {
		if nowMs-last > throttleMaxAge {
			delete(s.LastAction, key)
		}
	}
}
