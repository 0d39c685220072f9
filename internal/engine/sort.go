package engine

import (
	"sort"
	"strings"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// sortBase orders timers ascending by remaining time with finished
// timers always last. Idle placeholders carry their full duration as
// remaining, so they naturally sort after running timers that are
// further along.
func sortBase(ts []timer.Timer) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Finished != b.Finished {
			return !a.Finished
		}
		return a.Remaining < b.Remaining
	})
}

// DisplaySort applies the configured presentation order on top of the
// base ordering: sort_by name or time_left, asc or desc, with the
// display name breaking ties. Finished timers stay last either way.
func DisplaySort(ts []timer.Timer, sortBy, sortOrder string) {
	desc := sortOrder == "desc"
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Finished != b.Finished {
			return !a.Finished
		}
		var less bool
		switch {
		case sortBy == "name":
			an := strings.ToLower(a.DisplayName())
			bn := strings.ToLower(b.DisplayName())
			if an == bn {
				return a.Remaining < b.Remaining
			}
			less = an < bn
		default:
			if a.Remaining == b.Remaining {
				return strings.ToLower(a.DisplayName()) < strings.ToLower(b.DisplayName())
			}
			less = a.Remaining < b.Remaining
		}
		if desc {
			return !less
		}
		return less
	})
}
