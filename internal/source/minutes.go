package source

import (
	"fmt"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

const defaultMinutesAttr = "Minutes to arrival"

// ParseMinutes converts a numeric "minutes remaining" attribute into an
// absolute end anchored at parse time. The id includes a one-second time
// bucket so identity stays stable across ticks within the same second.
func ParseMinutes(entityID string, st provider.EntityState, conf *config.Entity, now time.Time) []timer.Record {
	attr := defaultMinutesAttr
	if conf != nil && conf.MinutesAttr != "" {
		attr = conf.MinutesAttr
	}
	minutes, ok := st.NumAttr(attr)
	if !ok {
		return nil
	}
	if minutes < 0 {
		minutes = 0
	}
	endMs := now.UnixMilli() + int64(minutes*60000)

	return []timer.Record{{
		ID:           fmt.Sprintf("%s-eta-%d", entityID, endMs/1000),
		Source:       timer.SourceMinutes,
		SourceEntity: entityID,
		Label:        firstNonEmpty(confName(conf), st.StrAttr("friendly_name"), "ETA"),
		Icon:         firstNonEmpty(confIcon(conf), iconTimerOut),
		Color:        firstNonEmpty(confColor(conf), colorPrimary),
		EndTs:        timer.I64(endMs),
		DurationMs:   timer.I64(int64(minutes * 60000)),
	}}
}
