package source

import (
	"strconv"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// ParseTimestamp maps a sensor whose state is an absolute end timestamp.
// Duration is computed only when a start reference (a separate entity or
// an attribute on the same entity) resolves to a time preceding the end.
func ParseTimestamp(entityID string, st provider.EntityState, conf *config.Entity, states provider.States) []timer.Record {
	if st.Unavailable() {
		return nil
	}
	end, ok := parseTime(st.State)
	if !ok {
		return nil
	}
	endMs := end.UnixMilli()

	var durationMs *int64
	if conf != nil && conf.StartTimeEntity != "" {
		if states != nil {
			if startSt, present := states.GetState(conf.StartTimeEntity); present && !startSt.Unavailable() {
				if start, okS := parseTime(startSt.State); okS && endMs > start.UnixMilli() {
					durationMs = timer.I64(endMs - start.UnixMilli())
				}
			}
		}
	} else {
		attr := "start_time"
		if conf != nil && conf.StartTimeAttr != "" {
			attr = conf.StartTimeAttr
		}
		if v := st.StrAttr(attr); v != "" {
			if start, okS := parseTime(v); okS && endMs > start.UnixMilli() {
				durationMs = timer.I64(endMs - start.UnixMilli())
			}
		}
	}

	return []timer.Record{{
		ID:           entityID + "-" + strconv.FormatInt(endMs, 10),
		Source:       timer.SourceTimestamp,
		SourceEntity: entityID,
		Label:        firstNonEmpty(confName(conf), st.StrAttr("friendly_name"), defaultLabel),
		Icon:         firstNonEmpty(confIcon(conf), iconTimerSand),
		Color:        firstNonEmpty(confColor(conf), colorPrimary),
		EndTs:        timer.I64(endMs),
		DurationMs:   durationMs,
	}}
}
