package source

import (
	"time"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// ParseNative maps a platform timer entity. States are restricted to
// idle/active/paused/finished; anything else yields nothing. Idle
// produces a startable placeholder with no end; finished anchors the end
// at the entity's finish timestamp or now.
func ParseNative(entityID string, st provider.EntityState, conf *config.Entity, now time.Time) []timer.Record {
	state := st.State
	if state != "active" && state != "paused" && state != "idle" && state != "finished" {
		return nil
	}

	label := firstNonEmpty(confName(conf), st.StrAttr("friendly_name"), defaultLabel)
	var durationMs *int64
	if d := timer.ParseHMS(st.StrAttr("duration")); d > 0 {
		durationMs = timer.I64(d)
	}

	base := timer.Record{
		ID:           entityID,
		Source:       timer.SourceNative,
		SourceEntity: entityID,
		Label:        label,
		DurationMs:   durationMs,
	}

	switch state {
	case "idle":
		base.Idle = true
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconPlay)
		base.Color = firstNonEmpty(confColor(conf), colorPrimary)
		return []timer.Record{base}

	case "finished":
		finishedAt := now.UnixMilli()
		if t, ok := parseTime(st.StrAttr("finishes_at")); ok {
			finishedAt = t.UnixMilli()
		}
		base.Finished = true
		base.EndTs = timer.I64(finishedAt)
		base.FinishedAt = timer.I64(finishedAt)
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimerCheck)
		base.Color = firstNonEmpty(confColor(conf), colorSuccess)
		return []timer.Record{base}
	}

	// active or paused
	if state == "paused" {
		remaining := timer.ParseHMS(st.StrAttr("remaining"))
		if remaining <= 0 {
			return nil
		}
		base.Paused = true
		base.RemainingMs = timer.I64(remaining)
	} else {
		if t, ok := parseTime(st.StrAttr("finishes_at")); ok {
			base.EndTs = timer.I64(t.UnixMilli())
		} else if remaining := timer.ParseHMS(st.StrAttr("remaining")); remaining > 0 {
			base.EndTs = timer.I64(now.UnixMilli() + remaining)
		} else {
			return nil
		}
	}

	if state == "paused" {
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimerPause)
		base.Color = firstNonEmpty(confColor(conf), colorWarning)
	} else {
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimer)
		base.Color = firstNonEmpty(confColor(conf), colorPrimary)
	}
	return []timer.Record{base}
}
