package source

import (
	"strconv"
	"strings"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// voiceIDAttrs are the attribute spellings firmware variants use for the
// external timer id, in preference order.
var voiceIDAttrs = []string{"timer_id", "timerId", "id", "timer", "voice_pe_timer_id", "vpe_timer_id", "uuid"}

// ParseVoice maps a voice-assistant timer entity. The timer is locally
// controllable only when both the control entity and the external timer
// id are present; otherwise every capability is off.
func ParseVoice(entityID string, st provider.EntityState, conf *config.Entity, now time.Time) []timer.Record {
	state := st.State
	if state != "active" && state != "paused" && state != "idle" && state != "finished" {
		return nil
	}

	controlEntity := strings.TrimSpace(st.StrAttr("control_entity"))

	var timerID string
	for _, a := range voiceIDAttrs {
		if v := st.Attr(a); v != nil {
			if s := strings.TrimSpace(toString(v)); s != "" {
				timerID = s
				break
			}
		}
	}

	controllable := controlEntity != "" && timerID != ""

	id := entityID
	if timerID != "" {
		id = "vpe-" + timerID
	}

	label := firstNonEmpty(st.StrAttr("display_name"), st.StrAttr("friendly_name"), confName(conf), defaultLabel)

	var durationMs *int64
	if d := timer.ParseHMS(st.StrAttr("duration")); d > 0 {
		durationMs = timer.I64(d)
	}

	supports := timer.Supports{}
	if controllable {
		supports = timer.Supports{Pause: true, Cancel: true}
	}

	base := timer.Record{
		ID:            id,
		Source:        timer.SourceVoice,
		SourceEntity:  entityID,
		Label:         label,
		Name:          label,
		DurationMs:    durationMs,
		VoiceTimerID:  timerID,
		ControlEntity: controlEntity,
		Supports:      &supports,
	}

	switch state {
	case "idle":
		base.Idle = true
		base.State = "idle"
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconPlay)
		base.Color = firstNonEmpty(confColor(conf), colorPrimary)
		return []timer.Record{base}

	case "finished":
		finishedAt := now.UnixMilli()
		if t, ok := parseTime(st.StrAttr("finishes_at")); ok {
			finishedAt = t.UnixMilli()
		}
		base.Finished = true
		base.State = "finished"
		base.EndTs = timer.I64(finishedAt)
		base.FinishedAt = timer.I64(finishedAt)
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimerCheck)
		base.Color = firstNonEmpty(confColor(conf), colorSuccess)
		return []timer.Record{base}
	}

	remaining := timer.ParseHMS(st.StrAttr("remaining"))

	if state == "paused" {
		if remaining <= 0 {
			return nil
		}
		base.Paused = true
		base.State = "paused"
		base.RemainingMs = timer.I64(remaining)
		base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimerPause)
		base.Color = firstNonEmpty(confColor(conf), colorWarning)
		return []timer.Record{base}
	}

	// active
	if t, ok := parseTime(st.StrAttr("finishes_at")); ok {
		base.EndTs = timer.I64(t.UnixMilli())
	} else if remaining > 0 {
		base.EndTs = timer.I64(now.UnixMilli() + remaining)
	} else {
		return nil
	}
	base.State = "active"
	base.Icon = firstNonEmpty(confIcon(conf), st.StrAttr("icon"), iconTimer)
	base.Color = firstNonEmpty(confColor(conf), colorPrimary)
	return []timer.Record{base}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}
