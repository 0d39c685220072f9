package source

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

var reNextTimer = regexp.MustCompile(`(?i)\s*next\s+timer\s*`)

// ParseAlexa maps a smart-speaker timer aggregate. Two shapes are
// handled: pre-sorted active/paused/all lists (items may be [id, timer]
// pairs or plain objects), and a compact "brief" summary that only
// carries remaining times plus an anchor timestamp.
func ParseAlexa(entityID string, st provider.EntityState, conf *config.Entity, now time.Time) []timer.Record {
	active := asList(st.Attr("sorted_active"))
	paused := asList(st.Attr("sorted_paused"))
	all := asList(st.Attr("sorted_all"))

	if active == nil && paused == nil && all == nil {
		all = asList(st.Attr("timers"))
	}
	if active == nil {
		if nt := st.Attr("next_timer"); nt != nil {
			active = []any{nt}
		}
	}

	if len(active) == 0 && len(paused) == 0 {
		if brief, ok := st.Attr("alarms_brief").(map[string]any); ok {
			return parseBrief(entityID, st, conf, brief, now)
		}
	}

	nowMs := now.UnixMilli()
	out := mapTimerList(entityID, st, conf, active, false, nowMs)
	pausedTimers := mapTimerList(entityID, st, conf, paused, true, nowMs)

	if len(pausedTimers) == 0 && len(all) > 0 {
		for _, item := range all {
			if obj, _ := itemObject(item); obj != nil {
				if strings.EqualFold(strField(obj, "status"), "PAUSED") {
					pausedTimers = append(pausedTimers, mapTimerList(entityID, st, conf, []any{item}, true, nowMs)...)
				}
			}
		}
	}
	return append(out, pausedTimers...)
}

// parseBrief handles the compact summary shape. The duration back-fill
// policy when the feed omits an explicit duration: paused timers assume
// duration = remaining; active timers assume elapsed-since-update +
// remaining, against the freshest available anchor (process timestamp,
// then entity last-updated, then per-item update time, then now).
func parseBrief(entityID string, st provider.EntityState, conf *config.Entity, brief map[string]any, now time.Time) []timer.Record {
	items, _ := brief["active"].([]any)
	if len(items) == 0 {
		return nil
	}

	nowMs := now.UnixMilli()
	anchorMs := nowMs
	hasAnchor := false
	if ts := st.StrAttr("process_timestamp"); ts != "" {
		if t, ok := parseTime(ts); ok {
			anchorMs = t.UnixMilli()
			hasAnchor = true
		}
	}
	if !hasAnchor && !st.LastUpdated.IsZero() {
		anchorMs = st.LastUpdated.UnixMilli()
		hasAnchor = true
	}

	out := make([]timer.Record, 0, len(items))
	for _, it := range items {
		obj, _ := it.(map[string]any)
		if obj == nil {
			continue
		}
		isPaused := strings.EqualFold(strField(obj, "status"), "PAUSED")
		remaining := int64(numField(obj, "remainingTime"))

		validAnchor := anchorMs
		if !hasAnchor {
			if lu := int64(numField(obj, "lastUpdatedDate")); lu > 0 {
				validAnchor = lu
			} else {
				validAnchor = nowMs
			}
		}

		totalDuration := int64(numField(obj, "originalDuration"))
		if totalDuration == 0 {
			if isPaused {
				totalDuration = remaining
			} else {
				start := validAnchor
				if lu := int64(numField(obj, "lastUpdatedDate")); lu > 0 {
					start = lu
				}
				elapsed := validAnchor - start
				if elapsed < 0 {
					elapsed = 0
				}
				totalDuration = elapsed + remaining
			}
		}

		label := strField(obj, "timerLabel")
		if label == "" {
			label = firstNonEmpty(confName(conf), cleanFriendlyName(st.StrAttr("friendly_name")), briefDefaultLabel(isPaused))
		}

		r := timer.Record{
			ID:           strField(obj, "id"),
			Source:       timer.SourceAlexa,
			SourceEntity: entityID,
			Label:        label,
			Icon:         firstNonEmpty(confIcon(conf), pausedIcon(isPaused)),
			Color:        firstNonEmpty(confColor(conf), pausedColor(isPaused)),
			Paused:       isPaused,
			DurationMs:   timer.I64(totalDuration),
		}
		if isPaused {
			r.RemainingMs = timer.I64(remaining)
		} else {
			r.EndTs = timer.I64(validAnchor + remaining)
		}
		out = append(out, r)
	}
	return out
}

func mapTimerList(entityID string, st provider.EntityState, conf *config.Entity, items []any, isPaused bool, nowMs int64) []timer.Record {
	out := make([]timer.Record, 0, len(items))
	for _, item := range items {
		obj, id := itemObject(item)
		if obj == nil {
			continue
		}

		duration := normDuration(obj, nowMs)

		label := strField(obj, "timerLabel")
		if label == "" {
			baseName := firstNonEmpty(confName(conf), cleanFriendlyName(st.StrAttr("friendly_name")), briefDefaultLabel(isPaused))
			if baseName != briefDefaultLabel(false) && baseName != briefDefaultLabel(true) && duration != nil && *duration > 0 {
				label = baseName + " - " + timer.FormatCompact(*duration)
			} else {
				label = baseName
			}
		}

		r := timer.Record{
			ID:           id,
			Source:       timer.SourceAlexa,
			SourceEntity: entityID,
			Label:        label,
			Icon:         firstNonEmpty(confIcon(conf), pausedIcon(isPaused)),
			Color:        firstNonEmpty(confColor(conf), pausedColor(isPaused)),
			Paused:       isPaused,
			DurationMs:   duration,
		}
		if isPaused {
			if rem := timer.ToMs(obj["remainingTime"], nowMs); rem != nil {
				r.RemainingMs = rem
			} else {
				r.RemainingMs = timer.I64(0)
			}
		} else {
			if tt := int64(numField(obj, "triggerTime")); tt > 0 {
				r.EndTs = timer.I64(tt)
			}
		}
		out = append(out, r)
	}
	return out
}

// itemObject unwraps a list item, which may be a plain object or an
// [id, object] pair.
func itemObject(item any) (map[string]any, string) {
	switch v := item.(type) {
	case map[string]any:
		return v, strField(v, "id")
	case []any:
		if len(v) == 2 {
			if obj, ok := v[1].(map[string]any); ok {
				id, _ := v[0].(string)
				return obj, id
			}
		}
	}
	return nil, ""
}

func normDuration(obj map[string]any, nowMs int64) *int64 {
	if ms := numField(obj, "originalDurationInMillis"); ms > 0 {
		return timer.I64(int64(ms))
	}
	if s := numField(obj, "originalDurationInSeconds"); s > 0 {
		return timer.I64(int64(s) * 1000)
	}
	return timer.ToMs(obj["originalDuration"], nowMs)
}

// asList coerces an attribute to a list; strings holding JSON arrays are
// parsed, anything else is nil.
func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case string:
		var out []any
		if err := json.Unmarshal([]byte(x), &out); err != nil {
			return []any{}
		}
		return out
	}
	return nil
}

func strField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func numField(obj map[string]any, key string) float64 {
	switch n := obj[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func cleanFriendlyName(name string) string {
	return strings.TrimSpace(reNextTimer.ReplaceAllString(name, ""))
}

func briefDefaultLabel(isPaused bool) string {
	if isPaused {
		return "Alexa Timer (Paused)"
	}
	return "Alexa Timer"
}

func pausedIcon(isPaused bool) string {
	if isPaused {
		return iconTimerPause
	}
	return iconTimer
}

func pausedColor(isPaused bool) string {
	if isPaused {
		return colorWarning
	}
	return colorPrimary
}
