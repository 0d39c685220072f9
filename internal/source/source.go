// Package source contains one pure parser per provider type. Each
// parser maps a raw entity-state snapshot into zero or more timer
// records; malformed input yields an empty list, never an error or a
// panic. Time is always injectable.
package source

import (
	"strings"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Mode selects a parser.
type Mode string

const (
	ModeNone      Mode = ""
	ModeNative    Mode = "timer"
	ModeVoice     Mode = "voice_pe"
	ModeHelper    Mode = "helper"
	ModeAlexa     Mode = "alexa"
	ModeTimestamp Mode = "timestamp"
	ModeMinutes   Mode = "minutes_attr"
)

// DetectMode guesses the parser for an entity from its id and
// attributes. Returns ModeNone when nothing matches.
func DetectMode(entityID string, st provider.EntityState, conf *config.Entity) Mode {
	if strings.HasPrefix(entityID, "timer.") {
		return ModeNative
	}
	if strings.HasPrefix(entityID, "input_text.") || strings.HasPrefix(entityID, "text.") {
		return ModeHelper
	}
	if looksLikeAlexa(entityID, st) {
		return ModeAlexa
	}
	if st.StrAttr("device_class") == "timestamp" {
		return ModeTimestamp
	}
	if conf != nil && conf.MinutesAttr != "" && st.Attr(conf.MinutesAttr) != nil {
		return ModeMinutes
	}
	if st.Attr("start_time") != nil {
		return ModeTimestamp
	}
	if !st.Unavailable() {
		if _, ok := parseTime(st.State); ok {
			return ModeTimestamp
		}
	}
	return ModeNone
}

func looksLikeAlexa(entityID string, st provider.EntityState) bool {
	for _, a := range []string{"alarms_brief", "sorted_active", "sorted_paused", "sorted_all", "next_timer", "timers"} {
		if st.Attr(a) != nil {
			return true
		}
	}
	if strings.Contains(entityID, "next_timer") {
		for _, a := range []string{"total_active", "total_all", "status", "timer", "dismissed"} {
			if st.Attr(a) != nil {
				return true
			}
		}
	}
	return false
}

// Parse runs the parser for a mode. When mode is "auto" or empty it is
// detected first. states is consulted only by the timestamp parser for
// start-reference resolution.
func Parse(mode Mode, entityID string, st provider.EntityState, conf *config.Entity, states provider.States, now time.Time) []timer.Record {
	if mode == ModeNone || mode == "auto" {
		mode = DetectMode(entityID, st, conf)
	}
	switch mode {
	case ModeNative:
		return ParseNative(entityID, st, conf, now)
	case ModeVoice:
		return ParseVoice(entityID, st, conf, now)
	case ModeHelper:
		return ParseHelper(entityID, st, conf)
	case ModeAlexa:
		return ParseAlexa(entityID, st, conf, now)
	case ModeTimestamp:
		return ParseTimestamp(entityID, st, conf, states)
	case ModeMinutes:
		return ParseMinutes(entityID, st, conf, now)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTime parses an absolute timestamp string in the formats providers
// actually emit. Purely numeric strings are rejected: a bare number is a
// sensor reading, not a date.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func confName(conf *config.Entity) string {
	if conf == nil {
		return ""
	}
	return conf.Name
}

func confIcon(conf *config.Entity) string {
	if conf == nil {
		return ""
	}
	return conf.Icon
}

func confColor(conf *config.Entity) string {
	if conf == nil {
		return ""
	}
	return conf.Color
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

const (
	defaultLabel = "Timer"

	colorPrimary = "var(--primary-color)"
	colorWarning = "var(--warning-color)"
	colorSuccess = "var(--success-color)"

	iconTimer      = "mdi:timer"
	iconTimerPause = "mdi:timer-pause"
	iconTimerCheck = "mdi:timer-check"
	iconTimerOut   = "mdi:timer-outline"
	iconTimerSand  = "mdi:timer-sand"
	iconPlay       = "mdi:play"
)
