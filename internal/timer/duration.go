package timer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MsPerSecond = int64(1000)
	MsPerMinute = 60 * MsPerSecond
	MsPerHour   = 60 * MsPerMinute
	MsPerDay    = 24 * MsPerHour

	// MaxDurationMs bounds user-created timers at one year.
	MaxDurationMs = 365 * MsPerDay
	// MaxLabelLength bounds user-supplied labels.
	MaxLabelLength = 100
)

var (
	reHMS      = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
	reMS       = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	reISO      = regexp.MustCompile(`(?i)^P(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)$`)
	reUnitSpan = regexp.MustCompile(`(\d+)\s*([smhd])`)
	reBareNum  = regexp.MustCompile(`^\d+$`)
	rePreset   = regexp.MustCompile(`^(\d+)\s*([smhd])?$`)
)

// ParseHMS converts a clock-style duration string (H:MM:SS or MM:SS) to
// milliseconds. Unparseable input yields 0.
func ParseHMS(s string) int64 {
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	nums := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 3:
		return (nums[0]*3600 + nums[1]*60 + nums[2]) * MsPerSecond
	case 2:
		return (nums[0]*60 + nums[1]) * MsPerSecond
	}
	return 0
}

// ParseFreeform converts free-text duration input to milliseconds. It
// accepts H:MM:SS, MM:SS, unit spans like "1h 30m" or "90s", and a bare
// number meaning minutes. Returns 0 when nothing parses.
func ParseFreeform(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if reHMS.MatchString(s) {
		return ParseHMS(s)
	}
	if reMS.MatchString(s) {
		return ParseHMS(s)
	}
	var totalSeconds int64
	matched := false
	for _, m := range reUnitSpan.FindAllStringSubmatch(strings.ToLower(s), -1) {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		switch m[2] {
		case "h":
			totalSeconds += n * 3600
		case "m":
			totalSeconds += n * 60
		case "s":
			totalSeconds += n
		case "d":
			totalSeconds += n * 86400
		}
		matched = true
	}
	if !matched && reBareNum.MatchString(s) {
		n, _ := strconv.ParseInt(s, 10, 64)
		totalSeconds = n * 60
	}
	return totalSeconds * MsPerSecond
}

// ParsePreset converts a preset duration value to milliseconds. Numbers
// mean minutes; strings take an optional s/m/h/d suffix ("90s", "2h").
// Returns 0 for invalid or non-positive input.
func ParsePreset(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return minutesToMs(float64(n))
	case int64:
		return minutesToMs(float64(n))
	case float64:
		return minutesToMs(n)
	case string:
		m := rePreset.FindStringSubmatch(strings.ToLower(strings.TrimSpace(n)))
		if m == nil {
			return 0
		}
		val, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || val <= 0 {
			return 0
		}
		switch m[2] {
		case "s":
			return val * MsPerSecond
		case "h":
			return val * MsPerHour
		case "d":
			return val * MsPerDay
		default:
			return val * MsPerMinute
		}
	}
	return 0
}

func minutesToMs(mins float64) int64 {
	if math.IsNaN(mins) || math.IsInf(mins, 0) || mins <= 0 {
		return 0
	}
	return int64(math.Round(mins * float64(MsPerMinute)))
}

// ToMs interprets a loosely-typed duration value from a speaker payload.
// Small numbers are seconds, epoch-scale numbers are a deadline relative
// to now, strings may be numeric or ISO-8601 (PT1H30M). Returns nil when
// the value cannot be interpreted.
func ToMs(v any, nowMs int64) *int64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return numToMs(n, nowMs)
	case int:
		return numToMs(float64(n), nowMs)
	case int64:
		return numToMs(float64(n), nowMs)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return numToMs(f, nowMs)
		}
		if m := reISO.FindStringSubmatch(strings.TrimSpace(n)); m != nil {
			h := atoiDefault(m[1])
			min := atoiDefault(m[2])
			s := atoiDefault(m[3])
			return I64((h*3600 + min*60 + s) * MsPerSecond)
		}
	}
	return nil
}

func numToMs(v float64, nowMs int64) *int64 {
	switch {
	case v < 1000:
		return I64(int64(v * 1000))
	case v > 1e12:
		d := int64(v) - nowMs
		if d < 0 {
			d = 0
		}
		return I64(d)
	default:
		return I64(int64(v))
	}
}

func atoiDefault(s string) int64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// FormatService renders a second count in the H:MM:SS form expected by
// native timer service calls.
func FormatService(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatCompact renders a millisecond duration as a short human label
// ("90s", "5m30s", "1h15m"), used for generated timer names.
func FormatCompact(ms int64) string {
	if ms <= 0 {
		return "0s"
	}
	totalSeconds := ms / MsPerSecond
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	if totalSeconds < 3600 {
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := minutes / 60
	remMin := minutes % 60
	if remMin == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, remMin)
}

// ValidateInput checks user-supplied duration and label bounds for timer
// creation.
func ValidateInput(durationMs int64, label string) error {
	if durationMs <= 0 || durationMs > MaxDurationMs {
		return fmt.Errorf("invalid duration")
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("invalid label")
	}
	return nil
}
