package timer

import "testing"

func TestParseHMS(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0:05:00", 5 * MsPerMinute},
		{"1:30:00", 90 * MsPerMinute},
		{"05:00", 5 * MsPerMinute},
		{"00:30", 30 * MsPerSecond},
		{"2:00:30", 2*MsPerHour + 30*MsPerSecond},
		{"", 0},
		{"abc", 0},
		{"1:2:3:4", 0},
	}
	for _, c := range cases {
		if got := ParseHMS(c.in); got != c.want {
			t.Errorf("ParseHMS(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseFreeform(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5", 5 * MsPerMinute},
		{"90", 90 * MsPerMinute},
		{"1:30", MsPerMinute + 30*MsPerSecond},
		{"1:30:00", 90 * MsPerMinute},
		{"1h 30m", 90 * MsPerMinute},
		{"45s", 45 * MsPerSecond},
		{"2h", 2 * MsPerHour},
		{"", 0},
		{"soon", 0},
	}
	for _, c := range cases {
		if got := ParseFreeform(c.in); got != c.want {
			t.Errorf("ParseFreeform(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParsePreset(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{5, 5 * MsPerMinute},
		{float64(10), 10 * MsPerMinute},
		{"5m", 5 * MsPerMinute},
		{"300s", 300 * MsPerSecond},
		{"1h", MsPerHour},
		{nil, 0},
		{"", 0},
		{"1:30:00", 0},
	}
	for _, c := range cases {
		if got := ParsePreset(c.in); got != c.want {
			t.Errorf("ParsePreset(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestToMs(t *testing.T) {
	nowMs := int64(1_760_000_000_000)

	// Small numbers are seconds.
	if got := ToMs(float64(300), nowMs); got == nil || *got != 300*MsPerSecond {
		t.Errorf("ToMs(300) = %v, want 300000", got)
	}
	// Mid-range numbers are already milliseconds.
	if got := ToMs(float64(90_000), nowMs); got == nil || *got != 90_000 {
		t.Errorf("ToMs(90000) = %v, want 90000", got)
	}
	// Epoch values become durations relative to now, clamped at zero.
	if got := ToMs(float64(nowMs+60_000), nowMs); got == nil || *got != 60_000 {
		t.Errorf("ToMs(epoch+60s) = %v, want 60000", got)
	}
	if got := ToMs(float64(nowMs-60_000), nowMs); got == nil || *got != 0 {
		t.Errorf("ToMs(past epoch) = %v, want 0", got)
	}
	// ISO-8601 durations.
	if got := ToMs("PT1H30M", nowMs); got == nil || *got != 90*MsPerMinute {
		t.Errorf("ToMs(PT1H30M) = %v, want 5400000", got)
	}
	if got := ToMs("PT45S", nowMs); got == nil || *got != 45*MsPerSecond {
		t.Errorf("ToMs(PT45S) = %v, want 45000", got)
	}
	// Garbage is nil, not zero.
	if got := ToMs("garbage", nowMs); got != nil {
		t.Errorf("ToMs(garbage) = %v, want nil", got)
	}
	if got := ToMs(nil, nowMs); got != nil {
		t.Errorf("ToMs(nil) = %v, want nil", got)
	}
}

func TestFormatService(t *testing.T) {
	cases := []struct {
		secs int64
		want string
	}{
		{300, "0:05:00"},
		{5400, "1:30:00"},
		{30, "0:00:30"},
		{0, "0:00:00"},
	}
	for _, c := range cases {
		if got := FormatService(c.secs); got != c.want {
			t.Errorf("FormatService(%d) = %q, want %q", c.secs, got, c.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{5*MsPerMinute + 30*MsPerSecond, "5m30s"},
		{2 * MsPerHour, "2h"},
		{45 * MsPerSecond, "45s"},
		{MsPerHour + 5*MsPerMinute, "1h5m"},
		{0, "0s"},
	}
	for _, c := range cases {
		if got := FormatCompact(c.ms); got != c.want {
			t.Errorf("FormatCompact(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestValidateInput(t *testing.T) {
	if err := ValidateInput(5*MsPerMinute, "Tea"); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	if err := ValidateInput(0, "Tea"); err == nil {
		t.Error("zero duration accepted")
	}
	if err := ValidateInput(-1, "Tea"); err == nil {
		t.Error("negative duration accepted")
	}
	if err := ValidateInput(MaxDurationMs+1, "Tea"); err == nil {
		t.Error("oversize duration accepted")
	}
	long := make([]byte, MaxLabelLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := ValidateInput(MsPerMinute, string(long)); err == nil {
		t.Error("oversize label accepted")
	}
}
