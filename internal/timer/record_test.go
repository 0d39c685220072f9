package timer

import "testing"

func TestNormalizeLegacyNumericStart(t *testing.T) {
	end := float64(1_760_000_300_000)
	r, changed := Normalize(Record{
		ID:          "a",
		LegacyStart: float64(1_760_000_000_000),
		LegacyEnd:   &end,
	})
	if !changed {
		t.Fatal("expected migration to report a change")
	}
	if r.StartTs == nil || *r.StartTs != 1_760_000_000_000 {
		t.Errorf("StartTs = %v, want 1760000000000", r.StartTs)
	}
	if r.EndTs == nil || *r.EndTs != 1_760_000_300_000 {
		t.Errorf("EndTs = %v, want 1760000300000", r.EndTs)
	}
	if r.LegacyStart != nil || r.LegacyEnd != nil {
		t.Error("legacy fields should be cleared after migration")
	}
}

func TestNormalizeLegacyStringStart(t *testing.T) {
	r, changed := Normalize(Record{
		ID:          "a",
		LegacyStart: "2026-08-30T12:00:00Z",
	})
	if !changed {
		t.Fatal("expected migration to report a change")
	}
	if r.StartTs == nil {
		t.Fatal("StartTs not migrated from RFC3339 string")
	}
}

func TestNormalizePausedInvariant(t *testing.T) {
	// A paused record's legacy end field holds the frozen remaining, and
	// any endTs is contradictory and must be dropped.
	frozen := float64(90_000)
	r, _ := Normalize(Record{
		ID:        "a",
		Paused:    true,
		EndTs:     I64(1_760_000_300_000),
		LegacyEnd: &frozen,
	})
	if r.EndTs != nil {
		t.Error("paused record kept endTs")
	}
	if r.RemainingMs == nil || *r.RemainingMs != 90_000 {
		t.Errorf("RemainingMs = %v, want 90000", r.RemainingMs)
	}
}

func TestNormalizeRunningInvariant(t *testing.T) {
	r, _ := Normalize(Record{
		ID:          "a",
		EndTs:       I64(1_760_000_300_000),
		RemainingMs: I64(90_000),
	})
	if r.RemainingMs != nil {
		t.Error("running record kept remaining_ms")
	}
	if r.EndTs == nil {
		t.Error("running record lost endTs")
	}
}

func TestNormalizeNoChange(t *testing.T) {
	r := Record{ID: "a", EndTs: I64(1_760_000_300_000)}
	got, changed := Normalize(r)
	if changed {
		t.Error("clean record reported a change")
	}
	if got.EndTs == nil || *got.EndTs != *r.EndTs {
		t.Error("clean record was altered")
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	nowMs := int64(1_760_000_000_000)
	d := int64(300_000)
	running := Timer{
		Record: Record{
			ID:         "a",
			DurationMs: I64(d),
			StartTs:    I64(nowMs - 100_000),
			EndTs:      I64(nowMs + 200_000),
		},
		Remaining: 200_000,
	}

	frozen := PauseUpdates(running, nowMs)
	if frozen != 200_000 {
		t.Fatalf("PauseUpdates = %d, want 200000", frozen)
	}

	paused := Timer{
		Record: Record{
			ID:          "a",
			DurationMs:  I64(d),
			Paused:      true,
			RemainingMs: I64(frozen),
		},
		Remaining: frozen,
	}
	resumeAt := nowMs + 60_000
	startTs, endTs := ResumeUpdates(paused, resumeAt)

	if endTs-resumeAt != frozen {
		t.Errorf("resumed remaining = %d, want %d", endTs-resumeAt, frozen)
	}
	if startTs != resumeAt-(d-frozen) {
		t.Errorf("startTs = %d, want back-dated by elapsed %d", startTs, d-frozen)
	}
}

func TestPauseUpdatesFallsBackToStored(t *testing.T) {
	nowMs := int64(1_760_000_000_000)
	t1 := Timer{
		Record:    Record{ID: "a", EndTs: I64(nowMs + 45_000)},
		Remaining: -1,
	}
	if got := PauseUpdates(t1, nowMs); got != 45_000 {
		t.Errorf("PauseUpdates = %d, want 45000", got)
	}
}

func TestDefaultSupports(t *testing.T) {
	if s := DefaultSupports(SourceLocal); !s.Pause || !s.Cancel || !s.Snooze || !s.Extend {
		t.Errorf("local supports = %+v, want all", s)
	}
	if s := DefaultSupports(SourceAlexa); s.Pause || !s.Cancel || !s.Snooze {
		t.Errorf("alexa supports = %+v, want cancel+snooze only", s)
	}
	if s := DefaultSupports(SourceTimestamp); s != (Supports{}) {
		t.Errorf("timestamp supports = %+v, want none", s)
	}
}
