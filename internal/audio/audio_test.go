package audio

import (
	"testing"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

func TestResolveGlobalDefaults(t *testing.T) {
	cfg := &config.Config{
		AudioEnabled:     true,
		AudioFileURL:     "/local/chime.mp3",
		AudioRepeatCount: 3,
	}

	s := Resolve(timer.Record{}, nil, cfg)
	if !s.Enabled {
		t.Error("expected enabled from global config")
	}
	if s.FileURL != "/local/chime.mp3" {
		t.Errorf("FileURL = %q", s.FileURL)
	}
	if s.RepeatCount != 3 {
		t.Errorf("RepeatCount = %d", s.RepeatCount)
	}
	if s.PlayUntilDismissed {
		t.Error("PlayUntilDismissed should default false")
	}
}

func TestResolveEntityOverridesGlobal(t *testing.T) {
	cfg := &config.Config{AudioEnabled: true, AudioFileURL: "/local/chime.mp3", AudioRepeatCount: 3}
	entity := &config.Entity{
		AudioEnabled: timer.BoolPtr(false),
		AudioFileURL: timer.StrPtr("/local/bell.mp3"),
	}

	s := Resolve(timer.Record{}, entity, cfg)
	if s.Enabled {
		t.Error("entity override should disable audio")
	}
	if s.FileURL != "/local/bell.mp3" {
		t.Errorf("FileURL = %q", s.FileURL)
	}
	// Fields the entity leaves unset keep the global value.
	if s.RepeatCount != 3 {
		t.Errorf("RepeatCount = %d", s.RepeatCount)
	}
}

func TestResolveTimerOverrideWinsPerField(t *testing.T) {
	cfg := &config.Config{AudioFileURL: "/local/chime.mp3", AudioRepeatCount: 3}
	entity := &config.Entity{AudioEnabled: timer.BoolPtr(false), AudioRepeatCount: timer.IntPtr(5)}
	rec := timer.Record{
		AudioEnabled: timer.BoolPtr(true),
		AudioFileURL: timer.StrPtr("https://example.com/ding.mp3"),
	}

	s := Resolve(rec, entity, cfg)
	if !s.Enabled {
		t.Error("timer override should win over entity")
	}
	if s.FileURL != "https://example.com/ding.mp3" {
		t.Errorf("FileURL = %q", s.FileURL)
	}
	// RepeatCount set only at the entity level survives the timer layer.
	if s.RepeatCount != 5 {
		t.Errorf("RepeatCount = %d", s.RepeatCount)
	}
}

func TestResolveClampsRepeatCount(t *testing.T) {
	cfg := &config.Config{}
	if s := Resolve(timer.Record{AudioRepeatCount: timer.IntPtr(0)}, nil, cfg); s.RepeatCount != 1 {
		t.Errorf("RepeatCount = %d, want 1", s.RepeatCount)
	}
	if s := Resolve(timer.Record{AudioRepeatCount: timer.IntPtr(99)}, nil, cfg); s.RepeatCount != 10 {
		t.Errorf("RepeatCount = %d, want 10", s.RepeatCount)
	}
}

func TestValidURL(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"/local/chime.mp3", true},
		{"/hacsfiles/timer-card/chime.mp3", true},
		{"https://example.com/ding.mp3", true},
		{"http://example.com/ding.mp3", true},
		{"file:///media/ding.mp3", true},
		{"ftp://example.com/ding.mp3", false},
		{"chime.mp3", false},
		{"/media/chime.mp3", false},
	}
	for _, c := range cases {
		if got := ValidURL(c.raw); got != c.want {
			t.Errorf("ValidURL(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestLogPlayerTracksRinging(t *testing.T) {
	p := NewLogPlayer()
	p.Play("a", Settings{Enabled: true, FileURL: "/local/chime.mp3", RepeatCount: 1})
	p.Play("b", Settings{Enabled: true, FileURL: "/local/chime.mp3", RepeatCount: 1})

	if got := len(p.Ringing()); got != 2 {
		t.Fatalf("ringing = %d, want 2", got)
	}

	p.Stop("a")
	p.Stop("a") // stopping an unknown id is a no-op
	if got := p.Ringing(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("ringing = %v, want [b]", got)
	}
}
