package engine

import (
	"fmt"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// templateEntity is the sourceRef shared by all materialized presets.
const templateEntity = "template"

// Templates materializes the configured pinned presets as idle
// startable placeholders. Presets with an unparseable duration are
// skipped.
func Templates(cfg *config.Config) []timer.Record {
	if len(cfg.PinnedTimers) == 0 {
		return nil
	}
	out := make([]timer.Record, 0, len(cfg.PinnedTimers))
	for i, p := range cfg.PinnedTimers {
		d := timer.ParsePreset(p.Duration)
		if d <= 0 {
			continue
		}
		pinnedID := p.ID
		if pinnedID == "" {
			pinnedID = fmt.Sprintf("pinned-%d", i)
		}
		label := p.Name
		if label == "" {
			label = timer.FormatCompact(d)
		}
		icon := p.Icon
		if icon == "" {
			icon = cfg.DefaultTimerIcon
		}
		color := p.Color
		if color == "" {
			color = cfg.DefaultTimerColor
		}
		subtitle := p.ExpiredSubtitle
		if subtitle == "" {
			subtitle = cfg.ExpiredSubtitle
		}
		out = append(out, timer.Record{
			ID:                      fmt.Sprintf("template:%s:%s", cfg.StorageNamespace, pinnedID),
			Source:                  timer.SourceTemplate,
			SourceEntity:            templateEntity,
			Label:                   label,
			Icon:                    icon,
			Color:                   color,
			DurationMs:              timer.I64(d),
			Idle:                    true,
			PinnedID:                pinnedID,
			ExpiredSubtitle:         subtitle,
			AudioEnabled:            p.AudioEnabled,
			AudioFileURL:            p.AudioFileURL,
			AudioRepeatCount:        p.AudioRepeatCount,
			AudioPlayUntilDismissed: p.AudioPlayUntilDismissed,
		})
	}
	return out
}
