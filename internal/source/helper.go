package source

import (
	"encoding/json"

	"github.com/sentalyr/simple-timer-card/internal/config"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// helperDoc is the JSON blob stored in a text helper: either a list of
// independent timers or a single embedded {e, d} timer.
type helperDoc struct {
	Timers []timer.Record `json:"timers"`
	Timer  *struct {
		E *int64 `json:"e"`
		D *int64 `json:"d"`
	} `json:"timer"`
}

// ParseHelper maps a JSON helper record. Malformed JSON or schema
// produces an empty list.
func ParseHelper(entityID string, st provider.EntityState, conf *config.Entity) []timer.Record {
	raw := st.State
	if raw == "" {
		return nil
	}

	var doc helperDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	if doc.Timers != nil {
		env := timer.Envelope{Timers: doc.Timers}
		if err := env.Validate(); err != nil {
			return nil
		}
		out := make([]timer.Record, 0, len(doc.Timers))
		for _, t := range doc.Timers {
			t.Source = timer.SourceHelper
			t.SourceEntity = entityID
			t.Label = firstNonEmpty(t.Label, confName(conf), defaultLabel)
			t.Icon = firstNonEmpty(t.Icon, confIcon(conf), iconTimerOut)
			t.Color = firstNonEmpty(t.Color, confColor(conf), colorPrimary)
			out = append(out, t)
		}
		return out
	}

	if doc.Timer != nil {
		r := timer.Record{
			ID:           "single-timer-" + entityID,
			Source:       timer.SourceHelper,
			SourceEntity: entityID,
			Label:        firstNonEmpty(confName(conf), st.StrAttr("friendly_name"), defaultLabel),
			Icon:         firstNonEmpty(confIcon(conf), iconTimerOut),
			Color:        firstNonEmpty(confColor(conf), colorPrimary),
			EndTs:        doc.Timer.E,
			DurationMs:   doc.Timer.D,
		}
		return []timer.Record{r}
	}

	return nil
}
