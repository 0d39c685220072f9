package command

import (
	"log"
	"strings"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// mutateHelper performs the read-mutate-write cycle on a JSON helper
// entity: read the current blob from the entity state, decode and
// migrate it, apply the mutation, write the wrapped envelope back via
// set_value. An unreadable blob starts from an empty list rather than
// failing, matching the fail-safe storage policy.
func (c *Commands) mutateHelper(entityID string, mutate func([]timer.Record) []timer.Record) string {
	st, ok := c.states.GetState(entityID)
	if !ok {
		return "Timer helper " + entityID + " is not available"
	}

	var list []timer.Record
	if raw := strings.TrimSpace(st.State); raw != "" && raw != "unknown" && raw != "unavailable" {
		if env, err := timer.DecodeEnvelope([]byte(raw)); err == nil {
			list, _ = timer.NormalizeAll(env.Timers)
		} else {
			log.Printf("command: helper %s held malformed JSON, rewriting: %v", entityID, err)
		}
	}

	list = mutate(list)

	body, err := timer.EncodeEnvelope(list, c.now())
	if err != nil {
		log.Printf("command: encode helper %s: %v", entityID, err)
		return "Couldn't update timer helper"
	}
	domain := entityDomain(entityID)
	args := map[string]any{"entity_id": entityID, "value": string(body)}
	if err := c.caller.Invoke(domain, "set_value", args); err != nil {
		log.Printf("command: write helper %s: %v", entityID, err)
	}
	return ""
}

// sendVoiceCommand writes a control command ("start:300:Tea",
// "pause:<id>", ...) to the voice assistant's text entity.
func (c *Commands) sendVoiceCommand(controlEntity, cmd string) string {
	domain := entityDomain(controlEntity)
	if domain != "text" && domain != "input_text" {
		return "This timer is read-only here. Use the voice assistant to control it"
	}
	args := map[string]any{"entity_id": controlEntity, "value": cmd}
	if err := c.caller.Invoke(domain, "set_value", args); err != nil {
		log.Printf("command: voice %s %q: %v", controlEntity, cmd, err)
	}
	return ""
}

func entityDomain(entityID string) string {
	if i := strings.Index(entityID, "."); i > 0 {
		return entityID[:i]
	}
	return ""
}
