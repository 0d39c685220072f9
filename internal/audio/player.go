package audio

import (
	"log"
	"sync"
)

// LogPlayer is the default Player. It has no sound device of its own;
// it records which timers are ringing and logs transitions so an
// external notifier can be attached later.
type LogPlayer struct {
	mu      sync.Mutex
	ringing map[string]Settings
}

func NewLogPlayer() *LogPlayer {
	return &LogPlayer{ringing: make(map[string]Settings)}
}

func (p *LogPlayer) Play(timerID string, s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ringing[timerID]; !ok {
		log.Printf("audio: start %s (file=%q repeat=%d until_dismissed=%v)",
			timerID, s.FileURL, s.RepeatCount, s.PlayUntilDismissed)
	}
	p.ringing[timerID] = s
}

func (p *LogPlayer) Stop(timerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ringing[timerID]; ok {
		log.Printf("audio: stop %s", timerID)
		delete(p.ringing, timerID)
	}
}

// Ringing returns the ids currently playing.
func (p *LogPlayer) Ringing() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.ringing))
	for id := range p.ringing {
		ids = append(ids, id)
	}
	return ids
}
