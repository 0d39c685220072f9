package audio

// FakePlayer records Play and Stop calls for tests.
type FakePlayer struct {
	Plays []PlayCall
	Stops []string
}

type PlayCall struct {
	TimerID  string
	Settings Settings
}

func NewFakePlayer() *FakePlayer { return &FakePlayer{} }

func (p *FakePlayer) Play(timerID string, s Settings) {
	p.Plays = append(p.Plays, PlayCall{TimerID: timerID, Settings: s})
}

func (p *FakePlayer) Stop(timerID string) {
	p.Stops = append(p.Stops, timerID)
}

func (p *FakePlayer) Reset() {
	p.Plays = nil
	p.Stops = nil
}
