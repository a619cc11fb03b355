package aggregate

import (
	"strings"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
)

const (
	cutsceneMarker = "CutScene"
	cutsceneStart  = "Start"
	cutsceneSkip   = "Skip"
	cutsceneEnd    = "End"
)

type cutsceneEvent int

const (
	eventOther cutsceneEvent = iota
	eventStart
	eventSkip
	eventEnd
)

func classifyCutscene(eventType string) cutsceneEvent {
	if !strings.Contains(eventType, cutsceneMarker) {
		return eventOther
	}
	switch {
	case strings.Contains(eventType, cutsceneStart):
		return eventStart
	case strings.Contains(eventType, cutsceneSkip):
		return eventSkip
	case strings.Contains(eventType, cutsceneEnd):
		return eventEnd
	}
	return eventOther
}

// sessionCounts are one user's replayed cutscene totals.
type sessionCounts struct {
	started int
	skipped int
	presses int
}

func (c *sessionCounts) add(o sessionCounts) {
	c.started += o.started
	c.skipped += o.skipped
	c.presses += o.presses
}

// sessionMachine replays cutscene events in time order. A session opens on Start and
// closes on End, on the next Start, or at the end of the stream; it counts as skipped
// if a Skip arrived while it was open.
type sessionMachine struct {
	open    bool
	sawSkip bool
	counts  sessionCounts
}

func (m *sessionMachine) closeSession() {
	if m.open && m.sawSkip {
		m.counts.skipped++
	}
	m.open = false
	m.sawSkip = false
}

func (m *sessionMachine) step(e cutsceneEvent) {
	switch e {
	case eventStart:
		m.closeSession()
		m.open = true
		m.counts.started++
	case eventSkip:
		if m.open {
			m.sawSkip = true
			m.counts.presses++
		}
	case eventEnd:
		m.closeSession()
	}
}

func (m *sessionMachine) finish() sessionCounts {
	m.closeSession()
	return m.counts
}

// replayUser runs the session machine over one user's valid cutscene events. Keys are
// visited in ascending order because storage order carries no meaning.
func replayUser(u model.UserRecord, f *timestamp.Filter) sessionCounts {
	var m sessionMachine
	for _, key := range u.TimestampKeys() {
		e := classifyCutscene(u.TimeStamp[key])
		if e == eventOther || !f.ValidKey(key) {
			continue
		}
		m.step(e)
	}
	return m.finish()
}

// CutsceneSkipRate reconstructs opening cutscene sessions per user and reports how
// many of them were skipped.
func CutsceneSkipRate(users model.RawUserMap, f *timestamp.Filter) model.CutsceneSkipRate {
	var total sessionCounts
	for _, u := range users {
		total.add(replayUser(u, f))
	}
	return model.CutsceneSkipRate{
		TotalStart:             total.started,
		TotalSkip:              total.skipped,
		SkipRate:               percent(total.skipped, total.started),
		TotalSkipButtonPresses: total.presses,
	}
}
