package session

import "werewolf/internal/engine"

// Update is handed to the Notifier after every accepted command, including
// timer-driven resolutions. Views and events are already redacted per
// participant; the empty viewer id holds the public (spectator) variant.
type Update struct {
	MatchID  string
	Result   engine.Result
	Terminal bool

	views  map[string]engine.PlayerView
	events map[string][]engine.Event
}

// Notifier receives updates on the match actor's goroutine. It must not
// call back into the Service synchronously.
type Notifier func(Update)

// ViewFor returns the redacted view prepared for viewerID.
func (u Update) ViewFor(viewerID string) engine.PlayerView {
	if v, ok := u.views[viewerID]; ok {
		return v
	}
	return u.views[""]
}

// EventsFor returns the events viewerID may receive, in emission order.
func (u Update) EventsFor(viewerID string) []engine.Event {
	if ev, ok := u.events[viewerID]; ok {
		return ev
	}
	return u.events[""]
}

// Flatten lists the events of res followed by those of any nested
// resolution.
func Flatten(res engine.Result) []engine.Event {
	events := append([]engine.Event(nil), res.Events...)
	if res.Resolution != nil {
		events = append(events, Flatten(*res.Resolution)...)
	}
	return events
}

func newUpdate(m *engine.Match, res engine.Result) Update {
	u := Update{
		MatchID:  m.ID,
		Result:   res,
		Terminal: m.IsTerminal(),
		views:    make(map[string]engine.PlayerView),
		events:   make(map[string][]engine.Event),
	}
	all := Flatten(res)
	viewers := []string{""}
	for _, p := range m.Roster().All() {
		viewers = append(viewers, p.ID)
	}
	for _, id := range viewers {
		u.views[id] = m.ViewFor(id)
		var visible []engine.Event
		for _, ev := range all {
			if m.CanSee(id, ev) {
				visible = append(visible, ev)
			}
		}
		u.events[id] = visible
	}
	return u
}
