package engine

import "sort"

// ParticipantView is one roster entry as seen by a viewer.
type ParticipantView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Role    RoleKind `json:"role,omitempty"`
	Alive   bool     `json:"alive"`
	Sheriff bool     `json:"sheriff"`
}

// BallotView is the observable state of one ballot.
type BallotView struct {
	Kind       BallotKind        `json:"kind"`
	Votes      map[string]string `json:"votes"`
	Open       bool              `json:"open"`
	RepeatTie  bool              `json:"repeat_tie"`
	Generation uint64            `json:"generation"`
}

// Snapshot is the full state of a match. Callers apply their own redaction;
// ViewFor implements the default one.
type Snapshot struct {
	ID           string            `json:"id"`
	Status       Status            `json:"status"`
	Phase        Phase             `json:"phase"`
	Round        int               `json:"round"`
	Verdict      Verdict           `json:"verdict,omitempty"`
	Participants []ParticipantView `json:"participants"`
	Ballots      []BallotView      `json:"ballots"`
	Queue        []string          `json:"queue"`
	Chat         []ChatMessage     `json:"chat"`
}

func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		ID:      m.ID,
		Status:  m.Status,
		Phase:   m.Phase,
		Round:   m.Round,
		Verdict: m.Verdict,
		Queue:   m.queue.IDs(),
		Chat:    m.Chat(),
	}
	for _, p := range m.roster.All() {
		s.Participants = append(s.Participants, ParticipantView{
			ID: p.ID, Name: p.Name, Role: p.Kind(), Alive: p.Alive, Sheriff: p.Sheriff,
		})
	}
	for _, kind := range BallotKinds() {
		b := m.ballots[kind]
		s.Ballots = append(s.Ballots, BallotView{
			Kind:       kind,
			Votes:      b.Votes(),
			Open:       b.open,
			RepeatTie:  b.repeatTie,
			Generation: b.generation,
		})
	}
	return s
}

// PlayerView is the match as seen by one participant.
type PlayerView struct {
	Snapshot
	You       string                  `json:"you,omitempty"`
	Role      RoleKind                `json:"role,omitempty"`
	RoleState Role                    `json:"role_state,omitempty"`
	Abilities map[ActionType][]string `json:"abilities,omitempty"`
}

// ViewFor redacts the snapshot for viewerID. Everyone sees their own role
// and the roles of the dead. The sheriff badge is public, a living sheriff's
// role is not. Wolves also see each other and the wolf ballot and chat. Dead
// participants, and everyone once the match is finished, see everything. The
// staged queue is public by day; at night only wolves and witches see it.
// The view shares no state with the match.
func (m *Match) ViewFor(viewerID string) PlayerView {
	full := m.Snapshot()
	viewer, known := m.roster.Find(viewerID)
	omniscient := m.IsTerminal() || (known && !viewer.Alive)
	wolf := known && viewer.IsWolf()

	pv := PlayerView{Snapshot: full}
	if known {
		pv.You = viewer.ID
		pv.Role = viewer.Kind()
		pv.RoleState = viewer.Role.Clone()
	}
	if omniscient {
		return pv
	}

	pv.Participants = make([]ParticipantView, len(full.Participants))
	for i, p := range full.Participants {
		if p.Alive && p.ID != viewerID && !(wolf && p.Role == KindWolf) {
			p.Role = ""
		}
		pv.Participants[i] = p
	}

	pv.Ballots = nil
	for _, b := range full.Ballots {
		if b.Kind == BallotWolf && !wolf {
			b.Votes = map[string]string{}
		}
		pv.Ballots = append(pv.Ballots, b)
	}

	pv.Chat = nil
	for _, msg := range full.Chat {
		if msg.Audience == AudienceWolves && !wolf {
			continue
		}
		pv.Chat = append(pv.Chat, msg)
	}

	if m.Phase == PhaseNight && !wolf && !(known && viewer.Kind() == KindWitch) {
		pv.Queue = nil
	}

	if known && viewer.Alive {
		pv.Abilities = m.abilityTargets(viewer.ID)
	}
	return pv
}

func (m *Match) abilityTargets(actorID string) map[ActionType][]string {
	out := make(map[ActionType][]string)
	for _, a := range m.Abilities.All() {
		if targets := a.ValidTargets(m, actorID); targets != nil {
			sort.Strings(targets)
			out[a.Action()] = targets
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CanSee reports whether viewerID may receive ev under the same policy.
func (m *Match) CanSee(viewerID string, ev Event) bool {
	switch ev.Audience {
	case AudienceAll:
		return true
	case AudienceActor:
		return ev.Player == viewerID
	case AudienceWolves:
		viewer, ok := m.roster.Find(viewerID)
		if m.IsTerminal() {
			return true
		}
		return ok && (viewer.IsWolf() || !viewer.Alive)
	}
	return false
}
