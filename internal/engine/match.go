package engine

import "strings"

// Match holds the entire state of one game session.
type Match struct {
	ID        string           `json:"id"`
	Status    Status           `json:"status"`
	Phase     Phase            `json:"phase"`
	Round     int              `json:"round"`
	Verdict   Verdict          `json:"verdict,omitempty"`
	Config    MatchConfig      `json:"-"`
	Abilities *AbilityRegistry `json:"-"`

	roster  *Roster
	queue   EliminationQueue
	ballots map[BallotKind]*Ballot
	chat    []ChatMessage
}

// NewMatch creates an active match starting on night 1.
func NewMatch(id string, seats []Seat, config MatchConfig, abilities *AbilityRegistry) (*Match, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, Errorf(ErrInvalidSetup, "match id is required")
	}
	roster, err := NewRoster(seats)
	if err != nil {
		return nil, err
	}
	if abilities == nil {
		abilities = NewAbilityRegistry()
	}
	m := &Match{
		ID:        id,
		Status:    StatusActive,
		Phase:     PhaseNight,
		Round:     1,
		Config:    config.WithDefaults(),
		Abilities: abilities,
		roster:    roster,
		ballots:   make(map[BallotKind]*Ballot),
	}
	for _, kind := range BallotKinds() {
		m.ballots[kind] = newBallot(kind)
	}
	return m, nil
}

// Apply is the single entry point for actions. A returned error is a
// rejected action and leaves the match untouched.
func (m *Match) Apply(actorID string, action Action) (Result, error) {
	if m.IsTerminal() {
		return Result{}, ErrMatchFinished
	}
	switch action.Type {
	case ActionVillageVote:
		return m.castVote(BallotVillage, actorID, action.Target)
	case ActionWolfVote:
		return m.castVote(BallotWolf, actorID, action.Target)
	case ActionSheriffVote:
		return m.castVote(BallotSheriff, actorID, action.Target)
	case ActionResolveVillageVote:
		return m.resolve(BallotVillage)
	case ActionResolveWolfVote:
		return m.resolve(BallotWolf)
	case ActionResolveSheriffVote:
		return m.resolve(BallotSheriff)
	case ActionOpenVoting:
		return m.openVoting(action.Ballot)
	case ActionExpireVoting:
		return m.expireVoting(action.Ballot, action.Generation)
	case ActionChat:
		return m.postChat(actorID, action.Text)
	case ActionAdvanceTurn:
		return m.advanceTurn(), nil
	}
	ability, err := m.Abilities.Get(action.Type)
	if err != nil {
		return Result{}, ErrInvalidAction
	}
	return ability.Apply(m, actorID, action)
}

// IsTerminal reports whether the match has a verdict.
func (m *Match) IsTerminal() bool {
	return m.Status == StatusFinished
}

func (m *Match) Roster() *Roster {
	return m.roster
}

func (m *Match) Queue() *EliminationQueue {
	return &m.queue
}

func (m *Match) Ballot(kind BallotKind) (*Ballot, bool) {
	b, ok := m.ballots[kind]
	return b, ok
}

// Participant looks up id, returning ErrUnknownParticipant when absent.
func (m *Match) Participant(id string) (*Participant, error) {
	p, ok := m.roster.Find(id)
	if !ok {
		return nil, ErrUnknownParticipant
	}
	return p, nil
}

// LivingActor looks up id and requires the participant to be alive.
func (m *Match) LivingActor(id string) (*Participant, error) {
	p, err := m.Participant(id)
	if err != nil {
		return nil, err
	}
	if !p.Alive {
		return nil, ErrActorDead
	}
	return p, nil
}

// LivingTarget looks up a target that must be alive and not the actor.
func (m *Match) LivingTarget(actorID, targetID string) (*Participant, error) {
	t, ok := m.roster.Find(targetID)
	if !ok || !t.Alive || t.ID == actorID {
		return nil, ErrInvalidTarget
	}
	return t, nil
}

// RequirePhase rejects actions issued outside phase p.
func (m *Match) RequirePhase(p Phase) error {
	if m.Phase != p {
		return Errorf(ErrWrongPhase, "only allowed during the %s", p)
	}
	return nil
}

// advanceTurn drains staged deaths, checks the win condition and, if the
// match goes on, flips the phase with fresh ballots.
func (m *Match) advanceTurn() Result {
	events := m.drain()

	if v := Evaluate(m.roster); v != VerdictNone {
		m.Status = StatusFinished
		m.Verdict = v
		events = append(events, Event{
			Type: EventMatchFinished,
			Data: map[string]interface{}{"verdict": v},
		})
		return Result{Outcome: OutcomeMatchFinished, Verdict: v, Events: events}
	}

	if m.Phase == PhaseNight {
		m.Phase = PhaseDay
	} else {
		m.Phase = PhaseNight
		m.Round++
		for _, p := range m.roster.All() {
			if s, ok := p.Role.(*Seer); ok {
				s.SeenThisNight = false
			}
		}
	}
	for _, b := range m.ballots {
		b.reset()
	}

	events = append(events, Event{
		Type: EventPhaseChange,
		Data: map[string]interface{}{"phase": m.Phase.String(), "round": m.Round},
	})
	return Result{Outcome: OutcomePhaseChanged, Events: events}
}

// drain applies every staged death in insertion order. Deaths with
// consequences (an armed hunter) append to the work list, so the loop runs
// until nothing is left; each participant dies at most once, which bounds it
// by the roster size.
func (m *Match) drain() []Event {
	var events []Event
	work := m.queue.take()
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		if !m.roster.Kill(id) {
			continue
		}
		p, _ := m.roster.Find(id)
		events = append(events, Event{
			Type:   EventEliminated,
			Player: id,
			Data:   map[string]interface{}{"name": p.Name},
		})

		if p.Sheriff {
			m.roster.SetSheriff(id, false)
			events = append(events, Event{Type: EventSheriffVacated, Player: id})
		}

		h, ok := p.Role.(*Hunter)
		if !ok || h.Spent {
			continue
		}
		if h.Armed == "" {
			h.Pending = true
			continue
		}
		target := h.Armed
		h.Armed = ""
		h.Spent = true
		if m.roster.IsAlive(target) {
			work = append(work, target)
		}
		events = append(events, Event{
			Type:   EventRevengeFired,
			Player: id,
			Data:   map[string]interface{}{"target": target},
		})
	}

	// A hunter who armed a shot but was healed keeps nothing armed.
	for _, p := range m.roster.Living() {
		if h, ok := p.Role.(*Hunter); ok {
			h.Armed = ""
		}
	}
	return events
}
