package abilities

import "werewolf/internal/engine"

// Hunter takes one participant down with them. While their own death is
// staged the hunter arms a target that dies in the same drain; a hunter who
// died with nothing armed fires afterwards and the target dies at the next
// turn advance.
type Hunter struct{}

func (Hunter) Action() engine.ActionType { return engine.ActionHunterRevenge }

func hunterState(m *engine.Match, actorID string) (*engine.Participant, *engine.Hunter, error) {
	p, err := m.Participant(actorID)
	if err != nil {
		return nil, nil, err
	}
	h, ok := p.Role.(*engine.Hunter)
	if !ok {
		return nil, nil, engine.ErrWrongRole
	}
	if h.Spent {
		return nil, nil, engine.Errorf(engine.ErrAbilityUsed, "revenge already taken")
	}
	if p.Alive && !m.Queue().Contains(p.ID) {
		return nil, nil, engine.ErrNotStaged
	}
	if !p.Alive && !h.Pending {
		return nil, nil, engine.ErrNotStaged
	}
	return p, h, nil
}

func (Hunter) ValidTargets(m *engine.Match, actorID string) []string {
	if _, _, err := hunterState(m, actorID); err != nil {
		return nil
	}
	return livingOthers(m, actorID)
}

func (Hunter) Apply(m *engine.Match, actorID string, action engine.Action) (engine.Result, error) {
	p, h, err := hunterState(m, actorID)
	if err != nil {
		return engine.Result{}, err
	}
	target, err := m.LivingTarget(actorID, action.Target)
	if err != nil {
		return engine.Result{}, err
	}

	if p.Alive {
		h.Armed = target.ID
		return engine.Result{
			Outcome: engine.OutcomeRevengeArmed,
			Target:  target.ID,
			Events: []engine.Event{{
				Type:     engine.EventAbilityUsed,
				Player:   actorID,
				Audience: engine.AudienceActor,
				Data:     map[string]interface{}{"ability": engine.ActionHunterRevenge, "target": target.ID},
			}},
		}, nil
	}

	m.Queue().Enqueue(m.Roster(), target.ID)
	h.Pending = false
	h.Spent = true
	return engine.Result{
		Outcome: engine.OutcomeRevengeFired,
		Target:  target.ID,
		Events: []engine.Event{
			{Type: engine.EventRevengeFired, Player: actorID, Data: map[string]interface{}{"target": target.ID}},
			{Type: engine.EventEliminationQueued, Player: target.ID},
		},
	}, nil
}
