package abilities

import "werewolf/internal/engine"

// livingWitch returns the actor's witch state if they can act tonight.
func livingWitch(m *engine.Match, actorID string) (*engine.Witch, error) {
	if err := m.RequirePhase(engine.PhaseNight); err != nil {
		return nil, err
	}
	p, err := m.LivingActor(actorID)
	if err != nil {
		return nil, err
	}
	w, ok := p.Role.(*engine.Witch)
	if !ok {
		return nil, engine.ErrWrongRole
	}
	return w, nil
}

// WitchHeal saves one staged victim, once per match.
type WitchHeal struct{}

func (WitchHeal) Action() engine.ActionType { return engine.ActionWitchHeal }

func (WitchHeal) ValidTargets(m *engine.Match, actorID string) []string {
	w, err := livingWitch(m, actorID)
	if err != nil || w.HealUsed {
		return nil
	}
	return m.Queue().IDs()
}

func (WitchHeal) Apply(m *engine.Match, actorID string, action engine.Action) (engine.Result, error) {
	w, err := livingWitch(m, actorID)
	if err != nil {
		return engine.Result{}, err
	}
	if w.HealUsed {
		return engine.Result{}, engine.Errorf(engine.ErrAbilityUsed, "heal potion already used")
	}
	if !m.Queue().Contains(action.Target) {
		return engine.Result{}, engine.Errorf(engine.ErrInvalidTarget, "nobody to heal there")
	}

	m.Queue().Retract(action.Target)
	w.HealUsed = true
	return engine.Result{
		Outcome: engine.OutcomeHealed,
		Target:  action.Target,
		Events: []engine.Event{{
			Type:     engine.EventEliminationRetract,
			Player:   actorID,
			Audience: engine.AudienceActor,
			Data:     map[string]interface{}{"ability": engine.ActionWitchHeal, "target": action.Target},
		}},
	}, nil
}

// WitchKill stages one death, once per match.
type WitchKill struct{}

func (WitchKill) Action() engine.ActionType { return engine.ActionWitchKill }

func (WitchKill) ValidTargets(m *engine.Match, actorID string) []string {
	w, err := livingWitch(m, actorID)
	if err != nil || w.KillUsed {
		return nil
	}
	var targets []string
	for _, id := range livingOthers(m, actorID) {
		if !m.Queue().Contains(id) {
			targets = append(targets, id)
		}
	}
	return targets
}

func (WitchKill) Apply(m *engine.Match, actorID string, action engine.Action) (engine.Result, error) {
	w, err := livingWitch(m, actorID)
	if err != nil {
		return engine.Result{}, err
	}
	if w.KillUsed {
		return engine.Result{}, engine.Errorf(engine.ErrAbilityUsed, "kill potion already used")
	}
	target, err := m.LivingTarget(actorID, action.Target)
	if err != nil {
		return engine.Result{}, err
	}
	if m.Queue().Contains(target.ID) {
		return engine.Result{}, engine.Errorf(engine.ErrInvalidTarget, "%s is already doomed", target.Name)
	}

	m.Queue().Enqueue(m.Roster(), target.ID)
	w.KillUsed = true
	return engine.Result{
		Outcome: engine.OutcomeCursed,
		Target:  target.ID,
		Events: []engine.Event{{
			Type:     engine.EventEliminationQueued,
			Player:   actorID,
			Audience: engine.AudienceActor,
			Data:     map[string]interface{}{"ability": engine.ActionWitchKill, "target": target.ID},
		}},
	}, nil
}
