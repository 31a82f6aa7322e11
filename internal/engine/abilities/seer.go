package abilities

import "werewolf/internal/engine"

// Seer learns the role of one living participant per night.
type Seer struct{}

func (Seer) Action() engine.ActionType { return engine.ActionSeerReveal }

func (Seer) ValidTargets(m *engine.Match, actorID string) []string {
	if m.Phase != engine.PhaseNight {
		return nil
	}
	p, err := m.LivingActor(actorID)
	if err != nil {
		return nil
	}
	s, ok := p.Role.(*engine.Seer)
	if !ok || s.SeenThisNight {
		return nil
	}
	return livingOthers(m, actorID)
}

func (Seer) Apply(m *engine.Match, actorID string, action engine.Action) (engine.Result, error) {
	if err := m.RequirePhase(engine.PhaseNight); err != nil {
		return engine.Result{}, err
	}
	p, err := m.LivingActor(actorID)
	if err != nil {
		return engine.Result{}, err
	}
	s, ok := p.Role.(*engine.Seer)
	if !ok {
		return engine.Result{}, engine.ErrWrongRole
	}
	if s.SeenThisNight {
		return engine.Result{}, engine.Errorf(engine.ErrAbilityUsed, "already revealed a role tonight")
	}
	target, err := m.LivingTarget(actorID, action.Target)
	if err != nil {
		return engine.Result{}, err
	}

	s.SeenThisNight = true
	return engine.Result{
		Outcome: engine.OutcomeRevealed,
		Target:  target.ID,
		Role:    target.Kind(),
		Events: []engine.Event{{
			Type:     engine.EventAbilityUsed,
			Player:   actorID,
			Audience: engine.AudienceActor,
			Data: map[string]interface{}{
				"ability": engine.ActionSeerReveal, "target": target.ID, "role": target.Kind(),
			},
		}},
	}, nil
}
