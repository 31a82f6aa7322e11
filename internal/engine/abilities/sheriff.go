package abilities

import "werewolf/internal/engine"

// Succession lets the sheriff hand the badge to a living successor at any
// time, including while their own death is staged.
type Succession struct{}

func (Succession) Action() engine.ActionType { return engine.ActionElectSuccessor }

func (Succession) ValidTargets(m *engine.Match, actorID string) []string {
	p, err := m.LivingActor(actorID)
	if err != nil || !p.Sheriff {
		return nil
	}
	return livingOthers(m, actorID)
}

func (Succession) Apply(m *engine.Match, actorID string, action engine.Action) (engine.Result, error) {
	p, err := m.LivingActor(actorID)
	if err != nil {
		return engine.Result{}, err
	}
	if !p.Sheriff {
		return engine.Result{}, engine.Errorf(engine.ErrWrongRole, "only the sheriff names a successor")
	}
	successor, err := m.LivingTarget(actorID, action.Target)
	if err != nil {
		return engine.Result{}, err
	}

	m.Roster().SetSheriff(successor.ID, true)
	return engine.Result{
		Outcome: engine.OutcomeSheriffTransferred,
		Target:  successor.ID,
		Events: []engine.Event{{
			Type:   engine.EventSheriffTransferred,
			Player: actorID,
			Data:   map[string]interface{}{"successor": successor.ID},
		}},
	}, nil
}
