// Package abilities implements the role actions resolved by the match engine.
package abilities

import "werewolf/internal/engine"

// Default returns a registry with every role ability registered.
func Default() *engine.AbilityRegistry {
	r := engine.NewAbilityRegistry()
	r.Register(Seer{})
	r.Register(WitchHeal{})
	r.Register(WitchKill{})
	r.Register(Hunter{})
	r.Register(Succession{})
	return r
}

// livingOthers lists every living participant except actorID.
func livingOthers(m *engine.Match, actorID string) []string {
	targets := []string{}
	for _, p := range m.Roster().Living() {
		if p.ID != actorID {
			targets = append(targets, p.ID)
		}
	}
	return targets
}
