package abilities

import (
	"slices"
	"testing"

	"werewolf/internal/engine"
)

func newMatch(t *testing.T) *engine.Match {
	t.Helper()
	m, err := engine.NewMatch("m1", []engine.Seat{
		{ID: "W", Name: "Wolf", Role: engine.KindWolf},
		{ID: "B", Name: "Witch", Role: engine.KindWitch},
		{ID: "S", Name: "Seer", Role: engine.KindSeer},
		{ID: "H", Name: "Hunter", Role: engine.KindHunter},
		{ID: "V", Name: "Villager", Role: engine.KindVillager},
	}, engine.DefaultConfig(), Default())
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	return m
}

func TestDefaultRegistryOrder(t *testing.T) {
	var got []engine.ActionType
	for _, a := range Default().All() {
		got = append(got, a.Action())
	}
	want := []engine.ActionType{
		engine.ActionSeerReveal,
		engine.ActionWitchHeal,
		engine.ActionWitchKill,
		engine.ActionHunterRevenge,
		engine.ActionElectSuccessor,
	}
	if !slices.Equal(got, want) {
		t.Fatalf("registry order = %v, want %v", got, want)
	}
}

func TestSeerTargets(t *testing.T) {
	m := newMatch(t)
	got := Seer{}.ValidTargets(m, "S")
	if want := []string{"W", "B", "H", "V"}; !slices.Equal(got, want) {
		t.Fatalf("seer targets = %v, want %v", got, want)
	}
	if got := (Seer{}).ValidTargets(m, "V"); got != nil {
		t.Fatalf("villager has seer targets %v", got)
	}

	if _, err := m.UseSeerReveal("S", "W"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if got := (Seer{}).ValidTargets(m, "S"); got != nil {
		t.Fatalf("seer targets after reveal = %v, want none", got)
	}
}

func TestWitchTargetsFollowQueue(t *testing.T) {
	m := newMatch(t)
	if got := (WitchHeal{}).ValidTargets(m, "B"); len(got) != 0 {
		t.Fatalf("heal targets on empty queue = %v", got)
	}
	m.Queue().Enqueue(m.Roster(), "V")

	if got := (WitchHeal{}).ValidTargets(m, "B"); !slices.Equal(got, []string{"V"}) {
		t.Fatalf("heal targets = %v, want [V]", got)
	}
	if got := (WitchKill{}).ValidTargets(m, "B"); slices.Contains(got, "V") || slices.Contains(got, "B") {
		t.Fatalf("kill targets %v include a queued victim or the witch", got)
	}
}

func TestFailedAbilityLeavesStateUntouched(t *testing.T) {
	m := newMatch(t)
	if _, err := m.UseWitchKill("B", "B"); err == nil {
		t.Fatal("witch was allowed to target itself")
	}
	if m.Queue().Len() != 0 {
		t.Fatalf("queue = %v after rejected kill", m.Queue().IDs())
	}
	if got := (WitchKill{}).ValidTargets(m, "B"); len(got) == 0 {
		t.Fatal("rejected kill consumed the potion")
	}
}
