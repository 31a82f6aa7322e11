package engine

// Verdict is the outcome of a win check.
type Verdict string

const (
	VerdictNone    Verdict = ""
	VerdictVillage Verdict = "village"
	VerdictWolves  Verdict = "wolves"
	VerdictDraw    Verdict = "draw"
)

// Evaluate checks the win condition against living faction counts.
func Evaluate(r *Roster) Verdict {
	wolves := r.LivingByFaction(FactionWolves)
	village := r.LivingByFaction(FactionVillage)
	switch {
	case wolves == 0 && village == 0:
		return VerdictDraw
	case wolves == 0:
		return VerdictVillage
	case village == 0:
		return VerdictWolves
	default:
		return VerdictNone
	}
}

// Faction returns the winning faction, or false for a draw or no verdict.
func (v Verdict) Faction() (Faction, bool) {
	switch v {
	case VerdictVillage:
		return FactionVillage, true
	case VerdictWolves:
		return FactionWolves, true
	default:
		return "", false
	}
}
