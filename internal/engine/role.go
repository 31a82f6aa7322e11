package engine

// RoleKind identifies a role in the wire format and in persisted records.
type RoleKind string

const (
	KindWolf     RoleKind = "wolf"
	KindSeer     RoleKind = "seer"
	KindWitch    RoleKind = "witch"
	KindHunter   RoleKind = "hunter"
	KindVillager RoleKind = "villager"
)

// Faction is the team a role wins with.
type Faction string

const (
	FactionVillage Faction = "village"
	FactionWolves  Faction = "wolves"
)

// Faction returns the team of the role kind.
func (k RoleKind) Faction() Faction {
	if k == KindWolf {
		return FactionWolves
	}
	return FactionVillage
}

// AllRoleKinds returns every playable role.
func AllRoleKinds() []RoleKind {
	return []RoleKind{KindWolf, KindSeer, KindWitch, KindHunter, KindVillager}
}

// Role is the closed set of role variants. Each variant carries only the
// per-match state its own abilities need.
type Role interface {
	Kind() RoleKind
	// Clone returns an independent copy for handing outside the match.
	Clone() Role
	role()
}

type Wolf struct{}

// Seer may reveal one role per night.
type Seer struct {
	SeenThisNight bool `json:"seen_this_night"`
}

// Witch holds one heal and one kill potion for the whole match.
type Witch struct {
	HealUsed bool `json:"heal_used"`
	KillUsed bool `json:"kill_used"`
}

// Hunter takes someone down when they die. Armed is chosen while the
// hunter's own death is staged; Pending is set when the hunter died with
// nothing armed and may still fire.
type Hunter struct {
	Armed   string `json:"armed,omitempty"`
	Pending bool   `json:"pending"`
	Spent   bool   `json:"spent"`
}

type Villager struct{}

func (*Wolf) Kind() RoleKind     { return KindWolf }
func (*Seer) Kind() RoleKind     { return KindSeer }
func (*Witch) Kind() RoleKind    { return KindWitch }
func (*Hunter) Kind() RoleKind   { return KindHunter }
func (*Villager) Kind() RoleKind { return KindVillager }

func (r *Wolf) Clone() Role     { c := *r; return &c }
func (r *Seer) Clone() Role     { c := *r; return &c }
func (r *Witch) Clone() Role    { c := *r; return &c }
func (r *Hunter) Clone() Role   { c := *r; return &c }
func (r *Villager) Clone() Role { c := *r; return &c }

func (*Wolf) role()     {}
func (*Seer) role()     {}
func (*Witch) role()    {}
func (*Hunter) role()   {}
func (*Villager) role() {}

// NewRole returns fresh state for the given kind.
func NewRole(kind RoleKind) (Role, error) {
	switch kind {
	case KindWolf:
		return &Wolf{}, nil
	case KindSeer:
		return &Seer{}, nil
	case KindWitch:
		return &Witch{}, nil
	case KindHunter:
		return &Hunter{}, nil
	case KindVillager:
		return &Villager{}, nil
	default:
		return nil, Errorf(ErrInvalidSetup, "unknown role %q", kind)
	}
}
