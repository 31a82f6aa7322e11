package engine

import "strings"

// Seat is one participant handed to NewMatch.
type Seat struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role RoleKind `json:"role"`
}

// Participant holds one player's per-match state.
type Participant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"-"`
	Alive   bool   `json:"alive"`
	Sheriff bool   `json:"sheriff"`
}

func (p *Participant) Kind() RoleKind {
	return p.Role.Kind()
}

func (p *Participant) Faction() Faction {
	return p.Role.Kind().Faction()
}

func (p *Participant) IsWolf() bool {
	return p.Role.Kind() == KindWolf
}

// Roster is the ordered set of participants in a match.
type Roster struct {
	participants []*Participant
}

// NewRoster builds a roster from seats, rejecting empty or duplicate ids.
func NewRoster(seats []Seat) (*Roster, error) {
	if len(seats) == 0 {
		return nil, Errorf(ErrInvalidSetup, "a match needs participants")
	}
	r := &Roster{participants: make([]*Participant, 0, len(seats))}
	seen := make(map[string]bool, len(seats))
	for _, s := range seats {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, Errorf(ErrInvalidSetup, "participant id is required")
		}
		if seen[id] {
			return nil, Errorf(ErrInvalidSetup, "duplicate participant %s", id)
		}
		seen[id] = true
		role, err := NewRole(s.Role)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = id
		}
		r.participants = append(r.participants, &Participant{ID: id, Name: name, Role: role, Alive: true})
	}
	return r, nil
}

// Find returns the participant with the given id.
func (r *Roster) Find(id string) (*Participant, bool) {
	for _, p := range r.participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (r *Roster) IsAlive(id string) bool {
	p, ok := r.Find(id)
	return ok && p.Alive
}

// Kill marks id dead. It reports whether the participant died now; killing
// an unknown or already dead participant is a no-op.
func (r *Roster) Kill(id string) bool {
	p, ok := r.Find(id)
	if !ok || !p.Alive {
		return false
	}
	p.Alive = false
	return true
}

// SetSheriff grants or removes the sheriff flag. Granting clears any prior
// holder first so at most one participant ever holds it.
func (r *Roster) SetSheriff(id string, on bool) bool {
	p, ok := r.Find(id)
	if !ok {
		return false
	}
	if on {
		for _, other := range r.participants {
			other.Sheriff = false
		}
	}
	p.Sheriff = on
	return true
}

// Sheriff returns the current sheriff, if any.
func (r *Roster) Sheriff() (*Participant, bool) {
	for _, p := range r.participants {
		if p.Sheriff {
			return p, true
		}
	}
	return nil, false
}

// LivingByFaction counts living participants of a faction.
func (r *Roster) LivingByFaction(f Faction) int {
	n := 0
	for _, p := range r.participants {
		if p.Alive && p.Faction() == f {
			n++
		}
	}
	return n
}

func (r *Roster) Living() []*Participant {
	var out []*Participant
	for _, p := range r.participants {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) LivingWolves() []*Participant {
	var out []*Participant
	for _, p := range r.participants {
		if p.Alive && p.IsWolf() {
			out = append(out, p)
		}
	}
	return out
}

// All returns the participants in seat order.
func (r *Roster) All() []*Participant {
	return r.participants
}
