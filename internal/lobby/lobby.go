package lobby

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"werewolf/internal/engine"
	"werewolf/internal/storage"
)

var (
	ErrStarted       = errors.New("game already started")
	ErrFull          = errors.New("lobby is full")
	ErrNotEnough     = errors.New("not enough players")
	ErrNotReady      = errors.New("not all players ready")
	ErrAccessDenied  = errors.New("wrong access secret")
	ErrUnknownPlayer = errors.New("player not in lobby")
	ErrNotHost       = errors.New("only the host can do that")
)

// PlayerInfo holds lobby-level player information.
type PlayerInfo struct {
	ID    string
	Name  string
	Ready bool
}

// Settings configures a new lobby.
type Settings struct {
	Visibility storage.Visibility
	// Secret is required to join when non-empty; only its hash is kept.
	Secret     string
	MinPlayers int
	MaxPlayers int
}

// Lobby represents a game lobby waiting for players.
type Lobby struct {
	mu         sync.Mutex
	ID         string
	Visibility storage.Visibility
	Players    []*PlayerInfo
	MaxPlayers int
	MinPlayers int
	Started    bool

	host       string
	secretHash []byte
}

// NewLobby creates a new lobby.
func NewLobby(id string, settings Settings) (*Lobby, error) {
	l := &Lobby{
		ID:         id,
		Visibility: settings.Visibility,
		MaxPlayers: settings.MaxPlayers,
		MinPlayers: settings.MinPlayers,
	}
	if l.Visibility == "" {
		l.Visibility = storage.VisibilityPublic
	}
	if l.MinPlayers <= 0 {
		l.MinPlayers = 4
	}
	if l.MaxPlayers < l.MinPlayers {
		l.MaxPlayers = l.MinPlayers
	}
	if settings.Secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(settings.Secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		l.secretHash = hash
	}
	return l, nil
}

// SecretHash returns the stored access secret hash, empty for open lobbies.
func (l *Lobby) SecretHash() string {
	return string(l.secretHash)
}

// Join adds a player to the lobby. Joining again with a known id renames
// the player. The first player becomes the host.
func (l *Lobby) Join(id, name, secret string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id = strings.TrimSpace(id)
	if id == "" {
		return ErrUnknownPlayer
	}
	if len(l.secretHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(l.secretHash, []byte(secret)); err != nil {
			return ErrAccessDenied
		}
	}
	for _, p := range l.Players {
		if p.ID == id {
			p.Name = name
			return nil
		}
	}
	if l.Started {
		return ErrStarted
	}
	if len(l.Players) >= l.MaxPlayers {
		return ErrFull
	}
	l.Players = append(l.Players, &PlayerInfo{ID: id, Name: name})
	if l.host == "" {
		l.host = id
	}
	return nil
}

// Leave removes a player from the lobby; the host role passes to the next
// player in join order.
func (l *Lobby) Leave(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Started {
		return
	}
	for i, p := range l.Players {
		if p.ID == id {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			break
		}
	}
	if l.host == id {
		l.host = ""
		if len(l.Players) > 0 {
			l.host = l.Players[0].ID
		}
	}
}

// SetReady toggles a player's ready state.
func (l *Lobby) SetReady(id string, ready bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.Players {
		if p.ID == id {
			p.Ready = ready
			return nil
		}
	}
	return ErrUnknownPlayer
}

// Host returns the id of the player allowed to start and drive the match.
func (l *Lobby) Host() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.host
}

// IsHost reports whether id is the lobby host.
func (l *Lobby) IsHost(id string) bool {
	return id != "" && l.Host() == id
}

// CanStart returns true if enough players are ready.
func (l *Lobby) CanStart() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canStart() == nil
}

func (l *Lobby) canStart() error {
	if l.Started {
		return ErrStarted
	}
	if len(l.Players) < l.MinPlayers {
		return ErrNotEnough
	}
	for _, p := range l.Players {
		if !p.Ready {
			return ErrNotReady
		}
	}
	return nil
}

// Start marks the lobby as started and deals roles to every player.
func (l *Lobby) Start(requester string) ([]engine.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if requester != l.host {
		return nil, ErrNotHost
	}
	if err := l.canStart(); err != nil {
		return nil, err
	}
	roles := DealRoles(len(l.Players))
	seats := make([]engine.Seat, len(l.Players))
	for i, p := range l.Players {
		seats[i] = engine.Seat{ID: p.ID, Name: p.Name, Role: roles[i]}
	}
	l.Started = true
	return seats, nil
}

// GetPlayers returns a copy of the player list.
func (l *Lobby) GetPlayers() []PlayerInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PlayerInfo, len(l.Players))
	for i, p := range l.Players {
		out[i] = *p
	}
	return out
}

// IsStarted reports whether the match has begun.
func (l *Lobby) IsStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Started
}

// DealRoles returns a shuffled role for each of n players: a third of the
// table (at least one) are wolves, there is always a seer, a witch joins
// from five players and a hunter from six. Everyone else is a villager.
func DealRoles(n int) []engine.RoleKind {
	if n <= 0 {
		return nil
	}
	wolves := max(1, (n+1)/3)
	roles := make([]engine.RoleKind, 0, n)
	for range wolves {
		roles = append(roles, engine.KindWolf)
	}
	specials := []engine.RoleKind{engine.KindSeer}
	if n >= 5 {
		specials = append(specials, engine.KindWitch)
	}
	if n >= 6 {
		specials = append(specials, engine.KindHunter)
	}
	for _, r := range specials {
		if len(roles) < n {
			roles = append(roles, r)
		}
	}
	for len(roles) < n {
		roles = append(roles, engine.KindVillager)
	}
	rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	return roles
}
