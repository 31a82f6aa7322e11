package lobby

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"werewolf/internal/storage"
)

// Manager manages multiple lobbies.
type Manager struct {
	mu       sync.Mutex
	lobbies  map[string]*Lobby
	defaults Settings
}

// NewManager creates a manager whose lobbies use the given player limits
// unless a create call overrides them.
func NewManager(defaults Settings) *Manager {
	return &Manager{lobbies: make(map[string]*Lobby), defaults: defaults}
}

// Create creates a new lobby and returns it.
func (m *Manager) Create(settings Settings) (*Lobby, error) {
	if settings.MinPlayers == 0 {
		settings.MinPlayers = m.defaults.MinPlayers
	}
	if settings.MaxPlayers == 0 {
		settings.MaxPlayers = m.defaults.MaxPlayers
	}
	l, err := NewLobby(generateID(), settings)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lobbies[l.ID] = l
	return l, nil
}

// Get returns a lobby by ID.
func (m *Manager) Get(id string) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lobbies[id]
}

// Remove forgets a lobby.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, id)
}

// Summary is a lobby as listed publicly.
type Summary struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Locked     bool   `json:"locked"`
}

// ListOpen returns public lobbies that have not started, sorted by id.
func (m *Manager) ListOpen() []Summary {
	m.mu.Lock()
	lobbies := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		lobbies = append(lobbies, l)
	}
	m.mu.Unlock()

	var out []Summary
	for _, l := range lobbies {
		l.mu.Lock()
		if l.Visibility == storage.VisibilityPublic && !l.Started {
			out = append(out, Summary{
				ID:         l.ID,
				Players:    len(l.Players),
				MaxPlayers: l.MaxPlayers,
				Locked:     len(l.secretHash) > 0,
			})
		}
		l.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// generateID returns a short lobby code taken from a random uuid.
func generateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
