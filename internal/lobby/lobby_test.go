package lobby

import (
	"errors"
	"testing"

	"werewolf/internal/engine"
	"werewolf/internal/storage"
)

func newTestLobby(t *testing.T, secret string) *Lobby {
	t.Helper()
	l, err := NewLobby("abc", Settings{Secret: secret, MinPlayers: 3, MaxPlayers: 4})
	if err != nil {
		t.Fatalf("new lobby: %v", err)
	}
	return l
}

func TestJoinAndHost(t *testing.T) {
	l := newTestLobby(t, "")
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := l.Join(id, "Player "+id, ""); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := l.Join("e", "Eve", ""); !errors.Is(err, ErrFull) {
		t.Fatalf("expected full, got %v", err)
	}
	if err := l.Join("a", "Renamed", ""); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if got := l.GetPlayers()[0].Name; got != "Renamed" {
		t.Fatalf("rejoin should rename, got %q", got)
	}
	if !l.IsHost("a") {
		t.Fatal("first player should host")
	}
	l.Leave("a")
	if !l.IsHost("b") {
		t.Fatalf("host should pass to b, got %q", l.Host())
	}
}

func TestJoinChecksSecret(t *testing.T) {
	l := newTestLobby(t, "hunter2")
	if err := l.Join("a", "Ana", "wrong"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if err := l.Join("a", "Ana", "hunter2"); err != nil {
		t.Fatalf("join with secret: %v", err)
	}
	if l.SecretHash() == "" || l.SecretHash() == "hunter2" {
		t.Fatal("secret should be stored hashed")
	}
}

func TestStart(t *testing.T) {
	l := newTestLobby(t, "")
	for _, id := range []string{"a", "b"} {
		l.Join(id, id, "")
		l.SetReady(id, true)
	}
	if _, err := l.Start("a"); !errors.Is(err, ErrNotEnough) {
		t.Fatalf("expected not enough players, got %v", err)
	}
	l.Join("c", "c", "")
	if _, err := l.Start("a"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
	if err := l.SetReady("c", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := l.SetReady("zed", true); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("expected unknown player, got %v", err)
	}
	if _, err := l.Start("b"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected not host, got %v", err)
	}
	if !l.CanStart() {
		t.Fatal("lobby should be startable")
	}

	seats, err := l.Start("a")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(seats) != 3 || seats[0].ID != "a" || seats[0].Role == "" {
		t.Fatalf("unexpected seats %+v", seats)
	}
	if _, err := l.Start("a"); !errors.Is(err, ErrStarted) {
		t.Fatalf("expected started, got %v", err)
	}
	if err := l.Join("d", "d", ""); !errors.Is(err, ErrStarted) {
		t.Fatalf("late join: expected started, got %v", err)
	}
}

func TestDealRoles(t *testing.T) {
	tests := []struct {
		n                     int
		wolves, witch, hunter int
	}{
		{3, 1, 0, 0},
		{4, 1, 0, 0},
		{5, 2, 1, 0},
		{6, 2, 1, 1},
		{8, 3, 1, 1},
		{12, 4, 1, 1},
	}
	for _, tt := range tests {
		roles := DealRoles(tt.n)
		if len(roles) != tt.n {
			t.Fatalf("n=%d: got %d roles", tt.n, len(roles))
		}
		count := map[engine.RoleKind]int{}
		for _, r := range roles {
			count[r]++
		}
		if count[engine.KindWolf] != tt.wolves || count[engine.KindSeer] != 1 ||
			count[engine.KindWitch] != tt.witch || count[engine.KindHunter] != tt.hunter {
			t.Fatalf("n=%d: unexpected deal %v", tt.n, count)
		}
	}
	if DealRoles(0) != nil {
		t.Fatal("no players, no roles")
	}
}

func TestManagerListOpen(t *testing.T) {
	m := NewManager(Settings{MinPlayers: 3, MaxPlayers: 6})
	pub, err := m.Create(Settings{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Create(Settings{Visibility: storage.VisibilityPrivate}); err != nil {
		t.Fatalf("create private: %v", err)
	}
	locked, err := m.Create(Settings{Secret: "s"})
	if err != nil {
		t.Fatalf("create locked: %v", err)
	}
	if m.Get(pub.ID) != pub || pub.MaxPlayers != 6 {
		t.Fatalf("unexpected lobby %+v", pub)
	}

	open := m.ListOpen()
	if len(open) != 2 {
		t.Fatalf("expected 2 public lobbies, got %+v", open)
	}
	for _, s := range open {
		if s.ID == locked.ID && !s.Locked {
			t.Fatal("secret lobby should be listed as locked")
		}
	}

	m.Remove(pub.ID)
	if m.Get(pub.ID) != nil {
		t.Fatal("removed lobby still present")
	}
}
