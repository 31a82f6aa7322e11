// Package memory provides an in-process storage implementation used when no
// database path is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"werewolf/internal/storage"
)

// Store keeps match records in maps guarded by a RWMutex.
type Store struct {
	mu             sync.RWMutex
	matches        map[string]storage.MatchRecord
	participations []storage.Participation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{matches: make(map[string]storage.MatchRecord)}
}

func (s *Store) CreateMatch(ctx context.Context, match storage.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	match.ID = strings.TrimSpace(match.ID)
	if match.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if match.Visibility == "" {
		match.Visibility = storage.VisibilityPublic
	}
	if match.Status == "" {
		match.Status = storage.MatchActive
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	if match.UpdatedAt.IsZero() {
		match.UpdatedAt = match.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.matches[match.ID]; exists {
		return storage.ErrAlreadyExists
	}
	s.matches[match.ID] = match
	return nil
}

func (s *Store) UpdateMatchResult(ctx context.Context, matchID string, status storage.MatchStatus, winningFaction string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return storage.ErrNotFound
	}
	rec.Status = status
	rec.WinningFaction = winningFaction
	rec.UpdatedAt = time.Now().UTC()
	s.matches[matchID] = rec
	return nil
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return storage.MatchRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *Store) AppendParticipations(ctx context.Context, participations []storage.Participation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range participations {
		if _, ok := s.matches[p.MatchID]; !ok {
			return storage.ErrNotFound
		}
		for _, existing := range s.participations {
			if existing.ParticipantID == p.ParticipantID && existing.MatchID == p.MatchID {
				return storage.ErrAlreadyExists
			}
		}
	}
	s.participations = append(s.participations, participations...)
	return nil
}

func (s *Store) ListParticipations(ctx context.Context, participantID string) ([]storage.Participation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Participation
	for _, p := range s.participations {
		if p.ParticipantID == participantID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.matches[out[i].MatchID].CreatedAt.After(s.matches[out[j].MatchID].CreatedAt)
	})
	return out, nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*storage.LeaderboardEntry)
	for _, p := range s.participations {
		m := s.matches[p.MatchID]
		if m.Status != storage.MatchFinished {
			continue
		}
		e, ok := byID[p.ParticipantID]
		if !ok {
			e = &storage.LeaderboardEntry{ParticipantID: p.ParticipantID}
			byID[p.ParticipantID] = e
		}
		e.Played++
		faction := "village"
		if p.Role == "wolf" {
			faction = "wolves"
		}
		if m.WinningFaction == faction {
			e.Wins++
		}
	}

	out := make([]storage.LeaderboardEntry, 0, len(byID))
	for _, e := range byID {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].Played != out[j].Played {
			return out[i].Played > out[j].Played
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ storage.Store = (*Store)(nil)
