// Package storage defines persistence contracts for finished match records.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Visibility controls whether a match is listed publicly.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// MatchStatus mirrors the engine status in persisted form.
type MatchStatus string

const (
	MatchActive   MatchStatus = "active"
	MatchFinished MatchStatus = "finished"
)

// MatchRecord stores one match row.
type MatchRecord struct {
	ID               string
	Visibility       Visibility
	AccessSecretHash string
	Status           MatchStatus
	// WinningFaction is empty while active and for draws.
	WinningFaction string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Participation stores the role one participant played in one match.
type Participation struct {
	ParticipantID string
	MatchID       string
	Role          string
}

// LeaderboardEntry aggregates finished matches for one participant.
type LeaderboardEntry struct {
	ParticipantID string
	Played        int
	Wins          int
}

// Store persists match records and role assignments.
type Store interface {
	CreateMatch(ctx context.Context, match MatchRecord) error
	UpdateMatchResult(ctx context.Context, matchID string, status MatchStatus, winningFaction string) error
	GetMatch(ctx context.Context, matchID string) (MatchRecord, error)
	AppendParticipations(ctx context.Context, participations []Participation) error
	ListParticipations(ctx context.Context, participantID string) ([]Participation, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
