// Package sqlite provides a SQLite-backed match storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"werewolf/internal/storage"
	"werewolf/internal/storage/sqlite/migrations"
	"werewolf/internal/storage/sqlitemigrate"
)

// Store persists match records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateMatch inserts one match record.
func (s *Store) CreateMatch(ctx context.Context, match storage.MatchRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(match.ID)
	if id == "" {
		return fmt.Errorf("match id is required")
	}
	visibility := match.Visibility
	if visibility == "" {
		visibility = storage.VisibilityPublic
	}
	status := match.Status
	if status == "" {
		status = storage.MatchActive
	}
	createdAt := match.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := match.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO matches (
		   id,
		   visibility,
		   access_secret_hash,
		   status,
		   winning_faction,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		string(visibility),
		match.AccessSecretHash,
		string(status),
		match.WinningFaction,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// UpdateMatchResult records the final status and winning faction.
func (s *Store) UpdateMatchResult(ctx context.Context, matchID string, status storage.MatchStatus, winningFaction string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE matches
		    SET status = ?, winning_faction = ?, updated_at = ?
		  WHERE id = ?`,
		string(status),
		winningFaction,
		toMillis(time.Now()),
		strings.TrimSpace(matchID),
	)
	if err != nil {
		return fmt.Errorf("update match result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetMatch returns one match by id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (storage.MatchRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.MatchRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, visibility, access_secret_hash, status, winning_faction, created_at, updated_at
		   FROM matches
		  WHERE id = ?`,
		strings.TrimSpace(matchID),
	)

	var rec storage.MatchRecord
	var visibility, status string
	var createdAt, updatedAt int64
	err := row.Scan(&rec.ID, &visibility, &rec.AccessSecretHash, &status, &rec.WinningFaction, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MatchRecord{}, storage.ErrNotFound
		}
		return storage.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	rec.Visibility = storage.Visibility(visibility)
	rec.Status = storage.MatchStatus(status)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// AppendParticipations inserts role assignments in one transaction.
func (s *Store) AppendParticipations(ctx context.Context, participations []storage.Participation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin participations: %w", err)
	}
	for _, p := range participations {
		if strings.TrimSpace(p.ParticipantID) == "" || strings.TrimSpace(p.MatchID) == "" {
			_ = tx.Rollback()
			return fmt.Errorf("participant id and match id are required")
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO participations (participant_id, match_id, role) VALUES (?, ?, ?)`,
			p.ParticipantID, p.MatchID, p.Role,
		); err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("append participation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit participations: %w", err)
	}
	return nil
}

// ListParticipations returns every match a participant played, newest first.
func (s *Store) ListParticipations(ctx context.Context, participantID string) ([]storage.Participation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT p.participant_id, p.match_id, p.role
		   FROM participations p
		   JOIN matches m ON m.id = p.match_id
		  WHERE p.participant_id = ?
		  ORDER BY m.created_at DESC, p.match_id`,
		strings.TrimSpace(participantID),
	)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var out []storage.Participation
	for rows.Next() {
		var p storage.Participation
		if err := rows.Scan(&p.ParticipantID, &p.MatchID, &p.Role); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return out, nil
}

// Leaderboard ranks participants by wins across finished matches.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT p.participant_id,
		        COUNT(*) AS played,
		        SUM(CASE WHEN m.winning_faction =
		                 CASE WHEN p.role = 'wolf' THEN 'wolves' ELSE 'village' END
		            THEN 1 ELSE 0 END) AS wins
		   FROM participations p
		   JOIN matches m ON m.id = p.match_id
		  WHERE m.status = 'finished'
		  GROUP BY p.participant_id
		  ORDER BY wins DESC, played DESC, p.participant_id
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []storage.LeaderboardEntry
	for rows.Next() {
		var e storage.LeaderboardEntry
		if err := rows.Scan(&e.ParticipantID, &e.Played, &e.Wins); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
