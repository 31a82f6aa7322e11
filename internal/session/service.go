// Package session runs live matches. Each match is owned by a single actor
// goroutine that serializes player actions, voting window expiries and
// reads, so the engine itself never needs locking.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"werewolf/internal/engine"
	"werewolf/internal/engine/abilities"
	"werewolf/internal/storage"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchExists   = errors.New("match already exists")
	ErrClosed        = errors.New("session service closed")
)

// Options configures a Service. Zero values fall back to sensible defaults.
type Options struct {
	// Store holds live matches; defaults to a MemoryStore.
	Store Store
	// Archive receives match records and, once finished, the verdict and
	// role assignments. Nil disables archiving.
	Archive storage.Store
	Logger  zerolog.Logger
	Notify  Notifier
	Config  engine.MatchConfig
	// VoteWindow is the default voting window length.
	VoteWindow time.Duration
	// AutoOpen opens the phase ballot's window at match start and after
	// every phase change.
	AutoOpen       bool
	ArchiveTimeout time.Duration
}

// Service is the entry point for every live-match operation.
type Service struct {
	store          Store
	archive        storage.Store
	log            zerolog.Logger
	notify         Notifier
	config         engine.MatchConfig
	voteWindow     time.Duration
	autoOpen       bool
	archiveTimeout time.Duration

	mu     sync.Mutex
	actors map[string]*actor
	closed bool
}

func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	opts.Config = opts.Config.WithDefaults()
	if opts.VoteWindow <= 0 {
		opts.VoteWindow = 90 * time.Second
	}
	if opts.ArchiveTimeout <= 0 {
		opts.ArchiveTimeout = 5 * time.Second
	}
	return &Service{
		store:          opts.Store,
		archive:        opts.Archive,
		log:            opts.Logger.With().Str("component", "session").Logger(),
		notify:         opts.Notify,
		config:         opts.Config,
		voteWindow:     opts.VoteWindow,
		autoOpen:       opts.AutoOpen,
		archiveTimeout: opts.ArchiveTimeout,
		actors:         make(map[string]*actor),
	}
}

// CreateParams describes a match to start.
type CreateParams struct {
	ID               string
	Seats            []engine.Seat
	Visibility       storage.Visibility
	AccessSecretHash string
}

// CreateMatch builds the match, records it in the archive and starts its
// actor.
func (s *Service) CreateMatch(ctx context.Context, params CreateParams) (engine.Snapshot, error) {
	m, err := engine.NewMatch(params.ID, params.Seats, s.config, abilities.Default())
	if err != nil {
		return engine.Snapshot{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return engine.Snapshot{}, ErrClosed
	}
	// Put reserves the id. The actor is registered and started together,
	// after the archive accepted the record.
	if err := s.store.Put(m); err != nil {
		s.mu.Unlock()
		return engine.Snapshot{}, err
	}
	snap := m.Snapshot()
	s.mu.Unlock()

	if s.archive != nil {
		err := s.archive.CreateMatch(ctx, storage.MatchRecord{
			ID:               m.ID,
			Visibility:       params.Visibility,
			AccessSecretHash: params.AccessSecretHash,
			Status:           storage.MatchActive,
		})
		if err != nil {
			s.store.Delete(m.ID)
			return engine.Snapshot{}, fmt.Errorf("archive match: %w", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.store.Delete(m.ID)
		return engine.Snapshot{}, ErrClosed
	}
	a := newActor(s, m.ID)
	s.actors[m.ID] = a
	go a.Run()
	s.mu.Unlock()

	s.log.Info().Str("match", m.ID).Int("participants", len(params.Seats)).Msg("match created")

	if s.autoOpen {
		if _, err := s.OpenVoting(ctx, m.ID, engine.BallotWolf, 0); err != nil {
			return snap, fmt.Errorf("open first ballot: %w", err)
		}
	}
	return snap, nil
}

func (s *Service) actor(id string) (*actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	a, ok := s.actors[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return a, nil
}

// request delivers cmd to the match actor and waits for its reply.
func request[T any](ctx context.Context, s *Service, matchID string, build func(chan T) any) (T, error) {
	var zero T
	a, err := s.actor(matchID)
	if err != nil {
		return zero, err
	}
	reply := make(chan T, 1)
	select {
	case a.inbox <- build(reply):
	case <-a.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v, ok := <-reply:
		if !ok {
			return zero, ErrMatchNotFound
		}
		return v, nil
	case <-a.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Apply submits one action on behalf of actorID; system actions use "".
func (s *Service) Apply(ctx context.Context, matchID, actorID string, action engine.Action) (engine.Result, error) {
	r, err := request(ctx, s, matchID, func(reply chan applyReply) any {
		return applyCmd{actorID: actorID, action: action, reply: reply}
	})
	if err != nil {
		return engine.Result{}, err
	}
	return r.result, r.err
}

// OpenVoting starts a voting window for kind. A zero window uses the
// service default; the window closes on quorum or when the timer fires.
func (s *Service) OpenVoting(ctx context.Context, matchID string, kind engine.BallotKind, window time.Duration) (engine.Result, error) {
	r, err := request(ctx, s, matchID, func(reply chan applyReply) any {
		return applyCmd{
			action: engine.Action{Type: engine.ActionOpenVoting, Ballot: kind},
			window: window,
			reply:  reply,
		}
	})
	if err != nil {
		return engine.Result{}, err
	}
	return r.result, r.err
}

// Snapshot returns the unredacted match state.
func (s *Service) Snapshot(ctx context.Context, matchID string) (engine.Snapshot, error) {
	return request(ctx, s, matchID, func(reply chan engine.Snapshot) any {
		return snapshotCmd{reply: reply}
	})
}

// ViewFor returns the match as viewerID may see it.
func (s *Service) ViewFor(ctx context.Context, matchID, viewerID string) (engine.PlayerView, error) {
	return request(ctx, s, matchID, func(reply chan engine.PlayerView) any {
		return viewCmd{viewerID: viewerID, reply: reply}
	})
}

func (s *Service) IsTerminal(ctx context.Context, matchID string) (bool, error) {
	snap, err := s.Snapshot(ctx, matchID)
	if err != nil {
		return false, err
	}
	return snap.Status == engine.StatusFinished, nil
}

// Remove stops a match actor and forgets the match.
func (s *Service) Remove(matchID string) error {
	s.mu.Lock()
	a, ok := s.actors[matchID]
	delete(s.actors, matchID)
	s.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	a.stop()
	s.store.Delete(matchID)
	return nil
}

// Close stops every actor and rejects further calls.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	actors := make([]*actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.mu.Unlock()

	for _, a := range actors {
		a.stop()
	}
	s.log.Info().Int("matches", len(actors)).Msg("session service closed")
}
