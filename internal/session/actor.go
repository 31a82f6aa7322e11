package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"werewolf/internal/engine"
	"werewolf/internal/storage"
)

// Commands accepted by a match actor. Replies go to buffered channels so
// an abandoned caller never blocks the actor.
type (
	applyCmd struct {
		actorID string
		action  engine.Action
		window  time.Duration
		reply   chan applyReply
	}
	applyReply struct {
		result engine.Result
		err    error
	}
	viewCmd struct {
		viewerID string
		reply    chan engine.PlayerView
	}
	snapshotCmd struct {
		reply chan engine.Snapshot
	}
	expireCmd struct {
		kind       engine.BallotKind
		generation uint64
	}
)

type windowTimer struct {
	generation uint64
	timer      *time.Timer
}

// actor owns one match: every command runs on its goroutine in inbox order.
type actor struct {
	id      string
	svc     *Service
	log     zerolog.Logger
	inbox   chan any
	quit    chan struct{}
	done    chan struct{}
	windows map[engine.BallotKind]time.Duration
	timers  map[engine.BallotKind]*windowTimer
}

func newActor(svc *Service, id string) *actor {
	return &actor{
		id:      id,
		svc:     svc,
		log:     svc.log.With().Str("match", id).Logger(),
		inbox:   make(chan any, 64),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		windows: make(map[engine.BallotKind]time.Duration),
		timers:  make(map[engine.BallotKind]*windowTimer),
	}
}

func (a *actor) Run() {
	defer close(a.done)
	defer a.stopTimers()
	for {
		select {
		case cmd := <-a.inbox:
			a.handle(cmd)
		case <-a.quit:
			return
		}
	}
}

func (a *actor) stop() {
	select {
	case <-a.quit:
	default:
		close(a.quit)
	}
	<-a.done
}

// post enqueues a command from a timer callback.
func (a *actor) post(cmd any) {
	select {
	case a.inbox <- cmd:
	case <-a.done:
	}
}

func (a *actor) handle(cmd any) {
	m, ok := a.svc.store.Get(a.id)
	switch c := cmd.(type) {
	case applyCmd:
		if !ok {
			c.reply <- applyReply{err: ErrMatchNotFound}
			return
		}
		res, err := a.apply(m, c.actorID, c.action, c.window)
		c.reply <- applyReply{result: res, err: err}
	case expireCmd:
		if !ok {
			return
		}
		if t, running := a.timers[c.kind]; running && t.generation == c.generation {
			delete(a.timers, c.kind)
		}
		action := engine.Action{Type: engine.ActionExpireVoting, Ballot: c.kind, Generation: c.generation}
		if _, err := a.apply(m, "", action, 0); err != nil {
			a.log.Debug().Err(err).Str("ballot", string(c.kind)).Msg("expiry rejected")
		}
	case viewCmd:
		if !ok {
			close(c.reply)
			return
		}
		c.reply <- m.ViewFor(c.viewerID)
	case snapshotCmd:
		if !ok {
			close(c.reply)
			return
		}
		c.reply <- m.Snapshot()
	default:
		a.log.Warn().Msgf("unknown command %T", cmd)
	}
}

// apply runs one action and every follow-up it triggers: timers are
// re-synced, the next phase ballot is opened when configured, a finished
// match is archived and the notifier sees the result.
func (a *actor) apply(m *engine.Match, actorID string, action engine.Action, window time.Duration) (engine.Result, error) {
	wasTerminal := m.IsTerminal()
	res, err := m.Apply(actorID, action)
	if err != nil {
		return res, err
	}
	a.log.Debug().
		Str("action", string(action.Type)).
		Str("actor", actorID).
		Str("outcome", string(res.Outcome)).
		Msg("action applied")

	if action.Type == engine.ActionOpenVoting && window > 0 {
		a.windows[action.Ballot] = window
	}
	if res.Outcome == engine.OutcomePhaseChanged {
		a.autoOpen(m)
	}
	a.syncTimers(m)

	if !wasTerminal && m.IsTerminal() {
		a.finish(m)
	}
	if res.Outcome != engine.OutcomeNoop {
		a.notify(m, res)
	}
	return res, nil
}

// autoOpen starts the window for the main ballot of the current phase.
func (a *actor) autoOpen(m *engine.Match) {
	if !a.svc.autoOpen || m.IsTerminal() {
		return
	}
	kind := engine.BallotVillage
	if m.Phase == engine.PhaseNight {
		kind = engine.BallotWolf
	}
	res, err := m.OpenVoting(kind)
	if err != nil {
		a.log.Warn().Err(err).Str("ballot", string(kind)).Msg("auto open failed")
		return
	}
	a.notify(m, res)
}

// syncTimers keeps exactly one timer per open ballot, keyed by the ballot
// generation. Closed or superseded windows lose their timer.
func (a *actor) syncTimers(m *engine.Match) {
	for _, kind := range engine.BallotKinds() {
		b, _ := m.Ballot(kind)
		t, running := a.timers[kind]
		if running && (m.IsTerminal() || !b.Open() || t.generation != b.Generation()) {
			t.timer.Stop()
			delete(a.timers, kind)
			running = false
		}
		if running || m.IsTerminal() || !b.Open() {
			continue
		}
		generation := b.Generation()
		a.timers[kind] = &windowTimer{
			generation: generation,
			timer: time.AfterFunc(a.windowFor(kind), func() {
				a.post(expireCmd{kind: kind, generation: generation})
			}),
		}
	}
}

func (a *actor) windowFor(kind engine.BallotKind) time.Duration {
	if d, ok := a.windows[kind]; ok {
		return d
	}
	return a.svc.voteWindow
}

func (a *actor) stopTimers() {
	for kind, t := range a.timers {
		t.timer.Stop()
		delete(a.timers, kind)
	}
}

// finish hands the verdict and role assignments to the archive.
func (a *actor) finish(m *engine.Match) {
	a.log.Info().Str("verdict", string(m.Verdict)).Int("round", m.Round).Msg("match finished")
	if a.svc.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.svc.archiveTimeout)
	defer cancel()

	faction, _ := m.Verdict.Faction()
	if err := a.svc.archive.UpdateMatchResult(ctx, m.ID, storage.MatchFinished, string(faction)); err != nil {
		a.log.Error().Err(err).Msg("archive match result")
		return
	}
	var participations []storage.Participation
	for _, p := range m.Roster().All() {
		participations = append(participations, storage.Participation{
			ParticipantID: p.ID,
			MatchID:       m.ID,
			Role:          string(p.Kind()),
		})
	}
	if err := a.svc.archive.AppendParticipations(ctx, participations); err != nil {
		a.log.Error().Err(err).Msg("archive participations")
	}
}

func (a *actor) notify(m *engine.Match, res engine.Result) {
	if a.svc.notify == nil {
		return
	}
	a.svc.notify(newUpdate(m, res))
}
