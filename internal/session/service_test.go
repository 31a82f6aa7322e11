package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf/internal/engine"
	"werewolf/internal/storage"
	"werewolf/internal/storage/memory"
)

func testSeats() []engine.Seat {
	return []engine.Seat{
		{ID: "W1", Name: "Wolf One", Role: engine.KindWolf},
		{ID: "W2", Name: "Wolf Two", Role: engine.KindWolf},
		{ID: "B", Name: "Witch", Role: engine.KindWitch},
		{ID: "S", Name: "Seer", Role: engine.KindSeer},
		{ID: "V", Name: "Villager", Role: engine.KindVillager},
	}
}

// recorder collects notifier updates.
type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) notify(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) outcomes() []engine.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Outcome
	for _, u := range r.updates {
		out = append(out, u.Result.Outcome)
	}
	return out
}

func (r *recorder) last() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

func newTestService(t *testing.T, opts Options) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.Logger = zerolog.Nop()
	opts.Notify = rec.notify
	svc := NewService(opts)
	t.Cleanup(svc.Close)
	return svc, rec
}

func TestCreateMatchAndApply(t *testing.T) {
	svc, rec := newTestService(t, Options{})
	ctx := context.Background()

	snap, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseNight, snap.Phase)
	assert.Equal(t, 1, snap.Round)

	_, err = svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.ErrorIs(t, err, ErrMatchExists)

	res, err := svc.Apply(ctx, "m1", "W1", engine.Action{Type: engine.ActionWolfVote, Target: "V"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeVoteRecorded, res.Outcome)

	_, err = svc.Apply(ctx, "m1", "V", engine.Action{Type: engine.ActionWolfVote, Target: "S"})
	require.ErrorIs(t, err, engine.ErrWrongRole)

	_, err = svc.Apply(ctx, "nope", "V", engine.Action{Type: engine.ActionChat, Text: "hi"})
	require.ErrorIs(t, err, ErrMatchNotFound)

	assert.Equal(t, []engine.Outcome{engine.OutcomeVoteRecorded}, rec.outcomes())
}

func TestUpdateIsRedactedPerViewer(t *testing.T) {
	svc, rec := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "m1", "W1", engine.Action{Type: engine.ActionChat, Text: "the seer"})
	require.NoError(t, err)

	u := rec.last()
	assert.Len(t, u.EventsFor("W2"), 1)
	assert.Empty(t, u.EventsFor("V"))
	assert.Empty(t, u.EventsFor(""))
	assert.Len(t, u.ViewFor("W2").Chat, 1)
	assert.Empty(t, u.ViewFor("V").Chat)
}

func TestViewsAreSafeToShareAcrossGoroutines(t *testing.T) {
	svc, rec := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	view, err := svc.ViewFor(ctx, "m1", "S")
	require.NoError(t, err)

	marshaled := make(chan []byte)
	go func() {
		data, err := json.Marshal(view)
		assert.NoError(t, err)
		marshaled <- data
	}()
	_, err = svc.Apply(ctx, "m1", "S", engine.Action{Type: engine.ActionSeerReveal, Target: "W1"})
	require.NoError(t, err)
	<-marshaled

	assert.False(t, view.RoleState.(*engine.Seer).SeenThisNight)
	assert.True(t, rec.last().ViewFor("S").RoleState.(*engine.Seer).SeenThisNight)
}

func TestSnapshotViewAndTerminal(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	view, err := svc.ViewFor(ctx, "m1", "S")
	require.NoError(t, err)
	assert.Equal(t, engine.KindSeer, view.Role)

	done, err := svc.IsTerminal(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = svc.Snapshot(ctx, "missing")
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestVotingWindowExpires(t *testing.T) {
	svc, rec := newTestService(t, Options{VoteWindow: time.Hour})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "m1", "W1", engine.Action{Type: engine.ActionWolfVote, Target: "V"})
	require.NoError(t, err)
	opened, err := svc.OpenVoting(ctx, "m1", engine.BallotWolf, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeVotingOpened, opened.Outcome)

	// A lone wolf vote is not unanimous, so the expiry resolves to no victim.
	require.Eventually(t, func() bool {
		for _, o := range rec.outcomes() {
			if o == engine.OutcomeNoVictim {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	snap, err := svc.Snapshot(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, snap.Queue)
	for _, b := range snap.Ballots {
		assert.False(t, b.Open, "ballot %s", b.Kind)
	}
}

func TestQuorumBeatsTimer(t *testing.T) {
	svc, rec := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	_, err = svc.OpenVoting(ctx, "m1", engine.BallotWolf, 30*time.Millisecond)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, "m1", "W1", engine.Action{Type: engine.ActionWolfVote, Target: "S"})
	require.NoError(t, err)
	res, err := svc.Apply(ctx, "m1", "W2", engine.Action{Type: engine.ActionWolfVote, Target: "S"})
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	assert.Equal(t, engine.OutcomeVictimChosen, res.Resolution.Outcome)

	// The stopped timer must not resolve anything else.
	time.Sleep(80 * time.Millisecond)
	snap, err := svc.Snapshot(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, snap.Queue)
	assert.NotContains(t, rec.outcomes(), engine.OutcomeNoVictim)
}

func TestAutoOpenFollowsPhases(t *testing.T) {
	svc, _ := newTestService(t, Options{AutoOpen: true, VoteWindow: time.Hour})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	openBallots := func() []engine.BallotKind {
		snap, err := svc.Snapshot(ctx, "m1")
		require.NoError(t, err)
		var open []engine.BallotKind
		for _, b := range snap.Ballots {
			if b.Open {
				open = append(open, b.Kind)
			}
		}
		return open
	}
	assert.Equal(t, []engine.BallotKind{engine.BallotWolf}, openBallots())

	_, err = svc.Apply(ctx, "m1", "", engine.Action{Type: engine.ActionAdvanceTurn})
	require.NoError(t, err)
	assert.Equal(t, []engine.BallotKind{engine.BallotVillage}, openBallots())
}

func TestFinishedMatchIsArchived(t *testing.T) {
	archive := memory.NewStore()
	svc, rec := newTestService(t, Options{Archive: archive})
	ctx := context.Background()
	seats := []engine.Seat{
		{ID: "W", Role: engine.KindWolf},
		{ID: "B", Role: engine.KindWitch},
		{ID: "V", Role: engine.KindVillager},
	}
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: seats, Visibility: storage.VisibilityPrivate})
	require.NoError(t, err)

	rec0, err := archive.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, storage.MatchActive, rec0.Status)
	assert.Equal(t, storage.VisibilityPrivate, rec0.Visibility)

	_, err = svc.Apply(ctx, "m1", "B", engine.Action{Type: engine.ActionWitchKill, Target: "W"})
	require.NoError(t, err)
	res, err := svc.Apply(ctx, "m1", "", engine.Action{Type: engine.ActionAdvanceTurn})
	require.NoError(t, err)
	assert.Equal(t, engine.VerdictVillage, res.Verdict)
	assert.True(t, rec.last().Terminal)

	got, err := archive.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, storage.MatchFinished, got.Status)
	assert.Equal(t, "village", got.WinningFaction)

	history, err := archive.ListParticipations(ctx, "W")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "wolf", history[0].Role)

	_, err = svc.Apply(ctx, "m1", "V", engine.Action{Type: engine.ActionChat, Text: "gg"})
	require.ErrorIs(t, err, engine.ErrMatchFinished)
}

func TestArchiveFailureLeavesNoActor(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewStore()
	require.NoError(t, archive.CreateMatch(ctx, storage.MatchRecord{ID: "m1"}))
	svc, _ := newTestService(t, Options{Archive: archive})

	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
	_, err = svc.Snapshot(ctx, "m1")
	require.ErrorIs(t, err, ErrMatchNotFound)

	closed := make(chan struct{})
	go func() {
		svc.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a match that never started")
	}
}

func TestRemoveAndClose(t *testing.T) {
	store := NewMemoryStore()
	svc, _ := newTestService(t, Options{Store: store})
	ctx := context.Background()
	_, err := svc.CreateMatch(ctx, CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)
	_, err = svc.CreateMatch(ctx, CreateParams{ID: "m2", Seats: testSeats()})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, store.IDs())

	require.NoError(t, svc.Remove("m1"))
	require.ErrorIs(t, svc.Remove("m1"), ErrMatchNotFound)
	assert.Equal(t, []string{"m2"}, store.IDs())

	svc.Close()
	_, err = svc.Snapshot(ctx, "m2")
	require.ErrorIs(t, err, ErrClosed)
	_, err = svc.CreateMatch(ctx, CreateParams{ID: "m3", Seats: testSeats()})
	require.ErrorIs(t, err, ErrClosed)
}

func TestCanceledContext(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.CreateMatch(context.Background(), CreateParams{ID: "m1", Seats: testSeats()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Snapshot(ctx, "m1")
	// The inbox may accept before the cancellation is observed.
	if err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}
}
