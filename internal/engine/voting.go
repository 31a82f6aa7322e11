package engine

// ballotPhase is the phase in which each ballot is cast.
var ballotPhase = map[BallotKind]Phase{
	BallotVillage: PhaseDay,
	BallotWolf:    PhaseNight,
	BallotSheriff: PhaseDay,
}

func (m *Match) ballotFor(kind BallotKind) (*Ballot, error) {
	b, ok := m.ballots[kind]
	if !ok {
		return nil, Errorf(ErrInvalidAction, "unknown ballot %q", kind)
	}
	if err := m.RequirePhase(ballotPhase[kind]); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *Match) castVote(kind BallotKind, voterID, targetID string) (Result, error) {
	b, err := m.ballotFor(kind)
	if err != nil {
		return Result{}, err
	}
	voter, err := m.LivingActor(voterID)
	if err != nil {
		return Result{}, err
	}
	target, ok := m.roster.Find(targetID)
	if !ok || !target.Alive {
		return Result{}, ErrInvalidTarget
	}
	switch kind {
	case BallotWolf:
		if !voter.IsWolf() {
			return Result{}, Errorf(ErrWrongRole, "only wolves vote at night")
		}
		if target.IsWolf() {
			return Result{}, Errorf(ErrInvalidTarget, "wolves cannot target a wolf")
		}
	case BallotSheriff:
		if _, ok := m.livingSheriff(); ok {
			return Result{}, ErrSheriffExists
		}
	}

	b.cast(voter.ID, target.ID)
	res := Result{
		Outcome: OutcomeVoteRecorded,
		Target:  target.ID,
		Events: []Event{{
			Type:     EventVoteCast,
			Player:   voter.ID,
			Audience: ballotAudience(kind),
			Data:     map[string]interface{}{"ballot": kind, "target": target.ID},
		}},
	}

	if b.open && m.quorum(kind) {
		resolution := m.resolveBallot(kind)
		res.Resolution = &resolution
	}
	return res, nil
}

func ballotAudience(kind BallotKind) Audience {
	if kind == BallotWolf {
		return AudienceWolves
	}
	return AudienceAll
}

// eligibleVoters returns who must vote for kind to reach quorum.
func (m *Match) eligibleVoters(kind BallotKind) []*Participant {
	if kind == BallotWolf {
		return m.roster.LivingWolves()
	}
	return m.roster.Living()
}

// quorum reports whether every eligible voter has an entry.
func (m *Match) quorum(kind BallotKind) bool {
	b := m.ballots[kind]
	voters := m.eligibleVoters(kind)
	if len(voters) == 0 {
		return false
	}
	for _, p := range voters {
		if !b.Has(p.ID) {
			return false
		}
	}
	return true
}

func (m *Match) livingSheriff() (*Participant, bool) {
	s, ok := m.roster.Sheriff()
	if !ok || !s.Alive {
		return nil, false
	}
	return s, true
}

func (m *Match) resolve(kind BallotKind) (Result, error) {
	if _, err := m.ballotFor(kind); err != nil {
		return Result{}, err
	}
	return m.resolveBallot(kind), nil
}

func (m *Match) resolveBallot(kind BallotKind) Result {
	var res Result
	switch kind {
	case BallotWolf:
		res = m.resolveWolf()
	default:
		res = m.resolveMajority(kind)
	}
	res.Generation = m.ballots[kind].generation
	res.Events = append(res.Events, Event{
		Type:     EventVoteResolved,
		Audience: ballotAudience(kind),
		Data: map[string]interface{}{
			"ballot": kind, "outcome": res.Outcome, "target": res.Target, "tally": res.Tally,
		},
	})
	return res
}

// resolveMajority runs the plurality algorithm shared by the village and
// sheriff ballots: a single leader wins, a first tie asks for a revote and a
// second consecutive tie resolves nothing.
func (m *Match) resolveMajority(kind BallotKind) Result {
	b := m.ballots[kind]
	weight := func(string) int { return 1 }
	if kind == BallotVillage {
		if s, ok := m.livingSheriff(); ok {
			weight = func(voter string) int {
				if voter == s.ID {
					return m.Config.SheriffWeight
				}
				return 1
			}
		}
	}
	tally := Tally(b.votes, weight, func(voter, target string) bool {
		return m.roster.IsAlive(voter) && m.roster.IsAlive(target)
	})
	if len(tally) == 0 {
		b.clear()
		return Result{Outcome: OutcomeNoVotes}
	}

	_, leaders := Leaders(tally)
	if len(leaders) > 1 {
		wasOpen := b.open
		b.clear()
		if b.repeatTie {
			b.repeatTie = false
			return Result{Outcome: OutcomeTieFinal, Tally: tally}
		}
		b.repeatTie = true
		b.open = wasOpen
		return Result{Outcome: OutcomeTieRevote, Tally: tally}
	}

	winner := leaders[0]
	b.repeatTie = false
	b.clear()
	if kind == BallotSheriff {
		m.roster.SetSheriff(winner, true)
		return Result{
			Outcome: OutcomeSheriffElected,
			Target:  winner,
			Tally:   tally,
			Events:  []Event{{Type: EventSheriffElected, Player: winner}},
		}
	}
	m.queue.Enqueue(m.roster, winner)
	return Result{
		Outcome: OutcomeEliminationQueued,
		Target:  winner,
		Tally:   tally,
		Events:  []Event{{Type: EventEliminationQueued, Player: winner}},
	}
}

// resolveWolf requires every living wolf to agree on one target.
func (m *Match) resolveWolf() Result {
	b := m.ballots[BallotWolf]
	wolves := len(m.roster.LivingWolves())
	tally := Tally(b.votes, nil, func(voter, target string) bool {
		v, ok := m.roster.Find(voter)
		if !ok || !v.Alive || !v.IsWolf() {
			return false
		}
		t, ok := m.roster.Find(target)
		return ok && t.Alive && !t.IsWolf()
	})
	b.clear()

	top, leaders := Leaders(tally)
	if wolves == 0 || len(leaders) != 1 || top != wolves {
		return Result{Outcome: OutcomeNoVictim, Tally: tally}
	}
	victim := leaders[0]
	m.queue.Enqueue(m.roster, victim)
	return Result{
		Outcome: OutcomeVictimChosen,
		Target:  victim,
		Tally:   tally,
		Events: []Event{{
			Type:     EventEliminationQueued,
			Player:   victim,
			Audience: AudienceWolves,
		}},
	}
}

// openVoting starts a voting window for kind. Opening an already open
// window returns its current generation.
func (m *Match) openVoting(kind BallotKind) (Result, error) {
	b, err := m.ballotFor(kind)
	if err != nil {
		return Result{}, err
	}
	if kind == BallotSheriff {
		if _, ok := m.livingSheriff(); ok {
			return Result{}, ErrSheriffExists
		}
	}
	if !b.open {
		b.open = true
	}
	res := Result{
		Outcome:    OutcomeVotingOpened,
		Generation: b.generation,
		Events: []Event{{
			Type:     EventVotingOpened,
			Audience: ballotAudience(kind),
			Data:     map[string]interface{}{"ballot": kind, "generation": b.generation},
		}},
	}
	if m.quorum(kind) {
		resolution := m.resolveBallot(kind)
		res.Resolution = &resolution
	}
	return res, nil
}

// expireVoting resolves kind when its window timed out. An expiry for a
// window that already closed or was superseded is a no-op.
func (m *Match) expireVoting(kind BallotKind, generation uint64) (Result, error) {
	b, ok := m.ballots[kind]
	if !ok {
		return Result{}, Errorf(ErrInvalidAction, "unknown ballot %q", kind)
	}
	if !b.open || b.generation != generation || m.Phase != ballotPhase[kind] {
		return Result{Outcome: OutcomeNoop, Generation: b.generation}, nil
	}
	return m.resolveBallot(kind), nil
}
