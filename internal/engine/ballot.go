package engine

import (
	"maps"
	"sort"
)

// BallotKind identifies one of the three independently tallied ballots.
type BallotKind string

const (
	BallotVillage BallotKind = "village"
	BallotWolf    BallotKind = "wolf"
	BallotSheriff BallotKind = "sheriff"
)

// BallotKinds returns every ballot kind.
func BallotKinds() []BallotKind {
	return []BallotKind{BallotVillage, BallotWolf, BallotSheriff}
}

// Ballot maps voters to targets. Re-voting overwrites.
type Ballot struct {
	Kind BallotKind

	votes     map[string]string
	repeatTie bool
	open      bool
	// generation is bumped every time the ballot is cleared so a stale
	// window expiry can tell it no longer applies.
	generation uint64
}

func newBallot(kind BallotKind) *Ballot {
	return &Ballot{Kind: kind, votes: make(map[string]string)}
}

func (b *Ballot) cast(voter, target string) {
	b.votes[voter] = target
}

// Votes returns a copy of the current entries.
func (b *Ballot) Votes() map[string]string {
	return maps.Clone(b.votes)
}

func (b *Ballot) Has(voter string) bool {
	_, ok := b.votes[voter]
	return ok
}

func (b *Ballot) Len() int {
	return len(b.votes)
}

// Open reports whether a voting window is running.
func (b *Ballot) Open() bool {
	return b.open
}

func (b *Ballot) Generation() uint64 {
	return b.generation
}

// RepeatTie reports whether the last resolution was a first tie.
func (b *Ballot) RepeatTie() bool {
	return b.repeatTie
}

// clear drops every entry and closes the window.
func (b *Ballot) clear() {
	clear(b.votes)
	b.open = false
	b.generation++
}

// reset clears the ballot and forgets any tie from the previous phase.
func (b *Ballot) reset() {
	b.clear()
	b.repeatTie = false
}

// Tally counts votes per target. weight returns how many increments a
// voter's single entry is worth; keep filters out entries that no longer count.
func Tally(votes map[string]string, weight func(voter string) int, keep func(voter, target string) bool) map[string]int {
	tally := make(map[string]int)
	for voter, target := range votes {
		if keep != nil && !keep(voter, target) {
			continue
		}
		w := 1
		if weight != nil {
			w = weight(voter)
		}
		tally[target] += w
	}
	return tally
}

// Leaders returns the highest tally and the targets that reach it, sorted.
func Leaders(tally map[string]int) (int, []string) {
	top := 0
	var leaders []string
	for target, n := range tally {
		switch {
		case n > top:
			top = n
			leaders = []string{target}
		case n == top:
			leaders = append(leaders, target)
		}
	}
	sort.Strings(leaders)
	return top, leaders
}
