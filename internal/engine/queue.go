package engine

import "slices"

// EliminationQueue stages deaths until the next turn advance.
type EliminationQueue struct {
	ids []string
}

// Enqueue adds id if it is alive and not already queued.
func (q *EliminationQueue) Enqueue(r *Roster, id string) bool {
	if !r.IsAlive(id) || q.Contains(id) {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

// Retract removes id, keeping the order of the remaining entries.
func (q *EliminationQueue) Retract(id string) bool {
	i := slices.Index(q.ids, id)
	if i < 0 {
		return false
	}
	q.ids = slices.Delete(q.ids, i, i+1)
	return true
}

func (q *EliminationQueue) Contains(id string) bool {
	return slices.Contains(q.ids, id)
}

// IDs returns a copy of the queued ids in insertion order.
func (q *EliminationQueue) IDs() []string {
	return slices.Clone(q.ids)
}

func (q *EliminationQueue) Len() int {
	return len(q.ids)
}

// take empties the queue and returns what it held.
func (q *EliminationQueue) take() []string {
	ids := q.ids
	q.ids = nil
	return ids
}
