package engine

import "fmt"

// Phase is the day/night alternation of an active match.
type Phase int

const (
	PhaseNight Phase = iota // covert role actions, wolf vote
	PhaseDay                // public deliberation, village and sheriff votes
)

var phaseNames = map[Phase]string{
	PhaseNight: "night",
	PhaseDay:   "day",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for k, v := range phaseNames {
		if v == string(b) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Status is the match lifecycle.
type Status int

const (
	StatusActive Status = iota
	StatusFinished
)

var statusNames = map[Status]string{
	StatusActive:   "active",
	StatusFinished: "finished",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
