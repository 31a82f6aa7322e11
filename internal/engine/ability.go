package engine

import "fmt"

// ActionType identifies player and system actions sent to Match.Apply.
type ActionType string

const (
	ActionVillageVote        ActionType = "village_vote"
	ActionWolfVote           ActionType = "wolf_vote"
	ActionSheriffVote        ActionType = "sheriff_vote"
	ActionResolveVillageVote ActionType = "resolve_village_vote"
	ActionResolveWolfVote    ActionType = "resolve_wolf_vote"
	ActionResolveSheriffVote ActionType = "resolve_sheriff_vote"
	ActionOpenVoting         ActionType = "open_voting"
	ActionExpireVoting       ActionType = "expire_voting"
	ActionSeerReveal         ActionType = "seer_reveal"
	ActionWitchHeal          ActionType = "witch_heal"
	ActionWitchKill          ActionType = "witch_kill"
	ActionHunterRevenge      ActionType = "hunter_revenge"
	ActionElectSuccessor     ActionType = "elect_successor"
	ActionChat               ActionType = "chat"
	ActionAdvanceTurn        ActionType = "advance_turn"
)

// Action is a player's or the system's action input.
type Action struct {
	Type ActionType `json:"type"`
	// Params depend on Type:
	// votes and abilities: Target (participant id)
	// chat: Text
	// open_voting, expire_voting: Ballot, and Generation for expiry
	Target     string     `json:"target,omitempty"`
	Text       string     `json:"text,omitempty"`
	Ballot     BallotKind `json:"ballot,omitempty"`
	Generation uint64     `json:"generation,omitempty"`
}

// Outcome names what an accepted action did.
type Outcome string

const (
	OutcomeVoteRecorded       Outcome = "vote_recorded"
	OutcomeEliminationQueued  Outcome = "elimination_queued"
	OutcomeSheriffElected     Outcome = "sheriff_elected"
	OutcomeTieRevote          Outcome = "tie_revote"
	OutcomeTieFinal           Outcome = "tie_final"
	OutcomeNoVotes            Outcome = "no_votes"
	OutcomeVictimChosen       Outcome = "victim_chosen"
	OutcomeNoVictim           Outcome = "no_victim"
	OutcomeVotingOpened       Outcome = "voting_opened"
	OutcomeNoop               Outcome = "noop"
	OutcomeRevealed           Outcome = "revealed"
	OutcomeHealed             Outcome = "healed"
	OutcomeCursed             Outcome = "cursed"
	OutcomeRevengeArmed       Outcome = "revenge_armed"
	OutcomeRevengeFired       Outcome = "revenge_fired"
	OutcomeSheriffTransferred Outcome = "sheriff_transferred"
	OutcomeChatPosted         Outcome = "chat_posted"
	OutcomePhaseChanged       Outcome = "phase_changed"
	OutcomeMatchFinished      Outcome = "match_finished"
)

// Result describes an accepted action.
type Result struct {
	Outcome    Outcome        `json:"outcome"`
	Target     string         `json:"target,omitempty"`
	Role       RoleKind       `json:"role,omitempty"`
	Tally      map[string]int `json:"tally,omitempty"`
	Verdict    Verdict        `json:"verdict,omitempty"`
	Generation uint64         `json:"generation,omitempty"`
	// Resolution is set when a vote completed the quorum of an open
	// voting window and the ballot resolved in the same action.
	Resolution *Result `json:"resolution,omitempty"`
	Events     []Event `json:"events,omitempty"`
}

// EventType identifies events emitted by the engine.
type EventType string

const (
	EventVoteCast           EventType = "vote_cast"
	EventVoteResolved       EventType = "vote_resolved"
	EventVotingOpened       EventType = "voting_opened"
	EventEliminationQueued  EventType = "elimination_queued"
	EventEliminationRetract EventType = "elimination_retracted"
	EventEliminated         EventType = "eliminated"
	EventSheriffElected     EventType = "sheriff_elected"
	EventSheriffTransferred EventType = "sheriff_transferred"
	EventSheriffVacated     EventType = "sheriff_vacated"
	EventAbilityUsed        EventType = "ability_used"
	EventRevengeFired       EventType = "revenge_fired"
	EventChat               EventType = "chat"
	EventPhaseChange        EventType = "phase_change"
	EventMatchFinished      EventType = "match_finished"
)

// Audience restricts who may see an event. Empty means everyone.
type Audience string

const (
	AudienceAll    Audience = ""
	AudienceWolves Audience = "wolves"
	// AudienceActor events are only for Event.Player.
	AudienceActor Audience = "actor"
)

// Event is emitted by the engine after state changes.
type Event struct {
	Type     EventType   `json:"type"`
	Player   string      `json:"player,omitempty"`
	Audience Audience    `json:"audience,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// Ability defines a role's special action.
type Ability interface {
	Action() ActionType
	// ValidTargets returns participant ids the actor may target now, or nil
	// when the actor cannot use the ability at all.
	ValidTargets(m *Match, actorID string) []string
	// Apply validates and executes the ability. It must not mutate
	// anything when it returns an error.
	Apply(m *Match, actorID string, action Action) (Result, error)
}

// AbilityRegistry maps action types to their abilities.
type AbilityRegistry struct {
	abilities map[ActionType]Ability
	order     []ActionType
}

func NewAbilityRegistry() *AbilityRegistry {
	return &AbilityRegistry{abilities: make(map[ActionType]Ability)}
}

func (r *AbilityRegistry) Register(a Ability) {
	if _, ok := r.abilities[a.Action()]; !ok {
		r.order = append(r.order, a.Action())
	}
	r.abilities[a.Action()] = a
}

func (r *AbilityRegistry) Get(action ActionType) (Ability, error) {
	a, ok := r.abilities[action]
	if !ok {
		return nil, fmt.Errorf("no ability registered for action %s", action)
	}
	return a, nil
}

// All returns registered abilities in registration order.
func (r *AbilityRegistry) All() []Ability {
	out := make([]Ability, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.abilities[t])
	}
	return out
}
