package engine

// Typed wrappers around Apply, one per intake operation.

func (m *Match) CastVillageVote(voterID, targetID string) (Result, error) {
	return m.Apply(voterID, Action{Type: ActionVillageVote, Target: targetID})
}

func (m *Match) CastWolfVote(voterID, targetID string) (Result, error) {
	return m.Apply(voterID, Action{Type: ActionWolfVote, Target: targetID})
}

func (m *Match) CastSheriffVote(voterID, targetID string) (Result, error) {
	return m.Apply(voterID, Action{Type: ActionSheriffVote, Target: targetID})
}

func (m *Match) ResolveVillageVote() (Result, error) {
	return m.Apply("", Action{Type: ActionResolveVillageVote})
}

func (m *Match) ResolveWolfVote() (Result, error) {
	return m.Apply("", Action{Type: ActionResolveWolfVote})
}

func (m *Match) ResolveSheriffVote() (Result, error) {
	return m.Apply("", Action{Type: ActionResolveSheriffVote})
}

// OpenVoting starts a voting window; the returned generation identifies it.
func (m *Match) OpenVoting(kind BallotKind) (Result, error) {
	return m.Apply("", Action{Type: ActionOpenVoting, Ballot: kind})
}

// ExpireVoting is delivered when the window for generation timed out.
func (m *Match) ExpireVoting(kind BallotKind, generation uint64) (Result, error) {
	return m.Apply("", Action{Type: ActionExpireVoting, Ballot: kind, Generation: generation})
}

func (m *Match) UseSeerReveal(seerID, targetID string) (Result, error) {
	return m.Apply(seerID, Action{Type: ActionSeerReveal, Target: targetID})
}

func (m *Match) UseWitchHeal(witchID, targetID string) (Result, error) {
	return m.Apply(witchID, Action{Type: ActionWitchHeal, Target: targetID})
}

func (m *Match) UseWitchKill(witchID, targetID string) (Result, error) {
	return m.Apply(witchID, Action{Type: ActionWitchKill, Target: targetID})
}

func (m *Match) FireHunterRevenge(hunterID, targetID string) (Result, error) {
	return m.Apply(hunterID, Action{Type: ActionHunterRevenge, Target: targetID})
}

func (m *Match) ElectSuccessor(sheriffID, successorID string) (Result, error) {
	return m.Apply(sheriffID, Action{Type: ActionElectSuccessor, Target: successorID})
}

func (m *Match) PostChatMessage(senderID, text string) (Result, error) {
	return m.Apply(senderID, Action{Type: ActionChat, Text: text})
}

func (m *Match) AdvanceTurn() (Result, error) {
	return m.Apply("", Action{Type: ActionAdvanceTurn})
}
