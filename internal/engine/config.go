package engine

// MatchConfig holds rule parameters for a match.
type MatchConfig struct {
	SheriffWeight int // tally increments for the sheriff's day-vote entry (default 2)
	MaxChatLength int // longest accepted chat message in runes (default 500)
}

func DefaultConfig() MatchConfig {
	return MatchConfig{
		SheriffWeight: 2,
		MaxChatLength: 500,
	}
}

// WithDefaults fills every unset or non-positive field from DefaultConfig.
func (c MatchConfig) WithDefaults() MatchConfig {
	def := DefaultConfig()
	if c.SheriffWeight < 1 {
		c.SheriffWeight = def.SheriffWeight
	}
	if c.MaxChatLength <= 0 {
		c.MaxChatLength = def.MaxChatLength
	}
	return c
}
