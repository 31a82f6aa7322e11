package engine

import (
	"strings"
	"unicode/utf8"
)

// ChatMessage is one entry of the match chat log.
type ChatMessage struct {
	Seq      int      `json:"seq"`
	Round    int      `json:"round"`
	Phase    Phase    `json:"phase"`
	Sender   string   `json:"sender"`
	Text     string   `json:"text"`
	Audience Audience `json:"audience,omitempty"`
}

// postChat broadcasts to everyone during the day; at night only living
// wolves may talk, and only to each other.
func (m *Match) postChat(senderID, text string) (Result, error) {
	sender, err := m.LivingActor(senderID)
	if err != nil {
		return Result{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, Errorf(ErrInvalidMessage, "message is empty")
	}
	if limit := m.Config.MaxChatLength; limit > 0 && utf8.RuneCountInString(text) > limit {
		return Result{}, Errorf(ErrInvalidMessage, "message longer than %d characters", limit)
	}
	audience := AudienceAll
	if m.Phase == PhaseNight {
		if !sender.IsWolf() {
			return Result{}, Errorf(ErrWrongPhase, "only wolves may talk at night")
		}
		audience = AudienceWolves
	}

	msg := ChatMessage{
		Seq:      len(m.chat) + 1,
		Round:    m.Round,
		Phase:    m.Phase,
		Sender:   sender.ID,
		Text:     text,
		Audience: audience,
	}
	m.chat = append(m.chat, msg)
	return Result{
		Outcome: OutcomeChatPosted,
		Events: []Event{{
			Type:     EventChat,
			Player:   sender.ID,
			Audience: audience,
			Data:     msg,
		}},
	}, nil
}

// Chat returns a copy of the chat log.
func (m *Match) Chat() []ChatMessage {
	out := make([]ChatMessage, len(m.chat))
	copy(out, m.chat)
	return out
}
