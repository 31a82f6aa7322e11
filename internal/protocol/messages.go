package protocol

import (
	"errors"

	"werewolf/internal/engine"
)

// Message types: Server → Client
const (
	MsgLobbyUpdate = "lobby_update"
	MsgPlayerState = "player_state"
	MsgPublicState = "public_state"
	MsgResult      = "result"
	MsgEvent       = "event"
	MsgError       = "error"
)

// Message types: Client → Server
const (
	MsgJoin      = "join"
	MsgReady     = "ready"
	MsgStartGame = "start_game"
	// In-game actions use the same names as engine.ActionType.
)

// LobbyUpdate is sent to all clients when lobby state changes.
type LobbyUpdate struct {
	GameID  string        `json:"game_id"`
	Players []LobbyPlayer `json:"players"`
	Host    string        `json:"host"`
	Started bool          `json:"started"`
}

type LobbyPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// JoinMsg is sent by a player to join the game.
type JoinMsg struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Secret   string `json:"secret,omitempty"`
}

// ReadyMsg is sent by a player to toggle ready state.
type ReadyMsg struct {
	Ready bool `json:"ready"`
}

// ActionMsg is the payload of every in-game action.
type ActionMsg struct {
	Target string            `json:"target,omitempty"`
	Text   string            `json:"text,omitempty"`
	Ballot engine.BallotKind `json:"ballot,omitempty"`
	// WindowSeconds overrides the voting window for open_voting.
	WindowSeconds int `json:"window_seconds,omitempty"`
}

// ErrorMsg is sent to a client on error.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorFor maps an error to its wire form; engine errors keep their code.
func ErrorFor(err error) ErrorMsg {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return ErrorMsg{Code: string(engErr.Code), Message: engErr.Message}
	}
	return ErrorMsg{Code: "error", Message: err.Error()}
}
