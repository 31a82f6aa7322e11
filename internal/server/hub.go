package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"werewolf/internal/engine"
	"werewolf/internal/lobby"
	"werewolf/internal/protocol"
	"werewolf/internal/session"
)

const requestTimeout = 5 * time.Second

// systemActions may only be sent by the lobby host and run without an actor.
var systemActions = map[engine.ActionType]bool{
	engine.ActionResolveVillageVote: true,
	engine.ActionResolveWolfVote:    true,
	engine.ActionResolveSheriffVote: true,
	engine.ActionOpenVoting:         true,
	engine.ActionAdvanceTurn:        true,
}

// Hub manages WebSocket connections for one game room: the lobby before the
// match starts and the live match afterwards.
type Hub struct {
	mu         sync.Mutex
	gameID     string
	lobby      *lobby.Lobby
	sessions   *session.Service
	log        zerolog.Logger
	started    bool
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan IncomingMessage
	updates    chan session.Update
	quit       chan struct{}
}

func NewHub(gameID string, lob *lobby.Lobby, sessions *session.Service, log zerolog.Logger) *Hub {
	return &Hub{
		gameID:     gameID,
		lobby:      lob,
		sessions:   sessions,
		log:        log.With().Str("game", gameID).Logger(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan IncomingMessage, 256),
		updates:    make(chan session.Update, 256),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.sendLobbyUpdate()
			if h.started {
				h.sendStateToClient(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.incoming:
			h.handleMessage(msg)

		case u := <-h.updates:
			h.broadcastUpdate(u)

		case <-h.quit:
			return
		}
	}
}

// Stop ends the hub loop.
func (h *Hub) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

// deliver hands a session update to the hub loop without blocking the
// match actor. A dropped update is superseded by the next one, which
// carries full views.
func (h *Hub) deliver(u session.Update) {
	select {
	case h.updates <- u:
	case <-h.quit:
	default:
		h.log.Warn().Str("outcome", string(u.Result.Outcome)).Msg("update buffer full, dropping")
	}
}

func (h *Hub) handleMessage(msg IncomingMessage) {
	h.mu.Lock()
	registered := h.clients[msg.Client]
	h.mu.Unlock()
	if !registered {
		return
	}
	switch msg.Envelope.Type {
	case protocol.MsgJoin:
		h.handleJoin(msg)
	case protocol.MsgReady:
		h.handleReady(msg)
	case protocol.MsgStartGame:
		h.handleStartGame(msg)
	default:
		h.handleGameAction(msg)
	}
}

func (h *Hub) handleJoin(msg IncomingMessage) {
	join, err := protocol.DecodePayload[protocol.JoinMsg](msg.Envelope)
	if err != nil {
		h.sendError(msg.Client, errors.New("invalid join message"))
		return
	}
	if err := h.lobby.Join(join.PlayerID, join.Name, join.Secret); err != nil {
		h.sendError(msg.Client, err)
		return
	}
	msg.Client.PlayerID = join.PlayerID
	h.sendLobbyUpdate()
	if h.started {
		h.sendStateToClient(msg.Client)
	}
}

func (h *Hub) handleReady(msg IncomingMessage) {
	ready, err := protocol.DecodePayload[protocol.ReadyMsg](msg.Envelope)
	if err != nil {
		h.sendError(msg.Client, errors.New("invalid ready message"))
		return
	}
	if err := h.lobby.SetReady(msg.Client.PlayerID, ready.Ready); err != nil {
		h.sendError(msg.Client, err)
		return
	}
	h.sendLobbyUpdate()
}

func (h *Hub) handleStartGame(msg IncomingMessage) {
	seats, err := h.lobby.Start(msg.Client.PlayerID)
	if err != nil {
		h.sendError(msg.Client, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	_, err = h.sessions.CreateMatch(ctx, session.CreateParams{
		ID:               h.gameID,
		Seats:            seats,
		Visibility:       h.lobby.Visibility,
		AccessSecretHash: h.lobby.SecretHash(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("create match")
		h.sendError(msg.Client, err)
		return
	}
	h.started = true
	h.log.Info().Int("players", len(seats)).Msg("match started")
	h.sendLobbyUpdate()
	h.broadcastState()
}

func (h *Hub) handleGameAction(msg IncomingMessage) {
	if !h.started {
		h.sendError(msg.Client, errors.New("game not started"))
		return
	}

	actorID := msg.Client.PlayerID
	actionType := engine.ActionType(msg.Envelope.Type)
	if actionType == engine.ActionExpireVoting {
		h.sendError(msg.Client, engine.ErrInvalidAction)
		return
	}
	if systemActions[actionType] {
		if !h.lobby.IsHost(actorID) {
			h.sendError(msg.Client, lobby.ErrNotHost)
			return
		}
		actorID = ""
	}

	payload, err := protocol.DecodePayload[protocol.ActionMsg](msg.Envelope)
	if err != nil {
		h.sendError(msg.Client, engine.Errorf(engine.ErrInvalidAction, "invalid payload"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	var res engine.Result
	if actionType == engine.ActionOpenVoting {
		window := time.Duration(payload.WindowSeconds) * time.Second
		res, err = h.sessions.OpenVoting(ctx, h.gameID, payload.Ballot, window)
	} else {
		res, err = h.sessions.Apply(ctx, h.gameID, actorID, engine.Action{
			Type:   actionType,
			Target: payload.Target,
			Text:   payload.Text,
			Ballot: payload.Ballot,
		})
	}
	if err != nil {
		h.sendError(msg.Client, err)
		return
	}
	msg.Client.SendEnvelope(protocol.MustEnvelope(protocol.MsgResult, res))
}

// broadcastUpdate sends each client the events it may see followed by its
// refreshed view.
func (h *Hub) broadcastUpdate(u session.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		viewer := client.viewerID()
		for _, ev := range u.EventsFor(viewer) {
			client.SendEnvelope(protocol.MustEnvelope(protocol.MsgEvent, ev))
		}
		client.SendEnvelope(stateEnvelope(client, u.ViewFor(viewer)))
	}
}

func (h *Hub) broadcastState() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.sendStateToClient(client)
	}
}

func (h *Hub) sendStateToClient(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	view, err := h.sessions.ViewFor(ctx, h.gameID, client.viewerID())
	if err != nil {
		h.log.Warn().Err(err).Msg("view for client")
		return
	}
	client.SendEnvelope(stateEnvelope(client, view))
}

func stateEnvelope(client *Client, view engine.PlayerView) protocol.Envelope {
	if client.Type == ClientSpectator {
		return protocol.MustEnvelope(protocol.MsgPublicState, view)
	}
	return protocol.MustEnvelope(protocol.MsgPlayerState, view)
}

func (h *Hub) sendLobbyUpdate() {
	players := h.lobby.GetPlayers()
	lps := make([]protocol.LobbyPlayer, len(players))
	for i, p := range players {
		lps[i] = protocol.LobbyPlayer{ID: p.ID, Name: p.Name, Ready: p.Ready}
	}
	env := protocol.MustEnvelope(protocol.MsgLobbyUpdate, protocol.LobbyUpdate{
		GameID:  h.gameID,
		Players: lps,
		Host:    h.lobby.Host(),
		Started: h.lobby.IsStarted(),
	})
	h.broadcastAll(env)
}

func (h *Hub) broadcastAll(env protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Msg("broadcast marshal")
		return
	}
	for client := range h.clients {
		client.enqueue(data)
	}
}

func (h *Hub) sendError(client *Client, err error) {
	client.SendEnvelope(protocol.MustEnvelope(protocol.MsgError, protocol.ErrorFor(err)))
}
