package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"werewolf/internal/lobby"
	qr "werewolf/internal/qrcode"
	"werewolf/internal/session"
	"werewolf/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options wires the handler dependencies.
type Options struct {
	Lobbies *lobby.Manager
	Archive storage.Store
	Session session.Options
	// PublicURL prefixes join links; empty uses the request host.
	PublicURL string
	Logger    zerolog.Logger
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	LobbyMgr  *lobby.Manager
	Sessions  *session.Service
	Archive   storage.Store
	PublicURL string
	log       zerolog.Logger

	mu   sync.Mutex
	hubs map[string]*Hub
}

func NewHandlers(opts Options) *Handlers {
	h := &Handlers{
		LobbyMgr:  opts.Lobbies,
		Archive:   opts.Archive,
		PublicURL: strings.TrimRight(opts.PublicURL, "/"),
		log:       opts.Logger,
		hubs:      make(map[string]*Hub),
	}
	if h.LobbyMgr == nil {
		h.LobbyMgr = lobby.NewManager(lobby.Settings{})
	}
	sessionOpts := opts.Session
	sessionOpts.Archive = opts.Archive
	sessionOpts.Logger = opts.Logger
	sessionOpts.Notify = h.dispatch
	h.Sessions = session.NewService(sessionOpts)
	return h
}

// dispatch routes a session update to the hub of its match.
func (h *Handlers) dispatch(u session.Update) {
	if hub := h.hub(u.MatchID); hub != nil {
		hub.deliver(u)
	}
}

func (h *Handlers) hub(id string) *Hub {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hubs[id]
}

// Close stops every hub and the session service.
func (h *Handlers) Close() {
	h.mu.Lock()
	for _, hub := range h.hubs {
		hub.Stop()
	}
	h.mu.Unlock()
	h.Sessions.Close()
}

// Sweep drops rooms whose match has finished, once per interval, until ctx
// is done. Players already hold the final state when a room goes away.
func (h *Handlers) Sweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := h.sweepFinished(ctx); n > 0 {
				h.log.Info().Int("rooms", n).Msg("swept finished rooms")
			}
		}
	}
}

func (h *Handlers) sweepFinished(ctx context.Context) int {
	h.mu.Lock()
	ids := make([]string, 0, len(h.hubs))
	for id := range h.hubs {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	removed := 0
	for _, id := range ids {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		done, err := h.Sessions.IsTerminal(reqCtx, id)
		cancel()
		// Lobbies that have not started have no match yet.
		if err != nil || !done {
			continue
		}
		h.removeRoom(id)
		removed++
	}
	return removed
}

func (h *Handlers) removeRoom(id string) {
	h.mu.Lock()
	hub := h.hubs[id]
	delete(h.hubs, id)
	h.mu.Unlock()
	if hub != nil {
		hub.Stop()
	}
	h.LobbyMgr.Remove(id)
	if err := h.Sessions.Remove(id); err != nil && !errors.Is(err, session.ErrMatchNotFound) {
		h.log.Warn().Err(err).Str("game", id).Msg("remove match")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleCreateGame creates a new game lobby. Browsers are redirected to the
// room page; POST callers get the id as JSON.
func (h *Handlers) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	visibility := storage.VisibilityPublic
	if r.FormValue("visibility") == string(storage.VisibilityPrivate) {
		visibility = storage.VisibilityPrivate
	}
	lob, err := h.LobbyMgr.Create(lobby.Settings{
		Visibility: visibility,
		Secret:     r.FormValue("secret"),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("create lobby")
		http.Error(w, "could not create game", http.StatusInternalServerError)
		return
	}
	hub := NewHub(lob.ID, lob, h.Sessions, h.log)
	h.mu.Lock()
	h.hubs[lob.ID] = hub
	h.mu.Unlock()
	go hub.Run()
	h.log.Info().Str("game", lob.ID).Str("visibility", string(visibility)).Msg("lobby created")

	if r.Method == http.MethodPost {
		writeJSON(w, http.StatusCreated, map[string]string{"game_id": lob.ID})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/?game=%s", lob.ID), http.StatusSeeOther)
}

// HandleQR generates a QR code PNG for joining the game.
func (h *Handlers) HandleQR(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		http.Error(w, "missing game parameter", http.StatusBadRequest)
		return
	}
	base := h.PublicURL
	if base == "" {
		base = "http://" + r.Host
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size > 1024 {
		size = 1024
	}
	png, err := qr.Generate(qr.JoinURL(base, gameID), size)
	if err != nil {
		h.log.Error().Err(err).Str("game", gameID).Msg("qr generate")
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// HandleWS handles WebSocket connections.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	playerID := r.URL.Query().Get("player")
	clientType := ParseClientType(r.URL.Query().Get("type"))

	if gameID == "" {
		http.Error(w, "missing game parameter", http.StatusBadRequest)
		return
	}
	hub := h.hub(gameID)
	if hub == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws upgrade")
		return
	}

	client := NewClient(hub, conn, playerID, clientType)
	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// HandlePlayerID returns a new player ID.
func (h *Handlers) HandlePlayerID(w http.ResponseWriter, r *http.Request) {
	id := GeneratePlayerID()
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(id))
}

// HandleLobbies lists public lobbies that are still open.
func (h *Handlers) HandleLobbies(w http.ResponseWriter, r *http.Request) {
	open := h.LobbyMgr.ListOpen()
	if open == nil {
		open = []lobby.Summary{}
	}
	writeJSON(w, http.StatusOK, open)
}

type leaderboardRow struct {
	ParticipantID string `json:"participant_id"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
}

// HandleLeaderboard ranks participants by wins in finished matches.
func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.Archive.Leaderboard(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard")
		http.Error(w, "leaderboard failed", http.StatusInternalServerError)
		return
	}
	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{ParticipantID: e.ParticipantID, Played: e.Played, Wins: e.Wins}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleMatch returns the public view of a live match.
func (h *Handlers) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	view, err := h.Sessions.ViewFor(ctx, r.PathValue("id"), "")
	if errors.Is(err, session.ErrMatchNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
