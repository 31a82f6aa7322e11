package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf/internal/engine"
	"werewolf/internal/lobby"
	"werewolf/internal/protocol"
	"werewolf/internal/session"
	"werewolf/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handlers) {
	t.Helper()
	handlers := NewHandlers(Options{
		Lobbies: lobby.NewManager(lobby.Settings{MinPlayers: 3, MaxPlayers: 6}),
		Archive: memory.NewStore(),
		Session: session.Options{VoteWindow: time.Hour},
		Logger:  zerolog.Nop(),
	})
	static := fstest.MapFS{"web/static/index.html": {Data: []byte("<html></html>")}}
	routes, err := New(":0", static, handlers, zerolog.Nop()).Routes()
	require.NoError(t, err)

	ts := httptest.NewServer(routes)
	t.Cleanup(func() {
		ts.Close()
		handlers.Close()
	})
	return ts, handlers
}

func createGame(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/create", "application/x-www-form-urlencoded", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["game_id"])
	return body["game_id"]
}

func TestHTTPRoutes(t *testing.T) {
	ts, _ := newTestServer(t)
	gameID := createGame(t, ts)

	resp, err := http.Get(ts.URL + "/api/lobbies")
	require.NoError(t, err)
	var open []lobby.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&open))
	resp.Body.Close()
	require.Len(t, open, 1)
	assert.Equal(t, gameID, open[0].ID)

	resp, err = http.Get(ts.URL + "/api/player-id")
	require.NoError(t, err)
	id, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Len(t, string(id), 36)

	resp, err = http.Get(ts.URL + "/api/qr?game=" + gameID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(ts.URL + "/api/matches/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/leaderboard")
	require.NoError(t, err)
	var rows []leaderboardRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	resp.Body.Close()
	assert.Empty(t, rows)

	resp, err = http.Get(ts.URL + "/api/leaderboard?limit=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type wsPlayer struct {
	id   string
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server, gameID, playerID string) *wsPlayer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?game=" + gameID + "&player=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	p := &wsPlayer{id: playerID, conn: conn}
	// The first lobby update confirms the hub registered the connection.
	p.readUntil(t, protocol.MsgLobbyUpdate)
	return p
}

func (p *wsPlayer) send(t *testing.T, typ string, payload interface{}) {
	t.Helper()
	require.NoError(t, p.conn.WriteJSON(protocol.MustEnvelope(typ, payload)))
}

func (p *wsPlayer) readUntil(t *testing.T, typ string) protocol.Envelope {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := p.conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		env, err := protocol.Decode(data)
		require.NoError(t, err)
		if env.Type == typ {
			return env
		}
	}
}

// readLobby reads lobby updates until done accepts one.
func (p *wsPlayer) readLobby(t *testing.T, done func(protocol.LobbyUpdate) bool) protocol.LobbyUpdate {
	t.Helper()
	for {
		update, err := protocol.DecodePayload[protocol.LobbyUpdate](p.readUntil(t, protocol.MsgLobbyUpdate))
		require.NoError(t, err)
		if done(update) {
			return update
		}
	}
}

func lists(id string) func(protocol.LobbyUpdate) bool {
	return func(u protocol.LobbyUpdate) bool {
		for _, lp := range u.Players {
			if lp.ID == id {
				return true
			}
		}
		return false
	}
}

type playerState struct {
	You   string          `json:"you"`
	Role  engine.RoleKind `json:"role"`
	Phase string          `json:"phase"`
}

func TestWebSocketMatchFlow(t *testing.T) {
	ts, handlers := newTestServer(t)
	gameID := createGame(t, ts)

	players := []*wsPlayer{
		dial(t, ts, gameID, "p1"),
		dial(t, ts, gameID, "p2"),
		dial(t, ts, gameID, "p3"),
	}
	// Joins are sequential: each waits until the lobby lists its player.
	var update protocol.LobbyUpdate
	for _, p := range players {
		p.send(t, protocol.MsgJoin, protocol.JoinMsg{PlayerID: p.id, Name: strings.ToUpper(p.id)})
		update = p.readLobby(t, lists(p.id))
	}
	require.Equal(t, "p1", update.Host, "first joiner hosts")
	host, guest := players[0], players[1]

	for _, p := range players {
		p.send(t, protocol.MsgReady, protocol.ReadyMsg{Ready: true})
	}

	// Only the host may start.
	guest.send(t, protocol.MsgStartGame, nil)
	errMsg, err := protocol.DecodePayload[protocol.ErrorMsg](guest.readUntil(t, protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, lobby.ErrNotHost.Error(), errMsg.Message)

	require.Eventually(t, handlers.LobbyMgr.Get(gameID).CanStart, time.Second, 10*time.Millisecond)
	host.send(t, protocol.MsgStartGame, nil)

	var wolf *wsPlayer
	for _, p := range players {
		state, err := protocol.DecodePayload[playerState](p.readUntil(t, protocol.MsgPlayerState))
		require.NoError(t, err)
		assert.Equal(t, p.id, state.You)
		assert.Equal(t, "night", state.Phase)
		require.NotEmpty(t, state.Role)
		if state.Role == engine.KindWolf {
			wolf = p
		}
	}
	require.NotNil(t, wolf, "three players always include a wolf")

	wolf.send(t, string(engine.ActionChat), protocol.ActionMsg{Text: "awoo"})
	result, err := protocol.DecodePayload[struct {
		Outcome engine.Outcome `json:"outcome"`
	}](wolf.readUntil(t, protocol.MsgResult))
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeChatPosted, result.Outcome)
	ev := wolf.readUntil(t, protocol.MsgEvent)
	assert.Contains(t, string(ev.Payload), "awoo")

	// System actions are host only.
	guest.send(t, string(engine.ActionAdvanceTurn), nil)
	errMsg, err = protocol.DecodePayload[protocol.ErrorMsg](guest.readUntil(t, protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, lobby.ErrNotHost.Error(), errMsg.Message)

	host.send(t, string(engine.ActionAdvanceTurn), nil)
	for {
		state, err := protocol.DecodePayload[playerState](players[2].readUntil(t, protocol.MsgPlayerState))
		require.NoError(t, err)
		if state.Phase == "day" {
			break
		}
	}

	resp, err := http.Get(ts.URL + "/api/matches/" + gameID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketRejectsMalformedFrames(t *testing.T) {
	ts, _ := newTestServer(t)
	gameID := createGame(t, ts)
	p := dial(t, ts, gameID, "p1")

	require.NoError(t, p.conn.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`)))
	errMsg, err := protocol.DecodePayload[protocol.ErrorMsg](p.readUntil(t, protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, "bad_message", errMsg.Code)

	// The connection stays usable.
	p.send(t, protocol.MsgJoin, protocol.JoinMsg{PlayerID: "p1", Name: "One"})
	update := p.readLobby(t, lists("p1"))
	assert.Equal(t, "p1", update.Host)
}

func TestWebSocketUnknownGame(t *testing.T) {
	ts, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?game=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSweepRemovesFinishedRooms(t *testing.T) {
	ts, handlers := newTestServer(t)
	finished := createGame(t, ts)
	waiting := createGame(t, ts)
	ctx := context.Background()

	_, err := handlers.Sessions.CreateMatch(ctx, session.CreateParams{
		ID: finished,
		Seats: []engine.Seat{
			{ID: "W", Role: engine.KindWolf},
			{ID: "V", Role: engine.KindVillager},
		},
	})
	require.NoError(t, err)
	assert.Zero(t, handlers.sweepFinished(ctx), "an active match stays")

	_, err = handlers.Sessions.Apply(ctx, finished, "W", engine.Action{Type: engine.ActionWolfVote, Target: "V"})
	require.NoError(t, err)
	_, err = handlers.Sessions.Apply(ctx, finished, "", engine.Action{Type: engine.ActionResolveWolfVote})
	require.NoError(t, err)
	res, err := handlers.Sessions.Apply(ctx, finished, "", engine.Action{Type: engine.ActionAdvanceTurn})
	require.NoError(t, err)
	require.Equal(t, engine.VerdictWolves, res.Verdict)

	assert.Equal(t, 1, handlers.sweepFinished(ctx))
	assert.Nil(t, handlers.hub(finished))
	assert.Nil(t, handlers.LobbyMgr.Get(finished))
	_, err = handlers.Sessions.Snapshot(ctx, finished)
	assert.ErrorIs(t, err, session.ErrMatchNotFound)

	assert.NotNil(t, handlers.hub(waiting), "lobbies without a match stay")
	assert.NotNil(t, handlers.LobbyMgr.Get(waiting))
}
