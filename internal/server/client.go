package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"werewolf/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Room for a full-length chat message plus the envelope.
	maxMessageSize = 8192
	sendBuffer     = 256
)

// ClientType distinguishes shared spectator screens from seated players.
type ClientType string

const (
	ClientPlayer    ClientType = "player"
	ClientSpectator ClientType = "tv"
)

// ParseClientType maps the ws "type" query parameter; anything unknown is a
// player connection.
func ParseClientType(s string) ClientType {
	if ClientType(s) == ClientSpectator {
		return ClientSpectator
	}
	return ClientPlayer
}

// Client is one WebSocket connection to a game room.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	PlayerID string
	Type     ClientType
}

func NewClient(hub *Hub, conn *websocket.Conn, playerID string, clientType ClientType) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		PlayerID: playerID,
		Type:     clientType,
	}
}

// viewerID is the participant whose redacted view this connection gets.
// Spectators always see the public view, even with a player id attached.
func (c *Client) viewerID() string {
	if c.Type == ClientSpectator {
		return ""
	}
	return c.PlayerID
}

// ReadPump decodes envelopes and hands them to the hub until the socket
// closes. Malformed frames are answered with an error and skipped.
func (c *Client) ReadPump() {
	log := c.hub.log.With().Str("player", c.PlayerID).Logger()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read")
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("ws decode")
			c.SendEnvelope(protocol.MustEnvelope(protocol.MsgError, protocol.ErrorMsg{
				Code:    "bad_message",
				Message: err.Error(),
			}))
			continue
		}
		select {
		case c.hub.incoming <- IncomingMessage{Client: c, Envelope: env}:
		case <-c.hub.quit:
			return
		}
	}
}

// WritePump drains the send channel onto the socket and keeps it alive
// with pings. A closed send channel means the hub dropped the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEnvelope queues env for this client, dropping it if the client is
// too far behind.
func (c *Client) SendEnvelope(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.hub.log.Error().Err(err).Str("type", env.Type).Msg("marshal envelope")
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn().Str("player", c.PlayerID).Msg("send buffer full, dropping message")
	}
}

// IncomingMessage pairs a decoded envelope with the connection it came from.
type IncomingMessage struct {
	Client   *Client
	Envelope protocol.Envelope
}
