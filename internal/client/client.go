package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/hub"
	"github.com/devaloi/agora/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Rooms is the part of the hub a connection drives.
type Rooms interface {
	Join(c hub.Conn, topicID string) bool
	Leave(c hub.Conn, topicID string) bool
	RemoveEverywhere(c hub.Conn) []string
}

// Client is one WebSocket session. Its topic memberships live in the hub.
type Client struct {
	id     string
	userID string
	rooms  Rooms
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// New creates a Client. userID is empty for anonymous viewers.
func New(rooms Rooms, conn *websocket.Conn, userID string, buffer int, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		userID: userID,
		rooms:  rooms,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger.With().Str(logging.FieldConnID, id).Str(logging.FieldUserID, userID).Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// UserID returns the authenticated user, if any.
func (c *Client) UserID() string {
	return c.userID
}

// Logger returns the connection-scoped logger.
func (c *Client) Logger() *zerolog.Logger {
	return &c.logger
}

// Send queues a frame without blocking. It reports false once the client is
// closed or when its buffer is full.
func (c *Client) Send(data []byte) bool {
	if c.closed() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.Debug().Msg("send buffer full, dropping message")
		return false
	}
}

// Close leaves every room and closes the socket. Either pump may call it and
// it is safe to call more than once. done is closed before the rooms are
// purged so a join racing the close can see it and undo itself.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		left := c.rooms.RemoveEverywhere(c)
		c.conn.Close()
		c.logger.Info().Strs("topics", left).Msg("client disconnected")
	})
}

// Done is closed when the client shuts down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads client messages until the connection fails.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump writes queued frames and keep-alive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := domain.DecodeMessage(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch msg.Type {
	case domain.MsgJoin:
		if msg.TopicID == "" {
			c.sendError("topicId required")
			return
		}
		if !c.join(msg.TopicID) {
			return
		}
		c.reply(domain.Message{Type: domain.MsgJoined, TopicID: msg.TopicID})

	case domain.MsgLeave:
		if msg.TopicID == "" {
			c.sendError("topicId required")
			return
		}
		c.rooms.Leave(c, msg.TopicID)
		c.reply(domain.Message{Type: domain.MsgLeft, TopicID: msg.TopicID})

	case domain.MsgPing:
		c.reply(domain.Message{Type: domain.MsgPong})

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// join subscribes c to topicID unless the client is closing. A join that
// lands after Close purged the rooms is rolled back.
func (c *Client) join(topicID string) bool {
	if c.closed() {
		return false
	}
	c.rooms.Join(c, topicID)
	if c.closed() {
		c.rooms.RemoveEverywhere(c)
		return false
	}
	return true
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) reply(v any) {
	if data, err := domain.Encode(v); err == nil {
		c.Send(data)
	}
}

func (c *Client) sendError(message string) {
	c.reply(domain.ErrorMessage{Type: domain.MsgError, Message: message})
}
