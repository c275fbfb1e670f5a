package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Clients never send payloads; this only has to fit control frames
	maxMessageSize = 512

	// A client whose queue fills up is too slow and gets dropped
	sendBufferSize = 64
)

// Client is one push-only connection of a user
type Client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, userID uuid.UUID, hub *Hub) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Send queues data for the write pump. A full queue closes the client.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		log.Warn().
			Str("client_id", c.id).
			Str("user_id", c.userID.String()).
			Msg("WebSocket client too slow, dropping")
		c.Close()
		return ErrClientClosed
	}
}

// Close stops both pumps. It may be called more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close has been called
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump keeps the read deadline alive from pongs and unregisters the
// client once the peer goes away. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID.String()).
					Msg("WebSocket closed by peer")
			}
			return
		}
	}
}

// WritePump writes queued events and keepalive pings. Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID.String()).
					Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
