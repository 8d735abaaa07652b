// internal/app/system/hub/client.go
package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Per-client outbound buffer. A client that falls this far behind is
	// disconnected rather than allowed to stall the hub.
	sendBuffer = 64
)

// Client is one connected observer: a websocket connection plus its bounded
// outbound queue.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan Envelope
	snapshot []models.Group
	log      *zap.Logger
}

func newClient(h *Hub, conn *websocket.Conn, snapshot []models.Group) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      h,
		conn:     conn,
		send:     make(chan Envelope, sendBuffer),
		snapshot: snapshot,
		log:      h.log,
	}
}

// enqueue queues an event for this client alone. Called by the registry
// goroutine while the send buffer is still fresh, so it cannot block.
func (c *Client) enqueue(ev Envelope) {
	select {
	case c.send <- ev:
	default:
	}
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings. It exits when the hub closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Debug("observer write failed",
					zap.String("client_id", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames (observers are read-only) and detects
// disconnects, unregistering the client when the socket dies.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
