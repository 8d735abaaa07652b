// internal/app/system/hub/hub.go
package hub

import (
	"sync"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// broadcastBuffer bounds the hub's inbound event queue. Emitters never
// block: when the queue is full the event is dropped and logged (delivery
// is best-effort, at-most-once; reconnecting clients resync via the
// groups_init snapshot).
const broadcastBuffer = 256

// Hub fans state-change events out to every connected observer. One
// instance is created at process start, handed to every component that
// emits events, and torn down at shutdown.
//
// A single registry goroutine owns the client set, which serializes
// registration against broadcasting: the groups_init snapshot queued during
// registration always precedes any later event on that socket.
type Hub struct {
	log *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan Envelope
	clients    map[*Client]bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Hub. Call Start before registering clients.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Envelope, broadcastBuffer),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Start begins the registry loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
	h.log.Info("broadcast hub started")
}

// Stop disconnects every client and stops the registry loop.
func (h *Hub) Stop() {
	close(h.done)
	h.wg.Wait()
	h.log.Info("broadcast hub stopped")
}

// Register adopts an upgraded connection. The snapshot is queued for that
// socket alone before any subsequent broadcast reaches it.
func (h *Hub) Register(conn *websocket.Conn, snapshot []models.Group) {
	c := newClient(h, conn, snapshot)
	select {
	case h.register <- c:
		go c.writePump()
		go c.readPump()
	case <-h.done:
		_ = conn.Close()
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			c.enqueue(Envelope{
				Event:   EventGroupsInit,
				Payload: GroupsInitPayload{Groups: c.snapshot},
			})
			h.log.Debug("observer connected", zap.String("client_id", c.id))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// Slow consumer: dropping the client keeps delivery
					// non-blocking for everyone else. It can reconnect and
					// resync from a fresh snapshot.
					h.log.Warn("observer send buffer full, dropping client",
						zap.String("client_id", c.id),
						zap.String("event", ev.Event))
					h.drop(c)
				}
			}
		}
	}
}

// drop removes a client and closes its send channel, which ends the write
// pump. Only the registry goroutine calls this.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

// emit hands an event to the registry loop without ever blocking the
// triggering request.
func (h *Hub) emit(ev Envelope) {
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("broadcast queue full, dropping event", zap.String("event", ev.Event))
	}
}

// The methods below implement party.Broadcaster.

func (h *Hub) GroupCreated(g models.Group) {
	h.emit(Envelope{Event: EventGroupCreated, Payload: GroupPayload{Group: g}})
}

func (h *Hub) GroupUpdated(g models.Group) {
	h.emit(Envelope{Event: EventGroupUpdated, Payload: GroupPayload{Group: g}})
}

func (h *Hub) GroupSlotsUpdated(g models.Group) {
	h.emit(Envelope{Event: EventGroupSlotsUpdated, Payload: GroupPayload{Group: g}})
}

func (h *Hub) GroupDeleted(groupID string, reason string) {
	h.emit(Envelope{Event: EventGroupDeleted, Payload: GroupDeletedPayload{GroupID: groupID, Reason: reason}})
}

func (h *Hub) GroupStatusChanged(g models.Group, newStatus string) {
	h.emit(Envelope{Event: EventGroupStatusChanged, Payload: StatusChangedPayload{Group: g, NewStatus: newStatus}})
}

func (h *Hub) UserJoined(g models.Group, u models.UserRef) {
	h.emit(Envelope{Event: EventUserJoined, Payload: memberPayload(g, u)})
}

func (h *Hub) UserLeft(g models.Group, u models.UserRef) {
	h.emit(Envelope{Event: EventUserLeft, Payload: memberPayload(g, u)})
}

func memberPayload(g models.Group, u models.UserRef) MemberPayload {
	return MemberPayload{
		GroupID:   g.ID.Hex(),
		Group:     g,
		User:      u,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
