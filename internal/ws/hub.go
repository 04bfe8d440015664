package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const writeTimeout = 5 * time.Second

// Conn is the subset of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

type client struct {
	conn  Conn
	info  ConnInfo
	rooms map[int]struct{}

	// serializes writes; gorilla connections do not allow concurrent writers
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub owns every live connection and the room index derived from them. It is
// the only structure mutated from concurrent flows; all access goes through
// the mutex and broadcasts operate on point-in-time snapshots.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int]map[*client]struct{}
	conns map[Conn]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int]map[*client]struct{}),
		conns: make(map[Conn]*client),
	}
}

// Register creates connection state with no rooms joined.
func (h *Hub) Register(conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		return
	}
	h.conns[conn] = &client{conn: conn, info: info, rooms: make(map[int]struct{})}
}

// Join adds the connection to a room. Joining a room the connection is
// already in is a no-op.
func (h *Hub) Join(conn Conn, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.conns[conn]
	if !ok {
		return
	}
	if _, ok := cl.rooms[roomID]; ok {
		return
	}
	cl.rooms[roomID] = struct{}{}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*client]struct{})
	}
	h.rooms[roomID][cl] = struct{}{}
}

// Leave removes the connection from a room; leaving a room it is not in is a
// no-op.
func (h *Hub) Leave(conn Conn, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.conns[conn]
	if !ok {
		return
	}
	delete(cl.rooms, roomID)
	if members, ok := h.rooms[roomID]; ok {
		delete(members, cl)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Joined reports whether the connection is currently in the room.
func (h *Hub) Joined(conn Conn, roomID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cl, ok := h.conns[conn]
	if !ok {
		return false
	}
	_, ok = cl.rooms[roomID]
	return ok
}

// Disconnect removes the connection from every room it had joined and
// discards its state. Safe to call for connections that were never
// registered.
func (h *Hub) Disconnect(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.conns[conn]
	if !ok {
		return
	}
	for roomID := range cl.rooms {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, cl)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.conns, conn)
}

// MembersOf returns a consistent snapshot of the room's connections.
func (h *Hub) MembersOf(roomID int) []ConnInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]ConnInfo, 0, len(h.rooms[roomID]))
	for cl := range h.rooms[roomID] {
		members = append(members, cl.info)
	}
	return members
}

// Broadcast delivers an event to every connection in the room. Delivery is
// best-effort: a failed write closes and deregisters that connection only
// and is never surfaced to the triggering caller.
func (h *Hub) Broadcast(roomID int, event models.Event) {
	h.broadcast(roomID, "", event)
}

// BroadcastExcept behaves like Broadcast but skips the originating
// connection, identified by its conn id.
func (h *Hub) BroadcastExcept(roomID int, originConnID string, event models.Event) {
	h.broadcast(roomID, originConnID, event)
}

func (h *Hub) broadcast(roomID int, skipConnID string, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	h.mu.RLock()
	snapshot := make([]*client, 0, len(h.rooms[roomID]))
	for cl := range h.rooms[roomID] {
		if skipConnID != "" && cl.info.ConnID == skipConnID {
			continue
		}
		snapshot = append(snapshot, cl)
	}
	h.mu.RUnlock()

	for _, cl := range snapshot {
		if err := cl.write(payload); err != nil {
			log.Printf("websocket write error conn=%s: %v", cl.info.ConnID, err)
			observability.IncBroadcastFailure()
			cl.conn.Close()
			h.Disconnect(cl.conn)
		}
	}
	observability.IncWSEvent(event.Type)
}

// SendTo writes an event to a single connection, used for command acks and
// error replies on the read loop.
func (h *Hub) SendTo(conn Conn, event models.Event) {
	h.mu.RLock()
	cl, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := cl.write(payload); err != nil {
		log.Printf("websocket write error conn=%s: %v", cl.info.ConnID, err)
		observability.IncBroadcastFailure()
		cl.conn.Close()
		h.Disconnect(cl.conn)
	}
}

// Info returns the ConnInfo recorded at registration.
func (h *Hub) Info(conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cl, ok := h.conns[conn]
	if !ok {
		return ConnInfo{}, false
	}
	return cl.info, true
}
