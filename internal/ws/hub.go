package ws

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/techyouandme/TempTelegram/internal/store"
)

// Hub maps connection IDs to live connections. It is deliberately not a
// subscriber registry: room membership is owned by the directory, and every
// broadcast re-reads it at call time, so a connection that has left a room
// can never be handed that room's traffic afterwards.
type Hub struct {
	store *store.Store
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewHub(st *store.Store) *Hub {
	return &Hub{store: st, conns: make(map[string]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

// remove drops the connection and closes its send channel. The close happens
// under the write lock while all sends happen under the read lock, so a
// concurrent broadcast can never hit a closed channel.
func (h *Hub) remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	close(c.send)
}

// Online reports the number of live connections, for tests and diagnostics.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastRoom fans payload out to every current member of the room.
// exceptConnID, when non-empty, is skipped (the "notify everyone else" case).
// A member whose send buffer is full misses the frame; delivery is
// best-effort in-process fan-out, nothing more.
func (h *Hub) BroadcastRoom(code, exceptConnID string, payload []byte) {
	if payload == nil {
		return
	}
	members := h.store.MemberConns(code)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, connID := range members {
		if connID == exceptConnID {
			continue
		}
		c, ok := h.conns[connID]
		if !ok {
			continue
		}
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("conn_id", connID).Str("room", code).Msg("send buffer full, dropping frame")
		}
	}
}

// send delivers payload to a single connection, if it is still live.
func (h *Hub) send(connID string, payload []byte) {
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn().Str("conn_id", connID).Msg("send buffer full, dropping frame")
	}
}
