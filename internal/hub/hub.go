// Package hub is the connection registry for the realtime channel: it
// tracks live websocket connections and their broadcast-group membership,
// and exposes only join/leave/emit/disconnect to the rest of the system.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/g21-super-team/funny-movies-be/internal/metrics"
)

// Conn is one websocket client with a bounded outbound queue
// (backpressure: broadcasts are dropped, not blocked on).
type Conn struct {
	ID  string
	WS  *websocket.Conn
	Out chan []byte
}

type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	groups map[string]map[string]*Conn
}

func New() *Hub {
	return &Hub{
		conns:  make(map[string]*Conn),
		groups: make(map[string]map[string]*Conn),
	}
}

func (h *Hub) Add(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) Get(connID string) (*Conn, bool) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	return c, ok
}

// Remove drops a connection from the registry and from every group.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	for name, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	n := len(h.conns)
	h.mu.RUnlock()
	return n
}

func (h *Hub) JoinGroups(connID string, groups []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	for _, name := range groups {
		members := h.groups[name]
		if members == nil {
			members = make(map[string]*Conn)
			h.groups[name] = members
		}
		members[connID] = c
	}
}

func (h *Hub) LeaveGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.groups[group]
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) GroupMembers(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	return out
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EmitToGroup queues an event to every member of a group and returns the
// number of members it reached. Slow clients with a full queue are
// skipped. Sends happen under the read lock: a conn's outbound queue is
// closed only after Remove, which excludes readers, so no send can race
// the close.
func (h *Hub) EmitToGroup(group, event string, payload any) int {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.groups[group] {
		select {
		case c.Out <- b:
			sent++
		default:
			metrics.WSBackpressure.Inc()
		}
	}
	return sent
}

// ForceDisconnect closes the underlying websocket. The connection's read
// loop owns cleanup: its error path removes the conn from the registry
// and closes the outbound queue.
func (h *Hub) ForceDisconnect(connID string) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok || c.WS == nil {
		return
	}
	_ = c.WS.Close()
}

// WriteLoop drains a connection's outbound queue until the queue closes
// or a write fails.
func WriteLoop(c *Conn, timeout time.Duration) {
	defer func() { _ = c.WS.Close() }()
	for b := range c.Out {
		_ = c.WS.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.WS.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}
