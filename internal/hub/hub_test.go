package hub

import (
	"encoding/json"
	"testing"
)

func newTestConn(id string, buf int) *Conn {
	return &Conn{ID: id, Out: make(chan []byte, buf)}
}

func TestEmitToGroup(t *testing.T) {
	h := New()
	c1 := newTestConn("c1", 4)
	c2 := newTestConn("c2", 4)
	c3 := newTestConn("c3", 4)
	h.Add(c1)
	h.Add(c2)
	h.Add(c3)
	h.JoinGroups("c1", []string{"share:new"})
	h.JoinGroups("c2", []string{"share:new"})

	sent := h.EmitToGroup("share:new", "share:new-movie", map[string]string{"title": "t"})
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(c3.Out) != 0 {
		t.Fatal("non-member received the broadcast")
	}

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(<-c1.Out, &env); err != nil {
		t.Fatal(err)
	}
	if env.Event != "share:new-movie" {
		t.Fatalf("event = %q", env.Event)
	}
}

func TestLeaveGroupStopsDelivery(t *testing.T) {
	h := New()
	c := newTestConn("c1", 4)
	h.Add(c)
	h.JoinGroups("c1", []string{"share:new"})
	h.LeaveGroup("c1", "share:new")

	if sent := h.EmitToGroup("share:new", "x", nil); sent != 0 {
		t.Fatalf("sent = %d after leave, want 0", sent)
	}
}

func TestRemoveClearsGroups(t *testing.T) {
	h := New()
	c := newTestConn("c1", 4)
	h.Add(c)
	h.JoinGroups("c1", []string{"share:new", "user:1"})

	h.Remove("c1")

	if got := h.GroupMembers("share:new"); len(got) != 0 {
		t.Fatalf("share:new still has members: %v", got)
	}
	if got := h.GroupMembers("user:1"); len(got) != 0 {
		t.Fatalf("user:1 still has members: %v", got)
	}
	if h.Len() != 0 {
		t.Fatalf("len = %d, want 0", h.Len())
	}
}

func TestJoinUnknownConnIsNoop(t *testing.T) {
	h := New()
	h.JoinGroups("ghost", []string{"share:new"})
	if got := h.GroupMembers("share:new"); len(got) != 0 {
		t.Fatalf("ghost joined a group: %v", got)
	}
}

// A full outbound queue drops the message instead of blocking the
// broadcast.
func TestEmitSkipsBackpressuredConn(t *testing.T) {
	h := New()
	c := newTestConn("c1", 0)
	h.Add(c)
	h.JoinGroups("c1", []string{"g"})

	if sent := h.EmitToGroup("g", "x", nil); sent != 0 {
		t.Fatalf("sent = %d into a full queue, want 0", sent)
	}
}
