package ws

import (
	"encoding/json"
	"testing"
)

func newTestClient(id string, userID uint64) *Client {
	// No underlying conn: hub tests exercise registry and fan-out only,
	// which goes through the buffered Send channel.
	return &Client{ID: id, UserID: userID, Name: "u" + id, Send: make(chan []byte, 8)}
}

func recvEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.Send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return env
	default:
		t.Fatal("no frame queued")
		return Envelope{}
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	h := NewHub()
	a, b, outsider := newTestClient("a", 1), newTestClient("b", 2), newTestClient("c", 3)
	for _, c := range []*Client{a, b, outsider} {
		h.Register(c)
	}
	h.Join(a.ID, "B1")
	h.Join(b.ID, "B1")
	// outsider never joins B1

	h.Broadcast("B1", "receive_message", map[string]string{"message": "hi"}, "")

	for _, c := range []*Client{a, b} {
		env := recvEvent(t, c)
		if env.Event != "receive_message" {
			t.Errorf("client %s got event %q, want receive_message", c.ID, env.Event)
		}
		var payload map[string]string
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload["message"] != "hi" {
			t.Errorf("client %s payload = %s", c.ID, env.Data)
		}
	}
	if len(outsider.Send) != 0 {
		t.Error("client outside the room received a frame")
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	a, b := newTestClient("a", 1), newTestClient("b", 2)
	h.Register(a)
	h.Register(b)
	h.Join(a.ID, "B1")
	h.Join(b.ID, "B1")

	h.Broadcast("B1", "receive_message", map[string]string{"message": "hi"}, a.ID)

	if len(a.Send) != 0 {
		t.Error("sender received its own broadcast")
	}
	if len(b.Send) != 1 {
		t.Errorf("peer queued %d frames, want 1", len(b.Send))
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", 1)
	h.Register(a)
	h.Join(a.ID, "B1")
	h.Leave(a.ID, "B1")

	h.Broadcast("B1", "typing", map[string]bool{"isTyping": true}, "")
	if len(a.Send) != 0 {
		t.Error("client received a frame after leaving the room")
	}
	if h.RoomSize("B1") != 0 {
		t.Errorf("RoomSize = %d after last member left, want 0", h.RoomSize("B1"))
	}
}

func TestUnregisterCleansAllRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", 1)
	h.Register(a)
	h.Join(a.ID, "B1")
	h.Join(a.ID, "B2")

	h.Unregister(a)

	if h.RoomSize("B1") != 0 || h.RoomSize("B2") != 0 {
		t.Error("unregister left the client in a room")
	}
	if _, ok := <-a.Send; ok {
		t.Error("Send channel still open after unregister")
	}
	// A join after unregister must be a no-op.
	h.Join(a.ID, "B1")
	if h.RoomSize("B1") != 0 {
		t.Error("unregistered client joined a room")
	}
}

func TestMembershipIsPerConnection(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", 1)
	h.Register(a)
	h.Join(a.ID, "B1")
	h.Unregister(a)

	// Same user reconnects with a new socket: previous membership must
	// not carry over, the client re-joins explicitly.
	a2 := newTestClient("a2", 1)
	h.Register(a2)
	h.Broadcast("B1", "receive_message", map[string]string{"message": "hi"}, "")
	if len(a2.Send) != 0 {
		t.Error("reconnected client received room traffic without re-joining")
	}
}
