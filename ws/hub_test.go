package ws

import (
	"testing"
	"time"
)

func newTestClient(hub *Hub, room string, buffer int) *Client {
	return &Client{
		Hub:  hub,
		Send: make(chan []byte, buffer),
		Room: room,
	}
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s size never reached %d (now %d)", room, want, hub.RoomSize(room))
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	inRoom := newTestClient(hub, "match_a", 4)
	other := newTestClient(hub, "match_b", 4)
	hub.Register <- inRoom
	hub.Register <- other
	waitForRoomSize(t, hub, "match_a", 1)
	waitForRoomSize(t, hub, "match_b", 1)

	hub.BroadcastToRoom("match_a", map[string]string{"type": "STATE_UPDATE"})

	select {
	case msg := <-inRoom.Send:
		if len(msg) == 0 {
			t.Error("empty broadcast payload")
		}
	case <-time.After(time.Second):
		t.Fatal("room member did not receive broadcast")
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("client in another room received %s", msg)
	default:
	}
}

func TestBroadcastSkipsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newTestClient(hub, "match_a", 1)
	hub.Register <- slow
	waitForRoomSize(t, hub, "match_a", 1)

	// Fill the buffer, then broadcast twice more. BroadcastToRoom must not
	// block even though the client never drains.
	done := make(chan struct{})
	go func() {
		hub.BroadcastToRoom("match_a", "one")
		hub.BroadcastToRoom("match_a", "two")
		hub.BroadcastToRoom("match_a", "three")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	if got := len(slow.Send); got != 1 {
		t.Errorf("buffered messages: got %d, want 1", got)
	}
}

func TestUnregisterDropsEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "match_a", 4)
	hub.Register <- client
	waitForRoomSize(t, hub, "match_a", 1)

	hub.Unregister <- client
	waitForRoomSize(t, hub, "match_a", 0)

	// Send channel is closed on unregister so WritePump can exit.
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Error("expected closed send channel, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}
