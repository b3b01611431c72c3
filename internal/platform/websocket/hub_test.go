package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(id string, topics ...string) *Client {
	return &Client{
		ID:     id,
		Topics: topics,
		Send:   make(chan []byte, 256),
	}
}

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient("client-1", "room/3")

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("room/3") != 1 {
		t.Fatalf("expected 1 client on room/3, got %d", hub.TopicCount("room/3"))
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient("client-1", "display")

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount("display") != 0 {
		t.Fatalf("expected 0 clients on display, got %d", hub.TopicCount("display"))
	}

	// Send channel must be closed after unregister.
	select {
	case _, open := <-client.Send:
		if open {
			t.Error("expected Send channel to be closed")
		}
	default:
		t.Error("expected Send channel to be closed, but it blocked")
	}
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub()
	client := newTestClient("client-1", "display")

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client) // must not panic on double close
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	boardClient := newTestClient("board", "display")
	roomClient := newTestClient("console", "room/2")

	hub.Register(boardClient)
	hub.Register(roomClient)

	hub.Broadcast("display", Event{
		Type:      "patient.registered",
		Topic:     "display",
		Timestamp: time.Now().UTC(),
	})

	select {
	case data := <-boardClient.Send:
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if evt.Type != "patient.registered" {
			t.Errorf("expected patient.registered, got %s", evt.Type)
		}
	default:
		t.Fatal("expected board client to receive the event")
	}

	select {
	case <-roomClient.Send:
		t.Error("room client should not receive display events")
	default:
	}
}

func TestHub_Broadcast_SkipsFullBuffer(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "slow",
		Topics: []string{"display"},
		Send:   make(chan []byte), // unbuffered, never drained
	}
	hub.Register(client)

	// Must not block.
	hub.Broadcast("display", Event{Type: "patient.called", Topic: "display"})
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := newTestClient("console")
	hub.Register(client)

	hub.Subscribe(client, []string{"room/1", "room/2"})
	if hub.TopicCount("room/1") != 1 || hub.TopicCount("room/2") != 1 {
		t.Fatal("expected subscription to both rooms")
	}

	hub.Unsubscribe(client, []string{"room/1"})
	if hub.TopicCount("room/1") != 0 {
		t.Errorf("expected 0 on room/1, got %d", hub.TopicCount("room/1"))
	}
	if hub.TopicCount("room/2") != 1 {
		t.Errorf("expected 1 on room/2, got %d", hub.TopicCount("room/2"))
	}
}

func TestHub_ProcessMessage(t *testing.T) {
	hub := NewHub()
	client := newTestClient("console")
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"room/5"}})
	if hub.TopicCount("room/5") != 1 {
		t.Fatal("expected subscribe action to register topic")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"room/5"}})
	if hub.TopicCount("room/5") != 0 {
		t.Fatal("expected unsubscribe action to remove topic")
	}

	// Unknown actions are ignored.
	hub.ProcessMessage(client, ClientMessage{Action: "dance", Topics: []string{"room/5"}})
	if hub.TopicCount("room/5") != 0 {
		t.Fatal("expected unknown action to be a no-op")
	}
}
