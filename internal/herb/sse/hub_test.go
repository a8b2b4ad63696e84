package sse

import (
	"encoding/json"
	"testing"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
)

func TestPublishScopesByOrganization(t *testing.T) {
	hub := NewHub(nil)
	lab := &Client{ID: "c1", OrgID: "org-lab", Events: make(chan Event, 4)}
	other := &Client{ID: "c2", OrgID: "org-farm", Events: make(chan Event, 4)}
	admin := &Client{ID: "c3", AllOrgs: true, Events: make(chan Event, 4)}
	hub.Register(lab)
	hub.Register(other)
	hub.Register(admin)

	hub.Publish(&entity.SupplyChainEvent{
		ID:             "evt-1",
		EventType:      entity.EventTypeTesting,
		FromLocationID: "org-lab",
		ToLocationID:   "org-lab",
	})

	if len(lab.Events) != 1 {
		t.Fatalf("expected lab client to receive 1 event, got %d", len(lab.Events))
	}
	if len(admin.Events) != 1 {
		t.Fatalf("expected admin client to receive 1 event, got %d", len(admin.Events))
	}
	if len(other.Events) != 0 {
		t.Fatalf("expected unrelated client to receive nothing, got %d", len(other.Events))
	}

	got := <-lab.Events
	if got.EventType != EventTypeLedger {
		t.Fatalf("expected %s, got %s", EventTypeLedger, got.EventType)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(got.Data), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload["id"] != "evt-1" {
		t.Fatalf("expected evt-1 in payload, got %v", payload["id"])
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{ID: "c1", Events: make(chan Event, 1)}
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	hub.Unregister("c1")
	if _, ok := <-c.Events; ok {
		t.Fatal("expected closed channel")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	// full buffer must not block
	full := &Client{ID: "c2", AllOrgs: true, Events: make(chan Event)}
	hub.Register(full)
	hub.Broadcast(Event{EventType: "ping", Data: "{}"})
}
