package notary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStrAndTimeCoerceNil(t *testing.T) {
	if Str(nil) != "" {
		t.Fatal("expected nil string pointer to become empty string")
	}
	v := "rmb-1"
	if Str(&v) != "rmb-1" {
		t.Fatalf("expected rmb-1, got %q", Str(&v))
	}
	if Time(nil) != "" {
		t.Fatal("expected nil time to become empty string")
	}
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := Time(&ts); got != "2024-03-01T10:00:00Z" {
		t.Fatalf("unexpected time format: %s", got)
	}
}

func TestFinishedGoodValidate(t *testing.T) {
	p := FinishedGoodProjection{ID: "fg-1", ProductName: "Ashwagandha Churna"}
	err := p.Validate()
	if !errors.Is(err, ErrInvalidProjection) {
		t.Fatalf("expected ErrInvalidProjection, got %v", err)
	}
	if !strings.Contains(err.Error(), "batchNumber") {
		t.Fatalf("expected batchNumber in error, got %v", err)
	}

	p.BatchNumber = "FG-001"
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitSupplyChainEventPostsFlatJSON(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"txId":"abc"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	receipt, err := client.SubmitSupplyChainEvent(context.Background(), SupplyChainEventProjection{
		ID:        "evt-1",
		EventType: "TESTING",
		HandlerID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != PathSupplyChainEvent {
		t.Fatalf("expected path %s, got %s", PathSupplyChainEvent, gotPath)
	}
	if receipt.StatusCode != http.StatusOK || string(receipt.Body) != `{"txId":"abc"}` {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	for _, key := range []string{"finishedGoodId", "rawMaterialBatchId", "fromLocationId"} {
		v, ok := gotBody[key]
		if !ok {
			t.Fatalf("expected key %s in payload", key)
		}
		if v != "" {
			t.Fatalf("expected %s to be empty string, got %v", key, v)
		}
	}
}

func TestSubmitRejectsInvalidProjectionWithoutCalling(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.SubmitFinishedGood(context.Background(), FinishedGoodProjection{ID: "fg-1", ProductName: "x"})
	if !errors.Is(err, ErrInvalidProjection) {
		t.Fatalf("expected ErrInvalidProjection, got %v", err)
	}
	if called {
		t.Fatal("expected no request for an invalid projection")
	}
}

func TestSubmitNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	receipt, err := client.SubmitCollectionEvent(context.Background(), CollectionEventProjection{
		ID: "ce-1", CollectorID: "u-1", SpeciesID: "sp-1",
	})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if receipt == nil || receipt.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected receipt with 502, got %+v", receipt)
	}
	if string(receipt.Body) != `"upstream down"` {
		t.Fatalf("expected quoted body, got %s", receipt.Body)
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewClient("", time.Second)
	if client.Enabled() {
		t.Fatal("expected client without base URL to be disabled")
	}
	if _, err := client.SubmitSupplyChainEvent(context.Background(), SupplyChainEventProjection{ID: "e", EventType: "TESTING"}); err == nil {
		t.Fatal("expected error from disabled client")
	}
}
