package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func setupStub(t *testing.T) (*shimtest.MockStub, *contractapi.TransactionContext) {
	t.Helper()
	stub := shimtest.NewMockStub("herbtrace", nil)
	ctx := &contractapi.TransactionContext{}
	ctx.SetStub(stub)
	return stub, ctx
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestRecordCollectionEvent(t *testing.T) {
	stub, ctx := setupStub(t)
	cc := &HerbTraceContract{}

	payload := mustJSON(t, CollectionEvent{
		ID:          "ce-1",
		CollectorID: "user-1",
		SpeciesID:   "sp-1",
		SpeciesName: "Withania somnifera",
		Quantity:    "42.5",
		Unit:        "KG",
		Latitude:    26.9,
		Longitude:   75.8,
	})

	stub.MockTransactionStart("tx-1")
	record, err := cc.RecordCollectionEvent(ctx, payload)
	stub.MockTransactionEnd("tx-1")
	if err != nil {
		t.Fatalf("RecordCollectionEvent failed: %v", err)
	}
	if record.TxID != "tx-1" || record.Kind != KindCollectionEvent || record.RecordedAt == "" {
		t.Fatalf("Unexpected record: %+v", record)
	}

	read, err := cc.ReadRecord(ctx, KindCollectionEvent, "ce-1")
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	var stored CollectionEvent
	if err := json.Unmarshal([]byte(read.Payload), &stored); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if stored.Quantity != "42.5" || stored.SpeciesName != "Withania somnifera" {
		t.Fatalf("Unexpected stored payload: %+v", stored)
	}

	// 重复写入
	stub.MockTransactionStart("tx-2")
	_, err = cc.RecordCollectionEvent(ctx, payload)
	stub.MockTransactionEnd("tx-2")
	if err == nil || !strings.Contains(err.Error(), "already recorded") {
		t.Fatalf("Expected duplicate to be rejected, got %v", err)
	}
}

func TestRecordRejectsMissingFields(t *testing.T) {
	stub, ctx := setupStub(t)
	cc := &HerbTraceContract{}

	stub.MockTransactionStart("tx-1")
	defer stub.MockTransactionEnd("tx-1")

	_, err := cc.RecordFinishedGood(ctx, mustJSON(t, FinishedGood{ID: "fg-1", ProductName: "Ashwagandha Churna"}))
	if err == nil || err.Error() != "finished good requires batchNumber" {
		t.Fatalf("Expected missing batchNumber error, got %v", err)
	}

	_, err = cc.RecordSupplyChainEvent(ctx, mustJSON(t, SupplyChainEvent{}))
	if err == nil || err.Error() != "supply chain event requires id, eventType" {
		t.Fatalf("Expected missing id and eventType error, got %v", err)
	}

	_, err = cc.RecordCollectionEvent(ctx, "{not json")
	if err == nil || !strings.HasPrefix(err.Error(), "invalid collection event payload") {
		t.Fatalf("Expected payload error, got %v", err)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	stub, ctx := setupStub(t)
	cc := &HerbTraceContract{}

	stub.MockTransactionStart("tx-1")
	_, err := cc.RecordSupplyChainEvent(ctx, mustJSON(t, SupplyChainEvent{ID: "shared-id", EventType: "PACKAGING", FinishedGoodID: "fg-1"}))
	if err != nil {
		t.Fatalf("RecordSupplyChainEvent failed: %v", err)
	}
	_, err = cc.RecordFinishedGood(ctx, mustJSON(t, FinishedGood{ID: "shared-id", BatchNumber: "FG-001", ProductName: "Churna"}))
	stub.MockTransactionEnd("tx-1")
	if err != nil {
		t.Fatalf("Same id under another kind should be accepted: %v", err)
	}

	if _, err := cc.ReadRecord(ctx, KindCollectionEvent, "shared-id"); err == nil {
		t.Fatalf("Expected missing record error")
	}
}
