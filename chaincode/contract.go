package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const recordIndex = "herbtrace"

// HerbTraceContract 采集、成品与供应链事件的不可变公证
type HerbTraceContract struct {
	contractapi.Contract
}

// RecordCollectionEvent 写入采集事件，ID 重复时拒绝
func (c *HerbTraceContract) RecordCollectionEvent(ctx contractapi.TransactionContextInterface, payload string) (*Record, error) {
	var event CollectionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("invalid collection event payload: %v", err)
	}
	if err := checkRequired("collection event", event.required()); err != nil {
		return nil, err
	}
	return c.put(ctx, KindCollectionEvent, event.ID, event)
}

// RecordFinishedGood 写入成品
func (c *HerbTraceContract) RecordFinishedGood(ctx contractapi.TransactionContextInterface, payload string) (*Record, error) {
	var good FinishedGood
	if err := json.Unmarshal([]byte(payload), &good); err != nil {
		return nil, fmt.Errorf("invalid finished good payload: %v", err)
	}
	if err := checkRequired("finished good", good.required()); err != nil {
		return nil, err
	}
	return c.put(ctx, KindFinishedGood, good.ID, good)
}

// RecordSupplyChainEvent 写入供应链事件
func (c *HerbTraceContract) RecordSupplyChainEvent(ctx contractapi.TransactionContextInterface, payload string) (*Record, error) {
	var event SupplyChainEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("invalid supply chain event payload: %v", err)
	}
	if err := checkRequired("supply chain event", event.required()); err != nil {
		return nil, err
	}
	return c.put(ctx, KindSupplyChainEvent, event.ID, event)
}

// ReadRecord 按类型和ID读取
func (c *HerbTraceContract) ReadRecord(ctx contractapi.TransactionContextInterface, kind, id string) (*Record, error) {
	key, err := ctx.GetStub().CreateCompositeKey(recordIndex, []string{kind, id})
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %v", err)
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %v", kind, id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%s %s does not exist", kind, id)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %v", err)
	}
	return &record, nil
}

func (c *HerbTraceContract) put(ctx contractapi.TransactionContextInterface, kind, id string, payload interface{}) (*Record, error) {
	stub := ctx.GetStub()
	key, err := stub.CreateCompositeKey(recordIndex, []string{kind, id})
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %v", err)
	}
	existing, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %v", kind, id, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s %s already recorded", kind, id)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}
	record := &Record{
		Kind:    kind,
		ID:      id,
		TxID:    stub.GetTxID(),
		Payload: string(raw),
	}
	if ts, err := stub.GetTxTimestamp(); err == nil && ts != nil {
		record.RecordedAt = ts.AsTime().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %v", err)
	}
	if err := stub.PutState(key, data); err != nil {
		return nil, fmt.Errorf("failed to put %s %s: %v", kind, id, err)
	}
	return record, nil
}
