package main

import (
	"fmt"
	"strings"
)

// 记录类型，同时作为复合键的第一段
const (
	KindCollectionEvent  = "COLLECTION_EVENT"
	KindFinishedGood     = "FINISHED_GOOD"
	KindSupplyChainEvent = "SUPPLY_CHAIN_EVENT"
)

// CollectionEvent 采集事件
type CollectionEvent struct {
	ID                 string  `json:"id"`
	CollectorID        string  `json:"collectorId"`
	OrganizationID     string  `json:"organizationId"`
	SpeciesID          string  `json:"speciesId"`
	SpeciesName        string  `json:"speciesName"`
	Quantity           string  `json:"quantity"`
	Unit               string  `json:"unit"`
	HarvestDate        string  `json:"harvestDate"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Location           string  `json:"location"`
	RawMaterialBatchID string  `json:"rawMaterialBatchId"`
}

func (e CollectionEvent) required() map[string]string {
	return map[string]string{"id": e.ID, "collectorId": e.CollectorID, "speciesId": e.SpeciesID}
}

// FinishedGood 成品
type FinishedGood struct {
	ID                  string `json:"id"`
	BatchNumber         string `json:"batchNumber"`
	ProductName         string `json:"productName"`
	ProductType         string `json:"productType"`
	Quantity            string `json:"quantity"`
	Unit                string `json:"unit"`
	ManufactureDate     string `json:"manufactureDate"`
	ExpiryDate          string `json:"expiryDate"`
	ManufacturerID      string `json:"manufacturerId"`
	RawMaterialBatchIDs string `json:"rawMaterialBatchIds"`
	Composition         string `json:"composition"`
}

func (g FinishedGood) required() map[string]string {
	return map[string]string{"id": g.ID, "batchNumber": g.BatchNumber, "productName": g.ProductName}
}

// SupplyChainEvent 供应链事件
type SupplyChainEvent struct {
	ID                 string `json:"id"`
	EventType          string `json:"eventType"`
	HandlerID          string `json:"handlerId"`
	FromLocationID     string `json:"fromLocationId"`
	ToLocationID       string `json:"toLocationId"`
	RawMaterialBatchID string `json:"rawMaterialBatchId"`
	FinishedGoodID     string `json:"finishedGoodId"`
	Notes              string `json:"notes"`
	Metadata           string `json:"metadata"`
	EventTime          string `json:"eventTime"`
}

func (e SupplyChainEvent) required() map[string]string {
	return map[string]string{"id": e.ID, "eventType": e.EventType}
}

// Record 账本上的一条公证记录
type Record struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	TxID       string `json:"txId"`
	RecordedAt string `json:"recordedAt"`
	Payload    string `json:"payload"` // 规范化后的 JSON
}

// checkRequired 按固定顺序报告缺失字段
func checkRequired(kind string, fields map[string]string) error {
	var missing []string
	for _, name := range []string{"id", "batchNumber", "productName", "eventType", "collectorId", "speciesId"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s requires %s", kind, strings.Join(missing, ", "))
	}
	return nil
}
