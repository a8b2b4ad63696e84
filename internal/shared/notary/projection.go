package notary

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidProjection 投影缺少必填业务字段
var ErrInvalidProjection = errors.New("invalid notary projection")

// 公证服务只接受非空原始类型：可选关联一律转为空字符串

// Str nil 指针转为空字符串
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Time 时间统一为 RFC3339；nil 或零值转为空字符串
func Time(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func missing(kind string, fields map[string]string) error {
	var names []string
	for _, name := range []string{"id", "batchNumber", "productName", "eventType", "collectorId", "speciesId"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrInvalidProjection, kind, strings.Join(names, ", "))
}

// CollectionEventProjection 采集事件上链结构
type CollectionEventProjection struct {
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

func (p CollectionEventProjection) Validate() error {
	return missing("collection event", map[string]string{
		"id":          p.ID,
		"collectorId": p.CollectorID,
		"speciesId":   p.SpeciesID,
	})
}

// FinishedGoodProjection 成品上链结构
type FinishedGoodProjection struct {
	ID                  string `json:"id"`
	BatchNumber         string `json:"batchNumber"`
	ProductName         string `json:"productName"`
	ProductType         string `json:"productType"`
	Quantity            string `json:"quantity"`
	Unit                string `json:"unit"`
	ManufactureDate     string `json:"manufactureDate"`
	ExpiryDate          string `json:"expiryDate"`
	ManufacturerID      string `json:"manufacturerId"`
	RawMaterialBatchIDs string `json:"rawMaterialBatchIds"` // 逗号分隔
	Composition         string `json:"composition"`         // batchId:percentage，逗号分隔
}

// Validate 批次号、ID、品名为必填，不做空串替代
func (p FinishedGoodProjection) Validate() error {
	return missing("finished good", map[string]string{
		"id":          p.ID,
		"batchNumber": p.BatchNumber,
		"productName": p.ProductName,
	})
}

// SupplyChainEventProjection 供应链事件上链结构
type SupplyChainEventProjection struct {
	ID                 string `json:"id"`
	EventType          string `json:"eventType"`
	HandlerID          string `json:"handlerId"`
	FromLocationID     string `json:"fromLocationId"`
	ToLocationID       string `json:"toLocationId"`
	RawMaterialBatchID string `json:"rawMaterialBatchId"`
	FinishedGoodID     string `json:"finishedGoodId"`
	Notes              string `json:"notes"`
	Metadata           string `json:"metadata"` // JSON 字符串
	EventTime          string `json:"eventTime"`
}

func (p SupplyChainEventProjection) Validate() error {
	return missing("supply chain event", map[string]string{
		"id":        p.ID,
		"eventType": p.EventType,
	})
}
