package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributorInventory 分销商库存
type DistributorInventory struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:36"`
	DistributorID      string          `json:"distributor_id" gorm:"size:36;not null;index"`
	RawMaterialBatchID *string         `json:"raw_material_batch_id" gorm:"size:36;index"`
	FinishedGoodID     *string         `json:"finished_good_id" gorm:"size:36;index"`
	Quantity           decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Unit               string          `json:"unit" gorm:"size:20;not null"`
	StorageLocation    string          `json:"storage_location" gorm:"size:200"`
	ReceivedFromID     string          `json:"received_from_id" gorm:"size:36"`
	SupplyChainEventID *string         `json:"supply_chain_event_id" gorm:"size:36"`
	Notes              string          `json:"notes" gorm:"type:text"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (DistributorInventory) TableName() string {
	return "ayu_distributor_inventory"
}

// 发货状态
const (
	ShipmentStatusPending   = "PENDING"
	ShipmentStatusInTransit = "IN_TRANSIT"
	ShipmentStatusDelivered = "DELIVERED"
	ShipmentStatusCancelled = "CANCELLED"
)

// ValidShipmentTransitions 发货状态流转
var ValidShipmentTransitions = map[string][]string{
	ShipmentStatusPending:   {ShipmentStatusInTransit, ShipmentStatusCancelled},
	ShipmentStatusInTransit: {ShipmentStatusDelivered},
}

// DistributorShipment 分销发货单
type DistributorShipment struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:36"`
	ShipmentNumber     string          `json:"shipment_number" gorm:"size:32;uniqueIndex;not null"`
	DistributorID      string          `json:"distributor_id" gorm:"size:36;not null;index"`
	DestinationOrgID   string          `json:"destination_org_id" gorm:"size:36;not null;index"`
	InventoryID        string          `json:"inventory_id" gorm:"size:36;not null"`
	Quantity           decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Unit               string          `json:"unit" gorm:"size:20;not null"`
	Status             string          `json:"status" gorm:"size:20;default:PENDING;index"`
	TrackingNumber     string          `json:"tracking_number" gorm:"size:100"`
	Carrier            string          `json:"carrier" gorm:"size:100"`
	ShippedAt          *time.Time      `json:"shipped_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	SupplyChainEventID *string         `json:"supply_chain_event_id" gorm:"size:36"`
	Notes              string          `json:"notes" gorm:"type:text"`
	CreatedByID        string          `json:"created_by_id" gorm:"size:36"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (DistributorShipment) TableName() string {
	return "ayu_distributor_shipments"
}
