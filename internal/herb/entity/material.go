package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// HerbSpecies 药材品种
type HerbSpecies struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	ScientificName string    `json:"scientific_name" gorm:"size:200;uniqueIndex;not null"`
	CommonName     string    `json:"common_name" gorm:"size:200;not null"`
	Family         string    `json:"family" gorm:"size:100"`
	Description    string    `json:"description" gorm:"type:text"`
	PartsUsed      string    `json:"parts_used" gorm:"size:200"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (HerbSpecies) TableName() string {
	return "ayu_herb_species"
}

// CollectionEvent 采集事件。创建后只允许回填 RawMaterialBatchID
type CollectionEvent struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:36"`
	CollectorID        string          `json:"collector_id" gorm:"size:36;not null;index"`
	OrganizationID     string          `json:"organization_id" gorm:"size:36;not null;index"`
	SpeciesID          string          `json:"species_id" gorm:"size:36;not null;index"`
	Quantity           decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Unit               string          `json:"unit" gorm:"size:20;not null"`
	HarvestDate        time.Time       `json:"harvest_date"`
	Latitude           float64         `json:"latitude"`
	Longitude          float64         `json:"longitude"`
	Location           string          `json:"location" gorm:"size:200"`
	Weather            string          `json:"weather" gorm:"size:100"`
	Notes              string          `json:"notes" gorm:"type:text"`
	RawMaterialBatchID *string         `json:"raw_material_batch_id" gorm:"size:36;index"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Species   *HerbSpecies `json:"species,omitempty" gorm:"foreignKey:SpeciesID"`
	Documents []Document   `json:"documents,omitempty" gorm:"-"`
}

func (CollectionEvent) TableName() string {
	return "ayu_collection_events"
}

// 原料批次状态
const (
	BatchStatusCreated      = "CREATED"
	BatchStatusInProcessing = "IN_PROCESSING"
	BatchStatusProcessed    = "PROCESSED"
	BatchStatusQuarantined  = "QUARANTINED"
)

// BatchStatuses 合法批次状态
var BatchStatuses = []string{BatchStatusCreated, BatchStatusInProcessing, BatchStatusProcessed, BatchStatusQuarantined}

// ValidBatchTransitions 原料批次状态流转，只进不退
var ValidBatchTransitions = map[string][]string{
	BatchStatusCreated:      {BatchStatusInProcessing, BatchStatusQuarantined},
	BatchStatusInProcessing: {BatchStatusProcessed, BatchStatusQuarantined},
}

// RawMaterialBatch 原料批次，由一个或多个采集事件汇总而成
type RawMaterialBatch struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	BatchNumber     string          `json:"batch_number" gorm:"size:32;uniqueIndex;not null"`
	HerbName        string          `json:"herb_name" gorm:"size:200;not null"`
	ScientificName  string          `json:"scientific_name" gorm:"size:200"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Unit            string          `json:"unit" gorm:"size:20;not null"`
	Status          string          `json:"status" gorm:"size:20;default:CREATED;index"`
	Description     string          `json:"description" gorm:"type:text"`
	StorageLocation string          `json:"storage_location" gorm:"size:200"`
	CurrentOwnerID  string          `json:"current_owner_id" gorm:"size:36;index"`
	CreatedByID     string          `json:"created_by_id" gorm:"size:36"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	CollectionEvents []CollectionEvent `json:"collection_events,omitempty" gorm:"foreignKey:RawMaterialBatchID"`
}

func (RawMaterialBatch) TableName() string {
	return "ayu_raw_material_batches"
}

// FinishedGood 成品
type FinishedGood struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	BatchNumber     string          `json:"batch_number" gorm:"size:64;uniqueIndex;not null"`
	ProductName     string          `json:"product_name" gorm:"size:200;not null"`
	ProductType     string          `json:"product_type" gorm:"size:100"`
	Description     string          `json:"description" gorm:"type:text"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	Unit            string          `json:"unit" gorm:"size:20;not null"`
	ManufactureDate *time.Time      `json:"manufacture_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	ManufacturerID  string          `json:"manufacturer_id" gorm:"size:36;not null;index"`
	CreatedByID     string          `json:"created_by_id" gorm:"size:36"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Compositions []FinishedGoodComposition `json:"compositions,omitempty" gorm:"foreignKey:FinishedGoodID"`
}

func (FinishedGood) TableName() string {
	return "ayu_finished_goods"
}

// FinishedGoodComposition 成品配比：每个原料批次占比与用量
type FinishedGoodComposition struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:36"`
	FinishedGoodID     string          `json:"finished_good_id" gorm:"size:36;not null;index"`
	RawMaterialBatchID string          `json:"raw_material_batch_id" gorm:"size:36;not null;index"`
	Percentage         decimal.Decimal `json:"percentage" gorm:"type:decimal(7,4);not null"`
	QuantityUsed       decimal.Decimal `json:"quantity_used" gorm:"type:decimal(20,4)"`
	Unit               string          `json:"unit" gorm:"size:20"`
	CreatedAt          time.Time       `json:"created_at"`

	RawMaterialBatch *RawMaterialBatch `json:"raw_material_batch,omitempty" gorm:"foreignKey:RawMaterialBatchID"`
}

func (FinishedGoodComposition) TableName() string {
	return "ayu_finished_good_compositions"
}
