package entity

import (
	"time"

	"gorm.io/datatypes"
)

// SupplyChainEvent 供应链事件（追溯账本行）。关联二维码后视为不可变历史，
// 后续状态变化只追加新事件
type SupplyChainEvent struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	EventType          string         `json:"event_type" gorm:"size:20;not null;index"`
	HandlerID          string         `json:"handler_id" gorm:"size:36;not null;index"`
	FromLocationID     string         `json:"from_location_id" gorm:"size:36;index"`
	ToLocationID       string         `json:"to_location_id" gorm:"size:36;index"`
	RawMaterialBatchID *string        `json:"raw_material_batch_id" gorm:"size:36;index"`
	FinishedGoodID     *string        `json:"finished_good_id" gorm:"size:36;index"`
	Notes              string         `json:"notes" gorm:"type:text"`
	Metadata           datatypes.JSON `json:"metadata"`
	EventTime          time.Time      `json:"event_time" gorm:"index"`
	CreatedAt          time.Time      `json:"created_at"`

	Handler *User `json:"handler,omitempty" gorm:"foreignKey:HandlerID"`
}

func (SupplyChainEvent) TableName() string {
	return "ayu_supply_chain_events"
}

// QRCode 二维码。经追溯流水线生成时始终指向供应链事件
type QRCode struct {
	ID            string         `json:"id" gorm:"primaryKey;size:36"`
	QRHash        string         `json:"qr_hash" gorm:"size:64;uniqueIndex;not null"`
	EntityType    string         `json:"entity_type" gorm:"size:30;not null;index:idx_qr_entity"`
	EntityID      string         `json:"entity_id" gorm:"size:36;not null;index:idx_qr_entity"`
	GeneratedByID string         `json:"generated_by_id" gorm:"size:36;index"`
	ScanCount     int64          `json:"scan_count" gorm:"default:0"`
	LastScannedAt *time.Time     `json:"last_scanned_at"`
	CustomData    datatypes.JSON `json:"custom_data"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (QRCode) TableName() string {
	return "ayu_qr_codes"
}

// Document 附件，多态关联到采集事件/原料批次/供应链事件/成品之一
type Document struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	EntityKind   string    `json:"entity_kind" gorm:"size:30;not null;index:idx_doc_entity"`
	EntityID     string    `json:"entity_id" gorm:"size:36;not null;index:idx_doc_entity"`
	FileName     string    `json:"file_name" gorm:"size:256;not null"`
	StorageKey   string    `json:"storage_key" gorm:"size:512;not null"`
	MimeType     string    `json:"mime_type" gorm:"size:128"`
	FileSize     int64     `json:"file_size"`
	Description  string    `json:"description" gorm:"type:text"`
	UploadedByID string    `json:"uploaded_by_id" gorm:"size:36"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Document) TableName() string {
	return "ayu_documents"
}

// Ref 文档关联的实体
func (d *Document) Ref() EntityRef {
	return EntityRef{Kind: d.EntityKind, ID: d.EntityID}
}
