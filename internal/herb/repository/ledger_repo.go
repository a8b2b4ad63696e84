package repository

import (
	"context"
	"time"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// EventRepository 供应链事件仓库。事件只追加，不提供更新
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 写入供应链事件
func (r *EventRepository) Create(ctx context.Context, event *entity.SupplyChainEvent) error {
	return r.db.WithContext(ctx).Omit("Handler").Create(event).Error
}

// FindByID 根据ID查找事件
func (r *EventRepository) FindByID(ctx context.Context, id string) (*entity.SupplyChainEvent, error) {
	var event entity.SupplyChainEvent
	err := r.db.WithContext(ctx).
		Preload("Handler").
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// FindAll 查询事件列表
func (r *EventRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SupplyChainEvent, int64, error) {
	var items []entity.SupplyChainEvent
	query := r.db.WithContext(ctx).Model(&entity.SupplyChainEvent{})

	if eventType := filters["event_type"]; eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if handlerID := filters["handler_id"]; handlerID != "" {
		query = query.Where("handler_id = ?", handlerID)
	}
	if orgID := filters["organization_id"]; orgID != "" {
		query = query.Where("from_location_id = ? OR to_location_id = ?", orgID, orgID)
	}
	if batchID := filters["raw_material_batch_id"]; batchID != "" {
		query = query.Where("raw_material_batch_id = ?", batchID)
	}
	if fgID := filters["finished_good_id"]; fgID != "" {
		query = query.Where("finished_good_id = ?", fgID)
	}

	total, err := paginate(query, page, pageSize, "event_time DESC", &items)
	return items, total, err
}

// FindTrail 成品及其原料批次的全部事件，按时间正序
func (r *EventRepository) FindTrail(ctx context.Context, finishedGoodID string, batchIDs []string) ([]entity.SupplyChainEvent, error) {
	var items []entity.SupplyChainEvent
	query := r.db.WithContext(ctx).Where("finished_good_id = ?", finishedGoodID)
	if len(batchIDs) > 0 {
		query = query.Or("raw_material_batch_id IN ?", batchIDs)
	}
	err := query.Order("event_time ASC").Find(&items).Error
	return items, err
}

// Count 事件总数
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.SupplyChainEvent{}).Count(&count).Error
	return count, err
}

// QRCodeRepository 二维码仓库
type QRCodeRepository struct {
	db *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

// Create 创建二维码
func (r *QRCodeRepository) Create(ctx context.Context, qr *entity.QRCode) error {
	return translate(r.db.WithContext(ctx).Create(qr).Error)
}

// FindByID 根据ID查找二维码
func (r *QRCodeRepository) FindByID(ctx context.Context, id string) (*entity.QRCode, error) {
	var qr entity.QRCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&qr).Error; err != nil {
		return nil, translate(err)
	}
	return &qr, nil
}

// FindByHash 根据hash查找二维码
func (r *QRCodeRepository) FindByHash(ctx context.Context, hash string) (*entity.QRCode, error) {
	var qr entity.QRCode
	if err := r.db.WithContext(ctx).Where("qr_hash = ?", hash).First(&qr).Error; err != nil {
		return nil, translate(err)
	}
	return &qr, nil
}

// FindByEntity 实体关联的二维码
func (r *QRCodeRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]entity.QRCode, error) {
	var items []entity.QRCode
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindAll 查询二维码列表；organization_id 按生成人所属组织过滤
func (r *QRCodeRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.QRCode, int64, error) {
	var items []entity.QRCode
	query := r.db.WithContext(ctx).Model(&entity.QRCode{})

	if orgID := filters["organization_id"]; orgID != "" {
		users := r.db.Model(&entity.User{}).Select("id").Where("organization_id = ?", orgID)
		query = query.Where("generated_by_id IN (?)", users)
	}
	if entityType := filters["entity_type"]; entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if filters["active"] == "true" {
		query = query.Where("is_active = ?", true)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// RecordScan 原子地累加扫码次数；未知或已停用的hash返回 ErrNotFound
func (r *QRCodeRepository) RecordScan(ctx context.Context, hash string, at time.Time) (*entity.QRCode, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.QRCode{}).
		Where("qr_hash = ? AND is_active = ?", hash, true).
		Updates(map[string]interface{}{
			"scan_count":      gorm.Expr("scan_count + ?", 1),
			"last_scanned_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByHash(ctx, hash)
}

// Deactivate 停用二维码
func (r *QRCodeRepository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.QRCode{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TotalScans 扫码总次数
func (r *QRCodeRepository) TotalScans(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.QRCode{}).
		Select("COALESCE(SUM(scan_count), 0)").
		Scan(&total).Error
	return total, err
}
