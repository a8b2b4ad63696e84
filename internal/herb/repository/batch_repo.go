package repository

import (
	"context"
	"errors"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

var (
	ErrAlreadyBatched = errors.New("collection event already assigned to a batch")
	ErrStaleStatus    = errors.New("status changed concurrently")
)

// BatchRepository 原料批次仓库
type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) filtered(ctx context.Context, filters map[string]string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.RawMaterialBatch{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if ownerID := filters["current_owner_id"]; ownerID != "" {
		query = query.Where("current_owner_id = ?", ownerID)
	}
	if keyword := filters["keyword"]; keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("batch_number LIKE ? OR herb_name LIKE ? OR scientific_name LIKE ?", like, like, like)
	}
	return query
}

// FindAll 查询批次列表
func (r *BatchRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RawMaterialBatch, int64, error) {
	var items []entity.RawMaterialBatch
	total, err := paginate(r.filtered(ctx, filters), page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// ListForExport 导出用，不分页
func (r *BatchRepository) ListForExport(ctx context.Context, filters map[string]string) ([]entity.RawMaterialBatch, error) {
	var items []entity.RawMaterialBatch
	err := r.filtered(ctx, filters).Order("batch_number ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找批次（含采集事件）
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*entity.RawMaterialBatch, error) {
	var batch entity.RawMaterialBatch
	err := r.db.WithContext(ctx).
		Preload("CollectionEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("harvest_date ASC")
		}).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, translate(err)
	}
	return &batch, nil
}

// FindByBatchNumber 根据批次号查找
func (r *BatchRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*entity.RawMaterialBatch, error) {
	var batch entity.RawMaterialBatch
	if err := r.db.WithContext(ctx).Where("batch_number = ?", batchNumber).First(&batch).Error; err != nil {
		return nil, translate(err)
	}
	return &batch, nil
}

// FindByIDs 批量查找
func (r *BatchRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.RawMaterialBatch, error) {
	var items []entity.RawMaterialBatch
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// CreateWithEvents 同一事务内生成批次号、写入批次并回填采集事件的批次关联
func (r *BatchRepository) CreateWithEvents(ctx context.Context, batch *entity.RawMaterialBatch, eventIDs []string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []entity.CollectionEvent
		if err := tx.Where("id IN ?", eventIDs).Find(&events).Error; err != nil {
			return err
		}
		if len(events) != len(eventIDs) {
			return ErrNotFound
		}
		for _, ev := range events {
			if ev.RawMaterialBatchID != nil {
				return ErrAlreadyBatched
			}
		}

		code, err := generateCode(ctx, tx, &entity.RawMaterialBatch{}, "batch_number", "RMB")
		if err != nil {
			return err
		}
		batch.BatchNumber = code
		if err := tx.Omit("CollectionEvents").Create(batch).Error; err != nil {
			return err
		}

		res := tx.Model(&entity.CollectionEvent{}).
			Where("id IN ? AND raw_material_batch_id IS NULL", eventIDs).
			Update("raw_material_batch_id", batch.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(eventIDs)) {
			return ErrAlreadyBatched
		}
		return nil
	}))
}

// UpdateStatus 仅当当前状态仍为 from 时更新
func (r *BatchRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.RawMaterialBatch{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// CountByStatus 按状态统计批次
func (r *BatchRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db, &entity.RawMaterialBatch{}, "status")
}

// Exists 批次是否存在
func (r *BatchRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RawMaterialBatch{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
