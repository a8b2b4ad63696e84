package repository

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// FinishedGoodRepository 成品仓库
type FinishedGoodRepository struct {
	db *gorm.DB
}

func NewFinishedGoodRepository(db *gorm.DB) *FinishedGoodRepository {
	return &FinishedGoodRepository{db: db}
}

// FindAll 查询成品列表
func (r *FinishedGoodRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.FinishedGood, int64, error) {
	var items []entity.FinishedGood
	query := r.db.WithContext(ctx).Model(&entity.FinishedGood{})

	if manufacturerID := filters["manufacturer_id"]; manufacturerID != "" {
		query = query.Where("manufacturer_id = ?", manufacturerID)
	}
	if productType := filters["product_type"]; productType != "" {
		query = query.Where("product_type = ?", productType)
	}
	if keyword := filters["keyword"]; keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("product_name LIKE ? OR batch_number LIKE ?", like, like)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// FindByID 根据ID查找成品（含配比及原料批次）
func (r *FinishedGoodRepository) FindByID(ctx context.Context, id string) (*entity.FinishedGood, error) {
	var fg entity.FinishedGood
	err := r.db.WithContext(ctx).
		Preload("Compositions.RawMaterialBatch").
		Where("id = ?", id).
		First(&fg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &fg, nil
}

// FindByBatchNumber 根据批次号查找成品
func (r *FinishedGoodRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*entity.FinishedGood, error) {
	var fg entity.FinishedGood
	if err := r.db.WithContext(ctx).Where("batch_number = ?", batchNumber).First(&fg).Error; err != nil {
		return nil, translate(err)
	}
	return &fg, nil
}

// CreateWithCompositions 同一事务内写入成品及其配比
func (r *FinishedGoodRepository) CreateWithCompositions(ctx context.Context, fg *entity.FinishedGood) error {
	compositions := fg.Compositions
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Compositions").Create(fg).Error; err != nil {
			return err
		}
		for i := range compositions {
			compositions[i].FinishedGoodID = fg.ID
			if err := tx.Omit("RawMaterialBatch").Create(&compositions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// Exists 成品是否存在
func (r *FinishedGoodRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.FinishedGood{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
