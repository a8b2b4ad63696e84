package repository

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// DocumentRepository 附件仓库
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// RefExists 多态引用指向的记录是否存在
func (r *DocumentRepository) RefExists(ctx context.Context, ref entity.EntityRef) (bool, error) {
	model := ref.Model()
	if model == nil {
		return false, entity.ErrInvalidEntityRef
	}
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", ref.ID).Count(&count).Error
	return count > 0, err
}

// Create 创建附件
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

// FindByID 根据ID查找附件
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// FindByRef 实体的全部附件
func (r *DocumentRepository) FindByRef(ctx context.Context, ref entity.EntityRef) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

// Delete 删除附件记录
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
