package repository

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// CollectionRepository 采集事件仓库
type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// FindAll 查询采集事件列表
func (r *CollectionRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CollectionEvent, int64, error) {
	var items []entity.CollectionEvent
	query := r.db.WithContext(ctx).Model(&entity.CollectionEvent{})

	if speciesID := filters["species_id"]; speciesID != "" {
		query = query.Where("species_id = ?", speciesID)
	}
	if collectorID := filters["collector_id"]; collectorID != "" {
		query = query.Where("collector_id = ?", collectorID)
	}
	if orgID := filters["organization_id"]; orgID != "" {
		query = query.Where("organization_id = ?", orgID)
	}
	if batchID := filters["raw_material_batch_id"]; batchID != "" {
		query = query.Where("raw_material_batch_id = ?", batchID)
	}
	if filters["unbatched"] == "true" {
		query = query.Where("raw_material_batch_id IS NULL")
	}

	total, err := paginate(query.Preload("Species"), page, pageSize, "harvest_date DESC", &items)
	return items, total, err
}

// FindByID 根据ID查找采集事件（含品种）
func (r *CollectionRepository) FindByID(ctx context.Context, id string) (*entity.CollectionEvent, error) {
	var event entity.CollectionEvent
	err := r.db.WithContext(ctx).
		Preload("Species").
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// CreateWithDocument 同一事务内写入采集事件及可选附件
func (r *CollectionRepository) CreateWithDocument(ctx context.Context, event *entity.CollectionEvent, doc *entity.Document) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Species").Create(event).Error; err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		doc.EntityKind = entity.KindCollectionEvent
		doc.EntityID = event.ID
		return tx.Create(doc).Error
	}))
}
