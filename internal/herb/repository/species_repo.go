package repository

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// SpeciesRepository 药材品种仓库
type SpeciesRepository struct {
	db *gorm.DB
}

func NewSpeciesRepository(db *gorm.DB) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

// FindAll 查询品种列表
func (r *SpeciesRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.HerbSpecies, int64, error) {
	var items []entity.HerbSpecies
	query := r.db.WithContext(ctx).Model(&entity.HerbSpecies{})

	if keyword := filters["keyword"]; keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("scientific_name LIKE ? OR common_name LIKE ?", like, like)
	}
	if family := filters["family"]; family != "" {
		query = query.Where("family = ?", family)
	}
	if filters["include_inactive"] != "true" {
		query = query.Where("is_active = ?", true)
	}

	total, err := paginate(query, page, pageSize, "scientific_name ASC", &items)
	return items, total, err
}

// FindByID 根据ID查找品种
func (r *SpeciesRepository) FindByID(ctx context.Context, id string) (*entity.HerbSpecies, error) {
	var species entity.HerbSpecies
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&species).Error; err != nil {
		return nil, translate(err)
	}
	return &species, nil
}

// Create 创建品种
func (r *SpeciesRepository) Create(ctx context.Context, species *entity.HerbSpecies) error {
	return translate(r.db.WithContext(ctx).Create(species).Error)
}

// Update 更新品种
func (r *SpeciesRepository) Update(ctx context.Context, species *entity.HerbSpecies) error {
	return translate(r.db.WithContext(ctx).Save(species).Error)
}

// IsReferenced 是否已被采集事件引用
func (r *SpeciesRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.CollectionEvent{}).
		Where("species_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Delete 删除品种
func (r *SpeciesRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.HerbSpecies{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
