package repository

import (
	"context"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// OrganizationRepository 组织仓库
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindAll 查询组织列表
func (r *OrganizationRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Organization, int64, error) {
	var items []entity.Organization
	query := r.db.WithContext(ctx).Model(&entity.Organization{})

	if orgType := filters["type"]; orgType != "" {
		query = query.Where("type = ?", orgType)
	}
	switch filters["is_active"] {
	case "true":
		query = query.Where("is_active = ?", true)
	case "false":
		query = query.Where("is_active = ?", false)
	}
	if keyword := filters["keyword"]; keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// FindByID 根据ID查找组织
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*entity.Organization, error) {
	var org entity.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

// CreateWithUser 同一事务内创建组织及其首个用户
func (r *OrganizationRepository) CreateWithUser(ctx context.Context, org *entity.Organization, user *entity.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		user.OrganizationID = org.ID
		return tx.Create(user).Error
	}))
}

// SetActive 启用/停用组织，并记录管理操作
func (r *OrganizationRepository) SetActive(ctx context.Context, id string, active bool, action *entity.AdminAction) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Organization{}).Where("id = ?", id).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(action).Error
	}))
}

// CountByType 按类型统计组织数
func (r *OrganizationRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db, &entity.Organization{}, "type")
}

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据ID查找用户（含组织）
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户（含组织）
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// EmailExists 邮箱是否已注册
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// FindByOrganization 组织下的用户
func (r *UserRepository) FindByOrganization(ctx context.Context, orgID string) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// TouchLogin 更新最近登录时间
func (r *UserRepository) TouchLogin(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		UpdateColumn("last_login_at", user.LastLoginAt).Error
}

// SetActive 启用/停用用户，并记录管理操作
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, action *entity.AdminAction) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", id).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(action).Error
	}))
}
