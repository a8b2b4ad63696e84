package repository

import (
	"context"
	"time"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// AdminRepository 管理审计与系统告警仓库
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindActions 查询管理操作记录
func (r *AdminRepository) FindActions(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.AdminAction, int64, error) {
	var items []entity.AdminAction
	query := r.db.WithContext(ctx).Model(&entity.AdminAction{})

	if adminID := filters["admin_id"]; adminID != "" {
		query = query.Where("admin_id = ?", adminID)
	}
	if action := filters["action"]; action != "" {
		query = query.Where("action = ?", action)
	}
	if targetID := filters["target_id"]; targetID != "" {
		query = query.Where("target_id = ?", targetID)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// CreateAlert 创建告警
func (r *AdminRepository) CreateAlert(ctx context.Context, alert *entity.SystemAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// FindAlerts 查询告警
func (r *AdminRepository) FindAlerts(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SystemAlert, int64, error) {
	var items []entity.SystemAlert
	query := r.db.WithContext(ctx).Model(&entity.SystemAlert{})

	if severity := filters["severity"]; severity != "" {
		query = query.Where("severity = ?", severity)
	}
	switch filters["is_resolved"] {
	case "true":
		query = query.Where("is_resolved = ?", true)
	case "false":
		query = query.Where("is_resolved = ?", false)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// ResolveAlert 处理告警并记录管理操作
func (r *AdminRepository) ResolveAlert(ctx context.Context, id, adminID string, at time.Time, action *entity.AdminAction) (*entity.SystemAlert, error) {
	var alert entity.SystemAlert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&alert).Error; err != nil {
			return err
		}
		alert.IsResolved = true
		alert.ResolvedByID = &adminID
		alert.ResolvedAt = &at
		if err := tx.Save(&alert).Error; err != nil {
			return err
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

// CountOpenAlerts 未处理告警数
func (r *AdminRepository) CountOpenAlerts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.SystemAlert{}).
		Where("is_resolved = ?", false).
		Count(&count).Error
	return count, err
}

// CountRows 统计任意模型行数，用于仪表盘
func (r *AdminRepository) CountRows(ctx context.Context, model interface{}) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Count(&count).Error
	return count, err
}
