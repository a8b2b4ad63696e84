package repository

import (
	"context"
	"errors"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

// LabTestRepository 检测仓库
type LabTestRepository struct {
	db *gorm.DB
}

func NewLabTestRepository(db *gorm.DB) *LabTestRepository {
	return &LabTestRepository{db: db}
}

func (r *LabTestRepository) filtered(ctx context.Context, filters map[string]string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.LabTest{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if labID := filters["lab_id"]; labID != "" {
		query = query.Where("lab_id = ?", labID)
	}
	if priority := filters["priority"]; priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if batchID := filters["raw_material_batch_id"]; batchID != "" {
		query = query.Where("raw_material_batch_id = ?", batchID)
	}
	if fgID := filters["finished_good_id"]; fgID != "" {
		query = query.Where("finished_good_id = ?", fgID)
	}
	return query
}

// FindAll 查询检测列表
func (r *LabTestRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.LabTest, int64, error) {
	var items []entity.LabTest
	total, err := paginate(r.filtered(ctx, filters), page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// ListForExport 导出用，不分页
func (r *LabTestRepository) ListForExport(ctx context.Context, filters map[string]string) ([]entity.LabTest, error) {
	var items []entity.LabTest
	err := r.filtered(ctx, filters).Order("created_at ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找检测
func (r *LabTestRepository) FindByID(ctx context.Context, id string) (*entity.LabTest, error) {
	var test entity.LabTest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&test).Error; err != nil {
		return nil, translate(err)
	}
	return &test, nil
}

// Create 创建检测
func (r *LabTestRepository) Create(ctx context.Context, test *entity.LabTest) error {
	return translate(r.db.WithContext(ctx).Create(test).Error)
}

// LinkEvent 回填开单时的供应链事件
func (r *LabTestRepository) LinkEvent(ctx context.Context, id, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.LabTest{}).
		Where("id = ?", id).
		UpdateColumn("supply_chain_event_id", eventID).Error
}

// UpdateStatus 仅当当前状态仍为 from 时写入状态及附带字段
func (r *LabTestRepository) UpdateStatus(ctx context.Context, id, from string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&entity.LabTest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// Complete 完成检测并签发证书（同一事务）。同一检测最多一张证书，
// 已存在时返回已有证书且 created 为 false
func (r *LabTestRepository) Complete(ctx context.Context, id, from string, updates map[string]interface{}, cert *entity.Certificate) (*entity.Certificate, bool, error) {
	var issued *entity.Certificate
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.LabTest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		var existing entity.Certificate
		err := tx.Where("lab_test_id = ?", id).First(&existing).Error
		if err == nil {
			issued = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		number, err := generateCode(ctx, tx, &entity.Certificate{}, "certificate_number", "CERT")
		if err != nil {
			return err
		}
		cert.CertificateNumber = number
		cert.LabTestID = &id
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		issued = cert
		created = true
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return issued, created, nil
}

// CountByStatus 按状态统计检测
func (r *LabTestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db, &entity.LabTest{}, "status")
}

// CertificateRepository 证书仓库
type CertificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindAll 查询证书列表
func (r *CertificateRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Certificate, int64, error) {
	var items []entity.Certificate
	query := r.db.WithContext(ctx).Model(&entity.Certificate{})

	if issuer := filters["issued_by_id"]; issuer != "" {
		query = query.Where("issued_by_id = ?", issuer)
	}
	if certType := filters["certificate_type"]; certType != "" {
		query = query.Where("certificate_type = ?", certType)
	}
	switch filters["is_valid"] {
	case "true":
		query = query.Where("is_valid = ?", true)
	case "false":
		query = query.Where("is_valid = ?", false)
	}

	total, err := paginate(query, page, pageSize, "issued_date DESC", &items)
	return items, total, err
}

// FindByID 根据ID查找证书
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*entity.Certificate, error) {
	var cert entity.Certificate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, translate(err)
	}
	return &cert, nil
}

// FindByNumber 根据证书编号查找
func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*entity.Certificate, error) {
	var cert entity.Certificate
	if err := r.db.WithContext(ctx).Where("certificate_number = ?", number).First(&cert).Error; err != nil {
		return nil, translate(err)
	}
	return &cert, nil
}

// CountByLabTest 检测关联的证书数
func (r *CertificateRepository) CountByLabTest(ctx context.Context, labTestID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Certificate{}).
		Where("lab_test_id = ?", labTestID).
		Count(&count).Error
	return count, err
}

// SetSignature 记录证书PDF的存储key
func (r *CertificateRepository) SetSignature(ctx context.Context, id, key string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Certificate{}).
		Where("id = ?", id).
		Update("signature", key).Error
}

// Revoke 吊销证书
func (r *CertificateRepository) Revoke(ctx context.Context, id, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Certificate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_valid": false, "revoked_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count 证书总数
func (r *CertificateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Certificate{}).Count(&count).Error
	return count, err
}
