package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Repositories 仓库集合
type Repositories struct {
	Organization *OrganizationRepository
	User         *UserRepository
	Species      *SpeciesRepository
	Collection   *CollectionRepository
	Batch        *BatchRepository
	FinishedGood *FinishedGoodRepository
	LabTest      *LabTestRepository
	Certificate  *CertificateRepository
	Event        *EventRepository
	QRCode       *QRCodeRepository
	Document     *DocumentRepository
	Distributor  *DistributorRepository
	Admin        *AdminRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		User:         NewUserRepository(db),
		Species:      NewSpeciesRepository(db),
		Collection:   NewCollectionRepository(db),
		Batch:        NewBatchRepository(db),
		FinishedGood: NewFinishedGoodRepository(db),
		LabTest:      NewLabTestRepository(db),
		Certificate:  NewCertificateRepository(db),
		Event:        NewEventRepository(db),
		QRCode:       NewQRCodeRepository(db),
		Document:     NewDocumentRepository(db),
		Distributor:  NewDistributorRepository(db),
		Admin:        NewAdminRepository(db),
	}
}

// translate 统一转换gorm错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicate(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// paginate 统计总数并按页取数
func paginate(query *gorm.DB, page, pageSize int, order string, dest interface{}) (int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	err := query.
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(dest).Error
	return total, err
}

// generateCode 生成业务编码 {prefix}-{year}-{序号}，序号至少4位，超过9999后继续增长
func generateCode(ctx context.Context, db *gorm.DB, model interface{}, column, prefix string) (string, error) {
	year := time.Now().Format("2006")
	full := fmt.Sprintf("%s-%s-", prefix, year)

	// 序号位数不固定，先按长度再按字典序取最大
	var codes []string
	err := db.WithContext(ctx).
		Model(model).
		Where(column+" LIKE ?", full+"%").
		Order(fmt.Sprintf("LENGTH(%s) DESC, %s DESC", column, column)).
		Limit(1).
		Pluck(column, &codes).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if len(codes) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(codes[0], full))
		if err != nil {
			return "", fmt.Errorf("parse %s sequence %q: %w", column, codes[0], err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%04d", full, seq+1), nil
}

// countGrouped 按列分组计数
func countGrouped(ctx context.Context, db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []struct {
		GroupKey string
		Count    int64
	}
	err := db.WithContext(ctx).
		Model(model).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.GroupKey] = row.Count
	}
	return result, nil
}
