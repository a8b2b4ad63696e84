package repository

import (
	"context"
	"errors"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient inventory quantity")

// DistributorRepository 分销商库存与发货仓库
type DistributorRepository struct {
	db *gorm.DB
}

func NewDistributorRepository(db *gorm.DB) *DistributorRepository {
	return &DistributorRepository{db: db}
}

// CreateInventory 入库
func (r *DistributorRepository) CreateInventory(ctx context.Context, item *entity.DistributorInventory) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

// FindInventory 根据ID查找库存
func (r *DistributorRepository) FindInventory(ctx context.Context, id string) (*entity.DistributorInventory, error) {
	var item entity.DistributorInventory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindAllInventory 查询库存列表
func (r *DistributorRepository) FindAllInventory(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DistributorInventory, int64, error) {
	var items []entity.DistributorInventory
	query := r.db.WithContext(ctx).Model(&entity.DistributorInventory{})

	if distributorID := filters["distributor_id"]; distributorID != "" {
		query = query.Where("distributor_id = ?", distributorID)
	}
	if batchID := filters["raw_material_batch_id"]; batchID != "" {
		query = query.Where("raw_material_batch_id = ?", batchID)
	}
	if fgID := filters["finished_good_id"]; fgID != "" {
		query = query.Where("finished_good_id = ?", fgID)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// LinkInventoryEvent 回填入库事件
func (r *DistributorRepository) LinkInventoryEvent(ctx context.Context, id, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.DistributorInventory{}).
		Where("id = ?", id).
		UpdateColumn("supply_chain_event_id", eventID).Error
}

// CreateShipment 生成发货单号、扣减库存并写入发货单（同一事务）
func (r *DistributorRepository) CreateShipment(ctx context.Context, shipment *entity.DistributorShipment) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.DistributorInventory{}).
			Where("id = ? AND distributor_id = ? AND quantity >= ?", shipment.InventoryID, shipment.DistributorID, shipment.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", shipment.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		number, err := generateCode(ctx, tx, &entity.DistributorShipment{}, "shipment_number", "SHP")
		if err != nil {
			return err
		}
		shipment.ShipmentNumber = number
		return tx.Create(shipment).Error
	}))
}

// FindShipment 根据ID查找发货单
func (r *DistributorRepository) FindShipment(ctx context.Context, id string) (*entity.DistributorShipment, error) {
	var shipment entity.DistributorShipment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error; err != nil {
		return nil, translate(err)
	}
	return &shipment, nil
}

// FindAllShipments 查询发货单列表
func (r *DistributorRepository) FindAllShipments(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DistributorShipment, int64, error) {
	var items []entity.DistributorShipment
	query := r.db.WithContext(ctx).Model(&entity.DistributorShipment{})

	if distributorID := filters["distributor_id"]; distributorID != "" {
		query = query.Where("distributor_id = ?", distributorID)
	}
	if destID := filters["destination_org_id"]; destID != "" {
		query = query.Where("destination_org_id = ?", destID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	total, err := paginate(query, page, pageSize, "created_at DESC", &items)
	return items, total, err
}

// UpdateShipmentStatus 仅当当前状态仍为 from 时更新；取消时归还库存
func (r *DistributorRepository) UpdateShipmentStatus(ctx context.Context, shipment *entity.DistributorShipment, from string, updates map[string]interface{}) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.DistributorShipment{}).
			Where("id = ? AND status = ?", shipment.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}
		if updates["status"] != entity.ShipmentStatusCancelled {
			return nil
		}
		return tx.Model(&entity.DistributorInventory{}).
			Where("id = ?", shipment.InventoryID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", shipment.Quantity)).Error
	}))
}

// LinkShipmentEvent 回填发货事件
func (r *DistributorRepository) LinkShipmentEvent(ctx context.Context, id, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.DistributorShipment{}).
		Where("id = ?", id).
		UpdateColumn("supply_chain_event_id", eventID).Error
}
