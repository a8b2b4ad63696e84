package entity

import (
	"errors"
	"fmt"
)

// 组织类型
const (
	OrgTypeFarmer       = "FARMER"
	OrgTypeManufacturer = "MANUFACTURER"
	OrgTypeLabs         = "LABS"
	OrgTypeDistributor  = "DISTRIBUTOR"
	OrgTypeAdmin        = "ADMIN" // 内部类型，不对外注册
)

// PublicOrgTypes 可自助注册的组织类型
var PublicOrgTypes = []string{OrgTypeFarmer, OrgTypeManufacturer, OrgTypeLabs, OrgTypeDistributor}

// 用户角色
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// 数量单位
const (
	UnitKG      = "KG"
	UnitTonnes  = "TONNES"
	UnitGrams   = "GRAMS"
	UnitPounds  = "POUNDS"
	UnitPieces  = "PIECES"
	UnitBottles = "BOTTLES"
	UnitBoxes   = "BOXES"
)

// QuantityUnits 合法数量单位
var QuantityUnits = []string{UnitKG, UnitTonnes, UnitGrams, UnitPounds, UnitPieces, UnitBottles, UnitBoxes}

// 供应链事件类型（唯一权威枚举，DISTRIBUTION 已并入）
const (
	EventTypeProcessing   = "PROCESSING"
	EventTypeTesting      = "TESTING"
	EventTypeTransfer     = "TRANSFER"
	EventTypeStorage      = "STORAGE"
	EventTypePackaging    = "PACKAGING"
	EventTypeDistribution = "DISTRIBUTION"
)

// SupplyChainEventTypes 合法事件类型
var SupplyChainEventTypes = []string{
	EventTypeProcessing, EventTypeTesting, EventTypeTransfer,
	EventTypeStorage, EventTypePackaging, EventTypeDistribution,
}

// Contains 判断取值是否在词表中
func Contains(vocabulary []string, v string) bool {
	for _, s := range vocabulary {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransition 按状态流转表校验 from → to
func CanTransition(table map[string][]string, from, to string) bool {
	return Contains(table[from], to)
}

// 多态关联的实体类型
const (
	KindCollectionEvent  = "COLLECTION_EVENT"
	KindRawMaterialBatch = "RAW_MATERIAL_BATCH"
	KindSupplyChainEvent = "SUPPLY_CHAIN_EVENT"
	KindFinishedGood     = "FINISHED_GOOD"
)

// EntityKinds 文档/二维码可关联的实体类型
var EntityKinds = []string{KindCollectionEvent, KindRawMaterialBatch, KindSupplyChainEvent, KindFinishedGood}

var ErrInvalidEntityRef = errors.New("invalid entity reference")

// EntityRef 多态外键：类型标签 + ID
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// ParseEntityRef 在边界处校验多态引用
func ParseEntityRef(kind, id string) (EntityRef, error) {
	if !Contains(EntityKinds, kind) {
		return EntityRef{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidEntityRef, kind)
	}
	if id == "" {
		return EntityRef{}, fmt.Errorf("%w: id is required", ErrInvalidEntityRef)
	}
	return EntityRef{Kind: kind, ID: id}, nil
}

// Model 返回引用实体对应的模型指针，用于存在性检查
func (r EntityRef) Model() interface{} {
	switch r.Kind {
	case KindCollectionEvent:
		return &CollectionEvent{}
	case KindRawMaterialBatch:
		return &RawMaterialBatch{}
	case KindSupplyChainEvent:
		return &SupplyChainEvent{}
	case KindFinishedGood:
		return &FinishedGood{}
	}
	return nil
}

// All 全部模型，用于 AutoMigrate
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&HerbSpecies{},
		&CollectionEvent{},
		&RawMaterialBatch{},
		&FinishedGood{},
		&FinishedGoodComposition{},
		&LabTest{},
		&Certificate{},
		&SupplyChainEvent{},
		&QRCode{},
		&Document{},
		&DistributorInventory{},
		&DistributorShipment{},
		&SystemAlert{},
		&AdminAction{},
	}
}
