package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
)

// DistributorService 分销服务：入库、发货
type DistributorService struct {
	repo     *repository.DistributorRepository
	orgRepo  *repository.OrganizationRepository
	resolver *trace.Resolver
	pipeline *trace.Pipeline
	now      func() time.Time
}

func NewDistributorService(repo *repository.DistributorRepository, orgRepo *repository.OrganizationRepository, resolver *trace.Resolver, pipeline *trace.Pipeline) *DistributorService {
	return &DistributorService{
		repo:     repo,
		orgRepo:  orgRepo,
		resolver: resolver,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// ReceiveInventoryRequest 入库请求
type ReceiveInventoryRequest struct {
	trace.Reference
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit" binding:"required,oneof=KG TONNES GRAMS POUNDS PIECES BOTTLES BOXES"`
	StorageLocation string          `json:"storage_location" binding:"max=200"`
	ReceivedFromID  string          `json:"received_from_id"`
	Notes           string          `json:"notes"`
}

// CreateShipmentRequest 发货请求
type CreateShipmentRequest struct {
	InventoryID      string          `json:"inventory_id" binding:"required"`
	DestinationOrgID string          `json:"destination_org_id" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity"`
	TrackingNumber   string          `json:"tracking_number" binding:"max=100"`
	Carrier          string          `json:"carrier" binding:"max=100"`
	Notes            string          `json:"notes"`
}

// UpdateShipmentStatusRequest 发货状态变更
type UpdateShipmentStatusRequest struct {
	Status         string `json:"status" binding:"required,oneof=PENDING IN_TRANSIT DELIVERED CANCELLED"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
	Notes          string `json:"notes"`
}

// ReceivedInventory 库存及其追溯增强结果
type ReceivedInventory struct {
	*entity.DistributorInventory
	Trace trace.Enrichment `json:"trace"`
}

// ShipmentResult 发货单及其追溯增强结果
type ShipmentResult struct {
	*entity.DistributorShipment
	Trace *trace.Enrichment `json:"trace,omitempty"`
}

func (s *DistributorService) ListInventory(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DistributorInventory, int64, error) {
	return s.repo.FindAllInventory(ctx, page, pageSize, filters)
}

func (s *DistributorService) GetInventory(ctx context.Context, id string) (*entity.DistributorInventory, error) {
	item, err := s.repo.FindInventory(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	return item, nil
}

// Receive 入库，被接收对象必须能解析到批次或成品
func (s *DistributorService) Receive(ctx context.Context, p Principal, req *ReceiveInventoryRequest) (*ReceivedInventory, error) {
	if !req.Quantity.IsPositive() {
		return nil, Validation(FieldError{Field: "quantity", Rule: "gt", Message: "quantity must be greater than 0"})
	}
	target, err := s.resolver.Resolve(ctx, req.Reference)
	if err != nil {
		return nil, resolveError(err)
	}
	if target.Empty() {
		return nil, Validation(FieldError{
			Field:   "batch_number",
			Rule:    "required_without_all",
			Message: "a raw material batch or finished good reference is required",
		})
	}
	if req.ReceivedFromID != "" {
		if _, err := s.orgRepo.FindByID(ctx, req.ReceivedFromID); err != nil {
			return nil, notFound(err, "source organization")
		}
	}

	item := &entity.DistributorInventory{
		ID:                 uuid.New().String(),
		DistributorID:      p.OrgID,
		RawMaterialBatchID: target.RawMaterialBatchID,
		FinishedGoodID:     target.FinishedGoodID,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		StorageLocation:    req.StorageLocation,
		ReceivedFromID:     req.ReceivedFromID,
		Notes:              req.Notes,
	}
	if err := s.repo.CreateInventory(ctx, item); err != nil {
		return nil, err
	}

	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeStorage,
		HandlerID:      p.UserID,
		FromLocationID: item.ReceivedFromID,
		ToLocationID:   item.DistributorID,
		Target:         target,
		Notes:          item.Notes,
		Metadata: map[string]interface{}{
			"inventory_id":     item.ID,
			"quantity":         item.Quantity.String(),
			"unit":             item.Unit,
			"storage_location": item.StorageLocation,
		},
	}, map[string]interface{}{
		"inventory_id":     item.ID,
		"storage_location": item.StorageLocation,
	})
	if enrichment.Event != nil {
		if err := s.repo.LinkInventoryEvent(ctx, item.ID, enrichment.Event.ID); err == nil {
			item.SupplyChainEventID = &enrichment.Event.ID
		}
	}
	return &ReceivedInventory{DistributorInventory: item, Trace: enrichment}, nil
}

func (s *DistributorService) ListShipments(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DistributorShipment, int64, error) {
	return s.repo.FindAllShipments(ctx, page, pageSize, filters)
}

func (s *DistributorService) GetShipment(ctx context.Context, id string) (*entity.DistributorShipment, error) {
	shipment, err := s.repo.FindShipment(ctx, id)
	if err != nil {
		return nil, notFound(err, "shipment")
	}
	return shipment, nil
}

// CreateShipment 扣减库存并生成发货单；随后追加 DISTRIBUTION 账本事件
func (s *DistributorService) CreateShipment(ctx context.Context, p Principal, req *CreateShipmentRequest) (*ShipmentResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, Validation(FieldError{Field: "quantity", Rule: "gt", Message: "quantity must be greater than 0"})
	}
	item, err := s.GetInventory(ctx, req.InventoryID)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(item.DistributorID) {
		return nil, Forbidden("inventory belongs to another distributor")
	}
	if req.Quantity.GreaterThan(item.Quantity) {
		return nil, BadRequest("insufficient inventory: requested %s, available %s", req.Quantity.String(), item.Quantity.String())
	}
	dest, err := s.orgRepo.FindByID(ctx, req.DestinationOrgID)
	if err != nil {
		return nil, notFound(err, "destination organization")
	}

	shipment := &entity.DistributorShipment{
		ID:               uuid.New().String(),
		DistributorID:    item.DistributorID,
		DestinationOrgID: dest.ID,
		InventoryID:      item.ID,
		Quantity:         req.Quantity,
		Unit:             item.Unit,
		Status:           entity.ShipmentStatusPending,
		TrackingNumber:   req.TrackingNumber,
		Carrier:          req.Carrier,
		Notes:            req.Notes,
		CreatedByID:      p.UserID,
	}
	if err := s.repo.CreateShipment(ctx, shipment); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, BadRequest("insufficient inventory")
		}
		return nil, err
	}

	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeDistribution,
		HandlerID:      p.UserID,
		FromLocationID: shipment.DistributorID,
		ToLocationID:   shipment.DestinationOrgID,
		Target:         inventoryTarget(item),
		Notes:          shipment.Notes,
		Metadata: map[string]interface{}{
			"shipment_id":     shipment.ID,
			"shipment_number": shipment.ShipmentNumber,
			"quantity":        shipment.Quantity.String(),
			"unit":            shipment.Unit,
			"carrier":         shipment.Carrier,
		},
	}, map[string]interface{}{
		"shipment_number": shipment.ShipmentNumber,
		"destination":     dest.Name,
	})
	if enrichment.Event != nil {
		if err := s.repo.LinkShipmentEvent(ctx, shipment.ID, enrichment.Event.ID); err == nil {
			shipment.SupplyChainEventID = &enrichment.Event.ID
		}
	}
	return &ShipmentResult{DistributorShipment: shipment, Trace: &enrichment}, nil
}

func inventoryTarget(item *entity.DistributorInventory) trace.Resolved {
	return trace.Resolved{RawMaterialBatchID: item.RawMaterialBatchID, FinishedGoodID: item.FinishedGoodID}
}

// UpdateShipmentStatus 按状态流转表变更；送达时追加 TRANSFER 账本事件，取消时归还库存
func (s *DistributorService) UpdateShipmentStatus(ctx context.Context, p Principal, id string, req *UpdateShipmentStatusRequest) (*ShipmentResult, error) {
	shipment, err := s.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(shipment.DistributorID) {
		return nil, Forbidden("shipment belongs to another distributor")
	}
	from := shipment.Status
	if !entity.CanTransition(entity.ValidShipmentTransitions, from, req.Status) {
		return nil, invalidTransition("shipment", from, req.Status)
	}

	now := s.now()
	updates := map[string]interface{}{"status": req.Status}
	switch req.Status {
	case entity.ShipmentStatusInTransit:
		updates["shipped_at"] = now
	case entity.ShipmentStatusDelivered:
		updates["delivered_at"] = now
	}
	if req.TrackingNumber != "" {
		updates["tracking_number"] = req.TrackingNumber
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if err := s.repo.UpdateShipmentStatus(ctx, shipment, from, updates); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, Conflict("shipment status changed concurrently")
		}
		return nil, err
	}
	shipment, err = s.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.ShipmentStatusDelivered {
		return &ShipmentResult{DistributorShipment: shipment}, nil
	}

	var target trace.Resolved
	if item, err := s.repo.FindInventory(ctx, shipment.InventoryID); err == nil {
		target = inventoryTarget(item)
	}
	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeTransfer,
		HandlerID:      p.UserID,
		FromLocationID: shipment.DistributorID,
		ToLocationID:   shipment.DestinationOrgID,
		Target:         target,
		Notes:          req.Notes,
		Metadata: map[string]interface{}{
			"shipment_id":     shipment.ID,
			"shipment_number": shipment.ShipmentNumber,
			"status":          shipment.Status,
		},
	}, map[string]interface{}{
		"shipment_number": shipment.ShipmentNumber,
		"status":          shipment.Status,
	})
	return &ShipmentResult{DistributorShipment: shipment, Trace: &enrichment}, nil
}
