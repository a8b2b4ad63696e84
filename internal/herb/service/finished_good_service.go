package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
)

var hundred = decimal.NewFromInt(100)

// FinishedGoodService 成品服务
type FinishedGoodService struct {
	repo      *repository.FinishedGoodRepository
	batchRepo *repository.BatchRepository
	eventRepo *repository.EventRepository
	pipeline  *trace.Pipeline
}

func NewFinishedGoodService(repo *repository.FinishedGoodRepository, batchRepo *repository.BatchRepository, eventRepo *repository.EventRepository, pipeline *trace.Pipeline) *FinishedGoodService {
	return &FinishedGoodService{
		repo:      repo,
		batchRepo: batchRepo,
		eventRepo: eventRepo,
		pipeline:  pipeline,
	}
}

// CompositionInput 配比项
type CompositionInput struct {
	RawMaterialBatchID string          `json:"raw_material_batch_id" binding:"required"`
	Percentage         decimal.Decimal `json:"percentage"`
	QuantityUsed       decimal.Decimal `json:"quantity_used"`
	Unit               string          `json:"unit" binding:"omitempty,oneof=KG TONNES GRAMS POUNDS PIECES BOTTLES BOXES"`
}

// CreateFinishedGoodRequest 创建成品请求
type CreateFinishedGoodRequest struct {
	ProductName     string             `json:"product_name" binding:"required,max=200"`
	ProductType     string             `json:"product_type" binding:"max=100"`
	BatchNumber     string             `json:"batch_number" binding:"required,max=64"`
	Description     string             `json:"description"`
	Quantity        decimal.Decimal    `json:"quantity"`
	Unit            string             `json:"unit" binding:"required,oneof=KG TONNES GRAMS POUNDS PIECES BOTTLES BOXES"`
	ManufactureDate *time.Time         `json:"manufacture_date"`
	ExpiryDate      *time.Time         `json:"expiry_date"`
	Compositions    []CompositionInput `json:"compositions" binding:"required,min=1,dive"`
}

// CreatedFinishedGood 成品及其追溯增强结果
type CreatedFinishedGood struct {
	*entity.FinishedGood
	Trace trace.Enrichment `json:"trace"`
}

// FinishedGoodTrace 成品追溯链：成品自身及其原料批次的全部事件
type FinishedGoodTrace struct {
	FinishedGood *entity.FinishedGood      `json:"finished_good"`
	Events       []entity.SupplyChainEvent `json:"events"`
}

func (s *FinishedGoodService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.FinishedGood, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get 成品详情（含配比及原料批次）
func (s *FinishedGoodService) Get(ctx context.Context, id string) (*entity.FinishedGood, error) {
	fg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "finished good")
	}
	return fg, nil
}

// validateCompositions 单项占比 (0,100]，合计不超过 100，批次不可重复
func validateCompositions(items []CompositionInput) error {
	var fields []FieldError
	sum := decimal.Zero
	seen := make(map[string]bool, len(items))
	for i, c := range items {
		field := fmt.Sprintf("compositions[%d]", i)
		if !c.Percentage.IsPositive() || c.Percentage.GreaterThan(hundred) {
			fields = append(fields, FieldError{Field: field + ".percentage", Rule: "range", Message: "percentage must be in (0, 100]"})
		}
		if c.QuantityUsed.IsNegative() {
			fields = append(fields, FieldError{Field: field + ".quantity_used", Rule: "gte"})
		}
		if seen[c.RawMaterialBatchID] {
			fields = append(fields, FieldError{Field: field + ".raw_material_batch_id", Rule: "unique"})
		}
		seen[c.RawMaterialBatchID] = true
		sum = sum.Add(c.Percentage)
	}
	if sum.GreaterThan(hundred) {
		fields = append(fields, FieldError{
			Field:   "compositions",
			Rule:    "sum_lte_100",
			Message: fmt.Sprintf("composition percentages sum to %s, must not exceed 100", sum.String()),
		})
	}
	if len(fields) > 0 {
		return Validation(fields...)
	}
	return nil
}

// Create 成品与配比同事务写入；提交后追加 PACKAGING 账本事件、二维码及公证
func (s *FinishedGoodService) Create(ctx context.Context, p Principal, req *CreateFinishedGoodRequest) (*CreatedFinishedGood, error) {
	if !req.Quantity.IsPositive() {
		return nil, Validation(FieldError{Field: "quantity", Rule: "gt", Message: "quantity must be greater than 0"})
	}
	if req.ManufactureDate != nil && req.ExpiryDate != nil && !req.ExpiryDate.After(*req.ManufactureDate) {
		return nil, Validation(FieldError{Field: "expiry_date", Rule: "gtfield", Message: "expiry_date must be after manufacture_date"})
	}
	if err := validateCompositions(req.Compositions); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Compositions))
	for _, c := range req.Compositions {
		ids = append(ids, c.RawMaterialBatchID)
	}
	batches, err := s.batchRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(batches) != len(ids) {
		found := make(map[string]bool, len(batches))
		for _, b := range batches {
			found[b.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, NotFound("raw material batch %s not found", id)
			}
		}
	}

	fg := &entity.FinishedGood{
		ID:              uuid.New().String(),
		BatchNumber:     req.BatchNumber,
		ProductName:     req.ProductName,
		ProductType:     req.ProductType,
		Description:     req.Description,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		ManufactureDate: req.ManufactureDate,
		ExpiryDate:      req.ExpiryDate,
		ManufacturerID:  p.OrgID,
		CreatedByID:     p.UserID,
	}
	for _, c := range req.Compositions {
		unit := c.Unit
		if unit == "" {
			unit = req.Unit
		}
		fg.Compositions = append(fg.Compositions, entity.FinishedGoodComposition{
			ID:                 uuid.New().String(),
			RawMaterialBatchID: c.RawMaterialBatchID,
			Percentage:         c.Percentage,
			QuantityUsed:       c.QuantityUsed,
			Unit:               unit,
		})
	}
	if err := s.repo.CreateWithCompositions(ctx, fg); err != nil {
		return nil, conflict(err, "finished good batch number")
	}

	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypePackaging,
		HandlerID:      p.UserID,
		FromLocationID: fg.ManufacturerID,
		ToLocationID:   fg.ManufacturerID,
		Target:         trace.Resolved{FinishedGoodID: &fg.ID},
		Metadata: map[string]interface{}{
			"product_name":           fg.ProductName,
			"batch_number":           fg.BatchNumber,
			"raw_material_batch_ids": ids,
		},
	}, map[string]interface{}{
		"product_name": fg.ProductName,
		"batch_number": fg.BatchNumber,
		"quantity":     fg.Quantity.String(),
		"unit":         fg.Unit,
	})
	s.pipeline.NotarizeFinishedGood(ctx, fg)

	created, err := s.Get(ctx, fg.ID)
	if err != nil {
		return nil, err
	}
	return &CreatedFinishedGood{FinishedGood: created, Trace: enrichment}, nil
}

// Trace 成品追溯链
func (s *FinishedGoodService) Trace(ctx context.Context, id string) (*FinishedGoodTrace, error) {
	fg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	batchIDs := make([]string, 0, len(fg.Compositions))
	for _, c := range fg.Compositions {
		batchIDs = append(batchIDs, c.RawMaterialBatchID)
	}
	events, err := s.eventRepo.FindTrail(ctx, fg.ID, batchIDs)
	if err != nil {
		return nil, err
	}
	return &FinishedGoodTrace{FinishedGood: fg, Events: events}, nil
}
