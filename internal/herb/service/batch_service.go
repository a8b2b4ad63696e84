package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/report"
)

// BatchService 原料批次服务
type BatchService struct {
	repo     *repository.BatchRepository
	pipeline *trace.Pipeline
}

func NewBatchService(repo *repository.BatchRepository, pipeline *trace.Pipeline) *BatchService {
	return &BatchService{repo: repo, pipeline: pipeline}
}

// CreateBatchRequest 创建批次请求
type CreateBatchRequest struct {
	HerbName           string          `json:"herb_name" binding:"required,max=200"`
	ScientificName     string          `json:"scientific_name" binding:"max=200"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit" binding:"required,oneof=KG TONNES GRAMS POUNDS PIECES BOTTLES BOXES"`
	Description        string          `json:"description"`
	StorageLocation    string          `json:"storage_location" binding:"max=200"`
	CollectionEventIDs []string        `json:"collection_event_ids" binding:"required,min=1,dive,required"`
}

// UpdateBatchStatusRequest 批次状态变更
type UpdateBatchStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CREATED IN_PROCESSING PROCESSED QUARANTINED"`
	Notes  string `json:"notes"`
}

func (s *BatchService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RawMaterialBatch, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get 批次详情（含采集事件）
func (s *BatchService) Get(ctx context.Context, id string) (*entity.RawMaterialBatch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "raw material batch")
	}
	return batch, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Create 生成批次号、写入批次并回填采集事件，同一事务
func (s *BatchService) Create(ctx context.Context, p Principal, req *CreateBatchRequest) (*entity.RawMaterialBatch, error) {
	if !req.Quantity.IsPositive() {
		return nil, Validation(FieldError{Field: "quantity", Rule: "gt", Message: "quantity must be greater than 0"})
	}

	batch := &entity.RawMaterialBatch{
		ID:              uuid.New().String(),
		HerbName:        req.HerbName,
		ScientificName:  req.ScientificName,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Status:          entity.BatchStatusCreated,
		Description:     req.Description,
		StorageLocation: req.StorageLocation,
		CurrentOwnerID:  p.OrgID,
		CreatedByID:     p.UserID,
	}
	err := s.repo.CreateWithEvents(ctx, batch, dedup(req.CollectionEventIDs))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NotFound("collection event not found")
	case errors.Is(err, repository.ErrAlreadyBatched):
		return nil, Conflict("collection event already assigned to a batch")
	case err != nil:
		return nil, conflict(err, "raw material batch")
	}
	return s.Get(ctx, batch.ID)
}

// UpdateStatus 按状态流转表变更，变更后追加 PROCESSING 账本事件
func (s *BatchService) UpdateStatus(ctx context.Context, p Principal, id string, req *UpdateBatchStatusRequest) (*entity.RawMaterialBatch, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(batch.CurrentOwnerID) {
		return nil, Forbidden("batch belongs to another organization")
	}
	from := batch.Status
	if !entity.CanTransition(entity.ValidBatchTransitions, from, req.Status) {
		return nil, invalidTransition("batch", from, req.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, from, req.Status); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, Conflict("batch status changed concurrently")
		}
		return nil, err
	}
	batch.Status = req.Status

	s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeProcessing,
		HandlerID:      p.UserID,
		FromLocationID: batch.CurrentOwnerID,
		ToLocationID:   batch.CurrentOwnerID,
		Target:         trace.Resolved{RawMaterialBatchID: &batch.ID},
		Notes:          req.Notes,
		Metadata:       map[string]interface{}{"from_status": from, "to_status": req.Status},
	}, map[string]interface{}{
		"batch_number": batch.BatchNumber,
		"herb_name":    batch.HerbName,
		"status":       batch.Status,
	})
	return batch, nil
}

// Export 导出批次清单
func (s *BatchService) Export(ctx context.Context, filters map[string]string) (*excelize.File, error) {
	items, err := s.repo.ListForExport(ctx, filters)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(items))
	for _, b := range items {
		qty, _ := b.Quantity.Float64()
		rows = append(rows, []interface{}{
			b.BatchNumber, b.HerbName, b.ScientificName, qty, b.Unit,
			b.Status, b.StorageLocation, b.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return report.BuildWorkbook(report.Table{
		Sheet:   "Batches",
		Headers: []string{"Batch Number", "Herb Name", "Scientific Name", "Quantity", "Unit", "Status", "Storage Location", "Created At"},
		Widths:  []float64{18, 22, 28, 12, 10, 16, 24, 18},
		Rows:    rows,
		Summary: fmt.Sprintf("Total: %d", len(items)),
	})
}
