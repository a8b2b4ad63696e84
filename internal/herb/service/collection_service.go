package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
)

// CollectionService 采集事件服务
type CollectionService struct {
	repo        *repository.CollectionRepository
	speciesRepo *repository.SpeciesRepository
	docRepo     *repository.DocumentRepository
	store       blob.Store
	pipeline    *trace.Pipeline
}

func NewCollectionService(repo *repository.CollectionRepository, speciesRepo *repository.SpeciesRepository, docRepo *repository.DocumentRepository, store blob.Store, pipeline *trace.Pipeline) *CollectionService {
	return &CollectionService{
		repo:        repo,
		speciesRepo: speciesRepo,
		docRepo:     docRepo,
		store:       store,
		pipeline:    pipeline,
	}
}

// CreateCollectionRequest 创建采集事件请求
type CreateCollectionRequest struct {
	SpeciesID           string          `json:"species_id" binding:"required"`
	Quantity            decimal.Decimal `json:"quantity"`
	Unit                string          `json:"unit" binding:"required,oneof=KG TONNES GRAMS POUNDS PIECES BOTTLES BOXES"`
	HarvestDate         *time.Time      `json:"harvest_date"`
	Latitude            *float64        `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude           *float64        `json:"longitude" binding:"required,min=-180,max=180"`
	Location            string          `json:"location" binding:"max=200"`
	Weather             string          `json:"weather" binding:"max=100"`
	Notes               string          `json:"notes"`
	DocumentDescription string          `json:"document_description"`
}

func (s *CollectionService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CollectionEvent, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get 采集事件详情（含品种与附件）
func (s *CollectionService) Get(ctx context.Context, id string) (*entity.CollectionEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "collection event")
	}
	docs, err := s.docRepo.FindByRef(ctx, entity.EntityRef{Kind: entity.KindCollectionEvent, ID: id})
	if err != nil {
		return nil, err
	}
	event.Documents = docs
	return event, nil
}

// Create 采集事件与可选附件同事务写入；提交后提交公证
func (s *CollectionService) Create(ctx context.Context, p Principal, req *CreateCollectionRequest, up *Upload) (*entity.CollectionEvent, error) {
	if !req.Quantity.IsPositive() {
		return nil, Validation(FieldError{Field: "quantity", Rule: "gt", Message: "quantity must be greater than 0"})
	}
	species, err := s.speciesRepo.FindByID(ctx, req.SpeciesID)
	if err != nil {
		return nil, notFound(err, "species")
	}
	if !species.IsActive {
		return nil, BadRequest("species %s is inactive", species.ScientificName)
	}

	harvest := time.Now()
	if req.HarvestDate != nil {
		harvest = *req.HarvestDate
	}
	event := &entity.CollectionEvent{
		ID:             uuid.New().String(),
		CollectorID:    p.UserID,
		OrganizationID: p.OrgID,
		SpeciesID:      species.ID,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		HarvestDate:    harvest,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Location:       req.Location,
		Weather:        req.Weather,
		Notes:          req.Notes,
	}

	var doc *entity.Document
	if up != nil {
		ref := entity.EntityRef{Kind: entity.KindCollectionEvent, ID: event.ID}
		doc, err = putUpload(ctx, s.store, ref, up, req.DocumentDescription, p.UserID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateWithDocument(ctx, event, doc); err != nil {
		if doc != nil {
			s.store.Delete(ctx, doc.StorageKey)
		}
		return nil, err
	}

	event.Species = species
	if doc != nil {
		event.Documents = []entity.Document{*doc}
	}
	s.pipeline.NotarizeCollectionEvent(ctx, event)
	return event, nil
}
