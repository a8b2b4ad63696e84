package service

import (
	"context"
	"errors"
	"time"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/report"
)

// QRImageSize 二维码图片边长（像素）
const QRImageSize = 256

// QRService 二维码服务
type QRService struct {
	repo      *repository.QRCodeRepository
	eventRepo *repository.EventRepository
	batchRepo *repository.BatchRepository
	fgRepo    *repository.FinishedGoodRepository
	pipeline  *trace.Pipeline
	publicURL string
	now       func() time.Time
}

func NewQRService(repo *repository.QRCodeRepository, eventRepo *repository.EventRepository, batchRepo *repository.BatchRepository, fgRepo *repository.FinishedGoodRepository, pipeline *trace.Pipeline, publicURL string) *QRService {
	return &QRService{
		repo:      repo,
		eventRepo: eventRepo,
		batchRepo: batchRepo,
		fgRepo:    fgRepo,
		pipeline:  pipeline,
		publicURL: publicURL,
		now:       time.Now,
	}
}

// GenerateQRRequest 为供应链事件生成二维码
type GenerateQRRequest struct {
	SupplyChainEventID string                 `json:"supply_chain_event_id" binding:"required"`
	CustomData         map[string]interface{} `json:"custom_data"`
}

// ScanResult 扫码结果：二维码、事件及事件关联实体的当前状态
type ScanResult struct {
	QR     *entity.QRCode           `json:"qr_code"`
	Event  *entity.SupplyChainEvent `json:"supply_chain_event"`
	Entity interface{}              `json:"entity"`
}

var errQRNotIssued = errors.New("qr code could not be issued")

// ScanURL 二维码内容：公开扫码地址
func (s *QRService) ScanURL(hash string) string {
	return s.publicURL + "/api/v1/qr/scan/" + hash
}

// Generate 事件不存在返回 404
func (s *QRService) Generate(ctx context.Context, p Principal, req *GenerateQRRequest) (*entity.QRCode, error) {
	event, err := s.eventRepo.FindByID(ctx, req.SupplyChainEventID)
	if err != nil {
		return nil, notFound(err, "supply chain event")
	}
	qr := s.pipeline.IssueQR(ctx, event, p.UserID, req.CustomData)
	if qr == nil {
		return nil, errQRNotIssued
	}
	return qr, nil
}

// Scan 公开扫码，原子累加扫码次数
func (s *QRService) Scan(ctx context.Context, hash string) (*ScanResult, error) {
	qr, err := s.repo.RecordScan(ctx, hash, s.now())
	if err != nil {
		return nil, notFound(err, "qr code")
	}
	result := &ScanResult{QR: qr}
	if qr.EntityType != entity.KindSupplyChainEvent {
		return result, nil
	}

	event, err := s.eventRepo.FindByID(ctx, qr.EntityID)
	if errors.Is(err, repository.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Event = event

	switch {
	case event.FinishedGoodID != nil:
		fg, err := s.fgRepo.FindByID(ctx, *event.FinishedGoodID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if fg != nil {
			result.Entity = fg
		}
	case event.RawMaterialBatchID != nil:
		batch, err := s.batchRepo.FindByID(ctx, *event.RawMaterialBatchID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if batch != nil {
			result.Entity = batch
		}
	}
	return result, nil
}

// Image 二维码PNG，内容为公开扫码地址
func (s *QRService) Image(ctx context.Context, hash string) ([]byte, error) {
	qr, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		return nil, notFound(err, "qr code")
	}
	return report.QRCodePNG(s.ScanURL(qr.QRHash), QRImageSize)
}

// ListForOrganization 调用者组织生成的二维码
func (s *QRService) ListForOrganization(ctx context.Context, p Principal, page, pageSize int, filters map[string]string) ([]entity.QRCode, int64, error) {
	scoped := make(map[string]string, len(filters)+1)
	for k, v := range filters {
		scoped[k] = v
	}
	if !p.IsPlatformAdmin() || scoped["organization_id"] == "" {
		scoped["organization_id"] = p.OrgID
	}
	return s.repo.FindAll(ctx, page, pageSize, scoped)
}

// ForEntity 实体关联的二维码
func (s *QRService) ForEntity(ctx context.Context, entityType, entityID string) ([]entity.QRCode, error) {
	ref, err := entity.ParseEntityRef(entityType, entityID)
	if err != nil {
		return nil, refError(err)
	}
	return s.repo.FindByEntity(ctx, ref.Kind, ref.ID)
}

// Deactivate 仅生成人或平台管理员可停用
func (s *QRService) Deactivate(ctx context.Context, p Principal, id string) (*entity.QRCode, error) {
	qr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "qr code")
	}
	if qr.GeneratedByID != p.UserID && !p.IsPlatformAdmin() {
		return nil, Forbidden("only the generator can deactivate this qr code")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return nil, notFound(err, "qr code")
	}
	qr.IsActive = false
	return qr, nil
}
