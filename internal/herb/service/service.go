package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/config"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
)

// Principal 当前请求的调用者
type Principal struct {
	UserID  string
	OrgID   string
	OrgType string
	Role    string
}

// IsPlatformAdmin 平台管理员：ADMIN 组织下的管理员或超级管理员
func (p Principal) IsPlatformAdmin() bool {
	return p.Role == entity.RoleSuperAdmin || (p.OrgType == entity.OrgTypeAdmin && p.Role == entity.RoleAdmin)
}

// CanActFor 调用者可代表该组织操作
func (p Principal) CanActFor(orgID string) bool {
	return p.OrgID == orgID || p.IsPlatformAdmin()
}

// Services 服务集合
type Services struct {
	Auth         *AuthService
	Admin        *AdminService
	Species      *SpeciesService
	Collection   *CollectionService
	Batch        *BatchService
	FinishedGood *FinishedGoodService
	Lab          *LabService
	Certificate  *CertificateService
	Distributor  *DistributorService
	QR           *QRService
	Document     *DocumentService
	Event        *EventService

	Pipeline *trace.Pipeline
}

// NewServices 创建服务集合。rdb、notaryClient 可为 nil
func NewServices(repos *repository.Repositories, rdb *redis.Client, store blob.Store, notaryClient trace.Notary, cfg *config.Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	pipeline := trace.NewPipeline(repos.Event, repos.QRCode, notaryClient, logger.Named("trace"))
	resolver := trace.NewResolver(repos.Batch, repos.FinishedGood, repos.QRCode, cfg.Trace.VerifySnapshots)
	certificates := NewCertificateService(repos.Certificate, repos.LabTest, repos.Organization, store, cfg.Server.PublicURL, logger)

	return &Services{
		Auth:         NewAuthService(repos.Organization, repos.User, rdb, cfg.JWT),
		Admin:        NewAdminService(repos, logger),
		Species:      NewSpeciesService(repos.Species),
		Collection:   NewCollectionService(repos.Collection, repos.Species, repos.Document, store, pipeline),
		Batch:        NewBatchService(repos.Batch, pipeline),
		FinishedGood: NewFinishedGoodService(repos.FinishedGood, repos.Batch, repos.Event, pipeline),
		Lab:          NewLabService(repos.LabTest, repos.Organization, resolver, pipeline, certificates),
		Certificate:  certificates,
		Distributor:  NewDistributorService(repos.Distributor, repos.Organization, resolver, pipeline),
		QR:           NewQRService(repos.QRCode, repos.Event, repos.Batch, repos.FinishedGood, pipeline, cfg.Server.PublicURL),
		Document:     NewDocumentService(repos.Document, store),
		Event:        NewEventService(repos.Event),
		Pipeline:     pipeline,
	}
}
