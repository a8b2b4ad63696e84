package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
)

// AdminService 平台管理：组织/用户启停、审计、告警、仪表盘
type AdminService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewAdminService(repos *repository.Repositories, logger *zap.Logger) *AdminService {
	return &AdminService{repos: repos, logger: logger}
}

// ListOrganizations 组织列表
func (s *AdminService) ListOrganizations(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Organization, int64, error) {
	return s.repos.Organization.FindAll(ctx, page, pageSize, filters)
}

// GetOrganization 组织详情（含用户）
func (s *AdminService) GetOrganization(ctx context.Context, id string) (*entity.Organization, error) {
	org, err := s.repos.Organization.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "organization")
	}
	users, err := s.repos.User.FindByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Users = users
	return org, nil
}

// SetStatusRequest 启停请求
type SetStatusRequest struct {
	IsActive *bool  `json:"is_active" binding:"required"`
	Reason   string `json:"reason" binding:"max=500"`
}

func newAdminAction(adminID, action, targetType, targetID string, details map[string]interface{}) *entity.AdminAction {
	raw, _ := json.Marshal(details)
	return &entity.AdminAction{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    datatypes.JSON(raw),
	}
}

// SetOrganizationStatus 启用/停用组织
func (s *AdminService) SetOrganizationStatus(ctx context.Context, p Principal, id string, req *SetStatusRequest) (*entity.Organization, error) {
	action := entity.AdminActionDeactivateOrg
	if *req.IsActive {
		action = entity.AdminActionActivateOrg
	}
	if !*req.IsActive && id == p.OrgID {
		return nil, BadRequest("cannot deactivate your own organization")
	}
	record := newAdminAction(p.UserID, action, "ORGANIZATION", id, map[string]interface{}{"reason": req.Reason})
	if err := s.repos.Organization.SetActive(ctx, id, *req.IsActive, record); err != nil {
		return nil, notFound(err, "organization")
	}
	s.logger.Info("organization status changed",
		zap.String("organization_id", id),
		zap.Bool("is_active", *req.IsActive),
		zap.String("admin_id", p.UserID),
	)
	return s.repos.Organization.FindByID(ctx, id)
}

// SetUserStatus 启用/停用用户
func (s *AdminService) SetUserStatus(ctx context.Context, p Principal, id string, req *SetStatusRequest) (*entity.User, error) {
	action := entity.AdminActionDeactivateUser
	if *req.IsActive {
		action = entity.AdminActionActivateUser
	}
	if !*req.IsActive && id == p.UserID {
		return nil, BadRequest("cannot deactivate yourself")
	}
	record := newAdminAction(p.UserID, action, "USER", id, map[string]interface{}{"reason": req.Reason})
	if err := s.repos.User.SetActive(ctx, id, *req.IsActive, record); err != nil {
		return nil, notFound(err, "user")
	}
	return s.repos.User.FindByID(ctx, id)
}

// ListActions 管理操作审计
func (s *AdminService) ListActions(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.AdminAction, int64, error) {
	return s.repos.Admin.FindActions(ctx, page, pageSize, filters)
}

// CreateAlertRequest 创建告警请求
type CreateAlertRequest struct {
	Severity string `json:"severity" binding:"required,oneof=INFO WARNING CRITICAL"`
	Title    string `json:"title" binding:"required,max=200"`
	Message  string `json:"message"`
	Source   string `json:"source" binding:"max=100"`
}

// CreateAlert 创建告警
func (s *AdminService) CreateAlert(ctx context.Context, req *CreateAlertRequest) (*entity.SystemAlert, error) {
	alert := &entity.SystemAlert{
		ID:       uuid.New().String(),
		Severity: req.Severity,
		Title:    req.Title,
		Message:  req.Message,
		Source:   req.Source,
	}
	if err := s.repos.Admin.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// ListAlerts 告警列表
func (s *AdminService) ListAlerts(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SystemAlert, int64, error) {
	return s.repos.Admin.FindAlerts(ctx, page, pageSize, filters)
}

// ResolveAlert 处理告警
func (s *AdminService) ResolveAlert(ctx context.Context, p Principal, id string) (*entity.SystemAlert, error) {
	record := newAdminAction(p.UserID, entity.AdminActionResolveAlert, "SYSTEM_ALERT", id, nil)
	alert, err := s.repos.Admin.ResolveAlert(ctx, id, p.UserID, time.Now(), record)
	if err != nil {
		return nil, notFound(err, "alert")
	}
	return alert, nil
}

// DashboardMetrics 仪表盘统计
type DashboardMetrics struct {
	OrganizationsByType map[string]int64 `json:"organizations_by_type"`
	Users               int64            `json:"users"`
	Species             int64            `json:"species"`
	CollectionEvents    int64            `json:"collection_events"`
	BatchesByStatus     map[string]int64 `json:"batches_by_status"`
	FinishedGoods       int64            `json:"finished_goods"`
	LabTestsByStatus    map[string]int64 `json:"lab_tests_by_status"`
	Certificates        int64            `json:"certificates"`
	SupplyChainEvents   int64            `json:"supply_chain_events"`
	QRCodes             int64            `json:"qr_codes"`
	QRScans             int64            `json:"qr_scans"`
	OpenAlerts          int64            `json:"open_alerts"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

// Dashboard 各项统计相互独立，并发查询
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	m := &DashboardMetrics{GeneratedAt: time.Now()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		m.OrganizationsByType, err = s.repos.Organization.CountByType(gctx)
		return
	})
	g.Go(func() (err error) {
		m.Users, err = s.repos.Admin.CountRows(gctx, &entity.User{})
		return
	})
	g.Go(func() (err error) {
		m.Species, err = s.repos.Admin.CountRows(gctx, &entity.HerbSpecies{})
		return
	})
	g.Go(func() (err error) {
		m.CollectionEvents, err = s.repos.Admin.CountRows(gctx, &entity.CollectionEvent{})
		return
	})
	g.Go(func() (err error) {
		m.BatchesByStatus, err = s.repos.Batch.CountByStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		m.FinishedGoods, err = s.repos.Admin.CountRows(gctx, &entity.FinishedGood{})
		return
	})
	g.Go(func() (err error) {
		m.LabTestsByStatus, err = s.repos.LabTest.CountByStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		m.Certificates, err = s.repos.Certificate.Count(gctx)
		return
	})
	g.Go(func() (err error) {
		m.SupplyChainEvents, err = s.repos.Event.Count(gctx)
		return
	})
	g.Go(func() (err error) {
		m.QRCodes, err = s.repos.Admin.CountRows(gctx, &entity.QRCode{})
		return
	})
	g.Go(func() (err error) {
		m.QRScans, err = s.repos.QRCode.TotalScans(gctx)
		return
	})
	g.Go(func() (err error) {
		m.OpenAlerts, err = s.repos.Admin.CountOpenAlerts(gctx)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
