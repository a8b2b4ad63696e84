package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// AdminHandler 平台管理处理器
type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ListOrganizations 组织列表
// GET /api/v1/admin/organizations?type=xxx&is_active=true&keyword=xxx
func (h *AdminHandler) ListOrganizations(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListOrganizations(c.Request.Context(), page, pageSize, queryFilters(c, "type", "is_active", "keyword"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetOrganization 组织详情（含用户）
// GET /api/v1/admin/organizations/:id
func (h *AdminHandler) GetOrganization(c *gin.Context) {
	org, err := h.svc.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, org)
}

// SetOrganizationStatus 启用/停用组织
// PUT /api/v1/admin/organizations/:id/status
func (h *AdminHandler) SetOrganizationStatus(c *gin.Context) {
	var req service.SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.svc.SetOrganizationStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, org)
}

// SetUserStatus 启用/停用用户
// PUT /api/v1/admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req service.SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.SetUserStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

// ListActions 管理操作审计
// GET /api/v1/admin/actions
func (h *AdminHandler) ListActions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListActions(c.Request.Context(), page, pageSize, queryFilters(c, "admin_id", "action", "target_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// ListAlerts 告警列表
// GET /api/v1/admin/alerts?severity=xxx&is_resolved=false
func (h *AdminHandler) ListAlerts(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListAlerts(c.Request.Context(), page, pageSize, queryFilters(c, "severity", "is_resolved"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// CreateAlert 创建告警
// POST /api/v1/admin/alerts
func (h *AdminHandler) CreateAlert(c *gin.Context) {
	var req service.CreateAlertRequest
	if !bindJSON(c, &req) {
		return
	}
	alert, err := h.svc.CreateAlert(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, alert)
}

// ResolveAlert 处理告警
// PUT /api/v1/admin/alerts/:id/resolve
func (h *AdminHandler) ResolveAlert(c *gin.Context) {
	alert, err := h.svc.ResolveAlert(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, alert)
}

// Dashboard 平台统计
// GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	metrics, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, metrics)
}
