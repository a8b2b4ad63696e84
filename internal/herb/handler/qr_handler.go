package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// QRHandler 二维码处理器
type QRHandler struct {
	svc *service.QRService
}

func NewQRHandler(svc *service.QRService) *QRHandler {
	return &QRHandler{svc: svc}
}

// ListQRCodes 本组织生成的二维码；带 entity_type+entity_id 时按实体查询
// GET /api/v1/qr?entity_type=xxx&entity_id=xxx&active=true
func (h *QRHandler) ListQRCodes(c *gin.Context) {
	if entityType, entityID := c.Query("entity_type"), c.Query("entity_id"); entityType != "" && entityID != "" {
		items, err := h.svc.ForEntity(c.Request.Context(), entityType, entityID)
		if err != nil {
			HandleError(c, err)
			return
		}
		Success(c, gin.H{"items": items})
		return
	}

	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListForOrganization(c.Request.Context(), GetPrincipal(c), page, pageSize,
		queryFilters(c, "organization_id", "entity_type", "active"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GenerateQRCode POST /api/v1/qr
func (h *QRHandler) GenerateQRCode(c *gin.Context) {
	var req service.GenerateQRRequest
	if !bindJSON(c, &req) {
		return
	}
	qr, err := h.svc.Generate(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, qr)
}

// Scan 公开扫码
// GET /api/v1/qr/scan/:hash
func (h *QRHandler) Scan(c *gin.Context) {
	result, err := h.svc.Scan(c.Request.Context(), c.Param("hash"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Image 二维码图片，路径段为 qr_hash
// GET /api/v1/qr/:id/image
func (h *QRHandler) Image(c *gin.Context) {
	png, err := h.svc.Image(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(200, "image/png", png)
}

// Deactivate PUT /api/v1/qr/:id/deactivate
func (h *QRHandler) Deactivate(c *gin.Context) {
	qr, err := h.svc.Deactivate(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, qr)
}
