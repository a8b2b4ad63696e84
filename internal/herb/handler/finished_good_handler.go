package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// FinishedGoodHandler 成品处理器
type FinishedGoodHandler struct {
	svc *service.FinishedGoodService
}

func NewFinishedGoodHandler(svc *service.FinishedGoodService) *FinishedGoodHandler {
	return &FinishedGoodHandler{svc: svc}
}

// ListFinishedGoods GET /api/v1/finished-goods?manufacturer_id=xxx&product_type=xxx&keyword=xxx
func (h *FinishedGoodHandler) ListFinishedGoods(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c, "manufacturer_id", "product_type", "keyword"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetFinishedGood GET /api/v1/finished-goods/:id
func (h *FinishedGoodHandler) GetFinishedGood(c *gin.Context) {
	fg, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, fg)
}

// CreateFinishedGood POST /api/v1/finished-goods
func (h *FinishedGoodHandler) CreateFinishedGood(c *gin.Context) {
	var req service.CreateFinishedGoodRequest
	if !bindJSON(c, &req) {
		return
	}
	fg, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, fg)
}

// TraceFinishedGood 成品追溯链
// GET /api/v1/finished-goods/:id/trace
func (h *FinishedGoodHandler) TraceFinishedGood(c *gin.Context) {
	trail, err := h.svc.Trace(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, trail)
}
