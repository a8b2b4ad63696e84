package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// BatchHandler 原料批次处理器
type BatchHandler struct {
	svc *service.BatchService
}

func NewBatchHandler(svc *service.BatchService) *BatchHandler {
	return &BatchHandler{svc: svc}
}

// ListBatches 批次列表
// GET /api/v1/batches?status=xxx&current_owner_id=xxx&keyword=xxx
func (h *BatchHandler) ListBatches(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c, "status", "current_owner_id", "keyword"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetBatch GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, batch)
}

// CreateBatch POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, batch)
}

// UpdateBatchStatus PUT /api/v1/batches/:id/status
func (h *BatchHandler) UpdateBatchStatus(c *gin.Context) {
	var req service.UpdateBatchStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.svc.UpdateStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, batch)
}

// ExportBatches GET /api/v1/batches/export
func (h *BatchHandler) ExportBatches(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context(), queryFilters(c, "status", "current_owner_id", "keyword"))
	if err != nil {
		HandleError(c, err)
		return
	}
	writeWorkbook(c, f, "batches")
}

// writeWorkbook 输出 xlsx 附件
func writeWorkbook(c *gin.Context, f *excelize.File, prefix string) {
	defer f.Close()
	filename := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
