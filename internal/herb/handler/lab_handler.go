package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// LabHandler 实验室检测处理器
type LabHandler struct {
	svc *service.LabService
}

func NewLabHandler(svc *service.LabService) *LabHandler {
	return &LabHandler{svc: svc}
}

var labTestFilters = []string{"status", "lab_id", "priority", "raw_material_batch_id", "finished_good_id"}

// ListLabTests GET /api/v1/lab-tests?status=xxx&lab_id=xxx&priority=xxx
func (h *LabHandler) ListLabTests(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c, labTestFilters...))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetLabTest GET /api/v1/lab-tests/:id
func (h *LabHandler) GetLabTest(c *gin.Context) {
	test, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, test)
}

// CreateLabTest POST /api/v1/lab-tests
func (h *LabHandler) CreateLabTest(c *gin.Context) {
	var req service.CreateLabTestRequest
	if !bindJSON(c, &req) {
		return
	}
	test, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, test)
}

// UpdateLabTestStatus 完成时自动签发证书
// PUT /api/v1/lab-tests/:id/status
func (h *LabHandler) UpdateLabTestStatus(c *gin.Context) {
	var req service.UpdateLabTestStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpdateStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// ExportLabTests GET /api/v1/lab-tests/export
func (h *LabHandler) ExportLabTests(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context(), queryFilters(c, labTestFilters...))
	if err != nil {
		HandleError(c, err)
		return
	}
	writeWorkbook(c, f, "lab_tests")
}
