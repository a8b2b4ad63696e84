package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// DistributorHandler 分销处理器
type DistributorHandler struct {
	svc *service.DistributorService
}

func NewDistributorHandler(svc *service.DistributorService) *DistributorHandler {
	return &DistributorHandler{svc: svc}
}

// ListInventory 默认只看本组织库存
// GET /api/v1/distributor/inventory?raw_material_batch_id=xxx&finished_good_id=xxx
func (h *DistributorHandler) ListInventory(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "distributor_id", "raw_material_batch_id", "finished_good_id")
	if p := GetPrincipal(c); !p.IsPlatformAdmin() {
		filters["distributor_id"] = p.OrgID
	}
	items, total, err := h.svc.ListInventory(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetInventory GET /api/v1/distributor/inventory/:id
func (h *DistributorHandler) GetInventory(c *gin.Context) {
	item, err := h.svc.GetInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, item)
}

// ReceiveInventory POST /api/v1/distributor/inventory
func (h *DistributorHandler) ReceiveInventory(c *gin.Context) {
	var req service.ReceiveInventoryRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Receive(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, item)
}

// ListShipments GET /api/v1/distributor/shipments?status=xxx&destination_org_id=xxx
func (h *DistributorHandler) ListShipments(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "distributor_id", "destination_org_id", "status")
	if p := GetPrincipal(c); !p.IsPlatformAdmin() {
		filters["distributor_id"] = p.OrgID
	}
	items, total, err := h.svc.ListShipments(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetShipment GET /api/v1/distributor/shipments/:id
func (h *DistributorHandler) GetShipment(c *gin.Context) {
	shipment, err := h.svc.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}

// CreateShipment POST /api/v1/distributor/shipments
func (h *DistributorHandler) CreateShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if !bindJSON(c, &req) {
		return
	}
	shipment, err := h.svc.CreateShipment(c.Request.Context(), GetPrincipal(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, shipment)
}

// UpdateShipmentStatus PUT /api/v1/distributor/shipments/:id/status
func (h *DistributorHandler) UpdateShipmentStatus(c *gin.Context) {
	var req service.UpdateShipmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	shipment, err := h.svc.UpdateShipmentStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, shipment)
}
