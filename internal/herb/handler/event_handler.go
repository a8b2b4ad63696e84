package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// EventHandler 供应链事件（只读）
type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ListEvents GET /api/v1/events?event_type=xxx&handler_id=xxx&raw_material_batch_id=xxx&finished_good_id=xxx
func (h *EventHandler) ListEvents(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "event_type", "handler_id", "organization_id", "raw_material_batch_id", "finished_good_id")
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetEvent GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, event)
}
