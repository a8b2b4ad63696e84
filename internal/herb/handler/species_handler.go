package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// SpeciesHandler 药材品种处理器
type SpeciesHandler struct {
	svc *service.SpeciesService
}

func NewSpeciesHandler(svc *service.SpeciesService) *SpeciesHandler {
	return &SpeciesHandler{svc: svc}
}

// ListSpecies 品种列表
// GET /api/v1/species?keyword=xxx&family=xxx&include_inactive=true
func (h *SpeciesHandler) ListSpecies(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c, "keyword", "family", "include_inactive"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetSpecies GET /api/v1/species/:id
func (h *SpeciesHandler) GetSpecies(c *gin.Context) {
	species, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, species)
}

// CreateSpecies POST /api/v1/species
func (h *SpeciesHandler) CreateSpecies(c *gin.Context) {
	var req service.CreateSpeciesRequest
	if !bindJSON(c, &req) {
		return
	}
	species, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, species)
}

// UpdateSpecies PUT /api/v1/species/:id
func (h *SpeciesHandler) UpdateSpecies(c *gin.Context) {
	var req service.UpdateSpeciesRequest
	if !bindJSON(c, &req) {
		return
	}
	species, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, species)
}

// DeleteSpecies 被引用的品种只停用
// DELETE /api/v1/species/:id
func (h *SpeciesHandler) DeleteSpecies(c *gin.Context) {
	hard, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": hard, "deactivated": !hard})
}
