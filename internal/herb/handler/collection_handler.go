package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// CollectionHandler 采集事件处理器
type CollectionHandler struct {
	svc *service.CollectionService
}

func NewCollectionHandler(svc *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// ListCollections 采集事件列表
// GET /api/v1/collections?species_id=xxx&collector_id=xxx&organization_id=xxx&unbatched=true
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "species_id", "collector_id", "organization_id", "raw_material_batch_id", "unbatched")
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetCollection GET /api/v1/collections/:id
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	event, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, event)
}

// CreateCollection 创建采集事件。JSON 请求体，或 multipart：data 字段为 JSON，file 为可选附件
// POST /api/v1/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req service.CreateCollectionRequest
	var up *service.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+1<<20)
		if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
			BadRequest(c, "invalid data field: "+err.Error())
			return
		}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			bindError(c, err)
			return
		}
		var closeFile func()
		var err error
		up, closeFile, err = formUpload(c, "file")
		if err != nil {
			BadRequest(c, "invalid multipart upload: "+err.Error())
			return
		}
		defer closeFile()
	} else if !bindJSON(c, &req) {
		return
	}

	event, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), &req, up)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, event)
}
