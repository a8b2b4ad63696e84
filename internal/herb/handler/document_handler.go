package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// DocumentHandler 附件处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// formUpload 读取 multipart 文件字段；字段缺失时返回 nil
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	up := &service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return up, func() { f.Close() }, nil
}

// sendFile 以附件形式输出内容
func sendFile(c *gin.Context, name, contentType string, size int64, body io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.DataFromReader(http.StatusOK, size, contentType, body, nil)
}

// Upload 上传附件
// POST /api/v1/documents  (multipart: entity_kind, entity_id, description, file)
func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+1<<20)
	up, closeFile, err := formUpload(c, "file")
	if err != nil {
		BadRequest(c, "invalid multipart upload: "+err.Error())
		return
	}
	defer closeFile()
	if up == nil {
		ValidationFailed(c, []service.FieldError{{Field: "file", Rule: "required"}})
		return
	}

	doc, err := h.svc.Upload(c.Request.Context(), GetPrincipal(c),
		c.PostForm("entity_kind"), c.PostForm("entity_id"), c.PostForm("description"), up)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, doc)
}

// ListDocuments 实体的附件
// GET /api/v1/documents?entity_kind=xxx&entity_id=xxx
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.ListByEntity(c.Request.Context(), c.Query("entity_kind"), c.Query("entity_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": docs})
}

// GetDocument GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, doc)
}

// DownloadDocument GET /api/v1/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	doc, rc, err := h.svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer rc.Close()
	sendFile(c, doc.FileName, doc.MimeType, doc.FileSize, rc)
}

// DeleteDocument DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetPrincipal(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
