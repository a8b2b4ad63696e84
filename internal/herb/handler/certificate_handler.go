package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/service"
)

// CertificateHandler 证书处理器
type CertificateHandler struct {
	svc *service.CertificateService
}

func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

// ListCertificates GET /api/v1/certificates?issued_by_id=xxx&certificate_type=xxx&is_valid=true
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, queryFilters(c, "issued_by_id", "certificate_type", "is_valid"))
	if err != nil {
		HandleError(c, err)
		return
	}
	List(c, items, total, page, pageSize)
}

// GetCertificate GET /api/v1/certificates/:id
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	cert, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, cert)
}

// DownloadPDF GET /api/v1/certificates/:id/pdf
func (h *CertificateHandler) DownloadPDF(c *gin.Context) {
	cert, rc, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", "attachment; filename=\""+cert.CertificateNumber+".pdf\"")
	c.DataFromReader(200, -1, "application/pdf", rc, nil)
}

// VerifyCertificate 公开核验
// GET /api/v1/certificates/verify/:number
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	result, err := h.svc.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// RevokeCertificate PUT /api/v1/certificates/:id/revoke
func (h *CertificateHandler) RevokeCertificate(c *gin.Context) {
	var req service.RevokeCertificateRequest
	if !bindJSON(c, &req) {
		return
	}
	cert, err := h.svc.Revoke(c.Request.Context(), GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, cert)
}
