package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/observability"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/blob"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/report"
)

// CertificateValidity 证书有效期
const CertificateValidity = 365 * 24 * time.Hour

// CertificateService 检测证书服务
type CertificateService struct {
	repo      *repository.CertificateRepository
	labRepo   *repository.LabTestRepository
	orgRepo   *repository.OrganizationRepository
	store     blob.Store
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

func NewCertificateService(repo *repository.CertificateRepository, labRepo *repository.LabTestRepository, orgRepo *repository.OrganizationRepository, store blob.Store, publicURL string, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		repo:      repo,
		labRepo:   labRepo,
		orgRepo:   orgRepo,
		store:     store,
		publicURL: publicURL,
		logger:    logger.Named("certificate"),
		now:       time.Now,
	}
}

// RevokeCertificateRequest 吊销请求
type RevokeCertificateRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// CertificateVerification 公开核验结果
type CertificateVerification struct {
	Valid       bool                `json:"valid"`
	Reason      string              `json:"reason,omitempty"`
	Certificate *entity.Certificate `json:"certificate"`
}

func certificateKey(id string) string {
	return "certificates/" + id + ".pdf"
}

// VerificationURL 证书核验地址，印在PDF二维码中
func (s *CertificateService) VerificationURL(number string) string {
	return s.publicURL + "/api/v1/certificates/verify/" + number
}

func (s *CertificateService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Certificate, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *CertificateService) Get(ctx context.Context, id string) (*entity.Certificate, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "certificate")
	}
	return cert, nil
}

// Render 生成证书PDF写入文件存储并记录key。失败只记录，不影响证书本身
func (s *CertificateService) Render(ctx context.Context, cert *entity.Certificate, test *entity.LabTest) {
	if s.store == nil {
		return
	}
	data := report.CertificateData{
		Number:          cert.CertificateNumber,
		Type:            cert.CertificateType,
		TestType:        test.TestType,
		SampleName:      test.SampleName,
		IssuedDate:      cert.IssuedDate,
		ExpiryDate:      cert.ExpiryDate,
		Remarks:         test.Remarks,
		VerificationURL: s.VerificationURL(cert.CertificateNumber),
	}
	if org, err := s.orgRepo.FindByID(ctx, cert.IssuedByID); err == nil {
		data.IssuerName = org.Name
	}
	switch {
	case test.RawMaterialBatchID != nil:
		data.SubjectRef = "raw material batch " + *test.RawMaterialBatchID
	case test.FinishedGoodID != nil:
		data.SubjectRef = "finished good " + *test.FinishedGoodID
	}
	if len(test.Results) > 0 {
		if err := json.Unmarshal(test.Results, &data.Results); err != nil {
			// 非对象结果按原文输出
			data.Results = map[string]interface{}{"results": string(test.Results)}
		}
	}

	pdf, err := report.RenderCertificate(data)
	if err != nil {
		s.renderFailed(cert, err)
		return
	}
	key := certificateKey(cert.ID)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
		s.renderFailed(cert, err)
		return
	}
	if err := s.repo.SetSignature(ctx, cert.ID, key); err != nil {
		s.renderFailed(cert, err)
		return
	}
	cert.Signature = key
}

func (s *CertificateService) renderFailed(cert *entity.Certificate, err error) {
	observability.EnrichmentFailures.WithLabelValues(observability.StepPDF).Inc()
	s.logger.Warn("certificate pdf not stored",
		zap.String("certificate_id", cert.ID),
		zap.String("certificate_number", cert.CertificateNumber),
		zap.Error(err))
}

// Download 证书PDF，调用方负责关闭。签发时未能生成PDF的在此补生成
func (s *CertificateService) Download(ctx context.Context, id string) (*entity.Certificate, io.ReadCloser, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if cert.Signature == "" && cert.LabTestID != nil {
		if test, err := s.labRepo.FindByID(ctx, *cert.LabTestID); err == nil {
			s.Render(ctx, cert, test)
		}
	}
	if cert.Signature == "" || s.store == nil {
		return nil, nil, NotFound("certificate pdf not available")
	}
	_, rc, err := s.store.Get(ctx, cert.Signature)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, NotFound("certificate pdf not available")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open certificate pdf: %w", err)
	}
	return cert, rc, nil
}

// Verify 按证书编号核验：有效且未过期
func (s *CertificateService) Verify(ctx context.Context, number string) (*CertificateVerification, error) {
	cert, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, notFound(err, "certificate")
	}
	result := &CertificateVerification{Valid: cert.IsCurrentlyValid(s.now()), Certificate: cert}
	switch {
	case !cert.IsValid:
		result.Reason = "revoked"
	case !result.Valid:
		result.Reason = "expired"
	}
	return result, nil
}

// Revoke 仅签发实验室或平台管理员可吊销
func (s *CertificateService) Revoke(ctx context.Context, p Principal, id string, req *RevokeCertificateRequest) (*entity.Certificate, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPlatformAdmin() && (p.OrgType != entity.OrgTypeLabs || p.OrgID != cert.IssuedByID) {
		return nil, Forbidden("only the issuing lab can revoke this certificate")
	}
	if !cert.IsValid {
		return nil, Conflict("certificate already revoked")
	}
	if err := s.repo.Revoke(ctx, id, req.Reason); err != nil {
		return nil, notFound(err, "certificate")
	}
	cert.IsValid = false
	cert.RevokedReason = req.Reason
	return cert, nil
}
