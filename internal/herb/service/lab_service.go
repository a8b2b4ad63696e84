package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/entity"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/repository"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/trace"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/shared/report"
)

// DefaultCertificateType 检测完成自动签发的证书类型
const DefaultCertificateType = "QUALITY_TEST"

// LabService 实验室检测服务
type LabService struct {
	repo         *repository.LabTestRepository
	orgRepo      *repository.OrganizationRepository
	resolver     *trace.Resolver
	pipeline     *trace.Pipeline
	certificates *CertificateService
	now          func() time.Time
}

func NewLabService(repo *repository.LabTestRepository, orgRepo *repository.OrganizationRepository, resolver *trace.Resolver, pipeline *trace.Pipeline, certificates *CertificateService) *LabService {
	return &LabService{
		repo:         repo,
		orgRepo:      orgRepo,
		resolver:     resolver,
		pipeline:     pipeline,
		certificates: certificates,
		now:          time.Now,
	}
}

// CreateLabTestRequest 开具检测单。被检对象可用批次号、ID或二维码快照指定
type CreateLabTestRequest struct {
	trace.Reference
	TestType          string `json:"test_type" binding:"required,max=100"`
	SampleName        string `json:"sample_name" binding:"required,max=200"`
	SampleDescription string `json:"sample_description"`
	Priority          string `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	LabID             string `json:"lab_id"`
}

// assignedLab 检测单归属实验室：默认本组织；仅平台管理员可指派其他 LABS 组织
func (s *LabService) assignedLab(ctx context.Context, p Principal, requested string) (string, error) {
	if requested == "" || requested == p.OrgID {
		return p.OrgID, nil
	}
	if !p.IsPlatformAdmin() {
		return "", Forbidden("cannot assign lab test to another organization")
	}
	org, err := s.orgRepo.FindByID(ctx, requested)
	if err != nil {
		return "", notFound(err, "lab")
	}
	if org.Type != entity.OrgTypeLabs {
		return "", BadRequest("organization %s is not a lab", org.Name)
	}
	if !org.IsActive {
		return "", BadRequest("lab %s is inactive", org.Name)
	}
	return org.ID, nil
}

// UpdateLabTestStatusRequest 检测状态变更
type UpdateLabTestStatusRequest struct {
	Status          string                 `json:"status" binding:"required,oneof=PENDING IN_PROGRESS COMPLETED REJECTED CANCELLED REQUIRES_RETEST"`
	Results         map[string]interface{} `json:"results"`
	Remarks         string                 `json:"remarks"`
	CertificateType string                 `json:"certificate_type" binding:"max=50"`
}

// CreatedLabTest 检测单及其追溯增强结果
type CreatedLabTest struct {
	*entity.LabTest
	Trace trace.Enrichment `json:"trace"`
}

// UpdatedLabTest 状态变更结果；完成时附带证书与完成事件
type UpdatedLabTest struct {
	*entity.LabTest
	Certificate *entity.Certificate `json:"certificate,omitempty"`
	Trace       *trace.Enrichment   `json:"trace,omitempty"`
}

func (s *LabService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.LabTest, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

func (s *LabService) Get(ctx context.Context, id string) (*entity.LabTest, error) {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "lab test")
	}
	return test, nil
}

// Create 检测单以 PENDING 写入；随后追加 TESTING 账本事件并回填事件ID
func (s *LabService) Create(ctx context.Context, p Principal, req *CreateLabTestRequest) (*CreatedLabTest, error) {
	labID, err := s.assignedLab(ctx, p, req.LabID)
	if err != nil {
		return nil, err
	}
	target, err := s.resolver.Resolve(ctx, req.Reference)
	if err != nil {
		return nil, resolveError(err)
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	test := &entity.LabTest{
		ID:                 uuid.New().String(),
		TestType:           req.TestType,
		SampleName:         req.SampleName,
		SampleDescription:  req.SampleDescription,
		Priority:           priority,
		Status:             entity.LabTestStatusPending,
		LabID:              labID,
		RequestedByID:      p.UserID,
		RawMaterialBatchID: target.RawMaterialBatchID,
		FinishedGoodID:     target.FinishedGoodID,
	}
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, err
	}

	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeTesting,
		HandlerID:      p.UserID,
		FromLocationID: p.OrgID,
		ToLocationID:   test.LabID,
		Target:         target,
		Notes:          test.SampleDescription,
		Metadata: map[string]interface{}{
			"lab_test_id": test.ID,
			"test_type":   test.TestType,
			"priority":    test.Priority,
			"status":      test.Status,
		},
	}, map[string]interface{}{
		"sample_name": test.SampleName,
		"test_type":   test.TestType,
		"lab_id":      test.LabID,
	})
	if enrichment.Event != nil {
		if err := s.repo.LinkEvent(ctx, test.ID, enrichment.Event.ID); err == nil {
			test.SupplyChainEventID = &enrichment.Event.ID
		}
	}
	return &CreatedLabTest{LabTest: test, Trace: enrichment}, nil
}

// UpdateStatus 按状态流转表变更。完成时签发证书并追加一条新的 TESTING 完成事件，
// 开单时的事件保持不变
func (s *LabService) UpdateStatus(ctx context.Context, p Principal, id string, req *UpdateLabTestStatusRequest) (*UpdatedLabTest, error) {
	test, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(test.LabID) {
		return nil, Forbidden("lab test belongs to another lab")
	}
	from := test.Status
	if !entity.CanTransition(entity.ValidLabTestTransitions, from, req.Status) {
		return nil, invalidTransition("lab test", from, req.Status)
	}

	now := s.now()
	updates := map[string]interface{}{"status": req.Status}
	if req.Remarks != "" {
		updates["remarks"] = req.Remarks
	}
	if req.Results != nil {
		raw, err := json.Marshal(req.Results)
		if err != nil {
			return nil, Validation(FieldError{Field: "results", Rule: "json", Message: err.Error()})
		}
		updates["results"] = datatypes.JSON(raw)
	}
	if req.Status == entity.LabTestStatusInProgress && test.StartedAt == nil {
		updates["started_at"] = now
		updates["tester_id"] = p.UserID
	}

	if req.Status != entity.LabTestStatusCompleted {
		if err := s.repo.UpdateStatus(ctx, id, from, updates); err != nil {
			return nil, staleLabTest(err)
		}
		test, err = s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &UpdatedLabTest{LabTest: test}, nil
	}

	updates["completed_at"] = now
	certType := req.CertificateType
	if certType == "" {
		certType = DefaultCertificateType
	}
	expiry := now.Add(CertificateValidity)
	certData, _ := json.Marshal(map[string]interface{}{
		"lab_test_id": test.ID,
		"test_type":   test.TestType,
		"sample_name": test.SampleName,
		"results":     req.Results,
	})
	cert, created, err := s.repo.Complete(ctx, id, from, updates, &entity.Certificate{
		ID:              uuid.New().String(),
		CertificateType: certType,
		IssuedDate:      now,
		ExpiryDate:      &expiry,
		IsValid:         true,
		IssuedByID:      test.LabID,
		Data:            datatypes.JSON(certData),
	})
	if err != nil {
		return nil, staleLabTest(err)
	}
	test, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if created {
		s.certificates.Render(ctx, cert, test)
	}

	target := trace.Resolved{RawMaterialBatchID: test.RawMaterialBatchID, FinishedGoodID: test.FinishedGoodID}
	enrichment := s.pipeline.Enrich(ctx, trace.LedgerInput{
		EventType:      entity.EventTypeTesting,
		HandlerID:      p.UserID,
		FromLocationID: test.LabID,
		ToLocationID:   test.LabID,
		Target:         target,
		Notes:          req.Remarks,
		Metadata: map[string]interface{}{
			"lab_test_id":        test.ID,
			"test_type":          test.TestType,
			"priority":           test.Priority,
			"status":             entity.LabTestStatusCompleted,
			"certificate_number": cert.CertificateNumber,
		},
	}, map[string]interface{}{
		"sample_name":        test.SampleName,
		"test_type":          test.TestType,
		"lab_id":             test.LabID,
		"certificate_number": cert.CertificateNumber,
	})
	return &UpdatedLabTest{LabTest: test, Certificate: cert, Trace: &enrichment}, nil
}

func staleLabTest(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return Conflict("lab test status changed concurrently")
	}
	return err
}

// Export 导出检测清单
func (s *LabService) Export(ctx context.Context, filters map[string]string) (*excelize.File, error) {
	items, err := s.repo.ListForExport(ctx, filters)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(items))
	for _, t := range items {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []interface{}{
			t.ID, t.TestType, t.SampleName, t.Priority, t.Status,
			deref(t.RawMaterialBatchID), deref(t.FinishedGoodID),
			t.CreatedAt.Format("2006-01-02 15:04"), completed,
		})
	}
	return report.BuildWorkbook(report.Table{
		Sheet:   "Lab Tests",
		Headers: []string{"ID", "Test Type", "Sample", "Priority", "Status", "Raw Material Batch", "Finished Good", "Created At", "Completed At"},
		Widths:  []float64{38, 22, 26, 10, 16, 38, 38, 18, 18},
		Rows:    rows,
		Summary: fmt.Sprintf("Total: %d", len(items)),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
