package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 检测状态
const (
	LabTestStatusPending        = "PENDING"
	LabTestStatusInProgress     = "IN_PROGRESS"
	LabTestStatusCompleted      = "COMPLETED"
	LabTestStatusRejected       = "REJECTED"
	LabTestStatusCancelled      = "CANCELLED"
	LabTestStatusRequiresRetest = "REQUIRES_RETEST"
)

// LabTestStatuses 合法检测状态
var LabTestStatuses = []string{
	LabTestStatusPending, LabTestStatusInProgress, LabTestStatusCompleted,
	LabTestStatusRejected, LabTestStatusCancelled, LabTestStatusRequiresRetest,
}

// ValidLabTestTransitions 检测状态流转；COMPLETED/REJECTED/CANCELLED 为终态
var ValidLabTestTransitions = map[string][]string{
	LabTestStatusPending:        {LabTestStatusInProgress, LabTestStatusCancelled},
	LabTestStatusInProgress:     {LabTestStatusCompleted, LabTestStatusRejected, LabTestStatusCancelled, LabTestStatusRequiresRetest},
	LabTestStatusRequiresRetest: {LabTestStatusInProgress, LabTestStatusCancelled},
}

// 检测优先级
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// LabTest 实验室检测
type LabTest struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	TestType           string         `json:"test_type" gorm:"size:100;not null"`
	SampleName         string         `json:"sample_name" gorm:"size:200;not null"`
	SampleDescription  string         `json:"sample_description" gorm:"type:text"`
	Priority           string         `json:"priority" gorm:"size:20;default:MEDIUM"`
	Status             string         `json:"status" gorm:"size:20;default:PENDING;index"`
	LabID              string         `json:"lab_id" gorm:"size:36;not null;index"`
	RequestedByID      string         `json:"requested_by_id" gorm:"size:36"`
	TesterID           *string        `json:"tester_id" gorm:"size:36"`
	RawMaterialBatchID *string        `json:"raw_material_batch_id" gorm:"size:36;index"`
	FinishedGoodID     *string        `json:"finished_good_id" gorm:"size:36;index"`
	SupplyChainEventID *string        `json:"supply_chain_event_id" gorm:"size:36"`
	Results            datatypes.JSON `json:"results"`
	Remarks            string         `json:"remarks" gorm:"type:text"`
	StartedAt          *time.Time     `json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (LabTest) TableName() string {
	return "ayu_lab_tests"
}

// IsTerminal 终态不可再流转
func (t *LabTest) IsTerminal() bool {
	_, ok := ValidLabTestTransitions[t.Status]
	return !ok
}

// Certificate 检测证书，检测完成时自动生成
type Certificate struct {
	ID                string         `json:"id" gorm:"primaryKey;size:36"`
	CertificateNumber string         `json:"certificate_number" gorm:"size:32;uniqueIndex;not null"`
	CertificateType   string         `json:"certificate_type" gorm:"size:50;not null"`
	IssuedDate        time.Time      `json:"issued_date"`
	ExpiryDate        *time.Time     `json:"expiry_date"`
	IsValid           bool           `json:"is_valid" gorm:"default:true"`
	IssuedByID        string         `json:"issued_by_id" gorm:"size:36;index"`
	LabTestID         *string        `json:"lab_test_id" gorm:"size:36;uniqueIndex"`
	Data              datatypes.JSON `json:"data"`
	Signature         string         `json:"signature" gorm:"size:500"` // PDF存储key
	RevokedReason     string         `json:"revoked_reason" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Certificate) TableName() string {
	return "ayu_certificates"
}

// IsCurrentlyValid 有效且未过期
func (c *Certificate) IsCurrentlyValid(now time.Time) bool {
	if !c.IsValid {
		return false
	}
	return c.ExpiryDate == nil || now.Before(*c.ExpiryDate)
}
