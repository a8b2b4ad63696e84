package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 告警级别
const (
	AlertSeverityInfo     = "INFO"
	AlertSeverityWarning  = "WARNING"
	AlertSeverityCritical = "CRITICAL"
)

// SystemAlert 系统告警
type SystemAlert struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Severity     string     `json:"severity" gorm:"size:20;not null;index"`
	Title        string     `json:"title" gorm:"size:200;not null"`
	Message      string     `json:"message" gorm:"type:text"`
	Source       string     `json:"source" gorm:"size:100"`
	IsResolved   bool       `json:"is_resolved" gorm:"default:false;index"`
	ResolvedByID *string    `json:"resolved_by_id" gorm:"size:36"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (SystemAlert) TableName() string {
	return "ayu_system_alerts"
}

// 管理操作
const (
	AdminActionActivateOrg    = "ACTIVATE_ORGANIZATION"
	AdminActionDeactivateOrg  = "DEACTIVATE_ORGANIZATION"
	AdminActionActivateUser   = "ACTIVATE_USER"
	AdminActionDeactivateUser = "DEACTIVATE_USER"
	AdminActionResolveAlert   = "RESOLVE_ALERT"
)

// AdminAction 管理员操作审计
type AdminAction struct {
	ID         string         `json:"id" gorm:"primaryKey;size:36"`
	AdminID    string         `json:"admin_id" gorm:"size:36;not null;index"`
	Action     string         `json:"action" gorm:"size:50;not null"`
	TargetType string         `json:"target_type" gorm:"size:30"`
	TargetID   string         `json:"target_id" gorm:"size:36"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (AdminAction) TableName() string {
	return "ayu_admin_actions"
}
