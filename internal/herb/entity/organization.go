package entity

import "time"

// Organization 组织（农户、制造商、实验室、分销商）
type Organization struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	Name               string    `json:"name" gorm:"size:200;not null"`
	Type               string    `json:"type" gorm:"size:20;not null;index"`
	RegistrationNumber string    `json:"registration_number" gorm:"size:64;uniqueIndex;not null"`
	Email              string    `json:"email" gorm:"size:200"`
	Phone              string    `json:"phone" gorm:"size:50"`
	Address            string    `json:"address" gorm:"size:500"`
	Location           string    `json:"location" gorm:"size:200"`
	IsActive           bool      `json:"is_active" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Users []User `json:"users,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (Organization) TableName() string {
	return "ayu_organizations"
}

// User 用户，作为供应链事件的经办人
type User struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	OrganizationID string     `json:"organization_id" gorm:"size:36;not null;index"`
	Email          string     `json:"email" gorm:"size:200;uniqueIndex;not null"`
	PasswordHash   string     `json:"-" gorm:"size:100;not null"`
	FirstName      string     `json:"first_name" gorm:"size:100"`
	LastName       string     `json:"last_name" gorm:"size:100"`
	Phone          string     `json:"phone" gorm:"size:50"`
	Role           string     `json:"role" gorm:"size:20;default:USER"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (User) TableName() string {
	return "ayu_users"
}

// FullName 显示名
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
