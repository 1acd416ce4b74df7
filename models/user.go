package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleOwner  = "owner"
)

type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:150;not null" json:"name"`
	Email       string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone       string     `gorm:"size:20" json:"phone"`
	Password    string     `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role        string     `gorm:"size:20;index;default:member" json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleMember, RoleOwner:
		return true
	}
	return false
}
