package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	Action     string         `gorm:"size:64;index" json:"action"`
	EntityType string         `gorm:"size:32;index" json:"entity_type"`
	EntityID   uint           `json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `gorm:"size:64" json:"ip_address"`
	UserAgent  string         `gorm:"size:255" json:"user_agent"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
