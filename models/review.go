package models

import "time"

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	KosID     uint      `gorm:"uniqueIndex:idx_review_kos_user;not null" json:"kos_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_kos_user;index;not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
