package models

import "time"

type Testimonial struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:150;not null" json:"name"`
	Email      string     `gorm:"size:150;index;not null" json:"email"`
	KosName    string     `gorm:"size:200" json:"kos_name"`
	Rating     int        `gorm:"not null" json:"rating"`
	Comment    string     `gorm:"type:text" json:"comment"`
	IsApproved bool       `gorm:"default:false;index" json:"is_approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	IPAddress  string     `gorm:"size:64" json:"-"`
	UserAgent  string     `gorm:"size:255" json:"-"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PublicTestimonial is what anonymous API callers see. Contact and request
// metadata stay with the moderation view.
type PublicTestimonial struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	KosName    string     `json:"kos_name"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (t Testimonial) Public() PublicTestimonial {
	return PublicTestimonial{
		ID:         t.ID,
		Name:       t.Name,
		KosName:    t.KosName,
		Rating:     t.Rating,
		Comment:    t.Comment,
		ApprovedAt: t.ApprovedAt,
		CreatedAt:  t.CreatedAt,
	}
}
