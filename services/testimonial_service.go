package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"temankosan/models"
	"temankosan/utils"

	"gorm.io/gorm"
)

const (
	MinTestimonialComment   = 20
	MaxTestimonialListLimit = 50
	testimonialWindow       = 24 * time.Hour
)

type TestimonialService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewTestimonialService(db *gorm.DB) *TestimonialService {
	return &TestimonialService{DB: db, Now: time.Now}
}

type TestimonialInput struct {
	Name      string `json:"name" form:"name"`
	Email     string `json:"email" form:"email"`
	KosName   string `json:"kos_name" form:"kos_name"`
	Rating    int    `json:"rating" form:"rating"`
	Comment   string `json:"comment" form:"comment"`
	IPAddress string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// Submit stores a pending testimonial. One submission per email per 24 hours.
func (s *TestimonialService) Submit(in TestimonialInput) (*models.Testimonial, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	kosName := strings.TrimSpace(in.KosName)
	comment := strings.TrimSpace(in.Comment)

	switch {
	case name == "" || email == "" || kosName == "" || comment == "" || in.Rating == 0:
		return nil, ErrBadRequest("Nama, email, nama kos, rating, dan komentar wajib diisi.")
	case !ValidEmail(email):
		return nil, ErrBadRequest("Format email tidak valid.")
	case in.Rating < 1 || in.Rating > 5:
		return nil, ErrBadRequest("Rating harus antara 1 sampai 5.")
	case utf8.RuneCountInString(comment) < MinTestimonialComment:
		return nil, ErrBadRequest(fmt.Sprintf("Komentar minimal %d karakter.", MinTestimonialComment))
	}

	now := s.Now()
	var recent int64
	if err := s.DB.Model(&models.Testimonial{}).
		Where("email = ? AND created_at > ?", email, now.Add(-testimonialWindow)).
		Count(&recent).Error; err != nil {
		return nil, fmt.Errorf("count recent testimonials: %w", err)
	}
	if recent > 0 {
		return nil, ErrTooManyRequests("Anda sudah mengirim testimoni dalam 24 jam terakhir.")
	}

	t := models.Testimonial{
		Name:       name,
		Email:      email,
		KosName:    kosName,
		Rating:     in.Rating,
		Comment:    comment,
		IsApproved: false,
		IPAddress:  in.IPAddress,
		UserAgent:  utils.Truncate(in.UserAgent, 250),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.DB.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	return &t, nil
}

func (s *TestimonialService) ListApproved(limit int) ([]models.Testimonial, error) {
	if limit <= 0 || limit > MaxTestimonialListLimit {
		limit = MaxTestimonialListLimit
	}
	list := []models.Testimonial{}
	err := s.DB.Where("is_approved = ?", true).
		Order("approved_at DESC").Order("id DESC").
		Limit(limit).Find(&list).Error
	return list, err
}

func (s *TestimonialService) GetApproved(id uint) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := s.DB.Where("is_approved = ?", true).First(&t, id).Error; err != nil {
		return nil, notFoundOr(err, "Testimoni tidak ditemukan.", "find testimonial")
	}
	return &t, nil
}

// List is the moderation view; status is "pending", "approved" or empty.
func (s *TestimonialService) List(status string, page, perPage int) ([]models.Testimonial, utils.Pagination, error) {
	q := func() *gorm.DB {
		db := s.DB.Model(&models.Testimonial{})
		switch status {
		case "pending":
			db = db.Where("is_approved = ?", false)
		case "approved":
			db = db.Where("is_approved = ?", true)
		}
		return db
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count testimonials: %w", err)
	}
	p := utils.NewPagination(page, perPage, total)

	var list []models.Testimonial
	if err := q().Order("created_at DESC").Order("id DESC").
		Offset(p.Offset()).Limit(p.PerPage).Find(&list).Error; err != nil {
		return nil, p, fmt.Errorf("list testimonials: %w", err)
	}
	return list, p, nil
}

func (s *TestimonialService) PendingCount() (int64, error) {
	var n int64
	err := s.DB.Model(&models.Testimonial{}).Where("is_approved = ?", false).Count(&n).Error
	return n, err
}

func (s *TestimonialService) Approve(id uint, actor Actor) error {
	now := s.Now()
	return s.setApproval(id, actor, "approve_testimonial", map[string]interface{}{
		"is_approved": true,
		"approved_at": now,
	})
}

// Reject clears approval and keeps the row.
func (s *TestimonialService) Reject(id uint, actor Actor) error {
	return s.setApproval(id, actor, "reject_testimonial", map[string]interface{}{
		"is_approved": false,
		"approved_at": nil,
	})
}

func (s *TestimonialService) setApproval(id uint, actor Actor, action string, updates map[string]interface{}) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Testimonial
		if err := tx.First(&t, id).Error; err != nil {
			return notFoundOr(err, "Testimoni tidak ditemukan.", "find testimonial")
		}
		if err := tx.Model(&t).Updates(updates).Error; err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		return logActivity(tx, actor, action, "testimonial", t.ID, nil)
	})
}

func (s *TestimonialService) Delete(id uint, actor Actor) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Testimonial
		if err := tx.First(&t, id).Error; err != nil {
			return notFoundOr(err, "Testimoni tidak ditemukan.", "find testimonial")
		}
		if err := tx.Delete(&t).Error; err != nil {
			return fmt.Errorf("delete testimonial: %w", err)
		}
		return logActivity(tx, actor, "delete_testimonial", "testimonial", t.ID, map[string]string{"email": t.Email})
	})
}
