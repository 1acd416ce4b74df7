package services

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"temankosan/models"

	"gorm.io/gorm"
)

const RecentReviewLimit = 10

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// Recent returns the latest reviews of a kos with their authors.
func (s *ReviewService) Recent(kosID uint, limit int) ([]models.Review, error) {
	var list []models.Review
	err := s.DB.Preload("User").
		Where("kos_id = ?", kosID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&list).Error
	return list, err
}

// CanReview reports whether userID stayed in the kos and has not reviewed
// it yet.
func (s *ReviewService) CanReview(userID, kosID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	stayed, err := HasConfirmedStay(s.DB, userID, kosID)
	if err != nil || !stayed {
		return false, err
	}
	var n int64
	if err := s.DB.Model(&models.Review{}).Where("user_id = ? AND kos_id = ?", userID, kosID).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *ReviewService) Create(userID, kosID uint, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return nil, ErrBadRequest("Rating harus antara 1 sampai 5.")
	}
	if utf8.RuneCountInString(comment) < 10 {
		return nil, ErrBadRequest("Ulasan minimal 10 karakter.")
	}

	stayed, err := HasConfirmedStay(s.DB, userID, kosID)
	if err != nil {
		return nil, fmt.Errorf("check stay: %w", err)
	}
	if !stayed {
		return nil, ErrForbidden("Ulasan hanya dapat diberikan oleh penyewa kos ini.")
	}

	review := models.Review{KosID: kosID, UserID: userID, Rating: rating, Comment: comment}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Review{}).Where("user_id = ? AND kos_id = ?", userID, kosID).Count(&n).Error; err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if n > 0 {
			return ErrConflict("Anda sudah memberikan ulasan untuk kos ini.")
		}
		if err := tx.Create(&review).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrConflict("Anda sudah memberikan ulasan untuk kos ini.")
			}
			return fmt.Errorf("create review: %w", err)
		}
		return recomputeRating(tx, kosID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// recomputeRating refreshes kos.rating (one decimal) and kos.review_count.
func recomputeRating(tx *gorm.DB, kosID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	if err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("kos_id = ?", kosID).
		Scan(&agg).Error; err != nil {
		return fmt.Errorf("aggregate reviews: %w", err)
	}
	return tx.Model(&models.Kos{}).Where("id = ?", kosID).Updates(map[string]interface{}{
		"rating":       math.Round(agg.Avg*10) / 10,
		"review_count": agg.Count,
	}).Error
}
