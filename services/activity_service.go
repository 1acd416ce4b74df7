package services

import (
	"encoding/json"
	"fmt"
	"log"

	"temankosan/models"
	"temankosan/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who performed a logged action and from where.
type Actor struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// Log records an audit row. Failures are logged and never surface to the
// caller, so a broken audit table cannot block the action itself.
func (s *ActivityService) Log(actor Actor, action, entityType string, entityID uint, details interface{}) {
	if err := logActivity(s.DB, actor, action, entityType, entityID, details); err != nil {
		log.Printf("activity log %s %s#%d: %v", action, entityType, entityID, err)
	}
}

func logActivity(db *gorm.DB, actor Actor, action, entityType string, entityID uint, details interface{}) error {
	entry := models.ActivityLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  actor.IPAddress,
		UserAgent:  utils.Truncate(actor.UserAgent, 250),
	}
	if actor.UserID != 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		entry.Details = datatypes.JSON(b)
	}
	return db.Create(&entry).Error
}

func (s *ActivityService) List(page, perPage int) ([]models.ActivityLog, utils.Pagination, error) {
	var total int64
	if err := s.DB.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count activity: %w", err)
	}
	p := utils.NewPagination(page, perPage, total)

	var logs []models.ActivityLog
	if err := s.DB.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&logs).Error; err != nil {
		return nil, p, fmt.Errorf("list activity: %w", err)
	}
	return logs, p, nil
}
