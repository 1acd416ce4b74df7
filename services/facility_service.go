package services

import (
	"fmt"
	"log"

	"temankosan/models"

	"gorm.io/gorm"
)

type FacilityService struct {
	DB *gorm.DB
}

func NewFacilityService(db *gorm.DB) *FacilityService {
	return &FacilityService{DB: db}
}

// Active lists facilities offered on forms and search filters.
func (s *FacilityService) Active() ([]models.Facility, error) {
	var list []models.Facility
	err := s.DB.Where("is_active = ?", true).Order("category ASC, name ASC").Find(&list).Error
	return list, err
}

type duplicateGroup struct {
	KosID      uint
	FacilityID uint
	KeepID     uint
	N          int64
}

// RemoveDuplicates keeps the lowest id per (kos_id, facility_id) pair and
// deletes the rest. Returns the number of rows removed.
func (s *FacilityService) RemoveDuplicates() (int64, error) {
	var removed int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var groups []duplicateGroup
		if err := tx.Model(&models.KosFacility{}).
			Select("kos_id, facility_id, MIN(id) AS keep_id, COUNT(*) AS n").
			Group("kos_id, facility_id").
			Having("COUNT(*) > 1").
			Scan(&groups).Error; err != nil {
			return fmt.Errorf("find duplicate facilities: %w", err)
		}

		for _, g := range groups {
			res := tx.Where("kos_id = ? AND facility_id = ? AND id <> ?", g.KosID, g.FacilityID, g.KeepID).
				Delete(&models.KosFacility{})
			if res.Error != nil {
				return fmt.Errorf("delete duplicates kos#%d facility#%d: %w", g.KosID, g.FacilityID, res.Error)
			}
			removed += res.RowsAffected
			log.Printf("🧹 kos#%d facility#%d: kept id %d, removed %d", g.KosID, g.FacilityID, g.KeepID, res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
