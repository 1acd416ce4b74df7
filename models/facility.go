package models

type Facility struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Category string `gorm:"size:50;index" json:"category"` // kamar, kamar_mandi, umum, parkir
	Icon     string `gorm:"size:50" json:"icon"`
	IsActive bool   `json:"is_active"`
}

// KosFacility has no unique index on (kos_id, facility_id): legacy rows may
// carry duplicates, which FacilityService.RemoveDuplicates cleans up.
type KosFacility struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	KosID       uint     `gorm:"index;not null" json:"kos_id"`
	FacilityID  uint     `gorm:"index;not null" json:"facility_id"`
	IsAvailable bool     `json:"is_available"`
	Facility    Facility `gorm:"foreignKey:FacilityID" json:"facility"`
}

func (KosFacility) TableName() string {
	return "kos_facilities"
}
