package models

import "time"

const (
	KosStatusPublished = "published"
	KosStatusDraft     = "draft"
	KosStatusInactive  = "inactive"

	KosTypePutra  = "putra"
	KosTypePutri  = "putri"
	KosTypeCampur = "campur"
)

type Kos struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LocationID     uint      `gorm:"index" json:"location_id"`
	Name           string    `gorm:"size:200;not null" json:"name"`
	Slug           string    `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Address        string    `gorm:"type:text" json:"address"`
	Description    string    `gorm:"type:text" json:"description"`
	Price          int64     `gorm:"not null;index" json:"price"`
	Type           string    `gorm:"size:10;index" json:"type"`
	RoomSize       string    `gorm:"size:20" json:"room_size"`
	TotalRooms     int       `json:"total_rooms"`
	AvailableRooms int       `json:"available_rooms"`
	Status         string    `gorm:"size:20;index;default:draft" json:"status"`
	IsAvailable    bool      `json:"is_available"`
	IsFeatured     bool      `gorm:"default:false;index" json:"is_featured"`
	ViewCount      int64     `gorm:"default:0" json:"view_count"`
	Rating         float64   `gorm:"default:0" json:"rating"`
	ReviewCount    int       `gorm:"default:0" json:"review_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Location   Location      `gorm:"foreignKey:LocationID" json:"location"`
	Images     []KosImage    `gorm:"foreignKey:KosID" json:"images,omitempty"`
	Facilities []KosFacility `gorm:"foreignKey:KosID" json:"facilities,omitempty"`
}

func (Kos) TableName() string {
	return "kos"
}

// PrimaryImage falls back to the first image by sort order.
func (k Kos) PrimaryImage() string {
	for _, img := range k.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	if len(k.Images) > 0 {
		return k.Images[0].ImageURL
	}
	return ""
}

func ValidKosType(t string) bool {
	switch t {
	case KosTypePutra, KosTypePutri, KosTypeCampur:
		return true
	}
	return false
}

func ValidKosStatus(s string) bool {
	switch s {
	case KosStatusPublished, KosStatusDraft, KosStatusInactive:
		return true
	}
	return false
}

type KosImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	KosID     uint      `gorm:"index;not null" json:"kos_id"`
	ImageURL  string    `gorm:"size:500;not null" json:"image_url"`
	AltText   string    `gorm:"size:200" json:"alt_text"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (KosImage) TableName() string {
	return "kos_images"
}
