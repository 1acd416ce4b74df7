package models

type Location struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Province string `gorm:"size:100;index" json:"province"`
	City     string `gorm:"size:100;index" json:"city"`
	District string `gorm:"size:100" json:"district"`
}

func (l Location) Label() string {
	if l.District == "" {
		return l.City
	}
	return l.District + ", " + l.City
}
