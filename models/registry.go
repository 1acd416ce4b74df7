package models

// All lists every model in parent -> child order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Location{},
		&Facility{},
		&Kos{},
		&KosImage{},
		&KosFacility{},
		&Booking{},
		&Review{},
		&Testimonial{},
		&ActivityLog{},
	}
}
