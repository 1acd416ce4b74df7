package services

import (
	"fmt"

	"temankosan/models"

	"gorm.io/gorm"
)

// AdminService aggregates the back-office dashboard and the public
// home-page counters.
type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

type DashboardStats struct {
	TotalKos            int64
	KosByStatus         map[string]int64
	TotalUsers          int64
	UsersByRole         map[string]int64
	TotalBookings       int64
	BookingsByStatus    map[string]int64
	Revenue             int64
	PendingTestimonials int64
	RecentBookings      []models.Booking
}

type HomeCounters struct {
	Kos    int64 `json:"kos"`
	Cities int64 `json:"cities"`
	Users  int64 `json:"users"`
}

type groupCount struct {
	Label string
	N     int64
}

func (s *AdminService) countBy(model interface{}, column string) (map[string]int64, int64, error) {
	var rows []groupCount
	if err := s.DB.Model(model).
		Select(column + " AS label, COUNT(*) AS n").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("count by %s: %w", column, err)
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Label] = r.N
		total += r.N
	}
	return out, total, nil
}

func (s *AdminService) Dashboard() (*DashboardStats, error) {
	var st DashboardStats
	var err error

	if st.KosByStatus, st.TotalKos, err = s.countBy(&models.Kos{}, "status"); err != nil {
		return nil, err
	}
	if st.UsersByRole, st.TotalUsers, err = s.countBy(&models.User{}, "role"); err != nil {
		return nil, err
	}
	if st.BookingsByStatus, st.TotalBookings, err = s.countBy(&models.Booking{}, "booking_status"); err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.Booking{}).
		Where("payment_status = ?", models.PaymentPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&st.Revenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	if err := s.DB.Model(&models.Testimonial{}).
		Where("is_approved = ?", false).
		Count(&st.PendingTestimonials).Error; err != nil {
		return nil, fmt.Errorf("count pending testimonials: %w", err)
	}

	if err := s.DB.Preload("Kos").Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(5).Find(&st.RecentBookings).Error; err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}
	return &st, nil
}

// Counters feeds the home page: published kos, cities with a published kos,
// active users.
func (s *AdminService) Counters() (HomeCounters, error) {
	var c HomeCounters
	if err := s.DB.Model(&models.Kos{}).
		Where("status = ?", models.KosStatusPublished).
		Count(&c.Kos).Error; err != nil {
		return c, fmt.Errorf("count kos: %w", err)
	}
	if err := s.DB.Model(&models.Kos{}).
		Joins("JOIN locations ON locations.id = kos.location_id").
		Where("kos.status = ?", models.KosStatusPublished).
		Distinct("locations.city").
		Count(&c.Cities).Error; err != nil {
		return c, fmt.Errorf("count cities: %w", err)
	}
	if err := s.DB.Model(&models.User{}).
		Where("is_active = ?", true).
		Count(&c.Users).Error; err != nil {
		return c, fmt.Errorf("count users: %w", err)
	}
	return c, nil
}
