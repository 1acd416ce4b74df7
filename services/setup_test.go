package services

import (
	"fmt"
	"testing"
	"time"

	"temankosan/models"
	"temankosan/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixed clock for every service under test
var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// one connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedLocation(t *testing.T, db *gorm.DB, city, district string) models.Location {
	t.Helper()
	loc := models.Location{Province: "Jawa Barat", City: city, District: district}
	require.NoError(t, db.Create(&loc).Error)
	return loc
}

func seedKos(t *testing.T, db *gorm.DB, loc models.Location, name string, price int64, rooms int) models.Kos {
	t.Helper()
	k := models.Kos{
		LocationID:     loc.ID,
		Name:           name,
		Slug:           name,
		Address:        "Jl. " + name,
		Price:          price,
		Type:           models.KosTypeCampur,
		TotalRooms:     rooms,
		AvailableRooms: rooms,
		Status:         models.KosStatusPublished,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&k).Error)
	k.Location = loc
	return k
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)
	u := models.User{Name: "User " + email, Email: email, Password: hash, Role: role, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedBooking(t *testing.T, db *gorm.DB, u models.User, k models.Kos, status, payment string, checkIn time.Time) models.Booking {
	t.Helper()
	code, err := generateTestCode()
	require.NoError(t, err)
	b := models.Booking{
		BookingCode:    code,
		UserID:         u.ID,
		KosID:          k.ID,
		RenterName:     u.Name,
		RenterEmail:    u.Email,
		RenterPhone:    "081234567890",
		CheckInDate:    checkIn,
		DurationMonths: 1,
		MonthlyPrice:   k.Price,
		TotalPrice:     k.Price,
		PaymentMethod:  models.PaymentBankTransfer,
		BookingStatus:  status,
		PaymentStatus:  payment,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

var testCodeSeq int

func generateTestCode() (string, error) {
	testCodeSeq++
	return fmt.Sprintf("TKTEST%04d", testCodeSeq), nil
}

// newBookingService returns a service on the fixed clock and the slice that
// collects every booking email it would send.
func newBookingService(db *gorm.DB) (*BookingService, *[]utils.BookingMail) {
	svc := NewBookingService(db, 50000, "http://localhost:8080")
	svc.Now = func() time.Time { return testNow }
	sent := &[]utils.BookingMail{}
	svc.Notify = func(m utils.BookingMail) error {
		*sent = append(*sent, m)
		return nil
	}
	return svc, sent
}
