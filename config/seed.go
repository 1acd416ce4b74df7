package config

import (
	"fmt"
	"log"
	"strings"

	"temankosan/models"
	"temankosan/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultLocations = []models.Location{
	{Province: "DKI Jakarta", City: "Jakarta Selatan", District: "Tebet"},
	{Province: "DKI Jakarta", City: "Jakarta Selatan", District: "Setiabudi"},
	{Province: "DKI Jakarta", City: "Jakarta Pusat", District: "Menteng"},
	{Province: "Jawa Barat", City: "Bandung", District: "Coblong"},
	{Province: "Jawa Barat", City: "Depok", District: "Beji"},
	{Province: "DI Yogyakarta", City: "Yogyakarta", District: "Depok"},
	{Province: "DI Yogyakarta", City: "Sleman", District: "Mlati"},
	{Province: "Jawa Timur", City: "Surabaya", District: "Sukolilo"},
	{Province: "Jawa Timur", City: "Malang", District: "Lowokwaru"},
	{Province: "Jawa Tengah", City: "Semarang", District: "Tembalang"},
}

var defaultFacilities = []models.Facility{
	{Name: "AC", Category: "kamar", Icon: "snowflake"},
	{Name: "Kasur", Category: "kamar", Icon: "bed"},
	{Name: "Lemari", Category: "kamar", Icon: "archive"},
	{Name: "Meja Belajar", Category: "kamar", Icon: "book"},
	{Name: "Kamar Mandi Dalam", Category: "kamar_mandi", Icon: "droplet"},
	{Name: "Water Heater", Category: "kamar_mandi", Icon: "thermometer"},
	{Name: "WiFi", Category: "umum", Icon: "wifi"},
	{Name: "Dapur Bersama", Category: "umum", Icon: "coffee"},
	{Name: "Laundry", Category: "umum", Icon: "shirt"},
	{Name: "CCTV", Category: "umum", Icon: "camera"},
	{Name: "Parkir Motor", Category: "parkir", Icon: "bike"},
	{Name: "Parkir Mobil", Category: "parkir", Icon: "car"},
}

// SeedDatabase inserts the default admin and reference data when missing.
func SeedDatabase(db *gorm.DB, cfg Config) error {
	// ---------------- Admin ----------------
	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if adminCount == 0 {
		password := cfg.AdminPassword
		if password == "" {
			generated, err := utils.GenerateSecureToken(8)
			if err != nil {
				return fmt.Errorf("generate admin password: %w", err)
			}
			password = generated
			log.Printf("⚠️  ADMIN_PASSWORD not set; generated password for %s: %s", cfg.AdminEmail, password)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash default admin password: %w", err)
		}
		admin := models.User{
			Name:     "Administrator",
			Email:    strings.ToLower(cfg.AdminEmail),
			Password: string(hash),
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("create default admin: %w", err)
		}
		log.Printf("✅ Default admin seeded (%s)", admin.Email)
	}

	// ---------------- Locations ----------------
	var locCount int64
	db.Model(&models.Location{}).Count(&locCount)
	if locCount == 0 {
		locations := append([]models.Location(nil), defaultLocations...)
		if err := db.Create(&locations).Error; err != nil {
			return fmt.Errorf("seed locations: %w", err)
		}
		log.Println("✅ Locations seeded")
	}

	// ---------------- Facilities ----------------
	var facCount int64
	db.Model(&models.Facility{}).Count(&facCount)
	if facCount == 0 {
		facilities := make([]models.Facility, len(defaultFacilities))
		for i, f := range defaultFacilities {
			f.IsActive = true
			facilities[i] = f
		}
		if err := db.Create(&facilities).Error; err != nil {
			return fmt.Errorf("seed facilities: %w", err)
		}
		log.Println("✅ Facilities seeded")
	}

	return nil
}
