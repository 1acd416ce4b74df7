// services/booking_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"temankosan/models"
	"temankosan/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinDurationMonths = 1
	MaxDurationMonths = 12

	bookingCodeRetries = 5
)

// BookingService wraps *gorm.DB for reservation and payment logic.
type BookingService struct {
	DB       *gorm.DB
	AdminFee int64
	BaseURL  string

	// Now and Notify are swappable in tests.
	Now    func() time.Time
	Notify func(utils.BookingMail) error
}

func NewBookingService(db *gorm.DB, adminFee int64, baseURL string) *BookingService {
	return &BookingService{
		DB:       db,
		AdminFee: adminFee,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Now:      time.Now,
		Notify:   utils.SendBookingEmail,
	}
}

// CalculateTotal returns price*duration + adminFee.
func CalculateTotal(monthlyPrice int64, durationMonths int, adminFee int64) (int64, error) {
	if durationMonths < MinDurationMonths || durationMonths > MaxDurationMonths {
		return 0, ErrBadRequest(fmt.Sprintf("Durasi sewa harus antara %d sampai %d bulan.", MinDurationMonths, MaxDurationMonths))
	}
	if monthlyPrice < 0 || adminFee < 0 {
		return 0, ErrBadRequest("Harga tidak valid.")
	}
	return monthlyPrice*int64(durationMonths) + adminFee, nil
}

type CreateBookingInput struct {
	UserID         uint
	KosID          uint
	RenterName     string
	RenterEmail    string
	RenterPhone    string
	CheckInDate    string
	DurationMonths int
	PaymentMethod  string
	Notes          string
}

func (in *CreateBookingInput) normalize() {
	in.RenterName = strings.TrimSpace(in.RenterName)
	in.RenterEmail = strings.ToLower(strings.TrimSpace(in.RenterEmail))
	in.RenterPhone = NormalizePhone(in.RenterPhone)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.Notes = strings.TrimSpace(in.Notes)
}

func (in CreateBookingInput) validate(now time.Time) (time.Time, error) {
	if in.UserID == 0 {
		return time.Time{}, ErrUnauthorized("Silakan masuk terlebih dahulu.")
	}
	if in.RenterName == "" {
		return time.Time{}, ErrBadRequest("Nama penyewa wajib diisi.")
	}
	if !ValidEmail(in.RenterEmail) {
		return time.Time{}, ErrBadRequest("Format email tidak valid.")
	}
	if !ValidPhone(in.RenterPhone) {
		return time.Time{}, ErrBadRequest("Nomor telepon tidak valid (contoh: 081234567890).")
	}
	if in.DurationMonths < MinDurationMonths || in.DurationMonths > MaxDurationMonths {
		return time.Time{}, ErrBadRequest(fmt.Sprintf("Durasi sewa harus antara %d sampai %d bulan.", MinDurationMonths, MaxDurationMonths))
	}
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return time.Time{}, ErrBadRequest("Metode pembayaran tidak dikenal.")
	}
	return ParseCheckInDate(in.CheckInDate, now)
}

// Create validates the form, prices the stay and inserts a pending booking.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	in.normalize()
	now := s.Now()

	checkIn, err := in.validate(now)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)

	var kos models.Kos
	if err := db.First(&kos, in.KosID).Error; err != nil {
		return nil, notFoundOr(err, "Kos tidak ditemukan.", "find kos")
	}
	if kos.Status != models.KosStatusPublished || !kos.IsAvailable {
		return nil, ErrConflict("Kos ini sedang tidak menerima pemesanan.")
	}
	if kos.AvailableRooms <= 0 {
		return nil, ErrConflict("Maaf, kamar di kos ini sudah penuh.")
	}

	total, err := CalculateTotal(kos.Price, in.DurationMonths, s.AdminFee)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		UserID:         in.UserID,
		KosID:          kos.ID,
		RenterName:     in.RenterName,
		RenterEmail:    in.RenterEmail,
		RenterPhone:    in.RenterPhone,
		CheckInDate:    checkIn,
		DurationMonths: in.DurationMonths,
		MonthlyPrice:   kos.Price,
		AdminFee:       s.AdminFee,
		TotalPrice:     total,
		PaymentMethod:  in.PaymentMethod,
		BookingStatus:  models.BookingPending,
		PaymentStatus:  models.PaymentPending,
		Notes:          in.Notes,
	}

	// retry on booking_code collision
	var createErr error
	for attempt := 0; attempt < bookingCodeRetries; attempt++ {
		code, gErr := utils.GenerateBookingCode(now)
		if gErr != nil {
			return nil, fmt.Errorf("generate booking code: %w", gErr)
		}
		booking.ID = 0
		booking.BookingCode = code

		createErr = db.Create(&booking).Error
		if createErr == nil {
			break
		}
		if isDuplicateKey(createErr) {
			log.Printf("booking code collision (attempt %d) - retrying", attempt+1)
			continue
		}
		return nil, fmt.Errorf("create booking: %w", createErr)
	}
	if createErr != nil {
		return nil, fmt.Errorf("create booking after retries: %w", createErr)
	}

	booking.Kos = kos
	s.notify(booking)
	return &booking, nil
}

func (s *BookingService) notify(b models.Booking) {
	if s.Notify == nil {
		return
	}
	mail := utils.BookingMail{
		To:          b.RenterEmail,
		RenterName:  b.RenterName,
		BookingCode: b.BookingCode,
		KosName:     b.Kos.Name,
		CheckIn:     utils.TanggalIndo(b.CheckInDate),
		Duration:    b.DurationMonths,
		Total:       utils.Rupiah(b.TotalPrice),
		PaymentLink: s.BaseURL + "/payment/" + b.BookingCode,
	}
	if err := s.Notify(mail); err != nil {
		log.Printf("warning: booking email for %s failed: %v", b.BookingCode, err)
	}
}

// GetForUser loads a booking by code, visible only to its owner.
func (s *BookingService) GetForUser(code string, userID uint) (*models.Booking, error) {
	var b models.Booking
	err := s.DB.
		Preload("Kos.Location").
		Preload("Kos.Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("booking_code = ? AND user_id = ?", strings.TrimSpace(code), userID).
		First(&b).Error
	if err != nil {
		return nil, notFoundOr(err, "Booking tidak ditemukan.", "find booking")
	}
	return &b, nil
}

func (s *BookingService) ListForUser(userID uint) ([]models.Booking, error) {
	var list []models.Booking
	if err := s.DB.
		Preload("Kos.Location").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// ConfirmPayment marks a pending booking as paid and takes one room.
// No payment gateway is involved; the renter confirms the transfer.
func (s *BookingService) ConfirmPayment(ctx context.Context, code string, userID uint) (*models.Booking, error) {
	var out models.Booking
	now := s.Now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_code = ? AND user_id = ?", strings.TrimSpace(code), userID).
			First(&b).Error; err != nil {
			return notFoundOr(err, "Booking tidak ditemukan.", "lock booking")
		}

		if b.BookingStatus != models.BookingPending || b.PaymentStatus != models.PaymentPending {
			return ErrConflict("Booking ini sudah diproses sebelumnya.")
		}

		res := tx.Model(&models.Kos{}).
			Where("id = ? AND available_rooms > 0", b.KosID).
			Update("available_rooms", gorm.Expr("available_rooms - 1"))
		if res.Error != nil {
			return fmt.Errorf("take room: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict("Maaf, kamar di kos ini sudah penuh.")
		}

		if err := tx.Model(&b).Updates(map[string]interface{}{
			"booking_status": models.BookingConfirmed,
			"payment_status": models.PaymentPaid,
			"paid_at":        now,
		}).Error; err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}

		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CanCancelBooking: owner only, still pending or confirmed, and the stay has
// not started yet.
func CanCancelBooking(b models.Booking, userID uint, now time.Time) bool {
	if b.UserID != userID {
		return false
	}
	if !b.IsActive() {
		return false
	}
	return b.CheckInDate.After(now)
}

func (s *BookingService) Cancel(ctx context.Context, code string, userID uint) (*models.Booking, error) {
	var out models.Booking
	now := s.Now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_code = ? AND user_id = ?", strings.TrimSpace(code), userID).
			First(&b).Error; err != nil {
			return notFoundOr(err, "Booking tidak ditemukan.", "lock booking")
		}

		if !CanCancelBooking(b, userID, now) || !models.CanTransition(b.BookingStatus, models.BookingCancelled) {
			return ErrConflict("Booking ini tidak dapat dibatalkan.")
		}

		updates := map[string]interface{}{
			"booking_status": models.BookingCancelled,
			"cancelled_at":   now,
		}
		if b.PaymentStatus == models.PaymentPaid {
			updates["payment_status"] = models.PaymentRefunded
		}
		// Updates writes the new values back into b
		heldRoom := b.BookingStatus == models.BookingConfirmed
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		if heldRoom {
			if err := releaseRoom(tx, b.KosID); err != nil {
				return err
			}
		}

		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func releaseRoom(tx *gorm.DB, kosID uint) error {
	if err := tx.Model(&models.Kos{}).
		Where("id = ? AND available_rooms < total_rooms", kosID).
		Update("available_rooms", gorm.Expr("available_rooms + 1")).Error; err != nil {
		return fmt.Errorf("release room: %w", err)
	}
	return nil
}

// ---------------------------
// Admin
// ---------------------------

type BookingFilter struct {
	Status        string
	PaymentStatus string
	Keyword       string
	DateFrom      string
	DateTo        string
	Page          int
	PerPage       int
}

func (s *BookingService) filtered(f BookingFilter) *gorm.DB {
	q := s.DB.Model(&models.Booking{})

	if st := models.NormalizeBookingStatus(strings.TrimSpace(f.Status)); st != "" {
		q = q.Where("booking_status = ?", st)
	}
	if ps := strings.TrimSpace(f.PaymentStatus); ps != "" {
		q = q.Where("payment_status = ?", ps)
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("(LOWER(booking_code) LIKE ? OR LOWER(renter_name) LIKE ? OR LOWER(renter_email) LIKE ?)", like, like, like)
	}
	if from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(f.DateFrom), time.Local); err == nil {
		q = q.Where("created_at >= ?", from)
	}
	if to, err := time.ParseInLocation(dateLayout, strings.TrimSpace(f.DateTo), time.Local); err == nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}
	return q
}

func (s *BookingService) List(f BookingFilter) ([]models.Booking, utils.Pagination, error) {
	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count bookings: %w", err)
	}
	p := utils.NewPagination(f.Page, f.PerPage, total)

	var list []models.Booking
	if err := s.filtered(f).
		Preload("Kos").Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&list).Error; err != nil {
		return nil, p, fmt.Errorf("list bookings: %w", err)
	}
	return list, p, nil
}

// ListAll returns every booking matching f, for export.
func (s *BookingService) ListAll(f BookingFilter) ([]models.Booking, error) {
	var list []models.Booking
	if err := s.filtered(f).
		Preload("Kos.Location").
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// UpdateStatus is the admin manual override. It accepts any canonical
// status and keeps available_rooms in step with rooms held by confirmed
// bookings.
func (s *BookingService) UpdateStatus(ctx context.Context, id uint, bookingStatus, paymentStatus string) (*models.Booking, error) {
	bookingStatus = models.NormalizeBookingStatus(strings.TrimSpace(bookingStatus))
	paymentStatus = strings.TrimSpace(paymentStatus)

	if bookingStatus == "" && paymentStatus == "" {
		return nil, ErrBadRequest("Tidak ada status yang diubah.")
	}
	if bookingStatus != "" && !models.ValidBookingStatus(bookingStatus) {
		return nil, ErrBadRequest("Status booking tidak valid.")
	}
	if paymentStatus != "" && !models.ValidPaymentStatus(paymentStatus) {
		return nil, ErrBadRequest("Status pembayaran tidak valid.")
	}

	var out models.Booking
	now := s.Now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
			return notFoundOr(err, "Booking tidak ditemukan.", "lock booking")
		}

		updates := map[string]interface{}{}
		if bookingStatus != "" && bookingStatus != b.BookingStatus {
			holdsBefore := b.BookingStatus == models.BookingConfirmed
			holdsAfter := bookingStatus == models.BookingConfirmed

			switch {
			case !holdsBefore && holdsAfter:
				res := tx.Model(&models.Kos{}).
					Where("id = ? AND available_rooms > 0", b.KosID).
					Update("available_rooms", gorm.Expr("available_rooms - 1"))
				if res.Error != nil {
					return fmt.Errorf("take room: %w", res.Error)
				}
				if res.RowsAffected == 0 {
					return ErrConflict("Kamar di kos ini sudah penuh.")
				}
			case holdsBefore && !holdsAfter:
				if err := releaseRoom(tx, b.KosID); err != nil {
					return err
				}
			}

			updates["booking_status"] = bookingStatus
			if bookingStatus == models.BookingCancelled {
				updates["cancelled_at"] = now
			}
		}
		if paymentStatus != "" && paymentStatus != b.PaymentStatus {
			updates["payment_status"] = paymentStatus
			if paymentStatus == models.PaymentPaid {
				updates["paid_at"] = now
			}
		}
		if len(updates) == 0 {
			out = b
			return nil
		}

		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CountActiveForKos counts pending/confirmed bookings on a kos.
func CountActiveForKos(db *gorm.DB, kosID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Booking{}).
		Where("kos_id = ? AND booking_status IN ?", kosID, models.ActiveBookingStatuses).
		Count(&n).Error
	return n, err
}

// CountActiveForUser counts pending/confirmed bookings owned by a user.
func CountActiveForUser(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Booking{}).
		Where("user_id = ? AND booking_status IN ?", userID, models.ActiveBookingStatuses).
		Count(&n).Error
	return n, err
}

// HasConfirmedStay reports whether the user ever held a room in the kos.
func HasConfirmedStay(db *gorm.DB, userID, kosID uint) (bool, error) {
	var n int64
	err := db.Model(&models.Booking{}).
		Where("user_id = ? AND kos_id = ? AND booking_status IN ?", userID, kosID,
			[]string{models.BookingConfirmed, models.BookingCompleted}).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
