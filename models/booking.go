package models

import (
	"time"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"

	PaymentBankTransfer = "bank_transfer"
	PaymentEWallet      = "e_wallet"
	PaymentCash         = "cash"
)

type Booking struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BookingCode    string    `gorm:"column:booking_code;size:32;uniqueIndex;not null" json:"booking_code"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	KosID          uint      `gorm:"index;not null" json:"kos_id"`
	RenterName     string    `gorm:"size:150" json:"renter_name"`
	RenterEmail    string    `gorm:"size:150" json:"renter_email"`
	RenterPhone    string    `gorm:"size:20" json:"renter_phone"`
	CheckInDate    time.Time `gorm:"column:check_in_date;index" json:"check_in_date"`
	DurationMonths int       `gorm:"not null" json:"duration_months"`
	MonthlyPrice   int64     `json:"monthly_price"`
	AdminFee       int64     `json:"admin_fee"`
	TotalPrice     int64     `json:"total_price"`
	PaymentMethod  string    `gorm:"size:30" json:"payment_method"`
	BookingStatus  string    `gorm:"size:20;index;default:pending" json:"booking_status"`
	PaymentStatus  string    `gorm:"size:20;index;default:pending" json:"payment_status"`
	Notes          string    `gorm:"type:text" json:"notes"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Kos  Kos  `gorm:"foreignKey:KosID" json:"kos,omitempty"`
}

// CheckOutDate is derived: check-in plus the booked months.
func (b Booking) CheckOutDate() time.Time {
	return b.CheckInDate.AddDate(0, b.DurationMonths, 0)
}

// IsActive reports whether the booking still holds (or may hold) a room.
func (b Booking) IsActive() bool {
	return b.BookingStatus == BookingPending || b.BookingStatus == BookingConfirmed
}

var ActiveBookingStatuses = []string{BookingPending, BookingConfirmed}

func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentBankTransfer, PaymentEWallet, PaymentCash:
		return true
	}
	return false
}

// NormalizeBookingStatus maps vocabulary drift seen in older admin screens
// ("active", "expired") onto the canonical statuses.
func NormalizeBookingStatus(s string) string {
	switch s {
	case "active":
		return BookingConfirmed
	case "expired":
		return BookingCancelled
	}
	return s
}

var bookingTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether a user-driven change from -> to is legal.
// Admin overrides skip this check.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
