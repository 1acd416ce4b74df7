package services

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^(\+62|62|0)8[1-9][0-9]{6,10}$`)
)

const dateLayout = "2006-01-02"

// ValidEmail accepts local@domain.tld with a TLD of at least two letters.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// NormalizePhone strips spaces, dashes and dots from a phone number.
func NormalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", ".", "")
	return r.Replace(strings.TrimSpace(phone))
}

// ValidPhone accepts Indonesian mobile numbers: 08xx, 628xx or +628xx,
// 10 to 15 digits in total for the 08 form.
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// ParseCheckInDate parses YYYY-MM-DD in loc and requires it to be strictly
// after now.
func ParseCheckInDate(raw string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), now.Location())
	if err != nil {
		return time.Time{}, ErrBadRequest("Format tanggal masuk tidak valid (YYYY-MM-DD).")
	}
	if !t.After(now) {
		return time.Time{}, ErrBadRequest("Tanggal masuk harus setelah hari ini.")
	}
	return t, nil
}
