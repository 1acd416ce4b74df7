package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCodePattern = regexp.MustCompile(`^TK\d{6}[A-Z0-9]{6}$`)

func TestGenerateBookingCode(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateBookingCode(now)
		require.NoError(t, err)
		assert.Regexp(t, bookingCodePattern, code)
		assert.Equal(t, "TK261016", code[:8])
		seen[code] = true
	}
	// 36^6 possibilities; collisions in 200 draws would point at a broken source
	assert.Greater(t, len(seen), 195)
}

func TestGenerateCode(t *testing.T) {
	_, err := GenerateCode(0)
	assert.Error(t, err)

	code, err := GenerateCode(12)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{12}$`, code)
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)

	_, err = GenerateSecureToken(-1)
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "kos-melati-tebet", Slugify("Kos Melati  Tebet"))
	assert.Equal(t, "kos-pak-budi-no-12", Slugify("  Kos Pak Budi (No. 12) "))
	assert.Equal(t, "", Slugify("!!!"))
}
