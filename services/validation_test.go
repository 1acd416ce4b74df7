package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "nama.lengkap+kos@mail.example.id", " spasi@domain.com "}
	invalid := []string{"", "tanpa-at.com", "a@b", "a@b.c", "a b@c.com", "@domain.com"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"081234567890",
		"0812-3456-7890",
		"0812 3456 789",
		"6281234567890",
		"+6281234567890",
		"081234567",
		"0812345678901",
	}
	invalid := []string{
		"",
		"0712345678",
		"0801234567",
		"0812345",
		"08123456789012",
		"+6581234567",
		"08123abc567",
	}

	for _, p := range valid {
		assert.True(t, ValidPhone(p), p)
	}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), p)
	}
}

func TestParseCheckInDate(t *testing.T) {
	got, err := ParseCheckInDate("2026-03-11", testNow)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Day())

	for _, raw := range []string{"2026-03-10", "2026-03-09", "", "11-03-2026"} {
		_, err := ParseCheckInDate(raw, testNow)
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusBadRequest, status, raw)
	}
}

func TestStatusOfUnexpectedError(t *testing.T) {
	status, msg := StatusOf(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, msg, assert.AnError.Error())
}
