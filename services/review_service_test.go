package services

import (
	"net/http"
	"testing"

	"temankosan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCreateRecomputesRating(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReviewService(db)
	loc := seedLocation(t, db, "Bandung", "Coblong")
	k := seedKos(t, db, loc, "kos-review", 1000000, 5)
	u1 := seedUser(t, db, "u1@example.com", models.RoleMember)
	u2 := seedUser(t, db, "u2@example.com", models.RoleMember)
	stranger := seedUser(t, db, "u3@example.com", models.RoleMember)
	seedBooking(t, db, u1, k, models.BookingConfirmed, models.PaymentPaid, testNow.AddDate(0, 1, 0))
	seedBooking(t, db, u2, k, models.BookingCompleted, models.PaymentPaid, testNow.AddDate(0, -3, 0))

	ok, err := svc.CanReview(u1.ID, k.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(u1.ID, k.ID, 5, "Nyaman dan bersih sekali.")
	require.NoError(t, err)
	_, err = svc.Create(u2.ID, k.ID, 4, "Lokasi strategis dekat kampus.")
	require.NoError(t, err)

	var got models.Kos
	require.NoError(t, db.First(&got, k.ID).Error)
	assert.InDelta(t, 4.5, got.Rating, 0.001)
	assert.Equal(t, 2, got.ReviewCount)

	t.Run("one review per user", func(t *testing.T) {
		_, err := svc.Create(u1.ID, k.ID, 3, "Mau ulas sekali lagi.")
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusConflict, status)
		ok, err := svc.CanReview(u1.ID, k.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("requires a stay", func(t *testing.T) {
		_, err := svc.Create(stranger.ID, k.ID, 1, "Belum pernah tinggal.")
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("rating bounds", func(t *testing.T) {
		_, err := svc.Create(stranger.ID, k.ID, 6, "Rating tidak valid.")
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	recent, err := svc.Recent(k.ID, RecentReviewLimit)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	assert.NotEmpty(t, recent[0].User.Name)
}
