package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestimonial() TestimonialInput {
	return TestimonialInput{
		Name:      "Putri",
		Email:     "putri@example.com",
		KosName:   "Kos Melati",
		Rating:    5,
		Comment:   "Kamarnya bersih dan pemiliknya ramah sekali.",
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
	}
}

func TestTestimonialSubmit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTestimonialService(db)
	now := testNow
	svc.Now = func() time.Time { return now }

	got, err := svc.Submit(validTestimonial())
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.Equal(t, "10.0.0.1", got.IPAddress)

	t.Run("same email within 24h", func(t *testing.T) {
		now = testNow.Add(23 * time.Hour)
		in := validTestimonial()
		in.Email = "PUTRI@example.com"
		_, err := svc.Submit(in)
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusTooManyRequests, status)
	})

	t.Run("after 24h", func(t *testing.T) {
		now = testNow.Add(25 * time.Hour)
		_, err := svc.Submit(validTestimonial())
		require.NoError(t, err)
	})
}

func TestTestimonialValidation(t *testing.T) {
	svc := NewTestimonialService(setupTestDB(t))

	cases := map[string]func(*TestimonialInput){
		"missing name":  func(in *TestimonialInput) { in.Name = "" },
		"missing kos":   func(in *TestimonialInput) { in.KosName = " " },
		"bad email":     func(in *TestimonialInput) { in.Email = "putri.example.com" },
		"rating zero":   func(in *TestimonialInput) { in.Rating = 0 },
		"rating six":    func(in *TestimonialInput) { in.Rating = 6 },
		"short comment": func(in *TestimonialInput) { in.Comment = strings.Repeat("a", MinTestimonialComment-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validTestimonial()
			mutate(&in)
			_, err := svc.Submit(in)
			status, _ := StatusOf(err)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestTestimonialModeration(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTestimonialService(db)
	svc.Now = func() time.Time { return testNow }

	tm, err := svc.Submit(validTestimonial())
	require.NoError(t, err)

	_, err = svc.GetApproved(tm.ID)
	status, _ := StatusOf(err)
	assert.Equal(t, http.StatusNotFound, status)

	pending, err := svc.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, svc.Approve(tm.ID, Actor{UserID: 1}))
	got, err := svc.GetApproved(tm.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ApprovedAt)

	list, err := svc.ListApproved(100)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Reject(tm.ID, Actor{UserID: 1}))
	list, err = svc.ListApproved(10)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(tm.ID, Actor{UserID: 1}))
	err = svc.Delete(tm.ID, Actor{UserID: 1})
	status, _ = StatusOf(err)
	assert.Equal(t, http.StatusNotFound, status)
}
