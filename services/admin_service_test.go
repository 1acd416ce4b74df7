package services

import (
	"testing"

	"temankosan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardAndCounters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAdminService(db)
	bdg := seedLocation(t, db, "Bandung", "Coblong")
	jkt := seedLocation(t, db, "Jakarta Selatan", "Tebet")
	seedLocation(t, db, "Surabaya", "Gubeng")
	k1 := seedKos(t, db, bdg, "kos-1", 1000000, 3)
	seedKos(t, db, jkt, "kos-2", 2000000, 3)
	draft := seedKos(t, db, bdg, "kos-3", 500000, 3)
	require.NoError(t, db.Model(&draft).Update("status", models.KosStatusDraft).Error)

	seedUser(t, db, "admin@example.com", models.RoleAdmin)
	u := seedUser(t, db, "member@example.com", models.RoleMember)

	seedBooking(t, db, u, k1, models.BookingConfirmed, models.PaymentPaid, testNow)
	seedBooking(t, db, u, k1, models.BookingPending, models.PaymentPending, testNow)

	st, err := svc.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalKos)
	assert.Equal(t, int64(2), st.KosByStatus[models.KosStatusPublished])
	assert.Equal(t, int64(1), st.UsersByRole[models.RoleAdmin])
	assert.Equal(t, int64(2), st.TotalBookings)
	assert.Equal(t, int64(1000000), st.Revenue)
	assert.Len(t, st.RecentBookings, 2)

	c, err := svc.Counters()
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Kos)
	assert.Equal(t, int64(2), c.Cities)
	assert.Equal(t, int64(2), c.Users)
}

func TestActivityLogList(t *testing.T) {
	db := setupTestDB(t)
	svc := NewActivityService(db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	actor := Actor{UserID: admin.ID, IPAddress: "10.0.0.1", UserAgent: "test-agent"}
	svc.Log(actor, "update_kos_status", "kos", 7, map[string]string{"status": "draft"})
	svc.Log(Actor{}, "submit_testimonial", "testimonial", 3, nil)

	logs, p, err := svc.List(1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Total)
	require.Len(t, logs, 2)

	// newest first
	assert.Equal(t, "submit_testimonial", logs[0].Action)
	assert.Nil(t, logs[0].UserID)

	first := logs[1]
	assert.Equal(t, "update_kos_status", first.Action)
	require.NotNil(t, first.User)
	assert.Equal(t, admin.Email, first.User.Email)
	assert.JSONEq(t, `{"status":"draft"}`, string(first.Details))
	assert.Equal(t, "10.0.0.1", first.IPAddress)
}

func TestAuditTrailRecordsPreviousValues(t *testing.T) {
	db := setupTestDB(t)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	member := seedUser(t, db, "member@example.com", models.RoleMember)
	loc := seedLocation(t, db, "Bandung", "Coblong")
	k := seedKos(t, db, loc, "kos-anggrek", 1000000, 3)
	me := Actor{UserID: admin.ID}

	require.NoError(t, NewUserService(db).ChangeRole(member.ID, models.RoleOwner, me))
	require.NoError(t, NewKosService(db, nil).UpdateStatus(k.ID, models.KosStatusInactive, me))

	var roleLog, statusLog models.ActivityLog
	require.NoError(t, db.Where("action = ?", "change_user_role").First(&roleLog).Error)
	assert.JSONEq(t, `{"from":"member","to":"owner"}`, string(roleLog.Details))

	require.NoError(t, db.Where("action = ?", "update_kos_status").First(&statusLog).Error)
	assert.JSONEq(t, `{"from":"published","to":"inactive"}`, string(statusLog.Details))
}
