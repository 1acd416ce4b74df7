package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"temankosan/config"
	"temankosan/controllers"
	"temankosan/middleware"
	"temankosan/models"
	"temankosan/services"
	"temankosan/storage"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "routes-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	controllers.RegisterValidators()
}

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	cfg := config.Config{
		Port:          "0",
		AppEnv:        "test",
		BaseURL:       "http://localhost",
		SessionSecret: testSecret,
		AdminFee:      50000,
		UploadDir:     t.TempDir(),
	}

	kosSvc := services.NewKosService(db, storage.NewLocalStore(cfg.UploadDir))
	searchSvc := services.NewSearchService(db, nil)
	bookingSvc := services.NewBookingService(db, cfg.AdminFee, cfg.BaseURL)
	bookingSvc.Notify = func(utils.BookingMail) error { return nil }
	userSvc := services.NewUserService(db)
	reviewSvc := services.NewReviewService(db)
	facilitySvc := services.NewFacilityService(db)
	testimonialSvc := services.NewTestimonialService(db)
	adminSvc := services.NewAdminService(db)
	activitySvc := services.NewActivityService(db)

	r, err := SetupRouter(t.Context(), db, cfg, Controllers{
		Home:    controllers.NewHomeController(kosSvc, testimonialSvc, adminSvc),
		Kos:     controllers.NewKosController(kosSvc, searchSvc, reviewSvc, facilitySvc),
		Booking: controllers.NewBookingController(bookingSvc, kosSvc),
		Auth:    controllers.NewAuthController(userSvc, cfg.SessionSecret, false),
		Account: controllers.NewAccountController(userSvc, bookingSvc),
		Admin: controllers.NewAdminController(adminSvc, kosSvc, facilitySvc,
			userSvc, bookingSvc, testimonialSvc, activitySvc),
		API: controllers.NewAPIController(db, searchSvc, testimonialSvc),
	})
	require.NoError(t, err)
	return &testApp{db: db, router: r}
}

func (a *testApp) seedUser(t *testing.T, email, role string) models.User {
	t.Helper()
	hash, err := services.HashPassword("rahasia123")
	require.NoError(t, err)
	u := models.User{Name: "Tester", Email: email, Password: hash, Role: role, IsActive: true}
	require.NoError(t, a.db.Create(&u).Error)
	return u
}

func (a *testApp) seedKos(t *testing.T, slug string, rooms int) models.Kos {
	t.Helper()
	loc := models.Location{Province: "Jawa Barat", City: "Bandung", District: "Coblong"}
	require.NoError(t, a.db.Create(&loc).Error)
	k := models.Kos{
		LocationID:     loc.ID,
		Name:           "Kos " + slug,
		Slug:           slug,
		Address:        "Jl. Dago No. 1",
		Description:    "Dekat **kampus**.",
		Price:          1500000,
		Type:           models.KosTypePutri,
		TotalRooms:     rooms,
		AvailableRooms: rooms,
		Status:         models.KosStatusPublished,
		IsAvailable:    true,
	}
	require.NoError(t, a.db.Create(&k).Error)
	return k
}

func session(t *testing.T, u models.User) *http.Cookie {
	t.Helper()
	tok, err := utils.IssueSession(testSecret, u.ID, u.Role, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: tok}
}

func (a *testApp) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	w := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestPublicPagesRender(t *testing.T) {
	app := setupApp(t)
	app.seedKos(t, "kos-melati", 3)

	for _, path := range []string{"/", "/search", "/search?q=melati&sort=price_asc", "/kos/kos-melati", "/login", "/register"} {
		w := app.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "TemanKosan", path)
	}

	w := app.do(httptest.NewRequest(http.MethodGet, "/kos/kos-melati", nil))
	assert.Contains(t, w.Body.String(), "<strong>kampus</strong>")

	w = app.do(httptest.NewRequest(http.MethodGet, "/kos/tidak-ada", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLiveSearchAPI(t *testing.T) {
	app := setupApp(t)
	app.seedKos(t, "kos-melati", 3)

	w := app.do(httptest.NewRequest(http.MethodGet, "/api/live-search?q=m", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, []interface{}{}, resp.Data)
	assert.NotEmpty(t, resp.Timestamp)

	w = app.do(httptest.NewRequest(http.MethodGet, "/api/live-search?q=melati", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeEnvelope(t, w)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "kos-melati", items[0].(map[string]interface{})["slug"])

	w = app.do(httptest.NewRequest(http.MethodPost, "/api/live-search", strings.NewReader(`{"q":"melati","limit":5}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIMethodAndRouteErrors(t *testing.T) {
	app := setupApp(t)

	w := app.do(httptest.NewRequest(http.MethodDelete, "/api/live-search", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)

	w = app.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestTestimonialAPI(t *testing.T) {
	app := setupApp(t)
	body := `{"name":"Rina","email":"rina@example.com","kos_name":"Kos Melati","rating":5,"comment":"Kamar bersih dan pemiliknya ramah sekali."}`

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/testimonials", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	w := app.do(newReq())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decodeEnvelope(t, w).Success)
	assert.NotContains(t, w.Body.String(), "rina@example.com")

	w = app.do(newReq())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var saved models.Testimonial
	require.NoError(t, app.db.First(&saved).Error)
	assert.False(t, saved.IsApproved)

	// pending rows stay hidden
	w = app.do(httptest.NewRequest(http.MethodGet, "/api/testimonials?id="+itoa(saved.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	moderate := "/api/testimonials?action=approve&id=" + itoa(saved.ID)
	w = app.do(httptest.NewRequest(http.MethodPut, moderate, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	member := app.seedUser(t, "member@example.com", models.RoleMember)
	w = app.do(httptest.NewRequest(http.MethodPut, moderate, nil), session(t, member))
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := app.seedUser(t, "admin@example.com", models.RoleAdmin)
	w = app.do(httptest.NewRequest(http.MethodPut, moderate, nil), session(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, app.db.First(&saved, saved.ID).Error)
	assert.True(t, saved.IsApproved)
	assert.NotNil(t, saved.ApprovedAt)

	w = app.do(httptest.NewRequest(http.MethodGet, "/api/testimonials?id="+itoa(saved.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	one, ok := decodeEnvelope(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Rina", one["name"])
	assert.NotContains(t, one, "email")
	assert.NotContains(t, one, "ip_address")

	// visitor emails never leave through the public API
	w = app.do(httptest.NewRequest(http.MethodGet, "/api/testimonials", nil))
	require.Equal(t, http.StatusOK, w.Code)
	items, ok := decodeEnvelope(t, w).Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].(map[string]interface{}), "email")
	assert.NotContains(t, w.Body.String(), "rina@example.com")

	w = app.do(httptest.NewRequest(http.MethodPut, "/api/testimonials?action=publish&id="+itoa(saved.ID), nil), session(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(httptest.NewRequest(http.MethodDelete, "/api/testimonials?id="+itoa(saved.ID), nil), session(t, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	var n int64
	app.db.Model(&models.Testimonial{}).Count(&n)
	assert.Zero(t, n)
}

func TestLoginAndGuards(t *testing.T) {
	app := setupApp(t)
	member := app.seedUser(t, "member@example.com", models.RoleMember)

	w := app.do(httptest.NewRequest(http.MethodGet, "/account", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Faccount", w.Header().Get("Location"))

	w = app.do(postForm("/login", url.Values{"email": {"member@example.com"}, "password": {"salah"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(postForm("/login", url.Values{
		"email":    {"Member@Example.com"},
		"password": {"rahasia123"},
		"next":     {"/account"},
	}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/account", w.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = app.do(httptest.NewRequest(http.MethodGet, "/account", nil), cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(httptest.NewRequest(http.MethodGet, "/admin", nil), session(t, member))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterLogsIn(t *testing.T) {
	app := setupApp(t)

	w := app.do(postForm("/register", url.Values{
		"name":             {"Budi"},
		"email":            {"budi@example.com"},
		"phone":            {"081234567890"},
		"password":         {"rahasia123"},
		"password_confirm": {"rahasia123"},
	}))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/account", w.Header().Get("Location"))

	var u models.User
	require.NoError(t, app.db.Where("email = ?", "budi@example.com").First(&u).Error)
	assert.Equal(t, models.RoleMember, u.Role)
}

func TestBookingFlow(t *testing.T) {
	app := setupApp(t)
	member := app.seedUser(t, "member@example.com", models.RoleMember)
	k := app.seedKos(t, "kos-melati", 2)
	cookie := session(t, member)

	w := app.do(httptest.NewRequest(http.MethodGet, "/booking/kos-melati", nil), cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(postForm("/booking/kos-melati", url.Values{
		"renter_name":     {"Tester"},
		"renter_email":    {"member@example.com"},
		"renter_phone":    {"081234567890"},
		"check_in_date":   {time.Now().AddDate(0, 0, 7).Format("2006-01-02")},
		"duration_months": {"3"},
		"payment_method":  {"bank_transfer"},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	var b models.Booking
	require.NoError(t, app.db.First(&b).Error)
	assert.Equal(t, "/payment/"+b.BookingCode, w.Header().Get("Location"))
	assert.Equal(t, int64(1500000*3+50000), b.TotalPrice)

	w = app.do(httptest.NewRequest(http.MethodGet, "/payment/"+b.BookingCode, nil), cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), b.BookingCode)

	// someone else's booking is invisible
	other := app.seedUser(t, "other@example.com", models.RoleMember)
	w = app.do(httptest.NewRequest(http.MethodGet, "/payment/"+b.BookingCode, nil), session(t, other))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(postForm("/payment/"+b.BookingCode+"/confirm", nil), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	require.NoError(t, app.db.First(&b, b.ID).Error)
	assert.Equal(t, models.BookingConfirmed, b.BookingStatus)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)

	var kos models.Kos
	require.NoError(t, app.db.First(&kos, k.ID).Error)
	assert.Equal(t, 1, kos.AvailableRooms)

	req := postForm("/payment/"+b.BookingCode+"/confirm", nil)
	req.Header.Set("Accept", "application/json")
	w = app.do(req, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingRejectsPastCheckIn(t *testing.T) {
	app := setupApp(t)
	member := app.seedUser(t, "member@example.com", models.RoleMember)
	app.seedKos(t, "kos-melati", 2)

	w := app.do(postForm("/booking/kos-melati", url.Values{
		"renter_name":     {"Tester"},
		"renter_email":    {"member@example.com"},
		"renter_phone":    {"081234567890"},
		"check_in_date":   {time.Now().AddDate(0, 0, -1).Format("2006-01-02")},
		"duration_months": {"1"},
		"payment_method":  {"cash"},
	}), session(t, member))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var n int64
	app.db.Model(&models.Booking{}).Count(&n)
	assert.Zero(t, n)
}

func TestAdminPagesAndSelfProtection(t *testing.T) {
	app := setupApp(t)
	admin := app.seedUser(t, "admin@example.com", models.RoleAdmin)
	app.seedKos(t, "kos-melati", 2)
	cookie := session(t, admin)

	for _, path := range []string{"/admin", "/admin/kos", "/admin/kos/new", "/admin/users", "/admin/bookings", "/admin/testimonials", "/admin/activity"} {
		w := app.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := postForm("/admin/users/"+itoa(admin.ID)+"/toggle", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	w := app.do(req, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var fresh models.User
	require.NoError(t, app.db.First(&fresh, admin.ID).Error)
	assert.True(t, fresh.IsActive)

	w = app.do(httptest.NewRequest(http.MethodGet, "/admin/bookings/export", nil), cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestAPIPreflight(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/testimonials", nil)
	req.Header.Set("Origin", "http://other.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := app.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// pages never get CORS headers
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://other.test")
	w = app.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
