package controllers

import (
	"bytes"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"temankosan/services"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
)

const adminPerPage = 20

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type kosPayload struct {
	Name        string `form:"name" binding:"required,max=150"`
	LocationID  uint   `form:"location_id" binding:"required"`
	Address     string `form:"address" binding:"required"`
	Description string `form:"description"`
	Price       string `form:"price" binding:"required"`
	Type        string `form:"type" binding:"required,oneof=putra putri campur"`
	RoomSize    string `form:"room_size" binding:"max=50"`
	TotalRooms  int    `form:"total_rooms" binding:"required,min=1"`
	Status      string `form:"status" binding:"omitempty,oneof=published draft inactive"`
	IsFeatured  bool   `form:"is_featured"`
}

type statusPayload struct {
	Status string `form:"status" json:"status" binding:"required"`
}

type rolePayload struct {
	Role string `form:"role" json:"role" binding:"required"`
}

type bookingStatusPayload struct {
	BookingStatus string `form:"booking_status" json:"booking_status"`
	PaymentStatus string `form:"payment_status" json:"payment_status"`
}

type AdminController struct {
	Admin        *services.AdminService
	Kos          *services.KosService
	Facilities   *services.FacilityService
	Users        *services.UserService
	Bookings     *services.BookingService
	Testimonials *services.TestimonialService
	Activity     *services.ActivityService
}

func NewAdminController(
	admin *services.AdminService,
	kos *services.KosService,
	facilities *services.FacilityService,
	users *services.UserService,
	bookings *services.BookingService,
	testimonials *services.TestimonialService,
	activity *services.ActivityService,
) *AdminController {
	return &AdminController{
		Admin:        admin,
		Kos:          kos,
		Facilities:   facilities,
		Users:        users,
		Bookings:     bookings,
		Testimonials: testimonials,
		Activity:     activity,
	}
}

// GET /admin
func (a *AdminController) Dashboard(c *gin.Context) {
	stats, err := a.Admin.Dashboard()
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"Title": "Dashboard Admin - TemanKosan",
		"Stats": stats,
	})
}

// GET /admin/activity
func (a *AdminController) ActivityLog(c *gin.Context) {
	logs, p, err := a.Activity.List(pageQuery(c), adminPerPage)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_activity.html", gin.H{
		"Title":      "Log Aktivitas - TemanKosan",
		"Logs":       logs,
		"Pagination": p,
	})
}

// ---------------------------
// Kos
// ---------------------------

// GET /admin/kos
func (a *AdminController) KosList(c *gin.Context) {
	f := services.KosFilter{
		Status:  c.Query("status"),
		Type:    c.Query("type"),
		Keyword: c.Query("q"),
		Page:    pageQuery(c),
		PerPage: adminPerPage,
	}
	list, p, err := a.Kos.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_kos.html", gin.H{
		"Title":      "Kelola Kos - TemanKosan",
		"KosList":    list,
		"Pagination": p,
		"Filter":     f,
	})
}

// GET /admin/kos/new
func (a *AdminController) KosForm(c *gin.Context) {
	a.renderKosForm(c, http.StatusOK, nil, nil)
}

func (a *AdminController) renderKosForm(c *gin.Context, status int, form *kosPayload, formErr error) {
	locations, err := a.Kos.Locations()
	if err != nil {
		respondError(c, err)
		return
	}
	facilities, err := a.Facilities.Active()
	if err != nil {
		respondError(c, err)
		return
	}

	selected := map[uint]bool{}
	if form != nil {
		for _, id := range parseIDs(c.PostFormArray("facilities")) {
			selected[id] = true
		}
	}
	data := gin.H{
		"Title":      "Tambah Kos - TemanKosan",
		"Locations":  locations,
		"Facilities": facilities,
		"Form":       form,
		"Selected":   selected,
		"MaxImages":  services.MaxKosImages,
	}
	if formErr != nil {
		_, msg := services.StatusOf(formErr)
		data["Flash"] = &flash{Kind: "danger", Message: msg}
	}
	render(c, status, "admin_kos_form.html", data)
}

func (a *AdminController) kosCreateFailed(c *gin.Context, form *kosPayload, err error) {
	status, _ := services.StatusOf(err)
	if utils.WantsJSON(c) || status >= http.StatusInternalServerError {
		respondError(c, err)
		return
	}
	a.renderKosForm(c, status, form, err)
}

func uploadedImages(c *gin.Context) []*multipart.FileHeader {
	mf, err := c.MultipartForm()
	if err != nil || mf == nil {
		return nil
	}
	return mf.File["images"]
}

// POST /admin/kos
func (a *AdminController) KosCreate(c *gin.Context) {
	var form kosPayload
	if err := c.ShouldBind(&form); err != nil {
		a.kosCreateFailed(c, &form, bindError(err))
		return
	}

	in := services.CreateKosInput{
		Name:        form.Name,
		LocationID:  form.LocationID,
		Address:     form.Address,
		Description: form.Description,
		Price:       parseInt64(form.Price),
		Type:        form.Type,
		RoomSize:    form.RoomSize,
		TotalRooms:  form.TotalRooms,
		Status:      form.Status,
		IsFeatured:  form.IsFeatured,
		FacilityIDs: parseIDs(c.PostFormArray("facilities")),
	}

	k, err := a.Kos.Create(c.Request.Context(), in, uploadedImages(c), actorFrom(c))
	if err != nil {
		a.kosCreateFailed(c, &form, err)
		return
	}
	log.Printf("🏠 kos#%d %q created", k.ID, k.Name)
	finish(c, "/admin/kos", "Kos berhasil ditambahkan.", k)
}

// POST /admin/kos/:id/status
func (a *AdminController) KosStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/kos", err)
		return
	}
	var payload statusPayload
	if err := c.ShouldBind(&payload); err != nil {
		fail(c, backTo(c, "/admin/kos"), bindError(err))
		return
	}
	if err := a.Kos.UpdateStatus(id, payload.Status, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/kos"), err)
		return
	}
	finish(c, backTo(c, "/admin/kos"), "Status kos diperbarui.", gin.H{"id": id, "status": payload.Status})
}

// POST /admin/kos/:id/featured
func (a *AdminController) KosFeatured(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/kos", err)
		return
	}
	featured, err := a.Kos.ToggleFeatured(id, actorFrom(c))
	if err != nil {
		fail(c, backTo(c, "/admin/kos"), err)
		return
	}
	msg := "Kos dihapus dari unggulan."
	if featured {
		msg = "Kos dijadikan unggulan."
	}
	finish(c, backTo(c, "/admin/kos"), msg, gin.H{"id": id, "is_featured": featured})
}

// POST /admin/kos/:id/delete
func (a *AdminController) KosDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/kos", err)
		return
	}
	if err := a.Kos.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/kos"), err)
		return
	}
	finish(c, backTo(c, "/admin/kos"), "Kos berhasil dihapus.", gin.H{"id": id})
}

// ---------------------------
// Users
// ---------------------------

// GET /admin/users
func (a *AdminController) UserList(c *gin.Context) {
	f := services.UserFilter{
		Role:    c.Query("role"),
		Active:  c.Query("active"),
		Keyword: c.Query("q"),
		Page:    pageQuery(c),
		PerPage: adminPerPage,
	}
	list, p, err := a.Users.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_users.html", gin.H{
		"Title":      "Kelola Pengguna - TemanKosan",
		"Users":      list,
		"Pagination": p,
		"Filter":     f,
	})
}

// POST /admin/users/:id/toggle
func (a *AdminController) UserToggle(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/users", err)
		return
	}
	active, err := a.Users.ToggleActive(id, actorFrom(c))
	if err != nil {
		fail(c, backTo(c, "/admin/users"), err)
		return
	}
	msg := "Pengguna dinonaktifkan."
	if active {
		msg = "Pengguna diaktifkan."
	}
	finish(c, backTo(c, "/admin/users"), msg, gin.H{"id": id, "is_active": active})
}

// POST /admin/users/:id/role
func (a *AdminController) UserRole(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/users", err)
		return
	}
	var payload rolePayload
	if err := c.ShouldBind(&payload); err != nil {
		fail(c, backTo(c, "/admin/users"), bindError(err))
		return
	}
	if err := a.Users.ChangeRole(id, payload.Role, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/users"), err)
		return
	}
	finish(c, backTo(c, "/admin/users"), "Role pengguna diperbarui.", gin.H{"id": id, "role": payload.Role})
}

// POST /admin/users/:id/delete
func (a *AdminController) UserDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/users", err)
		return
	}
	if err := a.Users.Delete(id, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/users"), err)
		return
	}
	finish(c, backTo(c, "/admin/users"), "Pengguna berhasil dihapus.", gin.H{"id": id})
}

// ---------------------------
// Bookings
// ---------------------------

func bookingFilterFrom(c *gin.Context) services.BookingFilter {
	return services.BookingFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Keyword:       c.Query("q"),
		DateFrom:      c.Query("from"),
		DateTo:        c.Query("to"),
		Page:          pageQuery(c),
		PerPage:       adminPerPage,
	}
}

// GET /admin/bookings
func (a *AdminController) BookingList(c *gin.Context) {
	f := bookingFilterFrom(c)
	list, p, err := a.Bookings.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_bookings.html", gin.H{
		"Title":      "Kelola Booking - TemanKosan",
		"Bookings":   list,
		"Pagination": p,
		"Filter":     f,
		"ExportURL":  exportURL(c),
	})
}

// POST /admin/bookings/:id/status
func (a *AdminController) BookingStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/bookings", err)
		return
	}
	var payload bookingStatusPayload
	if err := c.ShouldBind(&payload); err != nil {
		fail(c, backTo(c, "/admin/bookings"), bindError(err))
		return
	}
	b, err := a.Bookings.UpdateStatus(c.Request.Context(), id, payload.BookingStatus, payload.PaymentStatus)
	if err != nil {
		fail(c, backTo(c, "/admin/bookings"), err)
		return
	}
	a.Activity.Log(actorFrom(c), "update_booking_status", "booking", b.ID, map[string]string{
		"booking_status": b.BookingStatus,
		"payment_status": b.PaymentStatus,
	})
	finish(c, backTo(c, "/admin/bookings"), "Status booking "+b.BookingCode+" diperbarui.", b)
}

func exportURL(c *gin.Context) string {
	q := c.Request.URL.Query()
	q.Del("page")
	if len(q) == 0 {
		return "/admin/bookings/export"
	}
	return "/admin/bookings/export?" + q.Encode()
}

// GET /admin/bookings/export
func (a *AdminController) BookingExport(c *gin.Context) {
	f := bookingFilterFrom(c)
	var buf bytes.Buffer
	n, err := a.Bookings.ExportXLSX(f, &buf)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("📤 exported %d bookings", n)

	filename := fmt.Sprintf("booking-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// ---------------------------
// Testimonials
// ---------------------------

// GET /admin/testimonials
func (a *AdminController) TestimonialList(c *gin.Context) {
	status := c.DefaultQuery("status", "pending")
	list, p, err := a.Testimonials.List(status, pageQuery(c), adminPerPage)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, "admin_testimonials.html", gin.H{
		"Title":        "Moderasi Testimoni - TemanKosan",
		"Testimonials": list,
		"Pagination":   p,
		"Status":       status,
	})
}

// POST /admin/testimonials/:id/approve
func (a *AdminController) TestimonialApprove(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/testimonials", err)
		return
	}
	if err := a.Testimonials.Approve(id, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/testimonials"), err)
		return
	}
	finish(c, backTo(c, "/admin/testimonials"), "Testimoni disetujui.", gin.H{"id": id})
}

// POST /admin/testimonials/:id/reject
func (a *AdminController) TestimonialReject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/testimonials", err)
		return
	}
	if err := a.Testimonials.Reject(id, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/testimonials"), err)
		return
	}
	finish(c, backTo(c, "/admin/testimonials"), "Testimoni ditolak.", gin.H{"id": id})
}

// POST /admin/testimonials/:id/delete
func (a *AdminController) TestimonialDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "/admin/testimonials", err)
		return
	}
	if err := a.Testimonials.Delete(id, actorFrom(c)); err != nil {
		fail(c, backTo(c, "/admin/testimonials"), err)
		return
	}
	finish(c, backTo(c, "/admin/testimonials"), "Testimoni dihapus.", gin.H{"id": id})
}
