// controllers/booking_controller.go
package controllers

import (
	"net/http"
	"time"

	"temankosan/middleware"
	"temankosan/models"
	"temankosan/services"

	"github.com/gin-gonic/gin"
)

// payment countdown shown on the payment page; nothing expires server-side
const paymentWindow = 24 * time.Hour

// ---------------------------
// Payload / DTOs
// ---------------------------

type bookingForm struct {
	RenterName     string `form:"renter_name" binding:"required,max=150"`
	RenterEmail    string `form:"renter_email" binding:"required,idemail"`
	RenterPhone    string `form:"renter_phone" binding:"required,idphone"`
	CheckInDate    string `form:"check_in_date" binding:"required"`
	DurationMonths int    `form:"duration_months" binding:"required,min=1,max=12"`
	PaymentMethod  string `form:"payment_method" binding:"required,oneof=bank_transfer e_wallet cash"`
	Notes          string `form:"notes" binding:"max=1000"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
	KosSvc     *services.KosService
}

func NewBookingController(bookings *services.BookingService, kos *services.KosService) *BookingController {
	return &BookingController{BookingSvc: bookings, KosSvc: kos}
}

func (bc *BookingController) renderForm(c *gin.Context, status int, kos *models.Kos, form bookingForm, errMsg string) {
	var flashMsg *flash
	if errMsg != "" {
		flashMsg = &flash{Kind: "danger", Message: errMsg}
	}
	minDate := bc.BookingSvc.Now().AddDate(0, 0, 1).Format("2006-01-02")
	render(c, status, "booking.html", gin.H{
		"Title":     "Pesan " + kos.Name,
		"Kos":       kos,
		"Form":      form,
		"AdminFee":  bc.BookingSvc.AdminFee,
		"MinDate":   minDate,
		"Durations": services.MaxDurationMonths,
		"Flash":     flashMsg,
	})
}

// GET /booking/:slug
func (bc *BookingController) Form(c *gin.Context) {
	kos, err := bc.KosSvc.FindPublished(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	u := middleware.CurrentUser(c)
	form := bookingForm{
		RenterName:     u.Name,
		RenterEmail:    u.Email,
		RenterPhone:    u.Phone,
		DurationMonths: 1,
		PaymentMethod:  models.PaymentBankTransfer,
	}
	bc.renderForm(c, http.StatusOK, kos, form, "")
}

// POST /booking/:slug
func (bc *BookingController) Create(c *gin.Context) {
	kos, err := bc.KosSvc.FindPublished(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	var form bookingForm
	if err := c.ShouldBind(&form); err != nil {
		_, msg := services.StatusOf(bindError(err))
		bc.renderForm(c, http.StatusBadRequest, kos, form, msg)
		return
	}

	u := middleware.CurrentUser(c)
	booking, err := bc.BookingSvc.Create(c.Request.Context(), services.CreateBookingInput{
		UserID:         u.ID,
		KosID:          kos.ID,
		RenterName:     form.RenterName,
		RenterEmail:    form.RenterEmail,
		RenterPhone:    form.RenterPhone,
		CheckInDate:    form.CheckInDate,
		DurationMonths: form.DurationMonths,
		PaymentMethod:  form.PaymentMethod,
		Notes:          form.Notes,
	})
	if err != nil {
		status, msg := services.StatusOf(err)
		if status >= http.StatusInternalServerError {
			respondError(c, err)
			return
		}
		bc.renderForm(c, status, kos, form, msg)
		return
	}

	setFlash(c, "success", "Booking berhasil dibuat. Selesaikan pembayaran sebelum batas waktu.")
	c.Redirect(http.StatusSeeOther, "/payment/"+booking.BookingCode)
}

// GET /payment/:code
func (bc *BookingController) Payment(c *gin.Context) {
	u := middleware.CurrentUser(c)
	booking, err := bc.BookingSvc.GetForUser(c.Param("code"), u.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, "payment.html", gin.H{
		"Title":    "Pembayaran " + booking.BookingCode,
		"Booking":  booking,
		"Deadline": booking.CreatedAt.Add(paymentWindow),
		"Payable":  booking.BookingStatus == models.BookingPending && booking.PaymentStatus == models.PaymentPending,
	})
}

// POST /payment/:code/confirm
func (bc *BookingController) ConfirmPayment(c *gin.Context) {
	code := c.Param("code")
	u := middleware.CurrentUser(c)

	booking, err := bc.BookingSvc.ConfirmPayment(c.Request.Context(), code, u.ID)
	if err != nil {
		fail(c, "/payment/"+code, err)
		return
	}
	finish(c, "/payment/"+code, "Pembayaran dikonfirmasi. Booking Anda aktif.", gin.H{
		"booking_code":   booking.BookingCode,
		"booking_status": models.BookingConfirmed,
		"payment_status": models.PaymentPaid,
	})
}

// POST /bookings/:code/cancel
func (bc *BookingController) Cancel(c *gin.Context) {
	u := middleware.CurrentUser(c)
	booking, err := bc.BookingSvc.Cancel(c.Request.Context(), c.Param("code"), u.ID)
	if err != nil {
		fail(c, "/account", err)
		return
	}
	finish(c, "/account", "Booking "+booking.BookingCode+" dibatalkan.", gin.H{
		"booking_code":   booking.BookingCode,
		"booking_status": models.BookingCancelled,
	})
}
