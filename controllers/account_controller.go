package controllers

import (
	"net/http"
	"time"

	"temankosan/middleware"
	"temankosan/services"

	"github.com/gin-gonic/gin"
)

type profileForm struct {
	Name  string `form:"name" binding:"required,max=150"`
	Phone string `form:"phone" binding:"omitempty,idphone"`
}

type passwordForm struct {
	Current string `form:"current_password" binding:"required"`
	New     string `form:"new_password" binding:"required"`
	Confirm string `form:"confirm_password" binding:"required"`
}

type AccountController struct {
	Users    *services.UserService
	Bookings *services.BookingService
}

func NewAccountController(users *services.UserService, bookings *services.BookingService) *AccountController {
	return &AccountController{Users: users, Bookings: bookings}
}

// GET /account
func (a *AccountController) Show(c *gin.Context) {
	u := middleware.CurrentUser(c)
	bookings, err := a.Bookings.ListForUser(u.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	cancellable := make(map[uint]bool, len(bookings))
	for _, b := range bookings {
		cancellable[b.ID] = services.CanCancelBooking(b, u.ID, now)
	}

	render(c, http.StatusOK, "account.html", gin.H{
		"Title":       "Akun Saya - TemanKosan",
		"Bookings":    bookings,
		"Cancellable": cancellable,
	})
}

// POST /account/profile
func (a *AccountController) UpdateProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, "/account", bindError(err))
		return
	}
	u := middleware.CurrentUser(c)
	updated, err := a.Users.UpdateProfile(u.ID, form.Name, form.Phone)
	if err != nil {
		fail(c, "/account", err)
		return
	}
	finish(c, "/account", "Profil diperbarui.", updated)
}

// POST /account/password
func (a *AccountController) ChangePassword(c *gin.Context) {
	var form passwordForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, "/account", bindError(err))
		return
	}
	u := middleware.CurrentUser(c)
	if err := a.Users.ChangePassword(u.ID, form.Current, form.New, form.Confirm); err != nil {
		fail(c, "/account", err)
		return
	}
	finish(c, "/account", "Password berhasil diubah.", nil)
}
