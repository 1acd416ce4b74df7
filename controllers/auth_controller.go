package controllers

import (
	"log"
	"net/http"
	"time"

	"temankosan/middleware"
	"temankosan/models"
	"temankosan/services"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
)

type loginPayload struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type registerPayload struct {
	Name            string `form:"name" binding:"required,max=150"`
	Email           string `form:"email" binding:"required,idemail"`
	Phone           string `form:"phone" binding:"omitempty,idphone"`
	Password        string `form:"password" binding:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" binding:"required"`
}

type AuthController struct {
	Users        *services.UserService
	Secret       string
	CookieSecure bool
}

func NewAuthController(users *services.UserService, secret string, secure bool) *AuthController {
	return &AuthController{Users: users, Secret: secret, CookieSecure: secure}
}

func (a *AuthController) startSession(c *gin.Context, u *models.User) error {
	token, err := utils.IssueSession(a.Secret, u.ID, u.Role, time.Now())
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, token, a.CookieSecure)
	return nil
}

// GET /login
func (a *AuthController) LoginForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{
		"Title": "Masuk - TemanKosan",
		"Next":  safeNext(c.Query("next")),
	})
}

// POST /login
func (a *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBind(&payload); err != nil {
		a.loginFailed(c, payload, bindError(err))
		return
	}

	u, err := a.Users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		a.loginFailed(c, payload, err)
		return
	}
	if err := a.startSession(c, u); err != nil {
		respondError(c, err)
		return
	}
	log.Printf("🔑 login user#%d (%s)", u.ID, u.Role)

	next := safeNext(payload.Next)
	if next == "/" && u.IsAdmin() {
		next = "/admin"
	}
	if utils.WantsJSON(c) {
		utils.JSONSuccess(c, http.StatusOK, "Berhasil masuk.", gin.H{"redirect": next})
		return
	}
	setFlash(c, "success", "Selamat datang kembali, "+u.Name+"!")
	c.Redirect(http.StatusSeeOther, next)
}

func (a *AuthController) loginFailed(c *gin.Context, payload loginPayload, err error) {
	status, msg := services.StatusOf(err)
	if utils.WantsJSON(c) || status >= http.StatusInternalServerError {
		respondError(c, err)
		return
	}
	render(c, status, "login.html", gin.H{
		"Title": "Masuk - TemanKosan",
		"Next":  safeNext(payload.Next),
		"Email": payload.Email,
		"Flash": &flash{Kind: "danger", Message: msg},
	})
}

// GET /register
func (a *AuthController) RegisterForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/account")
		return
	}
	render(c, http.StatusOK, "register.html", gin.H{"Title": "Daftar - TemanKosan"})
}

// POST /register
func (a *AuthController) Register(c *gin.Context) {
	var payload registerPayload
	if err := c.ShouldBind(&payload); err != nil {
		a.registerFailed(c, payload, bindError(err))
		return
	}

	u, err := a.Users.Register(services.RegisterInput{
		Name:            payload.Name,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
	})
	if err != nil {
		a.registerFailed(c, payload, err)
		return
	}
	if err := a.startSession(c, u); err != nil {
		respondError(c, err)
		return
	}
	log.Printf("🆕 registered user#%d", u.ID)

	if utils.WantsJSON(c) {
		utils.JSONSuccess(c, http.StatusCreated, "Pendaftaran berhasil.", u)
		return
	}
	setFlash(c, "success", "Pendaftaran berhasil. Selamat datang di TemanKosan!")
	c.Redirect(http.StatusSeeOther, "/account")
}

func (a *AuthController) registerFailed(c *gin.Context, payload registerPayload, err error) {
	status, msg := services.StatusOf(err)
	if utils.WantsJSON(c) || status >= http.StatusInternalServerError {
		respondError(c, err)
		return
	}
	payload.Password, payload.PasswordConfirm = "", ""
	render(c, status, "register.html", gin.H{
		"Title": "Daftar - TemanKosan",
		"Form":  payload,
		"Flash": &flash{Kind: "danger", Message: msg},
	})
}

// POST /logout
func (a *AuthController) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, a.CookieSecure)
	setFlash(c, "info", "Anda sudah keluar.")
	c.Redirect(http.StatusSeeOther, "/")
}
