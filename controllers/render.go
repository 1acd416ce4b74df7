package controllers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"temankosan/middleware"
	"temankosan/services"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
)

const flashCookie = "tk_flash"

type flash struct {
	Kind    string // success | danger | warning | info
	Message string
}

func isSecureRequest(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(c *gin.Context, kind, message string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(c *gin.Context) *flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	// gin unescapes cookie values
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

// render adds the per-request layout data every template expects.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["CSRFToken"] = middleware.CSRFToken(c)
	data["CSRFField"] = middleware.CSRFField
	data["Path"] = c.Request.URL.Path
	data["URL"] = c.Request.URL
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = popFlash(c)
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = "TemanKosan"
	}
	c.HTML(status, name, data)
}

// respondError maps a service error to a JSON envelope or the error page.
func respondError(c *gin.Context, err error) {
	status, msg := services.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if utils.WantsJSON(c) {
		utils.JSONError(c, status, msg)
		return
	}
	render(c, status, "error.html", gin.H{
		"Title":   "Terjadi kesalahan",
		"Status":  status,
		"Message": msg,
	})
}

// finish ends a mutating request: JSON clients get {success, message},
// form posts get a flash and a redirect.
func finish(c *gin.Context, redirect, message string, data interface{}) {
	if utils.WantsJSON(c) {
		utils.JSONSuccess(c, http.StatusOK, message, data)
		return
	}
	setFlash(c, "success", message)
	c.Redirect(http.StatusSeeOther, redirect)
}

// fail is finish for expected failures on form posts: the message goes to
// a flash on the page the user came from.
func fail(c *gin.Context, redirect string, err error) {
	status, msg := services.StatusOf(err)
	if utils.WantsJSON(c) || status >= http.StatusInternalServerError {
		respondError(c, err)
		return
	}
	setFlash(c, "danger", msg)
	c.Redirect(http.StatusSeeOther, redirect)
}

func actorFrom(c *gin.Context) services.Actor {
	a := services.Actor{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	if u := middleware.CurrentUser(c); u != nil {
		a.UserID = u.ID
	}
	return a
}

func idParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, services.ErrBadRequest("ID tidak valid.")
	}
	return uint(n), nil
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// backTo prefers the referring admin page so filters survive a POST.
func backTo(c *gin.Context, fallback string) string {
	ref := c.Request.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request.Host) {
		return fallback
	}
	return safeNext(u.RequestURI())
}
