package middleware

import (
	"net/http"
	"net/url"

	"temankosan/models"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	SessionCookie = "tk_session"
	CtxUser       = "user"
)

// LoadSession resolves the session cookie to an active user on every
// request. A bad or stale cookie is cleared and the request continues as a
// guest.
func LoadSession(db *gorm.DB, secret string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		uid, _, err := utils.ParseSession(secret, raw)
		if err != nil {
			ClearSessionCookie(c, secure)
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, uid).Error; err != nil || !user.IsActive {
			ClearSessionCookie(c, secure)
			c.Next()
			return
		}

		c.Set(CtxUser, &user)
		c.Next()
	}
}

// CurrentUser returns the logged-in user, if any.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func SetSessionCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireLogin sends guests to /login?next=... (HTML) or answers 401 (JSON).
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			rejectGuest(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only logged-in, active admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			rejectGuest(c)
			return
		}
		if !u.IsAdmin() {
			if utils.WantsJSON(c) {
				utils.JSONError(c, http.StatusForbidden, "Akses khusus admin.")
				c.Abort()
				return
			}
			c.HTML(http.StatusForbidden, "error.html", gin.H{
				"Title":   "Akses ditolak",
				"Status":  http.StatusForbidden,
				"Message": "Halaman ini khusus admin.",
				"User":    u,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func rejectGuest(c *gin.Context) {
	if utils.WantsJSON(c) {
		utils.JSONError(c, http.StatusUnauthorized, "Silakan masuk terlebih dahulu.")
		c.Abort()
		return
	}
	c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}
