package middleware

import (
	"crypto/sha256"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"temankosan/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	CSRFField    = "csrf_token"
	CtxCSRFToken = "csrf_token"
)

// CSRF wraps gorilla/csrf for gin. Unsafe methods need the token from the
// form field csrf_token or the X-CSRF-Token header. An empty key disables
// the check.
func CSRF(key string, secure bool) gin.HandlerFunc {
	if strings.TrimSpace(key) == "" {
		log.Println("⚠️  CSRF_KEY is empty, CSRF protection disabled")
		return func(c *gin.Context) {
			c.Set(CtxCSRFToken, "")
			c.Next()
		}
	}

	// gorilla wants exactly 32 bytes
	sum := sha256.Sum256([]byte(key))
	protect := csrf.Protect(sum[:],
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFField),
		csrf.CookieName("tk_csrf"),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)

	return func(c *gin.Context) {
		r := c.Request
		if !secure {
			r = csrf.PlaintextHTTPRequest(r)
		}

		passed := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Set(CtxCSRFToken, csrf.Token(r))
			c.Next()
		})).ServeHTTP(c.Writer, r)

		if !passed {
			c.Abort()
		}
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	log.Printf("⚠️  CSRF rejected %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	msg := "Sesi formulir kedaluwarsa. Muat ulang halaman lalu coba lagi."

	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(utils.APIResponse{
			Success:   false,
			Message:   msg,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("<!doctype html><meta charset=\"utf-8\"><title>403</title><p>" + msg + "</p><p><a href=\"javascript:history.back()\">Kembali</a></p>"))
}

// CSRFToken returns the token to embed in forms and the meta tag.
func CSRFToken(c *gin.Context) string {
	return c.GetString(CtxCSRFToken)
}
