package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/account":             "/account",
		"/kos/melati?tab=info": "/kos/melati?tab=info",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
		"account":              "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestBackTo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(referer string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "http://kos.test/admin/users/3/toggle", nil)
		if referer != "" {
			c.Request.Header.Set("Referer", referer)
		}
		return c
	}

	assert.Equal(t, "/admin/users", backTo(newCtx(""), "/admin/users"))
	assert.Equal(t, "/admin/users?page=2&q=budi", backTo(newCtx("http://kos.test/admin/users?page=2&q=budi"), "/admin/users"))
	assert.Equal(t, "/admin/users", backTo(newCtx("http://other.test/admin"), "/admin/users"))
}

func TestFlashRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/account/profile", nil)
	setFlash(c, "success", "Profil diperbarui | tersimpan.")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/account", nil)
	c2.Request.AddCookie(cookies[0])

	f := popFlash(c2)
	require.NotNil(t, f)
	assert.Equal(t, "success", f.Kind)
	assert.Equal(t, "Profil diperbarui | tersimpan.", f.Message)
}
