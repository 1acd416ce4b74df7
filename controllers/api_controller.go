package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"temankosan/models"
	"temankosan/services"
	"temankosan/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type liveSearchQuery struct {
	Q     string `form:"q" json:"q"`
	Limit int    `form:"limit" json:"limit"`
}

type APIController struct {
	DB           *gorm.DB
	Search       *services.SearchService
	Testimonials *services.TestimonialService
}

func NewAPIController(db *gorm.DB, search *services.SearchService, testimonials *services.TestimonialService) *APIController {
	return &APIController{DB: db, Search: search, Testimonials: testimonials}
}

func apiError(c *gin.Context, err error) {
	status, msg := services.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	utils.JSONError(c, status, msg)
}

// GET|POST /api/live-search
func (a *APIController) LiveSearch(c *gin.Context) {
	var q liveSearchQuery
	if err := c.ShouldBind(&q); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Parameter pencarian tidak valid.")
		return
	}
	if q.Q == "" {
		// POST bodies may still carry q in the query string
		q.Q = c.Query("q")
	}

	items, err := a.Search.LiveSearch(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		apiError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "OK", items)
}

// GET /api/testimonials
func (a *APIController) ListTestimonials(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			utils.JSONError(c, http.StatusBadRequest, "ID tidak valid.")
			return
		}
		t, err := a.Testimonials.GetApproved(uint(id))
		if err != nil {
			apiError(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, "OK", t.Public())
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := a.Testimonials.ListApproved(limit)
	if err != nil {
		apiError(c, err)
		return
	}
	out := make([]models.PublicTestimonial, 0, len(list))
	for _, t := range list {
		out = append(out, t.Public())
	}
	utils.JSONSuccess(c, http.StatusOK, "OK", out)
}

// POST /api/testimonials
func (a *APIController) SubmitTestimonial(c *gin.Context) {
	var in services.TestimonialInput
	if err := c.ShouldBind(&in); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Data testimoni tidak valid.")
		return
	}
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	t, err := a.Testimonials.Submit(in)
	if err != nil {
		apiError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, "Terima kasih! Testimoni Anda akan tampil setelah disetujui admin.", t.Public())
}

func queryID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.ErrBadRequest("Parameter id wajib diisi.")
	}
	return uint(id), nil
}

// PUT /api/testimonials?id=&action=approve|reject
func (a *APIController) ModerateTestimonial(c *gin.Context) {
	id, err := queryID(c)
	if err != nil {
		apiError(c, err)
		return
	}
	actor := actorFrom(c)

	switch c.Query("action") {
	case "approve":
		err = a.Testimonials.Approve(id, actor)
	case "reject":
		err = a.Testimonials.Reject(id, actor)
	default:
		utils.JSONError(c, http.StatusBadRequest, "Action harus approve atau reject.")
		return
	}
	if err != nil {
		apiError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "Testimoni diperbarui.", gin.H{"id": id, "action": c.Query("action")})
}

// DELETE /api/testimonials?id=
func (a *APIController) DeleteTestimonial(c *gin.Context) {
	id, err := queryID(c)
	if err != nil {
		apiError(c, err)
		return
	}
	if err := a.Testimonials.Delete(id, actorFrom(c)); err != nil {
		apiError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "Testimoni dihapus.", gin.H{"id": id})
}

// GET /health
func (a *APIController) Health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// NoMethod answers 405 in the API envelope for /api paths.
func NoMethod(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		utils.JSONError(c, http.StatusMethodNotAllowed, "Method tidak diizinkan.")
		return
	}
	render(c, http.StatusMethodNotAllowed, "error.html", gin.H{
		"Status":  http.StatusMethodNotAllowed,
		"Message": "Method tidak diizinkan.",
	})
}

// NoRoute answers 404.
func NoRoute(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || utils.WantsJSON(c) {
		utils.JSONError(c, http.StatusNotFound, "Endpoint tidak ditemukan.")
		return
	}
	render(c, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Halaman tidak ditemukan",
		"Status":  http.StatusNotFound,
		"Message": "Halaman yang Anda cari tidak ditemukan.",
	})
}
