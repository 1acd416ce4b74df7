package controllers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"temankosan/middleware"
	"temankosan/services"

	"github.com/gin-gonic/gin"
)

const similarKosLimit = 4

type KosController struct {
	Kos        *services.KosService
	Search     *services.SearchService
	Reviews    *services.ReviewService
	Facilities *services.FacilityService
}

func NewKosController(kos *services.KosService, search *services.SearchService, reviews *services.ReviewService, facilities *services.FacilityService) *KosController {
	return &KosController{Kos: kos, Search: search, Reviews: reviews, Facilities: facilities}
}

func parseInt64(raw string) int64 {
	raw = strings.NewReplacer(".", "", ",", "", " ", "").Replace(raw)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseIDs(raw []string) []uint {
	var out []uint
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil && n > 0 {
				out = append(out, uint(n))
			}
		}
	}
	return out
}

// GET /search
func (k *KosController) SearchPage(c *gin.Context) {
	f := services.SearchFilter{
		Keyword:    c.Query("q"),
		City:       c.Query("city"),
		Type:       c.Query("type"),
		MinPrice:   parseInt64(c.Query("min_price")),
		MaxPrice:   parseInt64(c.Query("max_price")),
		Facilities: parseIDs(c.QueryArray("facilities")),
		Sort:       c.DefaultQuery("sort", "newest"),
		Page:       pageQuery(c),
		PerPage:    services.SearchPerPage,
	}

	list, p, err := k.Search.Search(f)
	if err != nil {
		respondError(c, err)
		return
	}

	facilities, err := k.Facilities.Active()
	if err != nil {
		log.Printf("⚠️  search facilities: %v", err)
	}
	cities, err := k.Kos.Cities()
	if err != nil {
		log.Printf("⚠️  search cities: %v", err)
	}

	render(c, http.StatusOK, "search.html", gin.H{
		"Title":      "Cari Kos - TemanKosan",
		"Results":    list,
		"Pagination": p,
		"Filter":     f,
		"Facilities": facilities,
		"Cities":     cities,
		"Query":      c.Request.URL.Query(),
	})
}

// GET /kos/:slug
func (k *KosController) Detail(c *gin.Context) {
	kos, err := k.Kos.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, err := k.Reviews.Recent(kos.ID, services.RecentReviewLimit)
	if err != nil {
		log.Printf("⚠️  reviews kos#%d: %v", kos.ID, err)
	}
	similar, err := k.Kos.Similar(kos, similarKosLimit)
	if err != nil {
		log.Printf("⚠️  similar kos#%d: %v", kos.ID, err)
	}

	canReview := false
	if u := middleware.CurrentUser(c); u != nil {
		canReview, _ = k.Reviews.CanReview(u.ID, kos.ID)
	}

	render(c, http.StatusOK, "kos_detail.html", gin.H{
		"Title":     kos.Name + " - TemanKosan",
		"Kos":       kos,
		"Reviews":   reviews,
		"Similar":   similar,
		"CanReview": canReview,
	})
}

type reviewForm struct {
	Rating  int    `form:"rating" json:"rating" binding:"required,min=1,max=5"`
	Comment string `form:"comment" json:"comment" binding:"required,max=2000"`
}

// POST /kos/:slug/reviews
func (k *KosController) CreateReview(c *gin.Context) {
	slug := c.Param("slug")
	back := "/kos/" + slug + "#ulasan"

	kos, err := k.Kos.FindPublished(slug)
	if err != nil {
		respondError(c, err)
		return
	}

	var form reviewForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, back, bindError(err))
		return
	}

	u := middleware.CurrentUser(c)
	review, err := k.Reviews.Create(u.ID, kos.ID, form.Rating, form.Comment)
	if err != nil {
		fail(c, back, err)
		return
	}
	finish(c, back, "Terima kasih, ulasan Anda sudah tersimpan.", review)
}

func pageQuery(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
