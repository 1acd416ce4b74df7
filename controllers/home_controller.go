package controllers

import (
	"log"
	"net/http"

	"temankosan/services"

	"github.com/gin-gonic/gin"
)

const homeSectionSize = 6

type HomeController struct {
	Kos          *services.KosService
	Testimonials *services.TestimonialService
	Admin        *services.AdminService
}

func NewHomeController(kos *services.KosService, t *services.TestimonialService, admin *services.AdminService) *HomeController {
	return &HomeController{Kos: kos, Testimonials: t, Admin: admin}
}

// GET /
func (h *HomeController) Home(c *gin.Context) {
	featured, err := h.Kos.Featured(homeSectionSize)
	if err != nil {
		respondError(c, err)
		return
	}
	newest, err := h.Kos.Newest(homeSectionSize)
	if err != nil {
		respondError(c, err)
		return
	}

	// the rest is decoration; a failure only hides a section
	testimonials, err := h.Testimonials.ListApproved(homeSectionSize)
	if err != nil {
		log.Printf("⚠️  home testimonials: %v", err)
	}
	counters, err := h.Admin.Counters()
	if err != nil {
		log.Printf("⚠️  home counters: %v", err)
	}
	cities, err := h.Kos.Cities()
	if err != nil {
		log.Printf("⚠️  home cities: %v", err)
	}

	render(c, http.StatusOK, "home.html", gin.H{
		"Title":        "TemanKosan - Cari kos nyaman dengan mudah",
		"Featured":     featured,
		"Newest":       newest,
		"Testimonials": testimonials,
		"Counters":     counters,
		"Cities":       cities,
	})
}
