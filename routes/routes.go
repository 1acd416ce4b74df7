package routes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"temankosan/config"
	"temankosan/controllers"
	"temankosan/middleware"
	"temankosan/utils"
	"temankosan/web"
)

// Controllers bundles the handler instances the router mounts.
type Controllers struct {
	Home    *controllers.HomeController
	Kos     *controllers.KosController
	Booking *controllers.BookingController
	Auth    *controllers.AuthController
	Account *controllers.AccountController
	Admin   *controllers.AdminController
	API     *controllers.APIController
}

func parseCorsOrigins(configured []string) []string {
	origins := make([]string, 0, len(configured))
	for _, origin := range configured {
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func corsMiddleware(configured []string) gin.HandlerFunc {
	origins := parseCorsOrigins(configured)
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	})
}

// apiOnly runs h for /api paths only. It sits on the engine so preflight
// requests are answered even though no OPTIONS route exists.
func apiOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h(c)
		}
	}
}

// SetupRouter wires middleware, templates and every route. Background work
// started here (rate limiter cleanup) stops when ctx is cancelled.
func SetupRouter(ctx context.Context, db *gorm.DB, cfg config.Config, h Controllers) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 16 << 20

	tmpl, err := web.Templates(utils.TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.Recovery(), middleware.Logger(), apiOnly(corsMiddleware(cfg.CorsOrigins)))

	r.StaticFS("/static", web.Static())
	r.Static("/uploads", cfg.UploadDir)
	r.GET("/health", h.API.Health)

	r.Use(
		middleware.LoadSession(db, cfg.SessionSecret, cfg.CookieSecure),
		middleware.CSRF(cfg.CSRFKey, cfg.CookieSecure),
	)

	r.NoRoute(controllers.NoRoute)
	r.NoMethod(controllers.NoMethod)

	// Public pages
	r.GET("/", h.Home.Home)
	r.GET("/search", h.Kos.SearchPage)
	r.GET("/kos/:slug", h.Kos.Detail)

	r.GET("/login", h.Auth.LoginForm)
	r.POST("/login", h.Auth.Login)
	r.GET("/register", h.Auth.RegisterForm)
	r.POST("/register", h.Auth.Register)
	r.POST("/logout", h.Auth.Logout)

	// Logged-in users
	member := r.Group("")
	member.Use(middleware.RequireLogin())
	{
		member.POST("/kos/:slug/reviews", h.Kos.CreateReview)

		member.GET("/booking/:slug", h.Booking.Form)
		member.POST("/booking/:slug", h.Booking.Create)
		member.GET("/payment/:code", h.Booking.Payment)
		member.POST("/payment/:code/confirm", h.Booking.ConfirmPayment)
		member.POST("/bookings/:code/cancel", h.Booking.Cancel)

		member.GET("/account", h.Account.Show)
		member.POST("/account/profile", h.Account.UpdateProfile)
		member.POST("/account/password", h.Account.ChangePassword)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.Admin.Dashboard)
		admin.GET("/activity", h.Admin.ActivityLog)

		kos := admin.Group("/kos")
		{
			kos.GET("", h.Admin.KosList)
			kos.GET("/new", h.Admin.KosForm)
			kos.POST("", h.Admin.KosCreate)
			kos.POST("/:id/status", h.Admin.KosStatus)
			kos.POST("/:id/featured", h.Admin.KosFeatured)
			kos.POST("/:id/delete", h.Admin.KosDelete)
		}

		users := admin.Group("/users")
		{
			users.GET("", h.Admin.UserList)
			users.POST("/:id/toggle", h.Admin.UserToggle)
			users.POST("/:id/role", h.Admin.UserRole)
			users.POST("/:id/delete", h.Admin.UserDelete)
		}

		bookings := admin.Group("/bookings")
		{
			bookings.GET("", h.Admin.BookingList)
			bookings.GET("/export", h.Admin.BookingExport)
			bookings.POST("/:id/status", h.Admin.BookingStatus)
		}

		testimonials := admin.Group("/testimonials")
		{
			testimonials.GET("", h.Admin.TestimonialList)
			testimonials.POST("/:id/approve", h.Admin.TestimonialApprove)
			testimonials.POST("/:id/reject", h.Admin.TestimonialReject)
			testimonials.POST("/:id/delete", h.Admin.TestimonialDelete)
		}
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimitByIP(middleware.NewAPILimiter(ctx)))
	{
		api.GET("/live-search", h.API.LiveSearch)
		api.POST("/live-search", h.API.LiveSearch)

		api.GET("/testimonials", h.API.ListTestimonials)
		api.POST("/testimonials", h.API.SubmitTestimonial)
		api.PUT("/testimonials", middleware.RequireAdmin(), h.API.ModerateTestimonial)
		api.DELETE("/testimonials", middleware.RequireAdmin(), h.API.DeleteTestimonial)
	}

	return r, nil
}
