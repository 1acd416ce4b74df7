package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"temankosan/config"
	"temankosan/controllers"
	"temankosan/routes"
	"temankosan/services"
	"temankosan/storage"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	rootCmd := &cobra.Command{
		Use:          "temankosan",
		Short:        "TemanKosan kos listing and booking server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
		fixDuplicatesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Println("✅ Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default admin, locations and facilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := config.SeedDatabase(db, cfg); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			log.Println("✅ Seed data ready")
			return nil
		},
	}
}

func fixDuplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-duplicates",
		Short: "Remove duplicate kos facility rows, keeping the oldest per pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			removed, err := services.NewFacilityService(db).RemoveDuplicates()
			if err != nil {
				return fmt.Errorf("fix duplicates: %w", err)
			}
			log.Printf("✅ Removed %d duplicate kos facility rows", removed)
			return nil
		},
	}
}

func connect() (config.Config, *gorm.DB, error) {
	cfg := config.Load()
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("database connect failed: %w", err)
	}
	return cfg, db, nil
}

func imageStore(cfg config.Config) storage.ImageStore {
	if cfg.StorageDriver == "supabase" {
		if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
			log.Printf("🔧 Kos images stored in Supabase bucket %q", cfg.SupabaseBucket)
			return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		}
		log.Println("⚠️  STORAGE_DRIVER=supabase but SUPABASE_URL/SUPABASE_KEY missing; using local uploads")
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

func serve() error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := config.SeedDatabase(db, cfg); err != nil {
		log.Printf("⚠️  seed failed: %v", err)
	}
	log.Println("✅ Database connection established and migrations applied.")

	var cache storage.Cache
	if cfg.RedisURL != "" {
		if rc := storage.NewRedisCache(cfg.RedisURL); rc != nil {
			cache = rc
			defer rc.Close()
		}
	}

	controllers.RegisterValidators()

	// Initialize services
	kosService := services.NewKosService(db, imageStore(cfg))
	searchService := services.NewSearchService(db, cache)
	bookingService := services.NewBookingService(db, cfg.AdminFee, cfg.BaseURL)
	userService := services.NewUserService(db)
	reviewService := services.NewReviewService(db)
	facilityService := services.NewFacilityService(db)
	testimonialService := services.NewTestimonialService(db)
	adminService := services.NewAdminService(db)
	activityService := services.NewActivityService(db)

	// Initialize controllers
	handlers := routes.Controllers{
		Home:    controllers.NewHomeController(kosService, testimonialService, adminService),
		Kos:     controllers.NewKosController(kosService, searchService, reviewService, facilityService),
		Booking: controllers.NewBookingController(bookingService, kosService),
		Auth:    controllers.NewAuthController(userService, cfg.SessionSecret, cfg.CookieSecure),
		Account: controllers.NewAccountController(userService, bookingService),
		Admin: controllers.NewAdminController(adminService, kosService, facilityService,
			userService, bookingService, testimonialService, activityService),
		API: controllers.NewAPIController(db, searchService, testimonialService),
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	router, err := routes.SetupRouter(ctx, db, cfg, handlers)
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("✅ Server stopped gracefully")
	return nil
}
