package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"callbook-service/internal/app"
	"callbook-service/internal/booking"
	"callbook-service/internal/calendly"
	"callbook-service/internal/config"
	"callbook-service/internal/gcal"
	"callbook-service/internal/intent"
	"callbook-service/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("[main] initializing log analysis model %s (response format %s)",
		orDefault(cfg.LLM.Model, intent.DefaultModel), cfg.LLM.ResponseFormat)
	extractor := intent.NewExtractor(intent.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		ResponseFormat: cfg.LLM.ResponseFormat,
	}, nil)

	appInstance := &app.App{
		Extractor: extractor,
		Tasks:     app.NewDispatcher(log.Default()),
	}

	var scheduler booking.Scheduler
	switch cfg.Backend {
	case config.BackendGoogle:
		if cfg.Google.RedirectURL != "" {
			appInstance.OAuth = gcal.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
		}
		if cfg.Google.RefreshToken == "" {
			log.Printf("[main] GOOGLE_REFRESH_TOKEN not set, bookings will fail until one is obtained via /api/calendar/auth")
		}
		scheduler, err = gcal.NewClient(ctx, gcal.Config{
			ClientID:       cfg.Google.ClientID,
			ClientSecret:   cfg.Google.ClientSecret,
			RefreshToken:   cfg.Google.RefreshToken,
			CalendarID:     cfg.Google.CalendarID,
			Duration:       cfg.Google.EventDuration,
			BookingPageURL: cfg.Google.BookingPageURL,
		})
		if err != nil {
			log.Fatalf("google calendar: %v", err)
		}
	default:
		scheduler = calendly.NewClient(context.Background(), cfg.Calendly.APIKey, cfg.Calendly.EventTypeURL, cfg.Calendly.BaseURL)
	}
	log.Printf("[main] scheduling backend: %s", cfg.Backend)

	appInstance.Booker = &booking.Orchestrator{
		Scheduler: scheduler,
		Location:  cfg.Location,
		Logger:    log.Default(),
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))
	appInstance.RegisterRoutes(router)

	if err := server.Run(ctx, router, ":"+cfg.Port, appInstance.Tasks.Drain); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
