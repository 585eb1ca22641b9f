package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "weatherassistant/internal/api/http"
	"weatherassistant/internal/city"
	"weatherassistant/internal/config"
	"weatherassistant/internal/location"
	"weatherassistant/internal/notify"
	"weatherassistant/internal/prefs"
	"weatherassistant/internal/weather"
	"weatherassistant/internal/weather/predictor"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Durable key-value preferences.
	prefsStore := prefs.NewFileStore(cfg.PrefsPath)
	if err := prefsStore.Load(); err != nil {
		log.Fatalf("failed to load preferences: %v", err)
	}

	cities := city.NewService(prefsStore, cfg.GeocoderAPIKey)

	// Location: pinned coordinates when configured, IP geolocation otherwise.
	var locator location.Provider
	if cfg.StaticLat != nil && cfg.StaticLon != nil {
		locator = location.Static{
			Coords: weather.Coordinates{
				Latitude:  *cfg.StaticLat,
				Longitude: *cfg.StaticLon,
			},
		}
	} else {
		locator = location.NewIPLocator(httpClient)
	}

	client := predictor.New(httpClient, cfg.APIBaseURL)

	// Delivery channel: Pushover when configured, process log otherwise.
	var sink notify.Sink = notify.LogSink{}
	if cfg.PushoverToken != "" && cfg.PushoverUser != "" {
		sink = notify.NewPushoverSink(httpClient, cfg.PushoverToken, cfg.PushoverUser)
	}

	center := notify.NewCronCenter(sink)
	sched := notify.NewScheduler(center, client, cities, locator, prefsStore)
	center.SetHandler(func(ev notify.FireEvent) notify.Directive {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sched.HandleFire(ctx, ev)
	})

	center.Start()
	defer center.Stop()

	// Restore the persisted schedule after a cold start.
	if sched.Enabled() {
		if tod, err := sched.ScheduledTime(); err == nil && tod != nil {
			if err := sched.Arm(tod.Hour, tod.Minute); err != nil {
				log.Printf("failed to restore daily notification: %v", err)
			} else {
				log.Printf("restored daily notification at %02d:%02d", tod.Hour, tod.Minute)
			}
		}
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-assistant",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		upstream, _ := client.Health(c.UserContext())
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-assistant",
			"upstream": upstream,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:   client,
		Cities:    cities,
		Scheduler: sched,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
