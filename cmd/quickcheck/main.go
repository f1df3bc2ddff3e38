package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/quickcheck/internal/api/http"
	"github.com/i474232898/quickcheck/internal/config"
	"github.com/i474232898/quickcheck/internal/covid"
	"github.com/i474232898/quickcheck/internal/covid/providers"
	"github.com/i474232898/quickcheck/internal/scheduler"
	"github.com/i474232898/quickcheck/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for the outbound summary call.
	httpClient, err := providers.NewHTTPClient(cfg.HTTPTimeout)
	if err != nil {
		log.Fatalf("failed to build http client: %v", err)
	}

	// Summary provider with a circuit breaker; one attempt per cycle.
	provider := providers.NewSummaryProvider(httpClient, cfg.SummaryURL, cfg.HTTPTimeout, cfg.Breaker())

	// Core service: planner plus the latest-plan holder.
	service := covid.NewService(store.NewMemoryStore(), covid.NewPlanner(provider))

	// Scheduler that requests a new plan once the current one expires.
	sched := scheduler.New(cfg.CheckInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp("quickcheck")

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "quickcheck",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s, summary source %s", cfg.Port, cfg.SummaryURL)

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
