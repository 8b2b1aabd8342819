package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/groundtruth/walkroute/internal/adapters/hazardapi"
	"github.com/groundtruth/walkroute/internal/adapters/http"
	natsadapter "github.com/groundtruth/walkroute/internal/adapters/nats"
	"github.com/groundtruth/walkroute/internal/adapters/nominatim"
	"github.com/groundtruth/walkroute/internal/adapters/routing"
	"github.com/groundtruth/walkroute/internal/adapters/valkey"
	"github.com/groundtruth/walkroute/internal/core/ports"
	"github.com/groundtruth/walkroute/internal/pkg/config"
	"github.com/groundtruth/walkroute/internal/pkg/logging"
	"github.com/groundtruth/walkroute/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("walkroute")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
		events = publisher
	}

	// Collaborator clients
	geocoder := nominatim.New(
		cfg.Geocoder.BaseURL,
		cfg.Geocoder.UserAgent,
		time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second,
	)
	routes := routing.New(cfg.Routing.BaseURL, time.Duration(cfg.Routing.TimeoutSeconds)*time.Second)
	intake := hazardapi.New(cfg.Hazards.BaseURL, time.Duration(cfg.Hazards.TimeoutSeconds)*time.Second)

	// Sessions
	sessions := http.NewSessionManager(http.SessionDeps{
		Geocoder: geocoder,
		Routes:   routes,
		Intake:   intake,
		Cache:    cacheSvc,
		Events:   events,
	}, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	go sessions.Sweep(ctx)

	deps := &http.Dependencies{
		Sessions: sessions,
		Events:   publisher,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    32 * 1024 * 1024, // hazard images plus multipart overhead
		AppName:      "WalkRoute Planner",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
