package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/harborpt/booking-platform/internal/api/handlers"
	"github.com/harborpt/booking-platform/internal/api/router"
	"github.com/harborpt/booking-platform/internal/clinicapi"
	appconfig "github.com/harborpt/booking-platform/internal/config"
	"github.com/harborpt/booking-platform/internal/identity"
	"github.com/harborpt/booking-platform/internal/observability/metrics"
	"github.com/harborpt/booking-platform/internal/wizard"
	"github.com/harborpt/booking-platform/pkg/logging"
)

func main() {
	// Load .env if present; in deployed environments the variables come
	// from the platform.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Hints degrade gracefully; the wizard works without them.
		logger.Warn("redis unreachable, returning-patient hints disabled", "error", err)
	}
	cancelPing()

	hints := identity.NewStore(rdb, cfg.PhoneHintTTL, cfg.PatientHintTTL)
	clinicClient := clinicapi.NewClient(cfg.ClinicAPIBaseURL, cfg.ClinicAPITimeout, logger)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	sessions := wizard.NewManager(cfg.SessionTTL, logger)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, time.Minute)

	booking := handlers.NewBookingHandler(handlers.BookingHandlerConfig{
		API:           clinicClient,
		Sessions:      sessions,
		Hints:         hints,
		Metrics:       bookingMetrics,
		Logger:        logger,
		WindowDays:    cfg.BookingWindowDays,
		ClosedWeekday: cfg.ClosedWeekday,
		SecureCookies: cfg.Env != "development",
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Booking:            booking,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
