package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/school-map-service/internal/adapter/http"
	"github.com/couchcryptid/school-map-service/internal/app"
	"github.com/couchcryptid/school-map-service/internal/config"
	"github.com/couchcryptid/school-map-service/internal/dataset"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/observability"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed dataset load is not fatal: the page still renders with an alert.
	appCtx, err := app.Bootstrap(ctx, app.Deps{
		Dataset:      dataset.NewLoader(cfg.DatasetURL, cfg.FetchTimeout),
		FragmentURL:  cfg.FragmentURL,
		FetchTimeout: cfg.FetchTimeout,
		DefaultView: domain.MapConfig{
			Center: [2]float64{cfg.DefaultCenterLat, cfg.DefaultCenterLng},
			Zoom:   cfg.DefaultZoom,
		},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Warn("serving without school data", "dataset", cfg.DatasetURL)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, appCtx, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
