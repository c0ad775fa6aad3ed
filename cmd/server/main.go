package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/api"
	"github.com/andresuchdata/pharmadesk/internal/api/middleware"
	"github.com/andresuchdata/pharmadesk/internal/app"
	"github.com/andresuchdata/pharmadesk/internal/config"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/andresuchdata/pharmadesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Log.Format, cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	tokens, err := middleware.NewTokens(cfg.Auth)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}

	var scheduler *gocron.Scheduler
	if cfg.Alerts.Enabled {
		scheduler, err = startAlertScheduler(application.Services.Alerts, cfg.Alerts.ScanAt, application.Location)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to schedule alert scan")
		}
	}

	router := api.NewRouter(application.Services, tokens, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Database.Backend).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// startAlertScheduler runs a scan over every pharmacy once a day at scanAt
// (HH:MM, local to loc).
func startAlertScheduler(alerts *service.AlertService, scanAt string, loc *time.Location) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	_, err := s.Every(1).Day().At(scanAt).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		results, err := alerts.ScanAll(ctx)
		if err != nil {
			logger.Log.Error().Err(err).Int("pharmacies_scanned", len(results)).Msg("scheduled alert scan finished with errors")
			return
		}
		logger.Log.Info().Int("pharmacies_scanned", len(results)).Msg("scheduled alert scan finished")
	})
	if err != nil {
		return nil, err
	}

	s.StartAsync()
	logger.Log.Info().Str("at", scanAt).Str("timezone", loc.String()).Msg("alert scan scheduled")
	return s, nil
}
