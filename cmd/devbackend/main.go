package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/config"
	"github.com/joue-zero/homemade-dishes/internal/devserver"
	"github.com/joue-zero/homemade-dishes/internal/logging"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("HOMEMADE_CONFIG"))
	logger := logging.New("devbackend", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	starting, err := decimal.NewFromString(cfg.DevStartingBalance)
	if err != nil {
		logger.Fatal().Err(err).Str("value", cfg.DevStartingBalance).Msg("invalid DEV_STARTING_BALANCE")
	}

	minimum, err := decimal.NewFromString(cfg.DevMinimumCharge)
	if err != nil {
		logger.Fatal().Err(err).Str("value", cfg.DevMinimumCharge).Msg("invalid DEV_MINIMUM_CHARGE")
	}

	dev := devserver.New(devserver.Config{
		JWTSecret:       cfg.DevJWTSecret,
		TokenTTL:        cfg.DevTokenTTL,
		StartingBalance: starting,
		MinimumCharge:   minimum,
		Logger:          logger,
	})
	// Seed an admin so user management works out of the box
	dev.SeedUser("admin", "admin123", session.RoleAdmin)

	srv := &http.Server{
		Addr:              cfg.DevAddr,
		Handler:           dev.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.DevAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	logger.Info().Msg("shutdown complete")
}
