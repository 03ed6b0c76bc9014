package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/horiken1977/roic-sub001/pkg/app"
	"github.com/horiken1977/roic-sub001/pkg/config"
	"github.com/horiken1977/roic-sub001/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logging.New("info", "console", os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	server := NewServer(a.Service, a.DB, cfg.Server.CORSOrigin, logger)
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("starting ROIC API server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
