package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"motion-dashboard/internal/config"
	"motion-dashboard/internal/domain/ports/adapter"
	backendAdapters "motion-dashboard/internal/infra/adapters/backend"
	"motion-dashboard/internal/infra/logging"
	"motion-dashboard/internal/infra/memstore"
	"motion-dashboard/internal/infra/metrics"
	"motion-dashboard/internal/infra/sched"
	"motion-dashboard/internal/infra/web"
	"motion-dashboard/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, scripted backend fallback)")
	flag.Parse()

	// .env is optional; real deployments pass env vars directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Backend adapter ----
	var backend adapter.AnalysisBackend
	if cfg.Backend.BaseURL != "" {
		backend, err = backendAdapters.NewHTTPBackend(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout.Std())
		if err != nil {
			logger.Fatal().Err(err).Msg("backend adapter")
		}
		logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("analysis backend: http")
	} else if cfg.Runtime.Dev {
		backend = backendAdapters.NewNoopBackend()
		logger.Warn().Msg("analysis backend: noop (no backend.base_url configured)")
	} else {
		logger.Fatal().Msg("backend.base_url is required outside dev mode")
	}

	// ---- Registry + supervisor ----
	registry := memstore.NewRegistry()
	supervisor := sched.NewSupervisor(registry, backend, sched.Options{
		Interval:      cfg.Poll.Interval.Std(),
		StandardDelay: cfg.Poll.StandardCompletionDelay.Std(),
		MaxConcurrent: cfg.Poll.Concurrency,
	}, logger)
	registry.OnChange(supervisor.Wake)
	go func() { _ = supervisor.Run(ctx) }()

	// ---- Use case + HTTP API ----
	trackerUC := usecase.NewJobTrackerUseCase(registry, supervisor, cfg.Poll.MaxRetries)
	srv := web.NewServer(trackerUC, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}
