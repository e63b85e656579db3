package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fingerprint-id/engine/internal/api"
	"github.com/fingerprint-id/engine/internal/api/handlers"
	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/features"
	"github.com/fingerprint-id/engine/internal/imaging"
	"github.com/fingerprint-id/engine/internal/index"
	"github.com/fingerprint-id/engine/internal/observability"
	"github.com/fingerprint-id/engine/internal/storage"
	"github.com/fingerprint-id/engine/internal/template"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if sink, err := observability.NewFileSink(cfg.Logging.FilePath); err != nil {
		slog.Warn("open log file sink — file logging disabled", "error", err)
	} else {
		observability.AttachFileSink(sink, observability.ParseLevel(cfg.Logging.Level))
		defer sink.Close()
	}

	slog.Info("starting fingerprint identification service", "port", cfg.Server.Port)

	store, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cond := imaging.NewConditioner()
	detector := features.NewDetector(features.Config{
		MaxKeypoints:      cfg.Features.MaxKeypoints,
		ContrastThreshold: cfg.Features.ContrastThreshold,
		EdgeThreshold:     cfg.Features.EdgeThreshold,
		Sigma:             cfg.Features.Sigma,
	})

	decodeCache, err := template.NewDecodeCache(256)
	if err != nil {
		slog.Error("create template decode cache", "error", err)
		os.Exit(1)
	}

	idx := index.New(store, cond, detector, cfg.Matcher, cfg.Worker, decodeCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := idx.Build(ctx); err != nil {
		// A failed initial build is logged, not fatal: the service comes up
		// and serves /health and /params immediately, while reload_index or
		// the next sync_employee call can populate the population later.
		slog.Error("initial employee index build failed — serving with an empty index", "error", err)
	}
	observability.IndexEmployees.Set(float64(idx.EmployeeCount()))

	deps := handlers.Deps{
		Index:       idx,
		Conditioner: cond,
		Detector:    detector,
		DecodeCache: decodeCache,
		MatcherCfg:  cfg.Matcher,
		FeaturesCfg: cfg.Features,
		StartedAt:   time.Now(),
	}

	router := api.NewRouter(api.RouterConfig{
		APIKey: cfg.Server.APIKey,
		Deps:   deps,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
