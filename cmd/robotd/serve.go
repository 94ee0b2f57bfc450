package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhavanagoud111/The-Robot-driver/internal/api"
	"github.com/bhavanagoud111/The-Robot-driver/internal/artifact"
	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/config"
	"github.com/bhavanagoud111/The-Robot-driver/internal/engine"
	"github.com/bhavanagoud111/The-Robot-driver/internal/idempotency"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the robotd HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := task.NewStore(cfg.TaskRetention)
	go store.RunSweeper(ctx, cfg.RetentionSweep)

	var enricher plan.Enricher = plan.NoopEnricher{}
	if cfg.EnricherURL != "" {
		enricher = &plan.EndpointEnricher{
			EndpointURL: cfg.EnricherURL,
			AuthToken:   cfg.EnricherToken,
			Model:       cfg.EnricherModel,
			Timeout:     cfg.EnricherTimeout,
		}
		log.Printf("plan enrichment enabled endpoint=%s", cfg.EnricherURL)
	}

	opts := api.Options{
		AuthToken:          cfg.AuthToken,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		IdempotencyLockTTL: cfg.IdempotencyLockTTL,
	}
	var artifacts artifact.Store = artifact.Disabled{}
	if cfg.ArtifactsEnabled {
		local, err := artifact.NewLocalStore(cfg.ArtifactDir, cfg.ArtifactBaseURL)
		if err != nil {
			return err
		}
		artifacts = local
		opts.ArtifactBaseURL = local.BaseURL()
		opts.ArtifactHandler = local.Handler()
	}

	eng := engine.New(store, browser.NewCDPDriver(cfg.CDPBaseURL), cat, enricher, artifacts, engine.Config{
		QueueSize:   cfg.TaskQueueSize,
		Workers:     cfg.TaskWorkers,
		TaskTimeout: cfg.TaskTimeout,
		StepBudget:  cfg.StepBudget,
		StealthMode: cfg.StealthMode,
	}, log.Default())
	eng.Start(ctx)

	server := api.NewServer(eng, idempotency.NewStore(), opts)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("robotd listening on %s workers=%d queue=%d cdp=%s", cfg.HTTPAddr, cfg.TaskWorkers, cfg.TaskQueueSize, cfg.CDPBaseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
