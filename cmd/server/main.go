package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/spinebank/internal/api"
	"github.com/dgallion1/spinebank/internal/config"
	"github.com/dgallion1/spinebank/internal/headrules"
	"github.com/dgallion1/spinebank/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rules, err := headrules.Load(cfg.HeadRulesPath)
	if err != nil {
		log.Error("load head rules", "path", cfg.HeadRulesPath, "error", err)
		os.Exit(1)
	}
	log.Info("head rules loaded", "path", cfg.HeadRulesPath, "labels", rules.Len())

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, rules, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := shutdown(shutdownCtx, httpServer, orch); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("starting spinebank", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// shutdown drains HTTP requests before the job queue closes, so no handler
// submits to a stopped orchestrator.
func shutdown(ctx context.Context, srv interface{ Shutdown(context.Context) error }, orch interface{ Stop() }) error {
	err := srv.Shutdown(ctx)
	orch.Stop()
	return err
}
