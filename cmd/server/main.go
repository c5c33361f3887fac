package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "fleet-backoffice/internal/api/http"
	"fleet-backoffice/internal/app"
	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/jobs"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/scheduler"
	"fleet-backoffice/internal/service"
	"fleet-backoffice/internal/webhook"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting fleet back-office API...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	journal, err := webhook.Open(cfg.Webhook.JournalPath)
	if err != nil {
		logger.Error("Failed to open webhook journal", "path", cfg.Webhook.JournalPath, "error", err)
		log.Fatalf("Failed to open webhook journal: %v", err)
	}
	defer journal.Close()
	if cfg.Webhook.Token == "" {
		logger.Warn("Webhook token not configured; gateway webhooks are not authenticated")
	}

	srv := httpapi.NewServer(&httpapi.Services{
		Auth:     a.Auth,
		Ledger:   a.Ledger,
		Fleet:    a.Fleet,
		Renter:   a.Renter,
		Export:   a.Export,
		Sweep:    a.Sweep,
		Webhook:  service.NewWebhookService(a.Gateway, journal, a.Settings),
		Report:   a.Report,
		Settings: a.Settings,
	}, a.Tokens, cfg.Webhook.Token)

	// The in-process scheduler is optional; cmd/cronjob runs it standalone
	if cfg.Scheduler.Enabled {
		runner := jobs.NewJobRunner(&jobs.Services{Export: a.Export}, cfg)
		cronScheduler, err := scheduler.NewScheduler(runner)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
