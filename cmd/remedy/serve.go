package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/remedy/pkg/api"
	"github.com/codeready-toolchain/remedy/pkg/cleanup"
	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/events"
	"github.com/codeready-toolchain/remedy/pkg/masking"
	"github.com/codeready-toolchain/remedy/pkg/metrics"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/queue"
	"github.com/codeready-toolchain/remedy/pkg/services"
	"github.com/codeready-toolchain/remedy/pkg/slack"
	"github.com/codeready-toolchain/remedy/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestrator server",
	Long: `Starts the HTTP intake API, the session worker pool, the event stream,
and the retention cleanup loop. Blocks until SIGTERM or SIGINT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, _ := cmd.Flags().GetString("config-dir")
		return serve(configDir)
	},
}

func init() {
	serveCmd.Flags().String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
}

func serve(configDir string) error {
	loadDotEnv(configDir)

	httpPort := getEnv("HTTP_PORT", "8080")
	podID := resolvePodID()

	slog.Info("Starting remedy",
		"version", version.Full(),
		"http_port", httpPort,
		"pod_id", podID,
		"config_dir", configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		return err
	}

	// 2. Initialize database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		return err
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	sessionStore := database.NewSessionStore(dbClient.DB())
	eventStore := database.NewEventStore(dbClient.DB())

	// 3. One-time startup recovery of sessions this pod abandoned last run
	if err := queue.CleanupStartupOrphans(ctx, sessionStore, podID, cfg.Queue.MaxRequeues); err != nil {
		slog.Error("Failed to recover startup orphans", "error", err)
		// Non-fatal — the periodic orphan scan catches leftovers
	}

	// 4. Masking, metrics, and domain services
	maskingService := masking.NewService(cfg.Masking)
	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(registry)

	// 5. Event streaming (publisher, LISTEN connection, WebSocket manager)
	eventPublisher := events.NewEventPublisher(dbClient.DB())
	connManager := events.NewConnectionManager(events.NewStoreCatchupQuerier(eventStore), 10*time.Second)

	notifyListener := events.NewNotifyListener(dbConfig.DSN(), connManager)
	if err := notifyListener.Start(ctx); err != nil {
		slog.Error("Failed to start NOTIFY listener", "error", err)
		return err
	}
	defer notifyListener.Stop(ctx)

	connManager.SetListener(notifyListener)
	slog.Info("Event streaming initialized")

	// 6. Workflow collaborators and the session executor
	runner := metrics.InstrumentRunner(oc.ExecRunner{}, pipelineMetrics)
	collabs := buildCollaborators(cfg, runner)

	executor := queue.NewWorkflowExecutor(queue.ExecutorDeps{
		Store:             sessionStore,
		Publisher:         eventPublisher,
		Runner:            runner,
		Investigator:      collabs.investigator,
		Verifier:          collabs.verifier,
		Reporter:          collabs.reporter,
		MaxTools:          cfg.Budget.MaxTools,
		Timeouts:          workflowTimeouts(cfg.Timeouts),
		MaxRetries:        cfg.Workflow.MaxRetries,
		ResetStateOnRetry: cfg.Workflow.ResetStateOnRetry,
		Sanitize:          maskingService.MaskCommandOutput,
		Metrics:           pipelineMetrics,
	})

	// 7. Slack notifications (nil service when unconfigured)
	var slackService *slack.Service
	if cfg.Slack.Enabled {
		slackService = slack.NewService(slack.ServiceConfig{
			Token:        os.Getenv(cfg.Slack.TokenEnv),
			Channel:      cfg.Slack.Channel,
			DashboardURL: cfg.DashboardURL,
		})
		if slackService == nil {
			slog.Warn("Slack enabled but token or channel missing, notifications disabled")
		}
	}

	// 8. Start worker pool (before HTTP server, so claimed work resumes first)
	workerPool := queue.NewWorkerPool(podID, sessionStore, cfg.Queue, executor, queue.PoolOptions{
		Events:       eventStore,
		Publisher:    eventPublisher,
		SlackService: slackService,
		Metrics:      pipelineMetrics,
	})
	if err := workerPool.Start(ctx); err != nil {
		slog.Error("Failed to start worker pool", "error", err)
		return err
	}

	// 9. Retention cleanup loop
	cleanupService := cleanup.NewService(cfg.Cleanup, sessionStore, eventStore)
	cleanupService.Start(ctx)

	// 10. HTTP server
	alertService := services.NewAlertService(sessionStore, eventPublisher, maskingService)
	sessionService := services.NewSessionService(sessionStore, workerPool, eventPublisher)

	httpServer := api.NewServer(cfg, dbClient, alertService, sessionService, workerPool, connManager)
	httpServer.SetMetricsRegistry(registry)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Remedy started successfully",
		"pod_id", podID,
		"workers", cfg.Queue.WorkerCount)

	// 11. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 12. Graceful shutdown: drain workers bounded by the session timeout
	drainCtx, drainCancel := context.WithTimeout(ctx, cfg.Queue.SessionTimeout())
	defer drainCancel()

	done := make(chan struct{})
	go func() {
		workerPool.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker pool stopped gracefully")
	case <-drainCtx.Done():
		slog.Warn("Shutdown timeout exceeded — incomplete sessions will be orphan-recovered")
	}

	cleanupService.Stop()

	// Stop HTTP server with its own timeout budget
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
