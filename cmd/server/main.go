package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"db-ops-toolkit/internal/app"
	"db-ops-toolkit/internal/config"
	"db-ops-toolkit/internal/handlers"
	"db-ops-toolkit/internal/middleware"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.InitLogger(os.Stderr, cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "port", cfg.Server.Port, "backend", cfg.Store.Backend, "schema", cfg.Schema.Path)

	st, db, err := app.NewStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	// Create application instance with dependency injection
	application := app.NewApplication(cfg, db, st)
	defer application.Close()

	handler := handlers.NewHandler(application.SchemaService, application.StatusService, application.Scheduler)

	mux := http.NewServeMux()
	mux.HandleFunc("/", middleware.CORS(handler.RootHandler))
	mux.HandleFunc("/health", middleware.CORS(handler.HealthHandler))
	mux.HandleFunc("/api/schema/tables", middleware.CORS(handler.TablesHandler))
	mux.HandleFunc("/api/schema/order", middleware.CORS(handler.OrderHandler))
	mux.HandleFunc("/api/status", middleware.CORS(handler.StatusHandler))
	mux.HandleFunc("/api/backup/run", middleware.CORS(handler.RunBackupHandler))
	mux.HandleFunc("/api/backup/start", middleware.CORS(handler.StartSchedulerHandler))
	mux.HandleFunc("/api/backup/stop", middleware.CORS(handler.StopSchedulerHandler))
	mux.HandleFunc("/api/backup/status", middleware.CORS(handler.SchedulerStatusHandler))
	mux.Handle("/metrics", promhttp.Handler())

	if err := application.Scheduler.Start(); err != nil {
		slog.Warn("backup scheduler not started", "schedule", cfg.Backup.Schedule, "error", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
