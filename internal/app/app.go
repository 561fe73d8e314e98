package app

import (
	"database/sql"
	"fmt"
	"net/http"

	"db-ops-toolkit/internal/config"
	"db-ops-toolkit/internal/services"
	"db-ops-toolkit/internal/store"
)

type Application struct {
	Config         *config.AppConfig
	DB             *sql.DB
	Store          store.Store
	SchemaService  *services.SchemaService
	BackupService  *services.BackupService
	StatusService  *services.StatusService
	CleanupService *services.CleanupService
	RestoreService *services.RestoreService
	Scheduler      *services.Scheduler
}

// NewApplication wires the services around st. db is only needed for the
// sql backend and may be nil otherwise.
func NewApplication(cfg *config.AppConfig, db *sql.DB, st store.Store) *Application {
	app := &Application{
		Config: cfg,
		DB:     db,
		Store:  st,
	}

	if cfg.Schema.Source == "database" && db != nil {
		app.SchemaService = services.NewCatalogSchemaService(db)
	} else {
		app.SchemaService = services.NewSchemaService(cfg.Schema.Path)
	}

	app.BackupService = services.NewBackupService(app.SchemaService, st, cfg.Backup.Dir, cfg.Store.Concurrency)
	app.StatusService = services.NewStatusService(app.SchemaService, st, cfg.Store.Concurrency)
	app.CleanupService = services.NewCleanupService(app.SchemaService, st)
	app.RestoreService = services.NewRestoreService(app.SchemaService, st)
	app.Scheduler = services.NewScheduler(app.BackupService, cfg.Backup.Schedule, cfg.Backup.RunOnStart)

	return app
}

// NewStore opens the backend selected by STORE_BACKEND. The returned *sql.DB
// is nil for the rest backend.
func NewStore(cfg *config.AppConfig) (store.Store, *sql.DB, error) {
	switch cfg.Store.Backend {
	case "rest":
		client := &http.Client{Timeout: cfg.Store.Timeout}
		return store.NewREST(cfg.Store.URL, cfg.Store.Key,
			store.WithHTTPClient(client),
			store.WithRateLimit(cfg.Store.RateLimit),
		), nil, nil
	case "sql":
		db, err := config.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQL(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func (app *Application) Close() {
	if app.Scheduler != nil && app.Scheduler.IsRunning() {
		app.Scheduler.Stop()
	}

	if app.DB != nil {
		app.DB.Close()
	}
}
