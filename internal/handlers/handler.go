package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/services"
)

type StatusReporter interface {
	Status(ctx context.Context) ([]models.TableStatus, error)
}

type BackupScheduler interface {
	Start() error
	Stop() error
	RunNow(ctx context.Context) (*models.BackupManifest, error)
	Status() models.SchedulerStatus
}

// Handler holds service dependencies
type Handler struct {
	schema    services.SchemaLoader
	status    StatusReporter
	scheduler BackupScheduler
}

func NewHandler(loader services.SchemaLoader, status StatusReporter, scheduler BackupScheduler) *Handler {
	return &Handler{
		schema:    loader,
		status:    status,
		scheduler: scheduler,
	}
}

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type TableInfo struct {
	TableName string   `json:"table_name"`
	DependsOn []string `json:"depends_on"`
}

const noTablesMessage = "No tables found in schema"

func (h *Handler) TablesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sch, err := h.schema.Load(r.Context())
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	tables := make([]TableInfo, 0, sch.Len())
	for _, name := range sch.TableList() {
		tables = append(tables, TableInfo{TableName: name, DependsOn: sch.Dependencies(name)})
	}

	message := ""
	if len(tables) == 0 {
		message = noTablesMessage
	}
	sendSuccessResponse(w, message, tables)
}

// OrderHandler returns the deletion order, or the restore order with ?direction=restore.
func (h *Handler) OrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restore := false
	switch r.URL.Query().Get("direction") {
	case "", "delete":
	case "restore":
		restore = true
	default:
		sendErrorResponse(w, "direction must be delete or restore", http.StatusBadRequest)
		return
	}

	sch, err := h.schema.Load(r.Context())
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := services.OrderReport(sch, restore)
	message := ""
	switch {
	case sch.Len() == 0:
		message = noTablesMessage
	case report.Fallback:
		message = "Circular foreign keys detected, order is best effort"
	}
	sendSuccessResponse(w, message, report)
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := h.status.Status(r.Context())
	if errors.Is(err, services.ErrNoTables) {
		sendSuccessResponse(w, noTablesMessage, []models.TableStatus{})
		return
	}
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadGateway)
		return
	}

	sendSuccessResponse(w, "", rows)
}

func (h *Handler) RunBackupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	manifest, err := h.scheduler.RunNow(r.Context())
	switch {
	case errors.Is(err, services.ErrNoTables):
		sendSuccessResponse(w, noTablesMessage, nil)
	case errors.Is(err, services.ErrBackupInProgress):
		sendErrorResponse(w, err.Error(), http.StatusConflict)
	case err != nil:
		sendErrorResponse(w, err.Error(), http.StatusBadGateway)
	default:
		sendSuccessResponse(w, "Backup completed", manifest)
	}
}

func (h *Handler) StartSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.scheduler.Start(); err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	sendSuccessResponse(w, "Backup scheduler started", h.scheduler.Status())
}

func (h *Handler) StopSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.scheduler.Stop(); err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	sendSuccessResponse(w, "Backup scheduler stopped", nil)
}

func (h *Handler) SchedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sendSuccessResponse(w, "", h.scheduler.Status())
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	sendSuccessResponse(w, "Service is running", nil)
}

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":          "GET /health",
		"tables":          "GET /api/schema/tables",
		"order":           "GET /api/schema/order?direction=delete|restore",
		"status":          "GET /api/status",
		"runBackup":       "POST /api/backup/run",
		"startScheduler":  "POST /api/backup/start",
		"stopScheduler":   "POST /api/backup/stop",
		"schedulerStatus": "GET /api/backup/status",
		"metrics":         "GET /metrics",
	}

	response := Response{
		Success: true,
		Message: "Database maintenance service",
		Data:    map[string]interface{}{"endpoints": endpoints},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	response := Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
