package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"db-ops-toolkit/internal/metrics"
	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/store"
)

// MaxDeleteMinutes caps the bulk delete window. Anything wider has to be done by hand.
const MaxDeleteMinutes = 60

var (
	ErrWindowTooLarge    = errors.New("delete window too large")
	ErrWindowNotPositive = errors.New("minutes must be positive")
)

// CleanupService removes recently created rows from every table, dependents first.
type CleanupService struct {
	schema SchemaLoader
	store  store.Store
	now    func() time.Time
}

func NewCleanupService(loader SchemaLoader, st store.Store) *CleanupService {
	return &CleanupService{schema: loader, store: st, now: time.Now}
}

func ValidateWindow(minutes int) error {
	if minutes > MaxDeleteMinutes {
		return fmt.Errorf("%w: %d > %d min, do it manually to avoid accidents", ErrWindowTooLarge, minutes, MaxDeleteMinutes)
	}
	if minutes <= 0 {
		return ErrWindowNotPositive
	}
	return nil
}

// Plan computes the cutoff and table order without touching the store.
func (s *CleanupService) Plan(ctx context.Context, minutes int) (*models.DeleteReport, error) {
	if err := ValidateWindow(minutes); err != nil {
		return nil, err
	}

	sch, err := loadTables(ctx, s.schema)
	if err != nil {
		return nil, err
	}

	ord := sch.Deletion()
	if ord.Fallback {
		metrics.OrderingFallbacks.WithLabelValues("delete").Inc()
		slog.Warn("circular foreign keys, deletion order is best effort", "tables", ord.Unresolved)
	}

	return &models.DeleteReport{
		Cutoff:   s.now().UTC().Add(-time.Duration(minutes) * time.Minute).Truncate(time.Second),
		Minutes:  minutes,
		Order:    ord.Order,
		Fallback: ord.Fallback,
		DryRun:   true,
		Results:  []models.DeleteResult{},
	}, nil
}

// DeleteRecent deletes rows created within the last minutes, table by table in
// deletion order. It stops at the first failure and returns what was done so far.
func (s *CleanupService) DeleteRecent(ctx context.Context, minutes int) (*models.DeleteReport, error) {
	report, err := s.Plan(ctx, minutes)
	if err != nil {
		return nil, err
	}
	report.DryRun = false

	slog.Info("deleting recent rows", "cutoff", store.CutoffParam(report.Cutoff), "minutes", minutes)

	for _, table := range report.Order {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n, err := s.store.DeleteCreatedSince(ctx, table, report.Cutoff)
		if err != nil {
			return report, fmt.Errorf("delete from %s: %w", table, err)
		}

		report.Results = append(report.Results, models.DeleteResult{TableName: table, Deleted: n})
		metrics.RowsDeleted.WithLabelValues(table).Add(float64(n))
		slog.Debug("table cleaned", "table", table, "deleted", n)
	}

	return report, nil
}
