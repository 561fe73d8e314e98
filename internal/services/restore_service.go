package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"db-ops-toolkit/internal/metrics"
	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/store"
)

// RestoreService loads a backup directory back into the store, referenced
// tables before the tables that point at them.
type RestoreService struct {
	schema SchemaLoader
	store  store.Store
}

func NewRestoreService(loader SchemaLoader, st store.Store) *RestoreService {
	return &RestoreService{schema: loader, store: st}
}

func (s *RestoreService) Restore(ctx context.Context, dir string) ([]models.RestoreResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backup %s is not a directory", dir)
	}

	sch, err := loadTables(ctx, s.schema)
	if err != nil {
		return nil, err
	}

	ord := sch.Restore()
	if ord.Fallback {
		metrics.OrderingFallbacks.WithLabelValues("restore").Inc()
		slog.Warn("circular foreign keys, restore order is best effort", "tables", ord.Unresolved)
	}

	results := make([]models.RestoreResult, 0, len(ord.Order))
	for _, table := range ord.Order {
		data, err := os.ReadFile(filepath.Join(dir, table+".csv"))
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("no backup file for table, skipping", "table", table)
			results = append(results, models.RestoreResult{TableName: table, Skipped: true})
			continue
		}
		if err != nil {
			return results, fmt.Errorf("read %s backup: %w", table, err)
		}

		if store.CountCSVRecords(string(data)) == 0 {
			slog.Debug("backup file has no rows, skipping", "table", table)
			results = append(results, models.RestoreResult{TableName: table, Skipped: true})
			continue
		}

		n, err := s.store.ImportCSV(ctx, table, string(data))
		if err != nil {
			return results, fmt.Errorf("import %s: %w", table, err)
		}

		results = append(results, models.RestoreResult{TableName: table, Inserted: n})
		metrics.RowsRestored.WithLabelValues(table).Add(float64(n))
		slog.Info("table restored", "table", table, "rows", n)
	}

	return results, nil
}
