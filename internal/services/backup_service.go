package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"db-ops-toolkit/internal/metrics"
	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/store"
)

const (
	backupDirLayout  = "2006-01-02_150405"
	ManifestFileName = "manifest.yaml"
)

// BackupService exports every table to CSV under a timestamped directory.
type BackupService struct {
	schema      SchemaLoader
	store       store.Store
	dir         string
	concurrency int
	now         func() time.Time
}

func NewBackupService(loader SchemaLoader, st store.Store, dir string, concurrency int) *BackupService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BackupService{
		schema:      loader,
		store:       st,
		dir:         dir,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (s *BackupService) Backup(ctx context.Context) (*models.BackupManifest, error) {
	start := s.now()

	sch, err := loadTables(ctx, s.schema)
	if errors.Is(err, ErrNoTables) {
		metrics.BackupRuns.WithLabelValues("empty").Inc()
		return nil, err
	}
	if err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	manifest, err := s.export(ctx, sch.TableList(), start)
	if err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.BackupRuns.WithLabelValues("success").Inc()
	metrics.BackupDuration.Observe(s.now().Sub(start).Seconds())
	return manifest, nil
}

func (s *BackupService) export(ctx context.Context, tables []string, start time.Time) (*models.BackupManifest, error) {
	backupDir := filepath.Join(s.dir, start.Format(backupDirLayout))
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	slog.Info("starting backup", "dir", backupDir, "tables", len(tables))

	entries := make([]models.BackupEntry, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, table := range tables {
		g.Go(func() error {
			data, err := s.store.ExportCSV(gctx, table)
			if err != nil {
				return fmt.Errorf("export %s: %w", table, err)
			}

			file := table + ".csv"
			if err := os.WriteFile(filepath.Join(backupDir, file), []byte(data), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}

			rows := store.CountCSVRecords(data)
			entries[i] = models.BackupEntry{Table: table, Rows: rows, File: file}
			metrics.RowsExported.WithLabelValues(table).Add(float64(rows))
			slog.Info("table exported", "table", table, "rows", rows)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest := &models.BackupManifest{
		RunID:     uuid.NewString(),
		CreatedAt: start.UTC(),
		Dir:       backupDir,
		Tables:    entries,
	}

	out, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, ManifestFileName), out, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	slog.Info("backup completed", "dir", backupDir, "run_id", manifest.RunID, "rows", manifest.TotalRows())
	return manifest, nil
}

// ReadManifest loads the manifest written by Backup, if the directory has one.
func ReadManifest(dir string) (*models.BackupManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, err
	}

	var m models.BackupManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	m.Dir = dir
	return &m, nil
}
