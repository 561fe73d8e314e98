package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"db-ops-toolkit/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var ErrBackupInProgress = errors.New("backup already in progress")

// Backuper is the part of BackupService the scheduler drives.
type Backuper interface {
	Backup(ctx context.Context) (*models.BackupManifest, error)
}

// Scheduler runs backups on a cron schedule and remembers the last result.
type Scheduler struct {
	backup     Backuper
	schedule   string
	runOnStart bool

	mutex       sync.RWMutex
	runMutex    sync.Mutex
	cron        *cron.Cron
	isRunning   bool
	lastRunTime time.Time
	lastBackup  *models.BackupManifest
	lastErr     string
}

func NewScheduler(backup Backuper, schedule string, runOnStart bool) *Scheduler {
	return &Scheduler{
		backup:     backup,
		schedule:   schedule,
		runOnStart: runOnStart,
	}
}

// Start registers the backup job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler already running")
	}

	c := cron.New()
	entryID, err := c.AddFunc(s.schedule, func() {
		slog.Info("scheduled backup triggered")
		if _, err := s.RunNow(context.Background()); err != nil && !errors.Is(err, ErrBackupInProgress) {
			slog.Error("scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.Start()
	s.cron = c
	s.isRunning = true

	slog.Info("backup scheduler started", "schedule", s.schedule, "entry_id", entryID,
		"next_run", c.Entry(entryID).Next.Format(timeLayout))

	if s.runOnStart {
		go func() {
			slog.Info("running initial backup")
			if _, err := s.RunNow(context.Background()); err != nil && !errors.Is(err, ErrBackupInProgress) {
				slog.Error("initial backup failed", "error", err)
			}
		}()
	}

	return nil
}

// Stop halts the cron loop and waits for a running backup to finish.
func (s *Scheduler) Stop() error {
	s.mutex.Lock()
	if !s.isRunning {
		s.mutex.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	c := s.cron
	s.isRunning = false
	s.cron = nil
	s.mutex.Unlock()

	// The job takes the mutex itself, so wait outside it.
	<-c.Stop().Done()

	slog.Info("backup scheduler stopped")
	return nil
}

// RunNow performs a backup immediately. Only one backup runs at a time.
func (s *Scheduler) RunNow(ctx context.Context) (*models.BackupManifest, error) {
	if !s.runMutex.TryLock() {
		return nil, ErrBackupInProgress
	}
	defer s.runMutex.Unlock()

	s.mutex.Lock()
	s.lastRunTime = time.Now()
	s.mutex.Unlock()

	manifest, err := s.backup.Backup(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return nil, err
	}
	s.lastErr = ""
	s.lastBackup = manifest
	return manifest, nil
}

func (s *Scheduler) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

func (s *Scheduler) Status() models.SchedulerStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status := models.SchedulerStatus{
		IsRunning:  s.isRunning,
		Schedule:   s.schedule,
		LastError:  s.lastErr,
		LastBackup: s.lastBackup,
	}
	if !s.lastRunTime.IsZero() {
		status.LastRun = s.lastRunTime.Format(timeLayout)
	}
	if s.cron != nil {
		if entries := s.cron.Entries(); len(entries) > 0 {
			status.NextRun = entries[0].Next.Format(timeLayout)
		}
	}
	return status
}
