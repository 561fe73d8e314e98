package models

import "time"

// TableStatus is one row of the status report. RowCount is nil when the
// store did not report a total.
type TableStatus struct {
	TableName string     `json:"table_name"`
	RowCount  *int64     `json:"row_count"`
	LatestAt  *time.Time `json:"latest_created_at"`
}

type BackupEntry struct {
	Table string `json:"table" yaml:"table"`
	Rows  int    `json:"rows" yaml:"rows"`
	File  string `json:"file" yaml:"file"`
}

type BackupManifest struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Dir       string        `json:"dir" yaml:"-"`
	Tables    []BackupEntry `json:"tables" yaml:"tables"`
}

func (m *BackupManifest) TotalRows() int {
	total := 0
	for _, e := range m.Tables {
		total += e.Rows
	}
	return total
}

type DeleteResult struct {
	TableName string `json:"table_name"`
	Deleted   int    `json:"deleted"`
}

type DeleteReport struct {
	Cutoff   time.Time      `json:"cutoff"`
	Minutes  int            `json:"minutes"`
	Order    []string       `json:"order"`
	Fallback bool           `json:"fallback"`
	DryRun   bool           `json:"dry_run"`
	Results  []DeleteResult `json:"results"`
}

type RestoreResult struct {
	TableName string `json:"table_name"`
	Inserted  int    `json:"inserted"`
	Skipped   bool   `json:"skipped,omitempty"`
}

type SchedulerStatus struct {
	IsRunning  bool            `json:"isRunning"`
	Schedule   string          `json:"schedule"`
	LastRun    string          `json:"lastRun,omitempty"`
	NextRun    string          `json:"nextRun,omitempty"`
	LastError  string          `json:"lastError,omitempty"`
	LastBackup *BackupManifest `json:"lastBackup,omitempty"`
}
