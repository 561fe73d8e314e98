package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// SQL implements Store directly on a database connection. Identifiers are
// quoted with backticks, which MySQL and SQLite both accept.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s *SQL) ExportCSV(ctx context.Context, table string) (string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", err
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	record := make([]string, len(columns))

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return "", err
		}
		for i, val := range values {
			record[i] = formatValue(val)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	w.Flush()
	return buf.String(), w.Error()
}

func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05.999999")
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

func (s *SQL) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (s *SQL) LatestCreatedAt(ctx context.Context, table string) (time.Time, bool, error) {
	query := fmt.Sprintf("SELECT `created_at` FROM %s ORDER BY `created_at` DESC LIMIT 1", quoteIdent(table))

	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, query).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read latest created_at of %s: %w", table, err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

func (s *SQL) DeleteCreatedSince(ctx context.Context, table string, cutoff time.Time) (int, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE `created_at` >= ?", quoteIdent(table))

	res, err := s.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ImportCSV inserts every record in one transaction. Empty fields become NULL.
func (s *SQL) ImportCSV(ctx context.Context, table, data string) (int, error) {
	r := csv.NewReader(strings.NewReader(data))
	header, err := r.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read header for %s: %w", table, err)
	}

	columns := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, col := range header {
		columns[i] = quoteIdent(col)
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	values := make([]interface{}, len(header))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s record %d: %w", table, inserted+1, err)
		}
		for i, field := range record {
			if field == "" {
				values[i] = nil
			} else {
				values[i] = field
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
