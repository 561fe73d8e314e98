package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// Store is the per-table access the maintenance tools need from the data store.
type Store interface {
	// ExportCSV returns the whole table as CSV with a header row.
	ExportCSV(ctx context.Context, table string) (string, error)
	// CountRows returns the number of rows, or ErrCountUnknown.
	CountRows(ctx context.Context, table string) (int64, error)
	// LatestCreatedAt returns the newest created_at value; ok is false for an empty table.
	LatestCreatedAt(ctx context.Context, table string) (latest time.Time, ok bool, err error)
	// DeleteCreatedSince removes rows with created_at >= cutoff and returns how many went.
	DeleteCreatedSince(ctx context.Context, table string, cutoff time.Time) (int, error)
	// ImportCSV inserts the rows of a CSV document with a header row.
	ImportCSV(ctx context.Context, table, data string) (int, error)
}

var ErrCountUnknown = errors.New("row count not reported")

// maxErrorBody caps how many bytes of a response body an APIError quotes.
const maxErrorBody = 200

// APIError is a non-2xx answer from the REST endpoint.
type APIError struct {
	Method     string
	Table      string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Table, e.StatusCode, body)
}

// CutoffParam formats a cutoff the way the created_at filters expect it.
func CutoffParam(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// CountCSVRecords counts data records, not lines, so quoted newlines are fine.
// The header is not counted; empty or malformed input counts as zero.
func CountCSVRecords(data string) int {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1

	n := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return max(0, n-1)
		}
		n++
	}
	return max(0, n-1)
}
