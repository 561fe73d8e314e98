package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// REST talks to a PostgREST endpoint such as the one a hosted Supabase
// project exposes under /rest/v1.
type REST struct {
	base    string
	key     string
	client  *http.Client
	limiter *rate.Limiter
}

type RESTOption func(*REST)

func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.client = c }
}

// WithRateLimit caps requests per second; zero or less disables the cap.
func WithRateLimit(perSecond float64) RESTOption {
	return func(r *REST) {
		if perSecond <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func NewREST(projectURL, key string, opts ...RESTOption) *REST {
	r := &REST{
		base:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		key:     key,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *REST) ExportCSV(ctx context.Context, table string) (string, error) {
	body, _, err := r.do(ctx, http.MethodGet, table, nil, map[string]string{
		"Accept": "text/csv",
	}, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (r *REST) CountRows(ctx context.Context, table string) (int64, error) {
	q := url.Values{"select": {"*"}, "limit": {"0"}}
	_, header, err := r.do(ctx, http.MethodGet, table, q, map[string]string{
		"Prefer": "count=exact",
	}, nil)
	if err != nil {
		return 0, err
	}
	return parseContentRange(header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-24/3573" or "*/0".
func parseContentRange(v string) (int64, error) {
	i := strings.LastIndex(v, "/")
	if i < 0 {
		return 0, ErrCountUnknown
	}
	total := v[i+1:]
	if total == "*" {
		return 0, ErrCountUnknown
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, ErrCountUnknown
	}
	return n, nil
}

func (r *REST) LatestCreatedAt(ctx context.Context, table string) (time.Time, bool, error) {
	q := url.Values{
		"select": {"created_at"},
		"order":  {"created_at.desc"},
		"limit":  {"1"},
	}
	body, _, err := r.do(ctx, http.MethodGet, table, q, nil, nil)
	if err != nil {
		return time.Time{}, false, err
	}

	var rows []struct {
		CreatedAt *string `json:"created_at"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return time.Time{}, false, fmt.Errorf("decode latest row of %s: %w", table, err)
	}
	if len(rows) == 0 || rows[0].CreatedAt == nil {
		return time.Time{}, false, nil
	}

	t, err := parseTimestamp(*rows[0].CreatedAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse created_at of %s: %w", table, err)
	}
	return t, true, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(v string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func (r *REST) DeleteCreatedSince(ctx context.Context, table string, cutoff time.Time) (int, error) {
	q := url.Values{"created_at": {"gte." + CutoffParam(cutoff)}}
	body, _, err := r.do(ctx, http.MethodDelete, table, q, map[string]string{
		"Prefer": "return=representation",
	}, nil)
	if err != nil {
		return 0, err
	}

	var deleted []json.RawMessage
	if err := json.Unmarshal(body, &deleted); err != nil {
		return 0, fmt.Errorf("decode deleted rows of %s: %w", table, err)
	}
	return len(deleted), nil
}

func (r *REST) ImportCSV(ctx context.Context, table, data string) (int, error) {
	n := CountCSVRecords(data)
	if n == 0 {
		return 0, nil
	}
	_, _, err := r.do(ctx, http.MethodPost, table, nil, map[string]string{
		"Content-Type": "text/csv",
		"Prefer":       "return=minimal",
	}, strings.NewReader(data))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *REST) do(ctx context.Context, method, table string, query url.Values, headers map[string]string, body io.Reader) ([]byte, http.Header, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	endpoint := r.base + "/" + url.PathEscape(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	slog.Debug("store request", "method", method, "table", table, "query", query.Encode())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s response: %w", table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &APIError{
			Method:     method,
			Table:      table,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return data, resp.Header, nil
}
