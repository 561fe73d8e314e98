package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"db-ops-toolkit/internal/schema"
	"db-ops-toolkit/internal/store"
)

type staticLoader struct {
	sch *schema.Schema
	err error
}

func (l staticLoader) Load(context.Context) (*schema.Schema, error) {
	return l.sch, l.err
}

func parsed(text string) staticLoader {
	return staticLoader{sch: schema.Parse(text)}
}

const testSchema = `
CREATE TABLE IF NOT EXISTS orders (
  id bigint PRIMARY KEY,
  customer_id bigint REFERENCES customers(id)
);
CREATE TABLE IF NOT EXISTS customers (id bigint PRIMARY KEY);
CREATE TABLE IF NOT EXISTS order_items (
  order_id bigint REFERENCES orders(id)
);
`

// fakeStore records calls and serves canned data per table.
type fakeStore struct {
	mu       sync.Mutex
	csv      map[string]string
	counts   map[string]int64
	latest   map[string]time.Time
	deleted  map[string]int
	fail     map[string]error
	calls    []string
	cutoffs  []time.Time
	imported map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		csv:      map[string]string{},
		counts:   map[string]int64{},
		latest:   map[string]time.Time{},
		deleted:  map[string]int{},
		fail:     map[string]error{},
		imported: map[string]string{},
	}
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) record(op, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+table)
	return f.fail[table]
}

func (f *fakeStore) callsFor(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, op+":") {
			out = append(out, strings.TrimPrefix(c, op+":"))
		}
	}
	return out
}

func (f *fakeStore) sortedCallsFor(op string) []string {
	out := f.callsFor(op)
	sort.Strings(out)
	return out
}

func (f *fakeStore) ExportCSV(_ context.Context, table string) (string, error) {
	if err := f.record("export", table); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if data, ok := f.csv[table]; ok {
		return data, nil
	}
	return "id\n", nil
}

func (f *fakeStore) CountRows(_ context.Context, table string) (int64, error) {
	if err := f.record("count", table); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.counts[table]
	if !ok {
		return 0, store.ErrCountUnknown
	}
	return n, nil
}

func (f *fakeStore) LatestCreatedAt(_ context.Context, table string) (time.Time, bool, error) {
	if err := f.record("latest", table); err != nil {
		return time.Time{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.latest[table]
	return t, ok, nil
}

func (f *fakeStore) DeleteCreatedSince(_ context.Context, table string, cutoff time.Time) (int, error) {
	if err := f.record("delete", table); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted[table], nil
}

func (f *fakeStore) ImportCSV(_ context.Context, table, data string) (int, error) {
	if err := f.record("import", table); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imported[table] = data
	return store.CountCSVRecords(data), nil
}

var errBoom = errors.New("boom")

func apiError(table string) error {
	return &store.APIError{Method: "DELETE", Table: table, StatusCode: 500, Body: fmt.Sprintf("%s failed", table)}
}
