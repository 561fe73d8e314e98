package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-ops-toolkit/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2025, 5, 6, 12, 30, 45, 987654321, time.UTC)
}

func TestValidateWindow(t *testing.T) {
	assert.NoError(t, ValidateWindow(1))
	assert.NoError(t, ValidateWindow(MaxDeleteMinutes))
	assert.ErrorIs(t, ValidateWindow(MaxDeleteMinutes+1), ErrWindowTooLarge)
	assert.ErrorIs(t, ValidateWindow(0), ErrWindowNotPositive)
	assert.ErrorIs(t, ValidateWindow(-5), ErrWindowNotPositive)
}

func TestCleanup_RefusesWithoutTouchingStore(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed(testSchema), st)

	_, err := svc.DeleteRecent(context.Background(), 61)
	assert.ErrorIs(t, err, ErrWindowTooLarge)
	_, err = svc.DeleteRecent(context.Background(), 0)
	assert.ErrorIs(t, err, ErrWindowNotPositive)

	assert.Empty(t, st.calls)
}

func TestCleanup_DeletesChildrenFirst(t *testing.T) {
	st := newFakeStore()
	st.deleted["orders"] = 2
	st.deleted["order_items"] = 5

	svc := NewCleanupService(parsed(testSchema), st)
	svc.now = fixedNow

	report, err := svc.DeleteRecent(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"order_items", "orders", "customers"}, st.callsFor("delete"))
	assert.Equal(t, []string{"order_items", "orders", "customers"}, report.Order)
	assert.False(t, report.DryRun)
	assert.False(t, report.Fallback)
	assert.Equal(t, time.Date(2025, 5, 6, 12, 20, 45, 0, time.UTC), report.Cutoff)

	require.Len(t, report.Results, 3)
	assert.Equal(t, 5, report.Results[0].Deleted)
	assert.Equal(t, 2, report.Results[1].Deleted)
	assert.Equal(t, 0, report.Results[2].Deleted)

	for _, c := range st.cutoffs {
		assert.Equal(t, report.Cutoff, c)
	}
}

func TestCleanup_StopsAtFirstFailure(t *testing.T) {
	st := newFakeStore()
	st.deleted["order_items"] = 1
	st.fail["orders"] = apiError("orders")

	svc := NewCleanupService(parsed(testSchema), st)
	report, err := svc.DeleteRecent(context.Background(), 5)

	var apiErr *store.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "delete from orders")
	require.NotNil(t, report)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "order_items", report.Results[0].TableName)
	assert.Equal(t, []string{"order_items", "orders"}, st.callsFor("delete"))
}

func TestCleanup_PlanIsDryRun(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed(testSchema), st)
	svc.now = fixedNow

	report, err := svc.Plan(context.Background(), 60)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, []string{"order_items", "orders", "customers"}, report.Order)
	assert.Equal(t, time.Date(2025, 5, 6, 11, 30, 45, 0, time.UTC), report.Cutoff)
	assert.Empty(t, st.calls)
}

func TestCleanup_CycleFallback(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed(`
CREATE TABLE IF NOT EXISTS a (b_id int REFERENCES b);
CREATE TABLE IF NOT EXISTS b (a_id int REFERENCES a);`), st)

	report, err := svc.DeleteRecent(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.Fallback)
	assert.ElementsMatch(t, []string{"a", "b"}, st.callsFor("delete"))
}

func TestCleanup_CycleDeletedBeforeItsParents(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed(`
CREATE TABLE IF NOT EXISTS r (id int);
CREATE TABLE IF NOT EXISTS p (r_id int REFERENCES r);
CREATE TABLE IF NOT EXISTS a (p_id int REFERENCES p, b_id int REFERENCES b);
CREATE TABLE IF NOT EXISTS b (a_id int REFERENCES a);`), st)

	report, err := svc.DeleteRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, report.Fallback)
	assert.Equal(t, []string{"b", "a", "p", "r"}, st.callsFor("delete"))
}

func TestCleanup_EmptySchema(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed("-- nothing"), st)

	_, err := svc.DeleteRecent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoTables)
	assert.Empty(t, st.calls)
}

func TestCleanup_CancelledContext(t *testing.T) {
	st := newFakeStore()
	svc := NewCleanupService(parsed(testSchema), st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.DeleteRecent(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.Empty(t, st.callsFor("delete"))
}
