package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBackup(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestRestore_ParentsFirst(t *testing.T) {
	dir := writeBackup(t, map[string]string{
		"orders.csv":      "id,customer_id\n1,1\n",
		"customers.csv":   "id\n1\n2\n",
		"order_items.csv": "order_id\n1\n",
	})

	st := newFakeStore()
	svc := NewRestoreService(parsed(testSchema), st)
	results, err := svc.Restore(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"customers", "orders", "order_items"}, st.callsFor("import"))
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Inserted)
	assert.Equal(t, 1, results[1].Inserted)
	assert.Equal(t, "id\n1\n2\n", st.imported["customers"])
}

func TestRestore_SkipsMissingFiles(t *testing.T) {
	dir := writeBackup(t, map[string]string{
		"customers.csv": "id\n1\n",
	})

	st := newFakeStore()
	results, err := NewRestoreService(parsed(testSchema), st).Restore(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"customers"}, st.callsFor("import"))
	require.Len(t, results, 3)
	assert.False(t, results[0].Skipped)
	assert.True(t, results[1].Skipped)
	assert.True(t, results[2].Skipped)
}

func TestRestore_StopsOnImportError(t *testing.T) {
	dir := writeBackup(t, map[string]string{
		"orders.csv":    "id\n1\n",
		"customers.csv": "id\n1\n",
	})

	st := newFakeStore()
	st.fail["orders"] = errBoom
	results, err := NewRestoreService(parsed(testSchema), st).Restore(context.Background(), dir)
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, results, 1)
}

func TestRestore_MissingDirectory(t *testing.T) {
	_, err := NewRestoreService(parsed(testSchema), newFakeStore()).
		Restore(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRestore_SkipsHeaderOnlyFiles(t *testing.T) {
	dir := writeBackup(t, map[string]string{
		"customers.csv":   "id\n1\n",
		"orders.csv":      "id,customer_id\n",
		"order_items.csv": "",
	})

	st := newFakeStore()
	results, err := NewRestoreService(parsed(testSchema), st).Restore(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"customers"}, st.callsFor("import"))
	require.Len(t, results, 3)
	assert.True(t, results[1].Skipped)
	assert.True(t, results[2].Skipped)
}
