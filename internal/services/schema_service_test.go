package services

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/schema"
)

func TestSchemaService_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))

	sch, err := NewSchemaService(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers", "order_items"}, sch.TableList())
}

func TestSchemaService_ReadsFreshEachTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE IF NOT EXISTS a (id int);"), 0o644))

	svc := NewSchemaService(path)
	first, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, first.TableList())

	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE IF NOT EXISTS b (id int);"), 0o644))
	second, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, second.TableList())
}

func TestSchemaService_MissingFile(t *testing.T) {
	_, err := NewSchemaService(filepath.Join(t.TempDir(), "missing.sql")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOrderReport(t *testing.T) {
	sch := schema.Parse(testSchema)

	del := OrderReport(sch, false)
	assert.Equal(t, "delete", del.Direction)
	assert.False(t, del.Fallback)
	require.Len(t, del.Tables, 3)
	assert.Equal(t, "order_items", del.Tables[0].TableName)
	assert.Equal(t, []string{"orders"}, del.Tables[0].DependsOn)
	assert.Equal(t, 2, del.Tables[2].Position)
	assert.Empty(t, del.Tables[2].DependsOn)

	res := OrderReport(sch, true)
	assert.Equal(t, "restore", res.Direction)
	assert.Equal(t, "customers", res.Tables[0].TableName)
}

func TestOrderReport_MarksUnresolved(t *testing.T) {
	sch := schema.New([]string{"a", "b", "c"}, map[string][]string{"a": {"b"}, "b": {"a"}})

	report := OrderReport(sch, false)
	assert.True(t, report.Fallback)
	assert.Equal(t, []string{"a", "b"}, report.Unresolved)

	byName := map[string]bool{}
	for _, tbl := range report.Tables {
		byName[tbl.TableName] = tbl.Unresolved
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": false}, byName)
}

type fakeCatalog struct {
	tables    []string
	tablesErr error
	fks       map[string][]models.ForeignKey
	fkErrs    map[string]error
}

func (c *fakeCatalog) GetAllTables(ctx context.Context) ([]string, error) {
	return c.tables, c.tablesErr
}

func (c *fakeCatalog) GetForeignKeys(ctx context.Context, tableName string) ([]models.ForeignKey, error) {
	if err := c.fkErrs[tableName]; err != nil {
		return nil, err
	}
	return c.fks[tableName], nil
}

func fk(table, column, parent string) models.ForeignKey {
	return models.ForeignKey{
		TableName:            table,
		ColumnName:           column,
		ReferencedTableName:  parent,
		ReferencedColumnName: "id",
		ConstraintName:       table + "_" + column + "_fk",
	}
}

func TestSchemaFromCatalog(t *testing.T) {
	cat := &fakeCatalog{
		tables: []string{"customers", "orders", "order_items"},
		fks: map[string][]models.ForeignKey{
			"orders":      {fk("orders", "customer_id", "customers")},
			"order_items": {fk("order_items", "order_id", "orders")},
		},
	}

	sch, err := schemaFromCatalog(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "order_items"}, sch.TableList())
	assert.Equal(t, []string{"customers"}, sch.Dependencies("orders"))
	assert.Equal(t, []string{"order_items", "orders", "customers"}, sch.DeletionOrder())
}

func TestSchemaFromCatalog_SelfReferenceKept(t *testing.T) {
	cat := &fakeCatalog{
		tables: []string{"departments", "employees"},
		fks: map[string][]models.ForeignKey{
			"employees": {
				fk("employees", "manager_id", "employees"),
				fk("employees", "department_id", "departments"),
			},
		},
	}

	sch, err := schemaFromCatalog(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"departments", "employees"}, sch.Dependencies("employees"))

	del := sch.Deletion()
	assert.False(t, del.Fallback)
	assert.Equal(t, []string{"employees", "departments"}, del.Order)
}

func TestSchemaFromCatalog_SkipsTableWhenForeignKeysFail(t *testing.T) {
	cat := &fakeCatalog{
		tables: []string{"customers", "orders", "audit"},
		fks: map[string][]models.ForeignKey{
			"orders": {fk("orders", "customer_id", "customers")},
			"audit":  {fk("audit", "order_id", "orders")},
		},
		fkErrs: map[string]error{"audit": errors.New("access denied")},
	}

	sch, err := schemaFromCatalog(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "audit"}, sch.TableList())
	assert.Empty(t, sch.Dependencies("audit"))
	assert.Equal(t, []string{"customers"}, sch.Dependencies("orders"))
}

func TestSchemaFromCatalog_TablesError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := schemaFromCatalog(context.Background(), &fakeCatalog{tablesErr: boom})
	assert.ErrorIs(t, err, boom)
}

var registerCatalogDriver sync.Once

// openCatalogDB returns a single-connection SQLite database with an attached
// information_schema and a DATABASE() function reporting "shop".
func openCatalogDB(t *testing.T) *sql.DB {
	t.Helper()
	registerCatalogDriver.Do(func() {
		sql.Register("sqlite3_catalog", &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("database", func() string { return "shop" }, true); err != nil {
					return err
				}
				_, err := conn.Exec("ATTACH DATABASE ':memory:' AS information_schema", nil)
				return err
			},
		})
	})

	db, err := sql.Open("sqlite3_catalog", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE information_schema.TABLES (
			TABLE_SCHEMA TEXT, TABLE_NAME TEXT, TABLE_TYPE TEXT, CREATE_TIME TEXT)`,
		`CREATE TABLE information_schema.KEY_COLUMN_USAGE (
			TABLE_SCHEMA TEXT, TABLE_NAME TEXT, COLUMN_NAME TEXT,
			REFERENCED_TABLE_NAME TEXT, REFERENCED_COLUMN_NAME TEXT,
			CONSTRAINT_NAME TEXT, ORDINAL_POSITION INTEGER)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestCatalogSchemaService_Load(t *testing.T) {
	db := openCatalogDB(t)

	_, err := db.Exec(`INSERT INTO information_schema.TABLES VALUES
		('shop', 'orders', 'BASE TABLE', '2024-01-02'),
		('shop', 'customers', 'BASE TABLE', '2024-01-01'),
		('shop', 'order_items', 'BASE TABLE', '2024-01-02'),
		('shop', 'order_totals', 'VIEW', '2024-01-03'),
		('other', 'users', 'BASE TABLE', '2023-12-31')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO information_schema.KEY_COLUMN_USAGE VALUES
		('shop', 'orders', 'id', NULL, NULL, 'PRIMARY', 1),
		('shop', 'orders', 'customer_id', 'customers', 'id', 'orders_customer_fk', 2),
		('shop', 'order_items', 'order_id', 'orders', 'id', 'items_order_fk', 1),
		('shop', 'order_items', 'parent_id', 'order_items', 'id', 'items_parent_fk', 2),
		('other', 'orders', 'user_id', 'users', 'id', 'other_fk', 1)`)
	require.NoError(t, err)

	svc := NewCatalogSchemaService(db)

	fks, err := svc.GetForeignKeys(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []models.ForeignKey{{
		TableName:            "orders",
		ColumnName:           "customer_id",
		ReferencedTableName:  "customers",
		ReferencedColumnName: "id",
		ConstraintName:       "orders_customer_fk",
	}}, fks)

	sch, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "order_items", "orders"}, sch.TableList())
	assert.Equal(t, []string{"order_items", "orders"}, sch.Dependencies("order_items"))
	assert.Equal(t, []string{"customers", "orders", "order_items"}, sch.RestoreOrder())
}
