package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/schema"
)

// SchemaService produces a fresh schema snapshot on every call, either from
// the DDL file or from the live database catalog.
type SchemaService struct {
	path string
	db   *sql.DB
}

func NewSchemaService(path string) *SchemaService {
	return &SchemaService{path: path}
}

// NewCatalogSchemaService reads tables and foreign keys from information_schema.
func NewCatalogSchemaService(db *sql.DB) *SchemaService {
	return &SchemaService{db: db}
}

func (s *SchemaService) Load(ctx context.Context) (*schema.Schema, error) {
	if s.db != nil {
		return s.loadFromCatalog(ctx)
	}

	text, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	sch := schema.Parse(string(text))
	slog.Debug("schema parsed", "path", s.path, "tables", sch.Len())
	return sch, nil
}

func (s *SchemaService) loadFromCatalog(ctx context.Context) (*schema.Schema, error) {
	return schemaFromCatalog(ctx, s)
}

// catalog is the information_schema access the catalog source needs.
type catalog interface {
	GetAllTables(ctx context.Context) ([]string, error)
	GetForeignKeys(ctx context.Context, tableName string) ([]models.ForeignKey, error)
}

// schemaFromCatalog builds a schema from catalog tables and their foreign
// keys. A table whose keys cannot be read is kept without dependencies.
func schemaFromCatalog(ctx context.Context, c catalog) (*schema.Schema, error) {
	tables, err := c.GetAllTables(ctx)
	if err != nil {
		return nil, err
	}

	deps := make(map[string][]string)
	for _, table := range tables {
		fks, err := c.GetForeignKeys(ctx, table)
		if err != nil {
			slog.Warn("failed to get foreign keys", "table", table, "error", err)
			continue
		}

		for _, fk := range fks {
			if fk.ReferencedTableName == table {
				slog.Debug("table has self-reference", "table", table)
			}
			deps[table] = append(deps[table], fk.ReferencedTableName)
		}
	}

	return schema.New(tables, deps), nil
}

func (s *SchemaService) GetAllTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `SELECT TABLE_NAME
	          FROM information_schema.TABLES
	          WHERE TABLE_SCHEMA = DATABASE()
	          AND TABLE_TYPE = 'BASE TABLE'
	          ORDER BY CREATE_TIME, TABLE_NAME`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (s *SchemaService) GetForeignKeys(ctx context.Context, tableName string) ([]models.ForeignKey, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `SELECT
	            kcu.TABLE_NAME,
	            kcu.COLUMN_NAME,
	            kcu.REFERENCED_TABLE_NAME,
	            kcu.REFERENCED_COLUMN_NAME,
	            kcu.CONSTRAINT_NAME
	          FROM information_schema.KEY_COLUMN_USAGE kcu
	          WHERE kcu.TABLE_SCHEMA = DATABASE()
	          AND kcu.TABLE_NAME = ?
	          AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	          ORDER BY kcu.ORDINAL_POSITION`

	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []models.ForeignKey
	for rows.Next() {
		var fk models.ForeignKey
		err := rows.Scan(
			&fk.TableName,
			&fk.ColumnName,
			&fk.ReferencedTableName,
			&fk.ReferencedColumnName,
			&fk.ConstraintName,
		)
		if err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// OrderReport describes the deletion (or restore) order with each table's parents.
func OrderReport(sch *schema.Schema, restore bool) models.OrderReport {
	ord := sch.Deletion()
	direction := "delete"
	if restore {
		ord = sch.Restore()
		direction = "restore"
	}

	unresolved := make(map[string]bool, len(ord.Unresolved))
	for _, t := range ord.Unresolved {
		unresolved[t] = true
	}

	report := models.OrderReport{
		Direction:  direction,
		Tables:     make([]models.TableDependency, 0, len(ord.Order)),
		Fallback:   ord.Fallback,
		Unresolved: ord.Unresolved,
	}
	for i, table := range ord.Order {
		report.Tables = append(report.Tables, models.TableDependency{
			TableName:  table,
			DependsOn:  sch.Dependencies(table),
			Position:   i,
			Unresolved: unresolved[table],
		})
	}
	return report
}
