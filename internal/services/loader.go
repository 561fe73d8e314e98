package services

import (
	"context"
	"errors"

	"db-ops-toolkit/internal/schema"
)

// SchemaLoader yields the current schema snapshot.
type SchemaLoader interface {
	Load(ctx context.Context) (*schema.Schema, error)
}

// ErrNoTables means the schema declared nothing to operate on.
var ErrNoTables = errors.New("no tables found in schema")

func loadTables(ctx context.Context, loader SchemaLoader) (*schema.Schema, error) {
	sch, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sch.Len() == 0 {
		return nil, ErrNoTables
	}
	return sch, nil
}
