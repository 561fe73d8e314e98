package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/store"
)

// StatusService reports row counts and the newest created_at per table.
type StatusService struct {
	schema      SchemaLoader
	store       store.Store
	concurrency int
}

func NewStatusService(loader SchemaLoader, st store.Store, concurrency int) *StatusService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &StatusService{schema: loader, store: st, concurrency: concurrency}
}

// Status returns one entry per table in declaration order.
func (s *StatusService) Status(ctx context.Context) ([]models.TableStatus, error) {
	sch, err := loadTables(ctx, s.schema)
	if err != nil {
		return nil, err
	}

	tables := sch.TableList()
	result := make([]models.TableStatus, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, table := range tables {
		g.Go(func() error {
			st := models.TableStatus{TableName: table}

			count, err := s.store.CountRows(gctx, table)
			switch {
			case errors.Is(err, store.ErrCountUnknown):
			case err != nil:
				return fmt.Errorf("count %s: %w", table, err)
			default:
				st.RowCount = &count
			}

			latest, ok, err := s.store.LatestCreatedAt(gctx, table)
			if err != nil {
				return fmt.Errorf("latest %s: %w", table, err)
			}
			if ok {
				st.LatestAt = &latest
			}

			result[i] = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
