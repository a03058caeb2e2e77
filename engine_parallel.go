package cxref

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jward/cxref/internal/store"
)

// IndexFiles indexes every request. Each unit is walked into its own
// table. With WithParallel above 1, units are indexed by a bounded worker
// pool and their store records are buffered, then committed in a single
// transaction once every worker is done.
//
// A failing unit does not stop the others. Results are returned in request
// order, nil for units that failed; the error reports how many failed and
// wraps the first.
func (e *Engine) IndexFiles(ctx context.Context, reqs []Request) ([]*Result, error) {
	if e.workers < 2 || len(reqs) < 2 {
		return e.indexFilesSerial(ctx, reqs)
	}
	return e.indexFilesParallel(ctx, reqs)
}

func (e *Engine) indexFilesSerial(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		results[i], errs[i] = e.IndexFile(ctx, req)
		if errs[i] != nil {
			e.logger.Error("unit failed", "unit", req.Source, "error", errs[i])
		}
	}
	return results, joinUnitErrors(reqs, errs)
}

func (e *Engine) indexFilesParallel(ctx context.Context, reqs []Request) ([]*Result, error) {
	var (
		w     store.UnitWriter
		batch *store.BatchedStore
	)
	if e.store != nil {
		batch = store.NewBatchedStore(e.store)
		w = batch
	}

	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))

	g := new(errgroup.Group)
	g.SetLimit(min(e.workers, len(reqs)))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = e.indexFile(ctx, req, w)
			if errs[i] != nil {
				e.logger.Error("unit failed", "unit", req.Source, "error", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	if batch != nil {
		if err := e.store.CommitBatch(batch); err != nil {
			return results, fmt.Errorf("cxref: commit: %w", err)
		}
	}
	return results, joinUnitErrors(reqs, errs)
}

func joinUnitErrors(reqs []Request, errs []error) error {
	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrCannotOpen) || errors.Is(err, context.Canceled) {
			failed = append(failed, err)
			continue
		}
		failed = append(failed, fmt.Errorf("%s: %w", reqs[i].Source, err))
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("indexing had %d error(s): %w", len(failed), failed[0])
}
