package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
)

// DispatchResult is the outcome of one work item. Exactly one of Record and Err is set.
type DispatchResult struct {
	Item     competition.WorkItem
	Record   competition.MatchRecord
	Err      error
	Duration time.Duration
}

func (r DispatchResult) Failed() bool {
	return r.Err != nil
}

type DispatcherOptions struct {
	Progress ProgressFunc
	Logger   *logging.Logger
}

// Dispatcher fans work items out to a bounded ants pool and streams results back in
// completion order.
type Dispatcher struct {
	source   MatchSource
	progress ProgressFunc
	logger   *logging.Logger
}

func NewDispatcher(source MatchSource, opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		source:   source,
		progress: opts.Progress,
		logger:   logger,
	}
}

// DispatchAll runs every item and returns one result per item, in completion order.
func (d *Dispatcher) DispatchAll(ctx context.Context, items []competition.WorkItem, limit int) ([]DispatchResult, error) {
	out := make([]DispatchResult, 0, len(items))
	err := d.Dispatch(ctx, items, limit, func(r DispatchResult) {
		out = append(out, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dispatch runs every item on at most limit workers (NumCPU when limit <= 0) and calls
// onResult once per item from a single goroutine. A failing item never stops the others.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	items []competition.WorkItem,
	limit int,
	onResult func(DispatchResult),
) error {
	if len(items) == 0 {
		return nil
	}
	if onResult == nil {
		onResult = func(DispatchResult) {}
	}

	workerCount := normalizeWorkerCount(limit, len(items))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	d.logger.DebugContext(ctx, "dispatching matches", "items", len(items), "workers", workerCount)

	results := make(chan DispatchResult, len(items))
	var workers sync.WaitGroup

	go func() {
		for _, item := range items {
			item := item
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()
				results <- d.run(ctx, item)
			}); err != nil {
				workers.Done()
				results <- DispatchResult{
					Item: item,
					Err:  &MatchFetchError{Item: item, Err: crerr.Wrap(err, "submit task to worker pool")},
				}
			}
		}
		workers.Wait()
		close(results)
	}()

	completed := 0
	for result := range results {
		completed++
		if d.progress != nil {
			d.progress(Progress{
				Completed: completed,
				Total:     len(items),
				Item:      result.Item,
				Err:       result.Err,
			})
		}
		onResult(result)
	}

	return nil
}

func (d *Dispatcher) run(ctx context.Context, item competition.WorkItem) DispatchResult {
	start := time.Now()
	result := DispatchResult{Item: item}

	var catcher panics.Catcher
	catcher.Try(func() {
		result.Record, result.Err = d.fetch(ctx, item)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		result.Record = nil
		result.Err = &MatchFetchError{Item: item, Err: recovered.AsError()}
	}

	result.Duration = time.Since(start)
	return result
}

func (d *Dispatcher) fetch(ctx context.Context, item competition.WorkItem) (competition.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &MatchFetchError{Item: item, Err: err}
	}

	record, err := d.source.FetchMatch(ctx, item)
	if err != nil {
		return nil, asMatchFetchError(item, err)
	}
	if record == nil {
		return nil, &MatchFetchError{Item: item, Err: fmt.Errorf("%w: empty match payload", ErrExtraction)}
	}
	return record, nil
}

func normalizeWorkerCount(limit, items int) int {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if limit > items {
		limit = items
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
