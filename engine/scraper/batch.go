package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/pkg/fn"
)

// DetailFunc is one unit of batch work: fetch and extract a single id.
type DetailFunc func(ctx context.Context, id int) fn.Result[domain.DetailRecord]

// Batch runs many detail fetches concurrently under a worker cap. Workers
// send completed-or-failed outcomes on a channel; a single collector owns
// the result slice, so no lock guards the accumulation. A failure in one
// unit of work is logged as a warning attributed to its id and excluded
// from the result; it never aborts sibling work.
type Batch struct {
	Fetch   DetailFunc
	Workers int
	// Ceiling, when non-nil, is an aggregate request ceiling shared by all
	// workers, layered on top of each worker's own jitter wait.
	Ceiling *rate.Limiter
	Logger  *slog.Logger
	// OnProgress, when set, is called after every completed unit with the
	// running completed/total counts.
	OnProgress func(done, total int64)

	done  atomic.Int64
	total atomic.Int64
}

type detailOutcome struct {
	id  int
	rec domain.DetailRecord
	err error
}

// Progress returns the completed and total counts of the current (or most
// recent) run.
func (b *Batch) Progress() (done, total int64) {
	return b.done.Load(), b.total.Load()
}

// FetchAllDetails fetches details for every id, silently omitting ids that
// failed. Result order is completion order: callers must not depend on it.
// Cancelling ctx stops new work promptly and returns whatever has been
// collected.
func (b *Batch) FetchAllDetails(ctx context.Context, ids []int) []domain.DetailRecord {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b.done.Store(0)
	b.total.Store(int64(len(ids)))
	if len(ids) == 0 {
		return nil
	}

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int)
	outcomes := make(chan detailOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				outcomes <- b.run(ctx, id)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	out := make([]domain.DetailRecord, 0, len(ids))
	for o := range outcomes {
		done := b.done.Add(1)
		if b.OnProgress != nil {
			b.OnProgress(done, b.total.Load())
		}
		if o.err != nil {
			logger.WarnContext(ctx, "detail fetch failed", "id", o.id, "err", o.err)
			continue
		}
		out = append(out, o.rec)
	}
	return out
}

// run executes one unit of work. Any fault, including a panic in
// extraction, is contained to this id.
func (b *Batch) run(ctx context.Context, id int) (o detailOutcome) {
	o.id = id
	defer func() {
		if p := recover(); p != nil {
			o.err = fmt.Errorf("unit of work panicked: %v", p)
		}
	}()

	if b.Ceiling != nil {
		if err := b.Ceiling.Wait(ctx); err != nil {
			o.err = err
			return o
		}
	}
	o.rec, o.err = b.Fetch(ctx, id).Unwrap()
	return o
}
