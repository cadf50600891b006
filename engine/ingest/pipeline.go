package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/pkg/fn"
)

var tracer = otel.Tracer("engine/ingest")

// Sink is the persistence boundary. The pipeline guarantees every table in
// the RunResult is a sequence of uniformly shaped rows ready for tabular or
// document-store serialization; it performs no file I/O itself.
type Sink interface {
	WriteRun(ctx context.Context, res *RunResult) error
}

// Deps holds the external collaborators of the pipeline.
type Deps struct {
	// ListingPage fetches one ranked listing page (1-based).
	ListingPage func(ctx context.Context, page int) ([]fn.Result[domain.ListingRecord], error)
	// FetchDetails batch-fetches detail records for the given ids.
	FetchDetails func(ctx context.Context, ids []int) []domain.DetailRecord
	// PageSize is the row count of a full listing page.
	PageSize int
	Sink     Sink
	Logger   *slog.Logger
}

// Pipeline sequences listing fetch, id selection, batch detail fetch,
// transform, and handoff to the sink.
type Pipeline struct {
	cfg  domain.Config
	deps Deps
}

// NewPipeline validates cfg and builds a Pipeline. A validation failure
// here is the only fatal error in the system; it fires before any network
// activity.
func NewPipeline(cfg domain.Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 50
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// Run executes one full collection. A stage that runs dry terminates the
// run early and is reported as a *domain.StageExhaustedError, but the
// partial RunResult is still handed to the sink and returned: earlier
// stages' outputs stay valid.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline:Run")
	defer span.End()

	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Details:   []domain.DetailRecord{},
		Tables:    Transform(nil),
	}

	res.Listing = p.collectListing(ctx)
	res.Stages = append(res.Stages, StageReport{
		Stage:     "listing",
		Succeeded: len(res.Listing),
		Requested: p.cfg.ListingLimit,
		Exhausted: len(res.Listing) == 0,
	})
	if len(res.Listing) == 0 {
		return p.finish(ctx, res, &domain.StageExhaustedError{Stage: "listing"})
	}

	ids := p.selectIDs(res.Listing)
	if len(ids) == 0 {
		// A zero details limit is a deliberate listing-only run, not an
		// exhausted stage.
		res.Stages = append(res.Stages, StageReport{Stage: "details"})
		return p.finish(ctx, res, nil)
	}

	p.deps.Logger.InfoContext(ctx, "fetching details", "ids", len(ids), "workers", p.cfg.MaxWorkers)
	res.Details = p.deps.FetchDetails(ctx, ids)
	res.Stages = append(res.Stages, StageReport{
		Stage:     "details",
		Succeeded: len(res.Details),
		Requested: len(ids),
		Exhausted: len(res.Details) == 0,
	})
	if len(res.Details) == 0 {
		return p.finish(ctx, res, &domain.StageExhaustedError{Stage: "details"})
	}

	res.Tables = Transform(res.Details)
	res.Stages = append(res.Stages, StageReport{
		Stage:     "transform",
		Succeeded: len(res.Tables.Facts),
		Requested: len(res.Details),
	})
	return p.finish(ctx, res, nil)
}

// collectListing walks listing pages sequentially, stopping early once the
// requested count is reached even mid-page. A failed page fetch is skipped;
// a page with zero rows ends the walk.
func (p *Pipeline) collectListing(ctx context.Context) []domain.ListingRecord {
	ctx, span := tracer.Start(ctx, "pipeline:collectListing")
	defer span.End()

	limit := p.cfg.ListingLimit
	maxPages := (limit + p.deps.PageSize - 1) / p.deps.PageSize

	listing := make([]domain.ListingRecord, 0, limit)
	for page := 1; page <= maxPages && len(listing) < limit; page++ {
		if ctx.Err() != nil {
			break
		}
		rows, err := p.deps.ListingPage(ctx, page)
		if err != nil {
			p.deps.Logger.WarnContext(ctx, "listing page fetch failed", "page", page, "err", err)
			continue
		}
		if dropped := len(fn.Errs(rows)); dropped > 0 {
			p.deps.Logger.WarnContext(ctx, "dropped listing rows without id", "page", page, "rows", dropped)
		}
		for _, rec := range fn.Oks(rows) {
			if len(listing) >= limit {
				break
			}
			listing = append(listing, rec)
		}
	}
	return listing
}

// selectIDs takes up to DetailsLimit ids from the listing, preserving
// listing order. Rows without a resolvable id never made it this far.
func (p *Pipeline) selectIDs(listing []domain.ListingRecord) []int {
	n := p.cfg.DetailsLimit
	if n > len(listing) {
		n = len(listing)
	}
	ids := make([]int, 0, n)
	for _, rec := range listing[:n] {
		ids = append(ids, rec.ID)
	}
	return ids
}

// finish stamps the result, hands it to the sink, and surfaces stageErr as
// a structured warning alongside whatever was collected.
func (p *Pipeline) finish(ctx context.Context, res *RunResult, stageErr error) (*RunResult, error) {
	res.FinishedAt = time.Now().UTC()
	if p.deps.Sink != nil {
		if err := p.deps.Sink.WriteRun(ctx, res); err != nil {
			return res, err
		}
	}
	if stageErr != nil {
		trace.SpanFromContext(ctx).SetStatus(codes.Error, stageErr.Error())
		p.deps.Logger.WarnContext(ctx, "pipeline stage ran dry", "err", stageErr)
	}
	return res, stageErr
}
