// Command collector runs one full extraction: ranked listing pages, a
// bounded-parallel detail fetch, the dimensional transform, and export to
// CSV files, a NATS subject, or JSON on stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/engine/export"
	"github.com/animetrics/animetrics/engine/ingest"
	"github.com/animetrics/animetrics/engine/scraper"
	"github.com/animetrics/animetrics/pkg/metrics"
	"github.com/animetrics/animetrics/pkg/resilience"
)

func main() {
	baseURL := flag.String("base-url", "https://myanimelist.net", "request origin for listing and detail pages")
	outputDir := flag.String("output-dir", "", "directory to write CSV tables (if empty and -nats unset, JSON goes to stdout)")
	natsURL := flag.String("nats", "", "NATS URL to publish run results to")
	subject := flag.String("subject", export.DefaultSubject, "NATS subject for run results")
	listingLimit := flag.Int("listing", 55, "number of ranked listing rows to collect")
	detailsLimit := flag.Int("details", 30, "number of entities to fetch full details for")
	workers := flag.Int("workers", 5, "max concurrent detail fetches")
	reviews := flag.Int("reviews", 5, "reviews to collect per entity")
	delayMin := flag.Duration("delay-min", 2*time.Second, "minimum jitter delay between requests")
	delayMax := flag.Duration("delay-max", 4*time.Second, "maximum jitter delay between requests")
	maxRPS := flag.Float64("max-rps", 0, "aggregate request ceiling across workers (0 = per-worker jitter only)")
	timeout := flag.Duration("timeout", 10*time.Second, "single request timeout")
	metricsPort := flag.Int("metrics-port", 9094, "port to serve /metrics on (0 = disabled)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := domain.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.ListingLimit = *listingLimit
	cfg.DetailsLimit = *detailsLimit
	cfg.MaxWorkers = *workers
	cfg.ReviewsPerEntity = *reviews
	cfg.DelayMin = *delayMin
	cfg.DelayMax = *delayMax
	cfg.MaxRequestsPerSecond = *maxRPS
	cfg.RequestTimeout = *timeout

	met := metrics.New()
	if *metricsPort > 0 {
		met.ServeAsync(*metricsPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink, cleanup, err := buildSink(*natsURL, *subject, *outputDir)
	if err != nil {
		log.Fatalf("sink: %v", err)
	}
	defer cleanup()

	pipe, err := buildPipeline(cfg, sink, met, logger)
	if err != nil {
		// The one process-fatal error: bad configuration, caught before
		// any network activity.
		log.Fatalf("config: %v", err)
	}

	res, err := pipe.Run(ctx)
	var exhausted *domain.StageExhaustedError
	switch {
	case errors.As(err, &exhausted):
		logger.Warn("run ended early", "stage", exhausted.Stage, "run_id", res.RunID)
	case err != nil:
		log.Fatalf("run: %v", err)
	}

	for _, st := range res.Stages {
		logger.Info("stage", "name", st.Stage, "succeeded", st.Succeeded,
			"requested", st.Requested, "exhausted", st.Exhausted)
	}
	logger.Info("run complete",
		"run_id", res.RunID,
		"listing", len(res.Listing),
		"facts", len(res.Tables.Facts),
		"genres", len(res.Tables.Genres),
		"studios", len(res.Tables.Studios),
		"reviews", len(res.Tables.Reviews),
	)
}

func buildSink(natsURL, subject, outputDir string) (ingest.Sink, func(), error) {
	switch {
	case natsURL != "":
		nc, err := nats.Connect(natsURL)
		if err != nil {
			return nil, nil, err
		}
		return &export.NATSSink{Conn: nc, Subject: subject}, nc.Close, nil
	case outputDir != "":
		return &export.CSVSink{Dir: outputDir}, func() {}, nil
	default:
		return &export.JSONSink{W: os.Stdout}, func() {}, nil
	}
}

func buildPipeline(cfg domain.Config, sink ingest.Sink, met *metrics.Registry, logger *slog.Logger) (*ingest.Pipeline, error) {
	jitter, err := resilience.NewJitter(cfg.DelayMin, cfg.DelayMax)
	if err != nil {
		return nil, err
	}
	fetcher, err := scraper.NewFetcher(scraper.FetcherOptions{
		BaseURL:      cfg.BaseURL,
		IdentityPool: cfg.IdentityPool,
		Jitter:       jitter,
		Timeout:      cfg.RequestTimeout,
		Registry:     met,
	})
	if err != nil {
		return nil, err
	}

	client := &scraper.Client{
		Fetcher:          fetcher,
		Extract:          scraper.NewExtractor(scraper.DefaultSelectors()),
		ReviewsPerEntity: cfg.ReviewsPerEntity,
		Logger:           logger,
	}

	progress := met.Gauge("collector_batch_completed", "Completed detail fetches in the current batch")
	batch := &scraper.Batch{
		Fetch:   client.Detail,
		Workers: cfg.MaxWorkers,
		Logger:  logger,
		OnProgress: func(done, total int64) {
			progress.Set(done)
			logger.Debug("batch progress", "done", done, "total", total)
		},
	}
	if cfg.MaxRequestsPerSecond > 0 {
		batch.Ceiling = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1)
	}

	return ingest.NewPipeline(cfg, ingest.Deps{
		ListingPage:  client.ListingPage,
		FetchDetails: batch.FetchAllDetails,
		Sink:         sink,
		Logger:       logger,
	})
}
