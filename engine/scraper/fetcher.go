package scraper

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/pkg/fn"
	"github.com/animetrics/animetrics/pkg/metrics"
	"github.com/animetrics/animetrics/pkg/resilience"
)

var tracer = otel.Tracer("engine/scraper")

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// BaseURL is the request origin.
	BaseURL string
	// IdentityPool are client identity strings; one is selected
	// pseudo-randomly per request.
	IdentityPool []string
	// Jitter is drawn before every request on this fetcher's channel.
	Jitter *resilience.Jitter
	// Timeout bounds a single network call.
	Timeout time.Duration
	// Registry is optional; when set the fetcher records request durations
	// and error counts.
	Registry *metrics.Registry
}

// Fetcher issues single rate-limited page requests. It never retries:
// retry policy belongs to the caller.
type Fetcher struct {
	http       *resty.Client
	baseURL    string
	identities []string
	jitter     *resilience.Jitter

	durations  *metrics.Histogram
	errCounter func(kind string) *metrics.Counter
}

// NewFetcher creates a Fetcher. The underlying transport is wrapped with
// otelhttp so every request carries a client span.
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetHeader("Referer", opts.BaseURL)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.GetClient().Transport = otelhttp.NewTransport(client.GetClient().Transport)

	f := &Fetcher{
		http:       client,
		baseURL:    opts.BaseURL,
		identities: opts.IdentityPool,
		jitter:     opts.Jitter,
	}
	if opts.Registry != nil {
		f.durations = opts.Registry.Histogram(
			"collector_fetch_duration_seconds", "Duration of page fetches", nil)
		f.errCounter = func(kind string) *metrics.Counter {
			return opts.Registry.Counter(
				metrics.WithLabels("collector_fetch_errors_total", "kind", kind),
				"Fetch errors by kind")
		}
	}
	return f, nil
}

// AbsURL resolves a request path against the configured origin.
func (f *Fetcher) AbsURL(path string) string {
	return f.baseURL + path
}

// Fetch performs exactly one blocking request for the given path after
// waiting a jitter draw, and parses the body into a Document. All failures
// come back as a domain.FetchError inside the Result, never as a fatal
// condition.
func (f *Fetcher) Fetch(ctx context.Context, path string, params map[string]string) fn.Result[Document] {
	ctx, span := tracer.Start(ctx, "fetcher:Fetch")
	defer span.End()

	if err := f.jitter.Sleep(ctx); err != nil {
		return fn.Err[Document](err)
	}

	req := f.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.identities[rand.Intn(len(f.identities))])
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	start := time.Now()
	res, err := req.Get(path)
	if f.durations != nil {
		f.durations.Since(start)
	}
	if err != nil {
		ferr := f.classify(path, err)
		span.RecordError(ferr)
		span.SetStatus(codes.Error, "request failed")
		return fn.Err[Document](ferr)
	}
	if code := res.StatusCode(); code < 200 || code > 299 {
		ferr := &domain.FetchError{URL: f.AbsURL(path), Status: code, Kind: domain.ErrHTTPStatus}
		span.SetStatus(codes.Error, ferr.Error())
		f.countError("http_status")
		return fn.Err[Document](ferr)
	}

	doc, err := ParseHTML(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return fn.Err[Document](err)
	}
	return fn.Ok(doc)
}

func (f *Fetcher) classify(path string, err error) *domain.FetchError {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		f.countError("timeout")
		return &domain.FetchError{URL: f.AbsURL(path), Kind: domain.ErrTimeout, Cause: err}
	}
	f.countError("transport")
	return &domain.FetchError{URL: f.AbsURL(path), Kind: domain.ErrTransport, Cause: err}
}

func (f *Fetcher) countError(kind string) {
	if f.errCounter != nil {
		f.errCounter(kind).Inc()
	}
}
