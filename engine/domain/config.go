package domain

import (
	"errors"
	"strconv"
	"time"
)

// Sentinel errors for configuration validation failures. These are the only
// process-fatal errors in the system and are detected before any network
// activity begins.
var (
	ErrBadDelayRange   = errors.New("delay range must satisfy 0 <= min <= max")
	ErrBadListingLimit = errors.New("listing limit must be >= 1")
	ErrBadDetailsLimit = errors.New("details limit must be in [0, listing limit]")
	ErrBadWorkerCount  = errors.New("worker count must be >= 1")
	ErrBadReviewLimit  = errors.New("reviews per entity must be >= 0")
	ErrBadBaseURL      = errors.New("base url must be set")
	ErrEmptyIdentities = errors.New("identity pool must not be empty")
)

// DefaultIdentityPool is the stock set of client identity strings rotated
// per request to reduce fingerprinting-based blocking.
var DefaultIdentityPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
}

// Config is the tunable surface of a collection run.
type Config struct {
	// BaseURL is the request origin for all listing, detail, and review
	// pages.
	BaseURL string
	// IdentityPool are the client identity strings rotated pseudo-randomly
	// per request.
	IdentityPool []string
	// DelayMin/DelayMax bound the jittered delay drawn before every request.
	DelayMin time.Duration
	DelayMax time.Duration
	// ListingLimit is the number of ranked listing rows to collect.
	ListingLimit int
	// DetailsLimit is how many of the listed ids get a full detail fetch.
	DetailsLimit int
	// MaxWorkers caps concurrent detail fetches.
	MaxWorkers int
	// ReviewsPerEntity bounds the reviews fetched per detail page.
	ReviewsPerEntity int
	// MaxRequestsPerSecond, when > 0, applies an aggregate token-bucket
	// ceiling across all detail workers on top of the per-worker jitter.
	// Zero disables it; per-worker jitter alone scales with worker count.
	MaxRequestsPerSecond float64
	// RequestTimeout bounds a single network call.
	RequestTimeout time.Duration
}

// DefaultConfig returns conservative defaults: 2-4s jitter, 55 listed
// entries, 30 detail fetches.
func DefaultConfig() Config {
	return Config{
		IdentityPool:     DefaultIdentityPool,
		DelayMin:         2 * time.Second,
		DelayMax:         4 * time.Second,
		ListingLimit:     55,
		DetailsLimit:     30,
		MaxWorkers:       5,
		ReviewsPerEntity: 5,
		RequestTimeout:   10 * time.Second,
	}
}

// Validate reports the first invalid field as a ValidationError wrapping
// one of the sentinel errors above.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return &ValidationError{Field: "base_url", Value: "", Wrapped: ErrBadBaseURL}
	}
	if len(c.IdentityPool) == 0 {
		return &ValidationError{Field: "identity_pool", Value: "[]", Wrapped: ErrEmptyIdentities}
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return &ValidationError{
			Field:   "delay_range",
			Value:   c.DelayMin.String() + ".." + c.DelayMax.String(),
			Wrapped: ErrBadDelayRange,
		}
	}
	if c.ListingLimit < 1 {
		return &ValidationError{
			Field:   "listing_limit",
			Value:   strconv.Itoa(c.ListingLimit),
			Wrapped: ErrBadListingLimit,
		}
	}
	if c.DetailsLimit < 0 || c.DetailsLimit > c.ListingLimit {
		return &ValidationError{
			Field:   "details_limit",
			Value:   strconv.Itoa(c.DetailsLimit),
			Wrapped: ErrBadDetailsLimit,
		}
	}
	if c.MaxWorkers < 1 {
		return &ValidationError{
			Field:   "max_workers",
			Value:   strconv.Itoa(c.MaxWorkers),
			Wrapped: ErrBadWorkerCount,
		}
	}
	if c.ReviewsPerEntity < 0 {
		return &ValidationError{
			Field:   "reviews_per_entity",
			Value:   strconv.Itoa(c.ReviewsPerEntity),
			Wrapped: ErrBadReviewLimit,
		}
	}
	return nil
}
