package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/pkg/fn"
)

// listingPageSize is the number of rows per ranked listing page; the page
// index maps onto the site's offset-style "limit" query parameter.
const listingPageSize = 50

// Client combines a Fetcher and an Extractor into the two page-level
// operations the pipeline needs: one ranked listing page, and one full
// detail profile (detail page plus bounded review page).
type Client struct {
	Fetcher          *Fetcher
	Extract          Extractor
	ReviewsPerEntity int
	Logger           *slog.Logger
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ListingPage fetches one ranked listing page (1-based) and extracts its
// rows in page order. The error return covers the page fetch itself;
// per-row identity failures are inside the Results.
func (c *Client) ListingPage(ctx context.Context, page int) ([]fn.Result[domain.ListingRecord], error) {
	params := map[string]string{
		"limit": strconv.Itoa((page - 1) * listingPageSize),
	}
	doc, err := c.Fetcher.Fetch(ctx, "/topanime.php", params).Unwrap()
	if err != nil {
		return nil, err
	}
	return c.Extract.Listing(doc), nil
}

// Detail fetches and extracts one full profile. The review sub-fetch is
// best-effort: a failed review page leaves the record with zero reviews
// rather than failing it.
func (c *Client) Detail(ctx context.Context, id int) fn.Result[domain.DetailRecord] {
	path := fmt.Sprintf("/anime/%d", id)
	doc, err := c.Fetcher.Fetch(ctx, path, nil).Unwrap()
	if err != nil {
		return fn.Err[domain.DetailRecord](err)
	}

	res := c.Extract.Detail(doc, id, c.Fetcher.AbsURL(path), time.Now().UTC())
	rec, err := res.Unwrap()
	if err != nil {
		return res
	}

	if c.ReviewsPerEntity > 0 {
		rdoc, rerr := c.Fetcher.Fetch(ctx, path+"/reviews", nil).Unwrap()
		if rerr != nil {
			c.logger().DebugContext(ctx, "review page fetch failed", "id", id, "err", rerr)
		} else {
			rec.Reviews = c.Extract.Reviews(rdoc, c.ReviewsPerEntity)
		}
	}
	return fn.Ok(rec)
}
