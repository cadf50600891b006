package scraper

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/pkg/fn"
)

const (
	// reviewContentCap is the stored length of a review body. Longer
	// content is cut to reviewContentCap-3 runes plus an ellipsis marker,
	// once, at extraction time.
	reviewContentCap = 500
	ellipsis         = "..."
)

// Extractor turns parsed documents into typed records. All methods are
// pure: same document in, same records out. A missing structural element
// degrades the affected field to its zero value or nil; only a missing
// entity id fails a record.
type Extractor struct {
	Sel Selectors
}

// NewExtractor creates an Extractor with the given selector set.
func NewExtractor(sel Selectors) Extractor {
	return Extractor{Sel: sel}
}

// IDFromURL resolves the entity id from a detail-page URL, taken from the
// second-to-last path segment (".../anime/<id>/<slug>").
func IDFromURL(raw string) (int, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 {
		return 0, false
	}
	id, err := strconv.Atoi(segs[len(segs)-2])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Listing extracts the rows of a ranked listing page, one Result per row
// in page order. Rows without a resolvable id come back as errors and are
// never turned into records.
func (e Extractor) Listing(doc Document) []fn.Result[domain.ListingRecord] {
	rows := doc.Find(e.Sel.ListingRow)
	out := make([]fn.Result[domain.ListingRecord], 0, len(rows))
	for _, row := range rows {
		out = append(out, e.listingRow(row))
	}
	return out
}

func (e Extractor) listingRow(row Element) fn.Result[domain.ListingRecord] {
	anchor, ok := row.First(e.Sel.ListingTitle)
	if !ok {
		return fn.Err[domain.ListingRecord](&domain.ExtractError{Kind: domain.ErrMissingIdentity})
	}
	href, _ := anchor.Attr("href")
	id, ok := IDFromURL(href)
	if !ok {
		return fn.Err[domain.ListingRecord](&domain.ExtractError{URL: href, Kind: domain.ErrMissingIdentity})
	}

	rec := domain.ListingRecord{
		ID:    id,
		Title: strings.TrimSpace(anchor.Text()),
		URL:   href,
	}
	if el, ok := row.First(e.Sel.ListingRank); ok {
		rec.Rank = ParseInt(el.Text())
	}
	if el, ok := row.First(e.Sel.ListingScore); ok {
		rec.Score = ParseScore(el.Text())
	}
	if el, ok := row.First(e.Sel.ListingInfo); ok {
		rec.MediaType, rec.Episodes = parseListingInfo(el.Text())
	}
	if el, ok := row.First(e.Sel.ListingMembers); ok {
		rec.Members = ParseInt(el.Text(), "members")
	}
	return fn.Ok(rec)
}

// parseListingInfo splits the first line of a listing info cell, shaped
// like "TV (26 eps)", into a media type and an episode count.
func parseListingInfo(text string) (mediaType string, episodes *int) {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i != -1 {
		line = strings.TrimSpace(line[:i])
	}
	open := strings.IndexByte(line, '(')
	close := strings.IndexByte(line, ')')
	if open == -1 || close == -1 || close < open {
		return "", nil
	}
	mediaType = strings.TrimSpace(line[:open])
	inner := strings.TrimSpace(line[open+1 : close])
	if strings.HasSuffix(inner, " eps") {
		episodes = ParseInt(inner, "eps")
	}
	return mediaType, episodes
}

// Detail extracts the full profile from a detail page. The id comes from
// the request, not the markup; a non-positive id is the one hard failure.
func (e Extractor) Detail(doc Document, id int, pageURL string, fetchedAt time.Time) fn.Result[domain.DetailRecord] {
	if id <= 0 {
		return fn.Err[domain.DetailRecord](&domain.ExtractError{URL: pageURL, Kind: domain.ErrMissingIdentity})
	}

	rec := domain.DetailRecord{
		ID:         id,
		URL:        pageURL,
		Attributes: make(map[string]string),
		Stats:      make(map[string]string),
		FetchedAt:  fetchedAt,
	}
	if el, ok := doc.First(e.Sel.DetailTitle); ok {
		rec.Title = strings.TrimSpace(el.Text())
	}
	if el, ok := doc.First(e.Sel.DetailScore); ok {
		rec.Score = ParseScore(el.Text())
	}
	for _, block := range doc.Find(e.Sel.DetailInfo) {
		if k, v, ok := SplitLabel(strings.TrimSpace(block.Text())); ok {
			rec.Attributes[k] = v
		}
	}
	for _, block := range doc.Find(e.Sel.DetailStats) {
		if k, v, ok := SplitLabel(strings.TrimSpace(block.Text())); ok {
			rec.Stats[k] = v
		}
	}
	for _, el := range doc.Find(e.Sel.DetailGenre) {
		rec.Genres = append(rec.Genres, strings.TrimSpace(el.Text()))
	}
	for _, el := range doc.Find(e.Sel.DetailStudio) {
		rec.Studios = append(rec.Studios, strings.TrimSpace(el.Text()))
	}
	if el, ok := doc.First(e.Sel.DetailSynopsis); ok {
		rec.Synopsis = strings.TrimSpace(el.Text())
	}

	rec.Airing = ParseAiring(rec.Attributes["aired"])
	rec.Broadcast = ParseBroadcast(rec.Attributes["broadcast"])
	return fn.Ok(rec)
}

// Reviews extracts up to limit reviews from a review page, in page order.
func (e Extractor) Reviews(doc Document, limit int) []domain.ReviewRecord {
	var out []domain.ReviewRecord
	for _, item := range doc.Find(e.Sel.ReviewItem) {
		if limit >= 0 && len(out) >= limit {
			break
		}
		rev := domain.ReviewRecord{Reviewer: "Anonymous"}
		if el, ok := item.First(e.Sel.ReviewAuthor); ok {
			if name := strings.TrimSpace(el.Text()); name != "" {
				rev.Reviewer = name
			}
		}
		if el, ok := item.First(e.Sel.ReviewDate); ok {
			rev.Date = FindDate(el.Text())
		}
		if el, ok := item.First(e.Sel.ReviewRating); ok {
			rev.Score = ParseInt(el.Text())
		}
		if el, ok := item.First(e.Sel.ReviewBody); ok {
			rev.Content = truncateContent(strings.TrimSpace(el.Text()))
		}
		if el, ok := item.First(e.Sel.ReviewHelpful); ok {
			if n := ParseInt(el.Text()); n != nil {
				rev.HelpfulCount = *n
			}
		}
		out = append(out, rev)
	}
	return out
}

// truncateContent enforces the review length cap: content above the cap is
// stored as cap-3 runes plus the ellipsis marker, so the stored length is
// exactly the cap.
func truncateContent(s string) string {
	if utf8.RuneCountInString(s) <= reviewContentCap {
		return s
	}
	runes := []rune(s)
	return string(runes[:reviewContentCap-len(ellipsis)]) + ellipsis
}
