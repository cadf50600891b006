// Package scraper implements the acquisition side of the pipeline: a
// jitter-limited fetcher, a defensive field extractor working against an
// abstract document, and a bounded-parallel batch orchestrator.
package scraper

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Element is a node of a parsed page supporting sub-selection and text
// extraction. Extraction logic depends only on this capability; concrete
// selector strings are configuration data (see Selectors).
type Element interface {
	// Find returns all descendants matching the selector, in document order.
	Find(selector string) []Element
	// First returns the first descendant matching the selector.
	First(selector string) (Element, bool)
	// Text returns the combined text content of the node.
	Text() string
	// Attr returns the value of an attribute on the node.
	Attr(name string) (string, bool)
}

// Document is the root element of a parsed page.
type Document = Element

// ParseHTML parses an HTML page into a Document backed by goquery.
func ParseHTML(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return goqueryNode{sel: doc.Selection}, nil
}

type goqueryNode struct {
	sel *goquery.Selection
}

func (n goqueryNode) Find(selector string) []Element {
	found := n.sel.Find(selector)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, goqueryNode{sel: s})
	})
	return out
}

func (n goqueryNode) First(selector string) (Element, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return goqueryNode{sel: found}, true
}

func (n goqueryNode) Text() string { return n.sel.Text() }

func (n goqueryNode) Attr(name string) (string, bool) { return n.sel.Attr(name) }

// Selectors locates the fields of one concrete markup version. Changing
// site markup means swapping selector strings here, never touching the
// extraction logic.
type Selectors struct {
	ListingRow     string
	ListingRank    string
	ListingTitle   string
	ListingScore   string
	ListingInfo    string
	ListingMembers string

	DetailTitle    string
	DetailScore    string
	DetailInfo     string
	DetailStats    string
	DetailGenre    string
	DetailStudio   string
	DetailSynopsis string

	ReviewItem    string
	ReviewAuthor  string
	ReviewDate    string
	ReviewRating  string
	ReviewBody    string
	ReviewHelpful string
}

// DefaultSelectors matches the current markup of the ranked listing,
// detail, and review pages.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingRow:     "tr.ranking-list",
		ListingRank:    "span.top-anime-rank-text",
		ListingTitle:   "td.title a",
		ListingScore:   "span.score-label",
		ListingInfo:    "div.information",
		ListingMembers: "div.information span.members",

		DetailTitle:    "h1.title-name",
		DetailScore:    "div.score-label",
		DetailInfo:     "div.leftside div.spaceit_pad",
		DetailStats:    "div.stats-block div.spaceit_pad",
		DetailGenre:    "span.genre a",
		DetailStudio:   "span.studio a",
		DetailSynopsis: "p[itemprop=description]",

		ReviewItem:    "div.review-element",
		ReviewAuthor:  "div.username a",
		ReviewDate:    "div.update_at",
		ReviewRating:  "div.rating span",
		ReviewBody:    "div.text",
		ReviewHelpful: "div.helpful_yes span",
	}
}
