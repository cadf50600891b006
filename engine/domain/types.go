// Package domain holds the record types, configuration, and error taxonomy
// shared by the collection pipeline. Records are constructed once per run
// and never mutated afterwards; a new run replaces them wholesale.
package domain

import "time"

// AiringStatus classifies the airing state of a series derived from its
// free-text aired range.
type AiringStatus string

const (
	AiringUnknown  AiringStatus = "Unknown"
	AiringAired    AiringStatus = "Aired"
	AiringCurrent  AiringStatus = "Currently Airing"
	AiringFinished AiringStatus = "Finished Airing"
)

// ListingRecord is one row of the ranked listing page. A row whose detail
// URL carries no resolvable id is never emitted.
type ListingRecord struct {
	ID        int      `json:"id"`
	Rank      *int     `json:"rank"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Score     *float64 `json:"score"`
	MediaType string   `json:"type"`
	Episodes  *int     `json:"episodes"`
	Members   *int     `json:"members"`
}

// AiringInfo holds the parsed aired range. Dates are ISO-8601 YYYY-MM-DD;
// a side that fails both the full and the year-only format stays nil.
type AiringInfo struct {
	StartDate *string      `json:"start_date"`
	EndDate   *string      `json:"end_date"`
	Status    AiringStatus `json:"airing_status"`
}

// BroadcastInfo holds the weekday and HH:MM tokens mined from the free-text
// broadcast field. Either side may be nil independently.
type BroadcastInfo struct {
	Day  *string `json:"day"`
	Time *string `json:"time"`
}

// ReviewRecord is a single user review. Content longer than the review cap
// is truncated once at extraction time, so stored data is permanently
// shortened.
type ReviewRecord struct {
	Reviewer     string  `json:"reviewer"`
	Date         *string `json:"date"`
	Score        *int    `json:"score"`
	Content      string  `json:"content"`
	HelpfulCount int     `json:"helpful_count"`
}

// DetailRecord is the full profile for one entity.
//
// Attributes and Stats are mappings of normalized label -> raw value taken
// from the page's "label: value" blocks. Duplicate labels within one page
// overwrite earlier ones.
type DetailRecord struct {
	ID         int               `json:"id"`
	Title      string            `json:"title"`
	Score      *float64          `json:"score"`
	Genres     []string          `json:"genres"`
	Studios    []string          `json:"studios"`
	Synopsis   string            `json:"synopsis"`
	Attributes map[string]string `json:"details"`
	Stats      map[string]string `json:"stats"`
	URL        string            `json:"url"`
	Airing     AiringInfo        `json:"airing_info"`
	Broadcast  BroadcastInfo     `json:"broadcast_info"`
	Reviews    []ReviewRecord    `json:"reviews"`
	FetchedAt  time.Time         `json:"scraped_at"`
}
