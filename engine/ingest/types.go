// Package ingest folds collected detail records into a star-schema
// dataset and coordinates the full collection pipeline around it.
package ingest

import (
	"time"

	"github.com/animetrics/animetrics/engine/domain"
)

// AnimeFact is one row of the fact table, keyed by entity id.
type AnimeFact struct {
	ID                  int      `json:"anime_id"`
	Title               string   `json:"title"`
	Score               *float64 `json:"score"`
	Episodes            *int     `json:"episodes"`
	Status              string   `json:"status"`
	Season              *string  `json:"season"`
	Year                *int     `json:"year"`
	Members             int      `json:"members"`
	Favorites           int      `json:"favorites"`
	MinutesPerEpisode   *int     `json:"minutes_per_episode"`
	TotalRuntimeMinutes *int     `json:"total_runtime_minutes"`
	StartDate           *string  `json:"start_date"`
	EndDate             *string  `json:"end_date"`
	AiringStatus        string   `json:"airing_status"`
	BroadcastDay        *string  `json:"broadcast_day"`
	BroadcastTime       *string  `json:"broadcast_time"`
	URL                 string   `json:"url"`
}

// GenreEdge is one (entity, genre) pair.
type GenreEdge struct {
	ID    int    `json:"anime_id"`
	Genre string `json:"genre"`
}

// StudioEdge is one (entity, studio) pair.
type StudioEdge struct {
	ID     int    `json:"anime_id"`
	Studio string `json:"studio"`
}

// ReviewEdge is one review row keyed by the owning entity.
type ReviewEdge struct {
	ID           int     `json:"anime_id"`
	Reviewer     string  `json:"reviewer"`
	Date         *string `json:"date"`
	Score        *int    `json:"score"`
	Content      string  `json:"content"`
	HelpfulCount int     `json:"helpful_count"`
}

// Tables is the dimensional output of a transform: one fact table plus
// three edge tables whose ids all reference fact rows.
type Tables struct {
	Facts   []AnimeFact  `json:"anime_facts"`
	Genres  []GenreEdge  `json:"anime_genres"`
	Studios []StudioEdge `json:"anime_studios"`
	Reviews []ReviewEdge `json:"anime_reviews"`
}

// StageReport annotates how far a stage got.
type StageReport struct {
	Stage     string `json:"stage"`
	Succeeded int    `json:"succeeded"`
	Requested int    `json:"requested"`
	Exhausted bool   `json:"exhausted"`
}

// RunResult carries everything one pipeline run produced: the raw listing,
// the raw detail collection, the dimensional tables, and per-stage
// annotations. Partial runs still carry whatever earlier stages yielded.
type RunResult struct {
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Listing    []domain.ListingRecord `json:"top_anime"`
	Details    []domain.DetailRecord  `json:"details"`
	Tables     Tables                `json:"tables"`
	Stages     []StageReport         `json:"stages"`
}
