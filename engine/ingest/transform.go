package ingest

import (
	"strconv"
	"strings"

	"github.com/animetrics/animetrics/engine/domain"
	"github.com/animetrics/animetrics/engine/scraper"
)

// Transform folds detail records into the four dimensional tables. It is
// pure and deterministic: each input record is processed independently, so
// a malformed field in one entity never affects another entity's rows, and
// edge rows are only ever emitted for ids that have a fact row.
func Transform(details []domain.DetailRecord) Tables {
	t := Tables{
		Facts:   make([]AnimeFact, 0, len(details)),
		Genres:  []GenreEdge{},
		Studios: []StudioEdge{},
		Reviews: []ReviewEdge{},
	}

	for _, d := range details {
		t.Facts = append(t.Facts, factRow(d))
		for _, g := range d.Genres {
			t.Genres = append(t.Genres, GenreEdge{ID: d.ID, Genre: g})
		}
		for _, s := range d.Studios {
			t.Studios = append(t.Studios, StudioEdge{ID: d.ID, Studio: s})
		}
		for _, r := range d.Reviews {
			t.Reviews = append(t.Reviews, ReviewEdge{
				ID:           d.ID,
				Reviewer:     r.Reviewer,
				Date:         r.Date,
				Score:        r.Score,
				Content:      r.Content,
				HelpfulCount: r.HelpfulCount,
			})
		}
	}
	return t
}

func factRow(d domain.DetailRecord) AnimeFact {
	fact := AnimeFact{
		ID:            d.ID,
		Title:         d.Title,
		Score:         d.Score,
		Status:        d.Attributes["status"],
		Members:       statCount(d.Stats, "members"),
		Favorites:     statCount(d.Stats, "favorites"),
		StartDate:     d.Airing.StartDate,
		EndDate:       d.Airing.EndDate,
		AiringStatus:  string(d.Airing.Status),
		BroadcastDay:  d.Broadcast.Day,
		BroadcastTime: d.Broadcast.Time,
		URL:           d.URL,
	}

	fact.Season, fact.Year = parsePremiered(d.Attributes["premiered"])

	if eps := d.Attributes["episodes"]; eps != "" && eps != "Unknown" {
		fact.Episodes = scraper.ParseInt(eps)
	}
	fact.MinutesPerEpisode = scraper.ParseMinutesPerEpisode(d.Attributes["duration"])

	// Runtime is a product of two known operands, never a guess.
	if fact.Episodes != nil && fact.MinutesPerEpisode != nil {
		total := *fact.Episodes * *fact.MinutesPerEpisode
		fact.TotalRuntimeMinutes = &total
	}
	return fact
}

// parsePremiered splits a "premiered" attribute like "Fall 2023" into its
// season and year tokens. A malformed or absent value leaves both nil.
func parsePremiered(s string) (*string, *int) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return nil, nil
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, nil
	}
	season := parts[0]
	return &season, &year
}

// statCount reads an integer stat like "1,234,567", defaulting to 0.
func statCount(stats map[string]string, key string) int {
	if n := scraper.ParseInt(stats[key]); n != nil {
		return *n
	}
	return 0
}
