package ingest

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/animetrics/animetrics/engine/domain"
)

func strp(s string) *string     { return &s }
func intp(n int) *int           { return &n }
func floatp(f float64) *float64 { return &f }

func sampleDetail() domain.DetailRecord {
	return domain.DetailRecord{
		ID:    1,
		Title: "Cowboy Bebop",
		Score: floatp(8.75),
		Attributes: map[string]string{
			"status":    "Finished Airing",
			"episodes":  "26",
			"duration":  "24 min. per ep.",
			"premiered": "Spring 1998",
		},
		Stats: map[string]string{
			"members":   "1,896,543",
			"favorites": "82,117",
		},
		Genres:  []string{"Action", "Sci-Fi"},
		Studios: []string{"Sunrise"},
		Airing: domain.AiringInfo{
			StartDate: strp("1998-04-03"),
			EndDate:   strp("1999-04-24"),
			Status:    domain.AiringFinished,
		},
		Broadcast: domain.BroadcastInfo{Day: strp("Saturdays"), Time: strp("01:00")},
		Reviews: []domain.ReviewRecord{
			{Reviewer: "spike123", Date: strp("2023-01-05"), Score: intp(9), Content: "great", HelpfulCount: 120},
			{Reviewer: "Anonymous", Content: "ok"},
		},
		URL:       "https://example.net/anime/1/Cowboy_Bebop",
		FetchedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransformFactRow(t *testing.T) {
	tables := Transform([]domain.DetailRecord{sampleDetail()})
	if len(tables.Facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(tables.Facts))
	}
	f := tables.Facts[0]

	if f.ID != 1 || f.Title != "Cowboy Bebop" {
		t.Errorf("identity fields = %d %q", f.ID, f.Title)
	}
	if f.Score == nil || *f.Score != 8.75 {
		t.Errorf("Score = %v", f.Score)
	}
	if f.Status != "Finished Airing" {
		t.Errorf("Status = %q", f.Status)
	}
	if f.Episodes == nil || *f.Episodes != 26 {
		t.Errorf("Episodes = %v", f.Episodes)
	}
	if f.Season == nil || *f.Season != "Spring" {
		t.Errorf("Season = %v", f.Season)
	}
	if f.Year == nil || *f.Year != 1998 {
		t.Errorf("Year = %v", f.Year)
	}
	if f.Members != 1896543 || f.Favorites != 82117 {
		t.Errorf("counts = %d %d", f.Members, f.Favorites)
	}
	if f.MinutesPerEpisode == nil || *f.MinutesPerEpisode != 24 {
		t.Errorf("MinutesPerEpisode = %v", f.MinutesPerEpisode)
	}
	if f.TotalRuntimeMinutes == nil || *f.TotalRuntimeMinutes != 26*24 {
		t.Errorf("TotalRuntimeMinutes = %v", f.TotalRuntimeMinutes)
	}
	if f.AiringStatus != string(domain.AiringFinished) {
		t.Errorf("AiringStatus = %q", f.AiringStatus)
	}
	if f.BroadcastDay == nil || *f.BroadcastDay != "Saturdays" {
		t.Errorf("BroadcastDay = %v", f.BroadcastDay)
	}
}

func TestTransformEdges(t *testing.T) {
	tables := Transform([]domain.DetailRecord{sampleDetail()})

	if len(tables.Genres) != 2 {
		t.Fatalf("got %d genre edges, want 2", len(tables.Genres))
	}
	if tables.Genres[0].Genre != "Action" || tables.Genres[1].Genre != "Sci-Fi" {
		t.Errorf("genres = %+v", tables.Genres)
	}
	if len(tables.Studios) != 1 || tables.Studios[0].Studio != "Sunrise" {
		t.Errorf("studios = %+v", tables.Studios)
	}
	if len(tables.Reviews) != 2 {
		t.Fatalf("got %d review edges, want 2", len(tables.Reviews))
	}
	if tables.Reviews[0].Reviewer != "spike123" || tables.Reviews[0].HelpfulCount != 120 {
		t.Errorf("review[0] = %+v", tables.Reviews[0])
	}
}

func TestTransformReferentialIntegrity(t *testing.T) {
	a := sampleDetail()
	b := sampleDetail()
	b.ID = 2
	b.Genres = []string{"Drama"}
	b.Studios = nil
	b.Reviews = nil
	tables := Transform([]domain.DetailRecord{a, b})

	factIDs := map[int]bool{}
	for _, f := range tables.Facts {
		factIDs[f.ID] = true
	}
	for _, e := range tables.Genres {
		if !factIDs[e.ID] {
			t.Errorf("genre edge references missing fact id %d", e.ID)
		}
	}
	for _, e := range tables.Studios {
		if !factIDs[e.ID] {
			t.Errorf("studio edge references missing fact id %d", e.ID)
		}
	}
	for _, e := range tables.Reviews {
		if !factIDs[e.ID] {
			t.Errorf("review edge references missing fact id %d", e.ID)
		}
	}
}

func TestTransformRuntimeRequiresBothOperands(t *testing.T) {
	cases := []struct {
		name  string
		attrs map[string]string
	}{
		{"no episodes", map[string]string{"duration": "24 min. per ep."}},
		{"unknown episodes", map[string]string{"episodes": "Unknown", "duration": "24 min. per ep."}},
		{"no duration", map[string]string{"episodes": "26"}},
		{"unparsable duration", map[string]string{"episodes": "26", "duration": "2 hr."}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := sampleDetail()
			d.Attributes = c.attrs
			f := Transform([]domain.DetailRecord{d}).Facts[0]
			if f.TotalRuntimeMinutes != nil {
				t.Errorf("TotalRuntimeMinutes = %d, want nil", *f.TotalRuntimeMinutes)
			}
		})
	}
}

func TestTransformMalformedPremiered(t *testing.T) {
	for _, bad := range []string{"", "Spring", "Spring NineEight", "?"} {
		d := sampleDetail()
		d.Attributes["premiered"] = bad
		f := Transform([]domain.DetailRecord{d}).Facts[0]
		if f.Season != nil || f.Year != nil {
			t.Errorf("premiered %q: Season=%v Year=%v, want both nil", bad, f.Season, f.Year)
		}
	}
}

func TestTransformMissingStatsDefaultToZero(t *testing.T) {
	d := sampleDetail()
	d.Stats = map[string]string{}
	f := Transform([]domain.DetailRecord{d}).Facts[0]
	if f.Members != 0 || f.Favorites != 0 {
		t.Errorf("Members=%d Favorites=%d, want zeros", f.Members, f.Favorites)
	}
}

func TestTransformPerEntityIsolation(t *testing.T) {
	good := sampleDetail()
	bad := sampleDetail()
	bad.ID = 2
	bad.Attributes = map[string]string{"premiered": "garbage", "episodes": "NaN"}
	bad.Stats = nil

	tables := Transform([]domain.DetailRecord{good, bad})
	if len(tables.Facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(tables.Facts))
	}
	g := tables.Facts[0]
	if g.Year == nil || *g.Year != 1998 || g.Episodes == nil {
		t.Error("malformed sibling must not degrade a well-formed entity")
	}
	b := tables.Facts[1]
	if b.Year != nil || b.Episodes != nil {
		t.Error("malformed fields should degrade to nil")
	}
}

func TestTransformDeterministic(t *testing.T) {
	in := []domain.DetailRecord{sampleDetail()}
	first, err := json.Marshal(Transform(in))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Transform(in))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated transforms of the same input must serialize identically")
	}
}

func TestTransformEmptyInput(t *testing.T) {
	tables := Transform(nil)
	if len(tables.Facts) != 0 || len(tables.Genres) != 0 || len(tables.Studios) != 0 || len(tables.Reviews) != 0 {
		t.Errorf("empty input should yield empty tables, got %+v", tables)
	}
	// Tables serialize as empty arrays, not nulls.
	b, err := json.Marshal(tables)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(b, []byte("null")) {
		t.Errorf("empty tables should marshal to [], got %s", b)
	}
}
