package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/animetrics/animetrics/engine/ingest"
)

// File names of the warehouse-ingestible outputs.
const (
	ListingFile    = "top_anime.csv"
	FactsFile      = "anime_facts.csv"
	GenresFile     = "anime_genres.csv"
	StudiosFile    = "anime_studios.csv"
	ReviewsFile    = "anime_reviews.csv"
	RawDetailsFile = "anime_details_raw.json"
)

// CSVSink writes one CSV file per table into Dir, plus the raw detail
// collection as JSON for document-store ingestion.
type CSVSink struct {
	Dir string
}

func (s *CSVSink) WriteRun(_ context.Context, res *ingest.RunResult) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := s.writeListing(res); err != nil {
		return err
	}
	if err := s.writeFacts(res); err != nil {
		return err
	}
	if err := s.writeGenres(res); err != nil {
		return err
	}
	if err := s.writeStudios(res); err != nil {
		return err
	}
	if err := s.writeReviews(res); err != nil {
		return err
	}
	return s.writeRawDetails(res)
}

func (s *CSVSink) writeCSV(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return f.Close()
}

func (s *CSVSink) writeListing(res *ingest.RunResult) error {
	rows := make([][]string, 0, len(res.Listing))
	for _, r := range res.Listing {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			cellInt(r.Rank),
			r.Title,
			r.URL,
			cellFloat(r.Score),
			r.MediaType,
			cellInt(r.Episodes),
			cellInt(r.Members),
		})
	}
	header := []string{"id", "rank", "title", "url", "score", "type", "episodes", "members"}
	return s.writeCSV(ListingFile, header, rows)
}

func (s *CSVSink) writeFacts(res *ingest.RunResult) error {
	rows := make([][]string, 0, len(res.Tables.Facts))
	for _, f := range res.Tables.Facts {
		rows = append(rows, []string{
			strconv.Itoa(f.ID),
			f.Title,
			cellFloat(f.Score),
			cellInt(f.Episodes),
			f.Status,
			cellStr(f.Season),
			cellInt(f.Year),
			strconv.Itoa(f.Members),
			strconv.Itoa(f.Favorites),
			cellInt(f.MinutesPerEpisode),
			cellInt(f.TotalRuntimeMinutes),
			cellStr(f.StartDate),
			cellStr(f.EndDate),
			f.AiringStatus,
			cellStr(f.BroadcastDay),
			cellStr(f.BroadcastTime),
			f.URL,
		})
	}
	header := []string{
		"anime_id", "title", "score", "episodes", "status", "season", "year",
		"members", "favorites", "minutes_per_episode", "total_runtime_minutes",
		"start_date", "end_date", "airing_status", "broadcast_day",
		"broadcast_time", "url",
	}
	return s.writeCSV(FactsFile, header, rows)
}

func (s *CSVSink) writeGenres(res *ingest.RunResult) error {
	rows := make([][]string, 0, len(res.Tables.Genres))
	for _, g := range res.Tables.Genres {
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Genre})
	}
	return s.writeCSV(GenresFile, []string{"anime_id", "genre"}, rows)
}

func (s *CSVSink) writeStudios(res *ingest.RunResult) error {
	rows := make([][]string, 0, len(res.Tables.Studios))
	for _, st := range res.Tables.Studios {
		rows = append(rows, []string{strconv.Itoa(st.ID), st.Studio})
	}
	return s.writeCSV(StudiosFile, []string{"anime_id", "studio"}, rows)
}

func (s *CSVSink) writeReviews(res *ingest.RunResult) error {
	rows := make([][]string, 0, len(res.Tables.Reviews))
	for _, r := range res.Tables.Reviews {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Reviewer,
			cellStr(r.Date),
			cellInt(r.Score),
			r.Content,
			strconv.Itoa(r.HelpfulCount),
		})
	}
	header := []string{"anime_id", "reviewer", "date", "score", "content", "helpful_count"}
	return s.writeCSV(ReviewsFile, header, rows)
}

func (s *CSVSink) writeRawDetails(res *ingest.RunResult) error {
	f, err := os.Create(filepath.Join(s.Dir, RawDetailsFile))
	if err != nil {
		return fmt.Errorf("create %s: %w", RawDetailsFile, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Details); err != nil {
		return fmt.Errorf("write %s: %w", RawDetailsFile, err)
	}
	return f.Close()
}
