package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/animetrics/animetrics/engine/domain"
)

// Defensive parsers for the untyped text the source site serves. Every
// function degrades to nil on unparsable input; none of them return errors.

const (
	fullDateLayout = "Jan 2, 2006"
	isoDateLayout  = "2006-01-02"
)

var (
	yearOnlyRe = regexp.MustCompile(`^\d{4}$`)
	weekdayRe  = regexp.MustCompile(`([A-Za-z]+day)`)
	clockRe    = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	inlineDate = regexp.MustCompile(`(\w+ \d+, \d{4})`)
	labelSpace = regexp.MustCompile(`\s+`)
)

// ParseDate parses a date with a two-tier strategy: the full
// "month day, year" format first, then year-only. A year-only date is
// upgraded to January 1st of that year rather than left ambiguous.
// Returns the ISO-8601 date or nil.
func ParseDate(s string) *string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(fullDateLayout, s); err == nil {
		iso := t.Format(isoDateLayout)
		return &iso
	}
	if yearOnlyRe.MatchString(s) {
		iso := s + "-01-01"
		return &iso
	}
	return nil
}

// FindDate extracts the first "month day, year" occurrence within free
// text (e.g. "Updated Jan 5, 2023 by ...") and parses it.
func FindDate(s string) *string {
	m := inlineDate.FindString(s)
	if m == "" {
		return nil
	}
	return ParseDate(m)
}

// ParseAiring classifies an aired range and parses each side
// independently. The textual rule: an open-ended "to ?" marker means
// currently airing, a range separator means finished airing, and anything
// else non-empty is a one-time airing whose end date equals its start.
func ParseAiring(s string) domain.AiringInfo {
	info := domain.AiringInfo{Status: domain.AiringUnknown}
	s = strings.TrimSpace(s)
	if s == "" || s == "Not available" {
		return info
	}

	switch {
	case strings.Contains(s, "to ?"):
		info.Status = domain.AiringCurrent
	case strings.Contains(s, " to "):
		info.Status = domain.AiringFinished
	default:
		info.Status = domain.AiringAired
	}

	if start, end, ok := strings.Cut(s, " to "); ok {
		info.StartDate = ParseDate(start)
		if strings.TrimSpace(end) != "?" {
			info.EndDate = ParseDate(end)
		}
		return info
	}

	info.StartDate = ParseDate(s)
	info.EndDate = info.StartDate
	return info
}

// ParseInt parses an integer after stripping thousands separators,
// surrounding whitespace, and any of the given unit suffixes
// (e.g. "members", "eps"). Returns nil on failure, never an error.
func ParseInt(s string, suffixes ...string) *int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	for _, suf := range suffixes {
		s = strings.TrimSpace(strings.TrimSuffix(s, suf))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ParseScore parses a floating point score in [0, 10]. Out-of-range or
// unparsable input yields nil.
func ParseScore(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 10 {
		return nil
	}
	return &f
}

// ParseBroadcast mines free text like "Tuesdays at 01:05 (JST)" for a
// weekday token and an HH:MM token independently. Absence of either leaves
// that side nil.
func ParseBroadcast(s string) domain.BroadcastInfo {
	var info domain.BroadcastInfo
	s = strings.TrimSpace(s)
	if s == "" || s == "Unknown" {
		return info
	}
	if m := weekdayRe.FindString(s); m != "" {
		info.Day = &m
	}
	if m := clockRe.FindString(s); m != "" {
		info.Time = &m
	}
	return info
}

// SplitLabel splits a "label: value" block on the first colon only. The
// label is lower-cased with whitespace runs collapsed to underscores to
// form a stable mapping key.
func SplitLabel(s string) (key, value string, ok bool) {
	label, rest, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	key = labelSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	return key, strings.TrimSpace(rest), true
}

// ParseMinutesPerEpisode derives per-episode minutes from a duration
// string by taking the numeric token immediately preceding the "min"
// marker. A range token like "23-24" resolves to its upper bound.
func ParseMinutesPerEpisode(s string) *int {
	before, _, found := strings.Cut(s, "min")
	if !found {
		return nil
	}
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return nil
	}
	token := fields[len(fields)-1]
	if idx := strings.LastIndexByte(token, '-'); idx != -1 {
		token = token[idx+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return nil
	}
	return &n
}
