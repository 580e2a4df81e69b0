package parser

import (
	"regexp"
	"strconv"
	"time"
)

// datePatterns is ordered from most to least specific. Patterns without a
// year group assume the current year and carry a confidence penalty.
var datePatterns = []struct {
	re       *regexp.Regexp
	hasYear  bool
	yearIdx  int
	monthIdx int
	dayIdx   int
}{
	// 2024-01-15 / 2024/1/5
	{regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`), true, 1, 2, 3},
	// 2024年1月15日
	{regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`), true, 1, 2, 3},
	// 01-15 (current year assumed)
	{regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})`), false, -1, 1, 2},
	// 1月15日 (current year assumed)
	{regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`), false, -1, 1, 2},
}

// DateExtractor finds the most plausible transaction date in a normalized
// text. The caller supplies "now" so runs are reproducible.
type DateExtractor struct {
	cfg ScoringConfig
}

func NewDateExtractor(cfg ScoringConfig) *DateExtractor {
	return &DateExtractor{cfg: cfg}
}

// Extract returns the best date candidate as YYYY-MM-DD. When the text holds
// no valid date, the field falls back to today's date with a fixed very low
// confidence; the fallback is a first-class result, not an error.
func (e *DateExtractor) Extract(text string, now time.Time) Field[string] {
	var best *Field[string]

	for rank, p := range datePatterns {
		confidence := e.cfg.DateBase - float64(rank)*e.cfg.DateRankStep
		if !p.hasYear {
			confidence -= e.cfg.AssumedYearPenalty
		}
		if best != nil && best.Confidence >= confidence {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			year := now.Year()
			if p.hasYear {
				year = atoi(m[p.yearIdx])
			}
			month := atoi(m[p.monthIdx])
			day := atoi(m[p.dayIdx])

			date, ok := makeDate(year, month, day)
			if !ok {
				continue
			}
			f := FieldOf(date.Format("2006-01-02"), confidence, m[0])
			best = &f
			break // later matches of the same pattern cannot score higher
		}
	}

	if best == nil {
		return FieldOf(now.Format("2006-01-02"), e.cfg.FallbackDateConfidence, "默认当前日期")
	}
	return *best
}

// makeDate builds a calendar date, rejecting component rollover such as
// month 13 or February 31.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// atoi is safe here: the submatches are digit-only by construction.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
