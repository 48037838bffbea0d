package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/dates"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Granularity is the period a dashboard table is grouped by.
type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity accepts day, month or year; empty means day.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Day, nil
	case Day, Month, Year:
		return g, nil
	}
	return "", apperr.Validation("sortBy must be day, month or year, got " + s)
}

// PeriodKey returns the grouping key of a YYYY-MM-DD date.
func PeriodKey(date string, g Granularity) string {
	switch {
	case g == Month && len(date) >= 7:
		return date[:7]
	case g == Year && len(date) >= 4:
		return date[:4]
	}
	return date
}

// FormatPeriod renders a period key for display: "Nov 05, 2025",
// "Nov 2025" or "2025".
func FormatPeriod(key string) string {
	if d, err := time.Parse(dates.Layout, key); err == nil {
		return d.Format("Jan 02, 2006")
	}
	if d, err := time.Parse("2006-01", key); err == nil {
		return d.Format("Jan 2006")
	}
	return key
}

// Filter keeps records whose date lies within [start, end]. Empty bounds
// are open.
func Filter(records []transform.DailyRecord, start, end string) []transform.DailyRecord {
	out := make([]transform.DailyRecord, 0, len(records))
	for _, r := range records {
		if start != "" && r.Date < start {
			continue
		}
		if end != "" && r.Date > end {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Aggregate groups records by period and sorts them newest first. For
// month and year, counts and amounts are summed, percents recomputed and
// the date taken from the latest record of the period.
func Aggregate(records []transform.DailyRecord, g Granularity) []transform.DailyRecord {
	var out []transform.DailyRecord
	if g == Day {
		out = make([]transform.DailyRecord, len(records))
		copy(out, records)
	} else {
		index := make(map[string]int)
		for _, r := range records {
			key := PeriodKey(r.Date, g)
			pos, ok := index[key]
			if !ok {
				index[key] = len(out)
				out = append(out, r.WithPercents())
				continue
			}
			merged := out[pos].Add(r)
			if r.Date > out[pos].Date {
				merged.Date = r.Date
			}
			out[pos] = merged
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func validateBounds(start, end string) error {
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dates.Layout, d); err != nil {
			return apperr.Validation("dates must be YYYY-MM-DD, got " + d)
		}
	}
	if start != "" && end != "" && start > end {
		return apperr.Validation("startDate is after endDate")
	}
	return nil
}
