package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the canonical date format used across the dashboard.
const Layout = "2006-01-02"

// Result is a parsed date cell: either a single date or an inclusive day range.
type Result struct {
	IsRange   bool      `json:"isRange"`
	Date      time.Time `json:"date,omitzero"`
	StartDate time.Time `json:"startDate,omitzero"`
	EndDate   time.Time `json:"endDate,omitzero"`
	Days      int       `json:"days,omitempty"`
}

// Dates returns every calendar day the result covers, in order.
func (r Result) Dates() []time.Time {
	if !r.IsRange {
		return []time.Time{r.Date}
	}
	out := make([]time.Time, 0, r.Days)
	for i := 0; i < r.Days; i++ {
		out = append(out, r.StartDate.AddDate(0, 0, i))
	}
	return out
}

// Strategy is one named attempt at interpreting a cell.
type Strategy struct {
	Name  string
	Parse func(cell string) (Result, bool)
}

// DefaultStrategies is the ordered chain used by Parse.
var DefaultStrategies = []Strategy{
	{Name: "range", Parse: parseRange},
	{Name: "generic", Parse: parseGeneric},
	{Name: "month-day-year", Parse: parseMonthDayYear},
}

// Parse runs the default strategy chain over a raw cell value.
func Parse(cell string) (Result, bool) {
	return ParseWith(DefaultStrategies, cell)
}

// ParseWith runs strategies left to right; the first success wins.
func ParseWith(strategies []Strategy, cell string) (Result, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return Result{}, false
	}
	for _, s := range strategies {
		if r, ok := s.Parse(cell); ok {
			return r, true
		}
	}
	return Result{}, false
}

// Format renders a date in the canonical layout.
func Format(t time.Time) string {
	return t.Format(Layout)
}

var (
	rangePattern        = regexp.MustCompile(`^([A-Z]+)\.?\s+(\d{1,2})\s*-\s*(\d{1,2}),?\s+(\d{4})$`)
	monthDayYearPattern = regexp.MustCompile(`^([A-Z]+)\.?\s+(\d{1,2}),?\s+(\d{4})$`)
	yearPattern         = regexp.MustCompile(`(^|\D)\d{4}($|\D)`)
	bareYearPattern     = regexp.MustCompile(`^\d{4}$`)
)

// Years outside this window are treated as parse failures.
const (
	minYear = 1900
	maxYear = 2999
)

var monthNames = map[string]time.Month{
	"JAN": time.January, "JANUARY": time.January,
	"FEB": time.February, "FEBRUARY": time.February,
	"MAR": time.March, "MARCH": time.March,
	"APR": time.April, "APRIL": time.April,
	"MAY": time.May,
	"JUN": time.June, "JUNE": time.June,
	"JUL": time.July, "JULY": time.July,
	"AUG": time.August, "AUGUST": time.August,
	"SEP": time.September, "SEPT": time.September, "SEPTEMBER": time.September,
	"OCT": time.October, "OCTOBER": time.October,
	"NOV": time.November, "NOVEMBER": time.November,
	"DEC": time.December, "DECEMBER": time.December,
}

// parseRange handles "NOVEMBER 1-3, 2025". Both days share one month and year.
func parseRange(cell string) (Result, bool) {
	upper := strings.ToUpper(strings.TrimSpace(cell))
	if !strings.Contains(upper, "-") {
		return Result{}, false
	}
	m := rangePattern.FindStringSubmatch(upper)
	if m == nil {
		return Result{}, false
	}
	month, ok := monthNames[m[1]]
	if !ok {
		return Result{}, false
	}
	startDay, _ := strconv.Atoi(m[2])
	endDay, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])
	if year < minYear || year > maxYear {
		return Result{}, false
	}

	start, ok := makeDate(year, month, startDay)
	if !ok {
		return Result{}, false
	}
	end, ok := makeDate(year, month, endDay)
	if !ok || end.Before(start) {
		return Result{}, false
	}

	days := int(end.Sub(start).Hours()/24) + 1
	return Result{IsRange: true, StartDate: start, EndDate: end, Days: days}, true
}

// parseGeneric only accepts cells that name a full date. dateparse fills a
// missing year with 0 and a missing month/day with January 1st.
func parseGeneric(cell string) (Result, bool) {
	cell = strings.TrimSpace(cell)
	if !yearPattern.MatchString(cell) || bareYearPattern.MatchString(cell) {
		return Result{}, false
	}
	t, err := dateparse.ParseIn(cell, time.UTC)
	if err != nil || t.Year() < minYear || t.Year() > maxYear {
		return Result{}, false
	}
	return Result{Date: truncate(t)}, true
}

func parseMonthDayYear(cell string) (Result, bool) {
	m := monthDayYearPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(cell)))
	if m == nil {
		return Result{}, false
	}
	month, ok := monthNames[m[1]]
	if !ok {
		return Result{}, false
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < minYear || year > maxYear {
		return Result{}, false
	}
	d, ok := makeDate(year, month, day)
	if !ok {
		return Result{}, false
	}
	return Result{Date: d}, true
}

// makeDate rejects days that time.Date would silently roll into the next month.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
