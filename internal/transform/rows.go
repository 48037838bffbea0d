package transform

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/dates"
)

// Column layout of the daily orders sheet.
const (
	colDate = iota
	colAdSpend
	colShippingFee
	colTotalItems
	colTotalOrders
	colRevenue
	colFirstStage

	// MinOrderColumns is the shortest row accepted; later cells default to 0.
	MinOrderColumns = colFirstStage
)

// RawRow is one spreadsheet row as text cells.
type RawRow []string

func (r RawRow) cell(i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

func (r RawRow) blank() bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Stats describes one transformation run.
type Stats struct {
	RowsRead        int `json:"rowsRead"`
	RowsSkipped     int `json:"rowsSkipped"`
	RangesExpanded  int `json:"rangesExpanded"`
	RecordsProduced int `json:"recordsProduced"`
}

// Transform converts header-less order rows into one record per calendar day.
func Transform(rows []RawRow) []DailyRecord {
	records, _ := TransformWithStats(rows)
	return records
}

// TransformWithStats is Transform plus counters. Rows with unparseable dates
// or too few columns are skipped with a warning; they never abort the run.
// A date produced twice is merged into the first record for that date.
func TransformWithStats(rows []RawRow) ([]DailyRecord, Stats) {
	var stats Stats
	var records []DailyRecord
	index := make(map[string]int)

	for i, row := range rows {
		if row.blank() {
			continue
		}
		stats.RowsRead++

		if len(row) < MinOrderColumns {
			log.Warn().Int("row", i).Int("columns", len(row)).Msg("skipping short order row")
			stats.RowsSkipped++
			continue
		}

		parsed, ok := dates.Parse(row.cell(colDate))
		if !ok {
			log.Warn().Int("row", i).Str("date", row.cell(colDate)).Msg("skipping order row with unparseable date")
			stats.RowsSkipped++
			continue
		}

		base := parseOrderRow(row)
		var expanded []DailyRecord
		if parsed.IsRange {
			stats.RangesExpanded++
			expanded = expandRange(base, parsed)
		} else {
			base.Date = dates.Format(parsed.Date)
			expanded = []DailyRecord{base}
		}

		for _, rec := range expanded {
			if pos, dup := index[rec.Date]; dup {
				log.Debug().Str("date", rec.Date).Msg("merging duplicate order date")
				records[pos] = records[pos].Add(rec)
				continue
			}
			index[rec.Date] = len(records)
			records = append(records, rec)
		}
	}

	stats.RecordsProduced = len(records)
	return records, stats
}

// parseOrderRow reads every numeric column of a row, leaving Date empty.
func parseOrderRow(row RawRow) DailyRecord {
	rec := DailyRecord{
		AdSpend:     ParseMoney(row.cell(colAdSpend)),
		ShippingFee: ParseMoney(row.cell(colShippingFee)),
		TotalItems:  ParseCount(row.cell(colTotalItems)),
		TotalOrders: ParseCount(row.cell(colTotalOrders)),
		Revenue:     ParseMoney(row.cell(colRevenue)),
	}
	for _, s := range Stages() {
		col := colFirstStage + int(s)*3
		rec.Stages[s] = StageValue{
			Count:   ParseCount(row.cell(col)),
			Amount:  ParseMoney(row.cell(col + 1)),
			Percent: ParseNumber(row.cell(col + 2)),
		}
	}

	// The sheet sometimes leaves the cancelled count empty while reporting
	// its percent.
	c := rec.Stages[Cancelled]
	if c.Count == 0 && c.Percent > 0 {
		rec.Stages[Cancelled].Count = int(math.Round(c.Percent / 100 * float64(rec.TotalOrders)))
	}
	return rec
}

// expandRange spreads a row over every day of its range. Counts and amounts
// are apportioned with the remainder on the last day; percents are copied.
func expandRange(base DailyRecord, r dates.Result) []DailyRecord {
	n := r.Days
	days := r.Dates()
	out := make([]DailyRecord, n)

	adSpend := apportionMoney(base.AdSpend, n)
	shipping := apportionMoney(base.ShippingFee, n)
	items := apportionCount(base.TotalItems, n)
	orders := apportionCount(base.TotalOrders, n)
	revenue := apportionMoney(base.Revenue, n)

	var stageCounts [NumStages][]int
	var stageAmounts [NumStages][]float64
	for _, s := range Stages() {
		stageCounts[s] = apportionCount(base.Stages[s].Count, n)
		stageAmounts[s] = apportionMoney(base.Stages[s].Amount, n)
	}

	for i := 0; i < n; i++ {
		rec := DailyRecord{
			Date:        dates.Format(days[i]),
			AdSpend:     adSpend[i],
			ShippingFee: shipping[i],
			TotalItems:  items[i],
			TotalOrders: orders[i],
			Revenue:     revenue[i],
		}
		for _, s := range Stages() {
			rec.Stages[s] = StageValue{
				Count:   stageCounts[s][i],
				Amount:  stageAmounts[s][i],
				Percent: base.Stages[s].Percent,
			}
		}
		out[i] = rec
	}
	return out
}
