// Package metrics derives dashboard views from normalized daily records.
// Every function is pure and returns nil for empty input.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// DateRange is the first and last date covered by a record set.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Overview pairs the most recent day with the totals of every day.
type Overview struct {
	Latest      transform.DailyRecord `json:"latest"`
	Totals      transform.DailyRecord `json:"totals"`
	RecordCount int                   `json:"recordCount"`
	DateRange   DateRange             `json:"dateRange"`
}

// GetOverview returns the latest record and the summed totals, each with
// stage percents computed against its own order count.
func GetOverview(records []transform.DailyRecord) *Overview {
	if len(records) == 0 {
		return nil
	}
	latest := records[0]
	dr := DateRange{Start: records[0].Date, End: records[0].Date}
	for _, r := range records[1:] {
		if r.Date > latest.Date {
			latest = r
		}
		if r.Date < dr.Start {
			dr.Start = r.Date
		}
		if r.Date > dr.End {
			dr.End = r.Date
		}
	}
	totals := transform.Sum(records)
	totals.Date = dr.End
	return &Overview{
		Latest:      latest.WithPercents(),
		Totals:      totals,
		RecordCount: len(records),
		DateRange:   dr,
	}
}

// LifecycleStage is one step of the order funnel.
type LifecycleStage struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// Lifecycle is the summed order funnel.
type Lifecycle struct {
	TotalOrders int              `json:"totalOrders"`
	Stages      []LifecycleStage `json:"stages"`
}

// GetLifecycle sums all records and expresses each stage against total orders.
func GetLifecycle(records []transform.DailyRecord) *Lifecycle {
	if len(records) == 0 {
		return nil
	}
	sum := transform.Sum(records)
	lc := &Lifecycle{TotalOrders: sum.TotalOrders}
	for _, s := range transform.Stages() {
		v := sum.Stage(s)
		lc.Stages = append(lc.Stages, LifecycleStage{
			Key:     s.Key(),
			Label:   s.Label(),
			Count:   v.Count,
			Amount:  v.Amount,
			Percent: v.Percent,
		})
	}
	return lc
}

// Stage returns the funnel entry with the given key.
func (l *Lifecycle) Stage(key string) (LifecycleStage, bool) {
	for _, s := range l.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return LifecycleStage{}, false
}

// TrendPoint is one day of the analytics series.
type TrendPoint struct {
	Date      string  `json:"date"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
	AdSpend   float64 `json:"adSpend"`
	Delivered int     `json:"delivered"`
	Returned  int     `json:"returned"`
	Cancelled int     `json:"cancelled"`
}

// Analytics describes the daily trend of a record set.
type Analytics struct {
	Trend               []TrendPoint `json:"trend"`
	Days                int          `json:"days"`
	AverageDailyOrders  float64      `json:"averageDailyOrders"`
	AverageDailyRevenue float64      `json:"averageDailyRevenue"`
	PeakDay             TrendPoint   `json:"peakDay"`
	OrdersGrowth        float64      `json:"ordersGrowth"`
	RevenueGrowth       float64      `json:"revenueGrowth"`
}

// GetAnalytics builds the ascending daily trend with averages, the day with
// the most orders and first-to-last growth in percent.
func GetAnalytics(records []transform.DailyRecord) *Analytics {
	if len(records) == 0 {
		return nil
	}
	sorted := SortAscending(records)
	a := &Analytics{Days: len(sorted)}

	var orders int
	var revenue decimal.Decimal
	for _, r := range sorted {
		p := TrendPoint{
			Date:      r.Date,
			Orders:    r.TotalOrders,
			Revenue:   r.Revenue,
			AdSpend:   r.AdSpend,
			Delivered: r.Stage(transform.Delivered).Count,
			Returned:  r.Stage(transform.Returned).Count,
			Cancelled: r.Stage(transform.Cancelled).Count + r.Stage(transform.CancelledWithoutPrice).Count,
		}
		a.Trend = append(a.Trend, p)
		if p.Orders > a.PeakDay.Orders || a.PeakDay.Date == "" {
			a.PeakDay = p
		}
		orders += p.Orders
		revenue = revenue.Add(decimal.NewFromFloat(p.Revenue))
	}

	n := decimal.NewFromInt(int64(len(sorted)))
	a.AverageDailyOrders = decimal.NewFromInt(int64(orders)).Div(n).Round(2).InexactFloat64()
	a.AverageDailyRevenue = revenue.Div(n).Round(2).InexactFloat64()

	first, last := a.Trend[0], a.Trend[len(a.Trend)-1]
	a.OrdersGrowth = growth(float64(first.Orders), float64(last.Orders))
	a.RevenueGrowth = growth(first.Revenue, last.Revenue)
	return a
}

func growth(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return ratio(to-from, from)
}

// ratio returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// SortAscending returns a copy of records ordered by date.
func SortAscending(records []transform.DailyRecord) []transform.DailyRecord {
	out := make([]transform.DailyRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
