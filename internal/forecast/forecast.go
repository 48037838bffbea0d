// Package forecast projects orders and revenue forward with a naive linear
// trend: the mean day-over-day change of the recent window, added per day.
package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/LogiDash/internal/dates"
	"github.com/TobiSchelling/LogiDash/internal/metrics"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

const (
	// DefaultHorizon is the number of days projected when none is given.
	DefaultHorizon = 7
	// MinRecords is the fewest days a projection needs.
	MinRecords = 3
	// Window is how many of the most recent days feed the trend.
	Window = 30
	// MinConfidence is the floor of the per-day confidence.
	MinConfidence = 0.5
)

// Point is one projected day.
type Point struct {
	Date            string  `json:"date"`
	ForecastOrders  int     `json:"forecastOrders"`
	ForecastRevenue float64 `json:"forecastRevenue"`
	Confidence      float64 `json:"confidence"`
}

// Result is a projection plus the trend it was built from.
type Result struct {
	Forecast          []Point `json:"forecast"`
	OrdersGrowthRate  float64 `json:"ordersGrowthRate"`
	RevenueGrowthRate float64 `json:"revenueGrowthRate"`
	BasedOnDays       int     `json:"basedOnDays"`
}

// Calculate projects horizon days past the latest record. It returns nil
// when fewer than MinRecords records are given. A horizon <= 0 uses
// DefaultHorizon.
func Calculate(records []transform.DailyRecord, horizon int) *Result {
	if len(records) < MinRecords {
		return nil
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	window := metrics.SortAscending(records)
	if len(window) > Window {
		window = window[len(window)-Window:]
	}

	var orderDelta, revenueDelta decimal.Decimal
	for i := 1; i < len(window); i++ {
		orderDelta = orderDelta.Add(decimal.NewFromInt(int64(window[i].TotalOrders - window[i-1].TotalOrders)))
		revenueDelta = revenueDelta.Add(decimal.NewFromFloat(window[i].Revenue).Sub(decimal.NewFromFloat(window[i-1].Revenue)))
	}
	steps := decimal.NewFromInt(int64(len(window) - 1))
	orderRate := orderDelta.Div(steps)
	revenueRate := revenueDelta.Div(steps)

	last := window[len(window)-1]
	lastDate, err := time.Parse(dates.Layout, last.Date)
	if err != nil {
		return nil
	}

	res := &Result{
		OrdersGrowthRate:  orderRate.Round(2).InexactFloat64(),
		RevenueGrowthRate: revenueRate.Round(2).InexactFloat64(),
		BasedOnDays:       len(window),
	}
	baseOrders := decimal.NewFromInt(int64(last.TotalOrders))
	baseRevenue := decimal.NewFromFloat(last.Revenue)
	for h := 1; h <= horizon; h++ {
		step := decimal.NewFromInt(int64(h))
		orders := baseOrders.Add(orderRate.Mul(step)).Round(0).IntPart()
		revenue := baseRevenue.Add(revenueRate.Mul(step)).Round(2)
		if orders < 0 {
			orders = 0
		}
		if revenue.IsNegative() {
			revenue = decimal.Zero
		}
		res.Forecast = append(res.Forecast, Point{
			Date:            dates.Format(lastDate.AddDate(0, 0, h)),
			ForecastOrders:  int(orders),
			ForecastRevenue: revenue.InexactFloat64(),
			Confidence:      Confidence(h),
		})
	}
	return res
}

// Confidence is 1 - 0.1*h, never below MinConfidence.
func Confidence(h int) float64 {
	c := 1 - 0.1*float64(h)
	return math.Max(MinConfidence, math.Round(c*100)/100)
}
