// Package dashboard composes fetched sheet rows into the dashboard payload.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/forecast"
	"github.com/TobiSchelling/LogiDash/internal/metrics"
	"github.com/TobiSchelling/LogiDash/internal/sheets"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// ErrNoData is the message returned when filtering leaves nothing.
const ErrNoData = "no data available for the selected date range"

// Options configures where the service reads from.
type Options struct {
	OrdersRange     string
	ParcelsRange    string
	ForecastHorizon int
}

// Service fetches, normalizes and aggregates dashboard data. Sources are
// created once at start-up and injected.
type Service struct {
	orders  sheets.Source
	parcels sheets.Source
	opts    Options
	now     func() time.Time
}

// NewService creates a service. parcels may be nil when no parcel sheet is
// configured.
func NewService(orders, parcels sheets.Source, opts Options) *Service {
	if opts.ForecastHorizon <= 0 {
		opts.ForecastHorizon = forecast.DefaultHorizon
	}
	return &Service{orders: orders, parcels: parcels, opts: opts, now: time.Now}
}

// Query selects the records a request works on.
type Query struct {
	SortBy    string
	StartDate string
	EndDate   string
}

// Meta describes the data behind a payload.
type Meta struct {
	SortBy      Granularity       `json:"sortBy"`
	RecordCount int               `json:"recordCount"`
	DayCount    int               `json:"dayCount"`
	StartDate   string            `json:"startDate,omitempty"`
	EndDate     string            `json:"endDate,omitempty"`
	Transform   transform.Stats   `json:"transform"`
	DateRange   metrics.DateRange `json:"dateRange"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Payload is the complete dashboard response.
type Payload struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	Records   []transform.DailyRecord `json:"records,omitempty"`
	Overview  *metrics.Overview       `json:"overview,omitempty"`
	Lifecycle *metrics.Lifecycle      `json:"lifecycle,omitempty"`
	Issues    *metrics.Issues         `json:"issues,omitempty"`
	Financial *metrics.Financial      `json:"financial,omitempty"`
	Analytics *metrics.Analytics      `json:"analytics,omitempty"`
	Forecast  *forecast.Result        `json:"forecast,omitempty"`
	Meta      *Meta                   `json:"meta,omitempty"`
}

// Records fetches and transforms the order sheet.
func (s *Service) Records(ctx context.Context) ([]transform.DailyRecord, transform.Stats, error) {
	if s.orders == nil {
		return nil, transform.Stats{}, apperr.Configuration("no orders sheet configured")
	}
	rows, err := s.orders.FetchRows(ctx, s.opts.OrdersRange)
	if err != nil {
		return nil, transform.Stats{}, err
	}
	records, stats := transform.TransformWithStats(rows)
	log.Debug().
		Int("rows", stats.RowsRead).
		Int("skipped", stats.RowsSkipped).
		Int("records", stats.RecordsProduced).
		Msg("transformed order rows")
	return records, stats, nil
}

// Daily returns the filtered daily series in chronological order.
func (s *Service) Daily(ctx context.Context, q Query) ([]transform.DailyRecord, transform.Stats, error) {
	if err := validateBounds(q.StartDate, q.EndDate); err != nil {
		return nil, transform.Stats{}, err
	}
	records, stats, err := s.Records(ctx)
	if err != nil {
		return nil, stats, err
	}
	return metrics.SortAscending(Filter(records, q.StartDate, q.EndDate)), stats, nil
}

// Table returns the filtered records grouped by the query's granularity,
// newest first.
func (s *Service) Table(ctx context.Context, q Query) ([]transform.DailyRecord, error) {
	g, err := ParseGranularity(q.SortBy)
	if err != nil {
		return nil, err
	}
	daily, _, err := s.Daily(ctx, q)
	if err != nil {
		return nil, err
	}
	return Aggregate(daily, g), nil
}

// GetCompleteDashboard builds every view for the query. Upstream and
// validation failures are returned as errors; an empty result after
// filtering is a payload with Success false.
func (s *Service) GetCompleteDashboard(ctx context.Context, sortBy, startDate, endDate string) (*Payload, error) {
	g, err := ParseGranularity(sortBy)
	if err != nil {
		return nil, err
	}
	q := Query{SortBy: string(g), StartDate: startDate, EndDate: endDate}
	daily, stats, err := s.Daily(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		log.Info().Str("start", startDate).Str("end", endDate).Msg("dashboard has no data")
		return &Payload{Success: false, Error: ErrNoData}, nil
	}

	table := Aggregate(daily, g)
	overview := metrics.GetOverview(table)
	return &Payload{
		Success:   true,
		Records:   table,
		Overview:  overview,
		Lifecycle: metrics.GetLifecycle(table),
		Issues:    metrics.GetIssues(table),
		Financial: metrics.GetFinancial(table),
		Analytics: metrics.GetAnalytics(daily),
		Forecast:  forecast.Calculate(daily, s.opts.ForecastHorizon),
		Meta: &Meta{
			SortBy:      g,
			RecordCount: len(table),
			DayCount:    len(daily),
			StartDate:   startDate,
			EndDate:     endDate,
			Transform:   stats,
			DateRange:   overview.DateRange,
			GeneratedAt: s.now().UTC(),
		},
	}, nil
}

// Forecast projects the filtered daily series. A horizon <= 0 uses the
// configured default.
func (s *Service) Forecast(ctx context.Context, q Query, horizon int) (*forecast.Result, error) {
	daily, _, err := s.Daily(ctx, q)
	if err != nil {
		return nil, err
	}
	if horizon <= 0 {
		horizon = s.opts.ForecastHorizon
	}
	return forecast.Calculate(daily, horizon), nil
}

// Parcels fetches the parcel sheet and groups it by island.
func (s *Service) Parcels(ctx context.Context) (*transform.ParcelGroups, error) {
	if s.parcels == nil {
		return nil, apperr.Configuration("no parcels sheet configured")
	}
	rows, err := s.parcels.FetchRows(ctx, s.opts.ParcelsRange)
	if err != nil {
		return nil, err
	}
	return transform.TransformParcels(rows), nil
}
