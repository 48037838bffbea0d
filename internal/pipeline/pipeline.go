package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/database"
	"github.com/TobiSchelling/LogiDash/internal/forecast"
	"github.com/TobiSchelling/LogiDash/internal/metrics"
	"github.com/TobiSchelling/LogiDash/internal/sheets"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

const totalSteps = 6

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

func (s StepResult) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: FAILED: %v", s.Name, s.Err)
	}
	return fmt.Sprintf("%s: %s", s.Name, s.Summary)
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps    []StepResult
	Records  []transform.DailyRecord
	Stats    transform.Stats
	Parcels  *transform.ParcelGroups
	Overview *metrics.Overview
	Issues   *metrics.Issues
	Forecast *forecast.Result
	ReportID int64
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Pipeline runs a one-shot sync of the spreadsheet: fetch, normalize,
// aggregate and record a sync report.
type Pipeline struct {
	orders  sheets.Source
	parcels sheets.Source
	opts    dashboard.Options
	db      *database.DB
	now     func() time.Time
}

// New creates a pipeline. parcels and db may be nil; the corresponding steps
// are then skipped.
func New(orders, parcels sheets.Source, opts dashboard.Options, db *database.DB) *Pipeline {
	if opts.ForecastHorizon <= 0 {
		opts.ForecastHorizon = forecast.DefaultHorizon
	}
	return &Pipeline{orders: orders, parcels: parcels, opts: opts, db: db, now: time.Now}
}

// Run executes the full 6-step pipeline. A failed fetch of the order sheet
// skips straight to Record; every run is recorded.
func (p *Pipeline) Run(ctx context.Context) *Result {
	started := p.now()
	r := &Result{}

	// Step 1: Fetch orders
	rows, step := p.runFetchOrders(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		r.Steps = append(r.Steps, p.record(r, started))
		return r
	}

	// Step 2: Transform
	r.Steps = append(r.Steps, p.runTransform(r, rows))

	// Step 3: Fetch parcels
	parcelRows, step := p.runFetchParcels(ctx)
	r.Steps = append(r.Steps, step)

	// Step 4: Transform parcels
	r.Steps = append(r.Steps, p.runTransformParcels(r, parcelRows, step.Err != nil))

	// Step 5: Aggregate
	r.Steps = append(r.Steps, p.runAggregate(r))

	// Step 6: Record
	r.Steps = append(r.Steps, p.record(r, started))

	return r
}

// DryRun shows what would be done without fetching anything.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch orders",
		Summary: fmt.Sprintf("[dry-run] would read %s", describeSource(p.orders, p.opts.OrdersRange)),
	})
	r.Steps = append(r.Steps, StepResult{Name: "Transform", Summary: "[dry-run] would normalize order rows"})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch parcels",
		Summary: fmt.Sprintf("[dry-run] would read %s", describeSource(p.parcels, p.opts.ParcelsRange)),
	})
	r.Steps = append(r.Steps, StepResult{Name: "Transform parcels", Summary: "[dry-run] would group parcels by island"})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("[dry-run] would compute metrics and a %d day forecast", p.opts.ForecastHorizon),
	})

	summary := "[dry-run] no database, report would not be stored"
	if p.db != nil {
		summary = "[dry-run] would store a sync report (no previous runs)"
		if last, _ := p.db.GetLastSyncReport(); last != nil {
			summary = fmt.Sprintf("[dry-run] would store a sync report (last run %s)", last.FinishedAt.Format(time.RFC3339))
		}
	}
	r.Steps = append(r.Steps, StepResult{Name: "Record", Summary: summary})

	return r
}

func describeSource(src sheets.Source, rangeSpec string) string {
	if src == nil {
		return "nothing (not configured)"
	}
	return fmt.Sprintf("range %q", rangeSpec)
}

func (p *Pipeline) runFetchOrders(ctx context.Context) ([]transform.RawRow, StepResult) {
	log.Info().Msgf("Step 1/%d: Fetching order rows...", totalSteps)
	if p.orders == nil {
		return nil, StepResult{Name: "Fetch orders", Err: apperr.Configuration("no orders sheet configured")}
	}
	rows, err := p.orders.FetchRows(ctx, p.opts.OrdersRange)
	if err != nil {
		return nil, StepResult{Name: "Fetch orders", Err: err}
	}
	return rows, StepResult{
		Name:    "Fetch orders",
		Summary: fmt.Sprintf("Fetched %d rows", len(rows)),
	}
}

func (p *Pipeline) runTransform(r *Result, rows []transform.RawRow) StepResult {
	log.Info().Msgf("Step 2/%d: Normalizing order rows...", totalSteps)
	r.Records, r.Stats = transform.TransformWithStats(rows)
	return StepResult{
		Name: "Transform",
		Summary: fmt.Sprintf("Produced %d daily records from %d rows (%d skipped, %d ranges expanded)",
			r.Stats.RecordsProduced, r.Stats.RowsRead, r.Stats.RowsSkipped, r.Stats.RangesExpanded),
	}
}

func (p *Pipeline) runFetchParcels(ctx context.Context) ([]transform.RawRow, StepResult) {
	log.Info().Msgf("Step 3/%d: Fetching parcel rows...", totalSteps)
	if p.parcels == nil {
		return nil, StepResult{Name: "Fetch parcels", Summary: "Skipped, no parcels sheet configured"}
	}
	rows, err := p.parcels.FetchRows(ctx, p.opts.ParcelsRange)
	if err != nil {
		return nil, StepResult{Name: "Fetch parcels", Err: err}
	}
	return rows, StepResult{
		Name:    "Fetch parcels",
		Summary: fmt.Sprintf("Fetched %d rows", len(rows)),
	}
}

func (p *Pipeline) runTransformParcels(r *Result, rows []transform.RawRow, fetchFailed bool) StepResult {
	log.Info().Msgf("Step 4/%d: Grouping parcels by island...", totalSteps)
	if p.parcels == nil || fetchFailed {
		return StepResult{Name: "Transform parcels", Summary: "Skipped"}
	}
	r.Parcels = transform.TransformParcels(rows)
	return StepResult{
		Name: "Transform parcels",
		Summary: fmt.Sprintf("Grouped %d parcels: %d Luzon, %d Visayas, %d Mindanao",
			r.Parcels.All.Total, r.Parcels.Luzon.Total, r.Parcels.Visayas.Total, r.Parcels.Mindanao.Total),
	}
}

func (p *Pipeline) runAggregate(r *Result) StepResult {
	log.Info().Msgf("Step 5/%d: Aggregating metrics...", totalSteps)
	r.Overview = metrics.GetOverview(r.Records)
	if r.Overview == nil {
		return StepResult{Name: "Aggregate", Summary: "No records to aggregate"}
	}
	r.Issues = metrics.GetIssues(r.Records)
	r.Forecast = forecast.Calculate(r.Records, p.opts.ForecastHorizon)

	summary := fmt.Sprintf("%d orders from %s to %s, %d alerts",
		r.Overview.Totals.TotalOrders, r.Overview.DateRange.Start, r.Overview.DateRange.End, len(r.Issues.Alerts))
	if r.Forecast != nil {
		summary += fmt.Sprintf(", forecast %d days", len(r.Forecast.Forecast))
	}
	return StepResult{Name: "Aggregate", Summary: summary}
}

// record stores the run as a sync report. It is also called for runs that
// stop early so failed syncs stay visible.
func (p *Pipeline) record(r *Result, started time.Time) StepResult {
	log.Info().Msgf("Step 6/%d: Recording sync report...", totalSteps)
	if p.db == nil {
		return StepResult{Name: "Record", Summary: "Skipped, no database"}
	}

	rep := database.SyncReport{
		StartedAt:   started,
		FinishedAt:  p.now(),
		RowsRead:    r.Stats.RowsRead,
		RowsSkipped: r.Stats.RowsSkipped,
		Records:     len(r.Records),
		Success:     true,
	}
	if r.Parcels != nil {
		rep.Parcels = r.Parcels.All.Total
	}
	if r.Overview != nil {
		rep.DateStart = r.Overview.DateRange.Start
		rep.DateEnd = r.Overview.DateRange.End
	}
	if r.Issues != nil {
		rep.Alerts = len(r.Issues.Alerts)
	}
	for _, s := range r.Steps {
		rep.Steps = append(rep.Steps, s.String())
	}
	if err := r.Err(); err != nil {
		rep.Success = false
		rep.ErrorMessage = err.Error()
	}

	id, err := p.db.InsertSyncReport(rep)
	if err != nil {
		return StepResult{Name: "Record", Err: fmt.Errorf("storing sync report: %w", err)}
	}
	r.ReportID = id
	return StepResult{Name: "Record", Summary: fmt.Sprintf("Stored sync report #%d", id)}
}
