package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/database"
	"github.com/TobiSchelling/LogiDash/internal/sheets"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

var opts = dashboard.Options{OrdersRange: "Orders!A2:AM", ParcelsRange: "Parcels!A2:I"}

func orders() *sheets.StaticSource {
	return &sheets.StaticSource{Rows: [][]string{
		{"Date", "Ads", "Shipping", "Items", "Orders", "Revenue"},
		{"2025-10-31", "10", "20", "30", "60", "600"},
		{"NOVEMBER 1-3, 2025", "50", "150", "100", "400", "2000"},
		{"TOTAL", "60", "170", "130", "460", "2600"},
	}}
}

func parcels() *sheets.StaticSource {
	return &sheets.StaticSource{Rows: [][]string{
		{"Date", "Tracking", "Status", "Shipper", "Consignee", "Address", "COD", "Service", "Total"},
		{"2025-11-01", "T1", "Delivered", "Acme", "Ana", "Makati City", "500", "50", "550"},
		{"2025-11-01", "T2", "In Transit", "Acme", "Ben", "Davao City", "300", "40", "340"},
	}}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun(t *testing.T) {
	db := openTestDB(t)
	r := New(orders(), parcels(), opts, db).Run(context.Background())

	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Steps) != totalSteps {
		t.Fatalf("expected %d steps, got %d", totalSteps, len(r.Steps))
	}
	if len(r.Records) != 4 {
		t.Errorf("expected 4 daily records, got %d", len(r.Records))
	}
	if r.Stats.RowsSkipped != 1 {
		t.Errorf("expected the TOTAL row to be skipped, got %+v", r.Stats)
	}
	if r.Parcels.All.Total != 2 || r.Parcels.Mindanao.Total != 1 {
		t.Errorf("unexpected parcel grouping: all=%d mindanao=%d", r.Parcels.All.Total, r.Parcels.Mindanao.Total)
	}
	if r.Overview.Totals.TotalOrders != 460 {
		t.Errorf("total orders = %d, want 460", r.Overview.Totals.TotalOrders)
	}

	last, err := db.GetLastSyncReport()
	if err != nil || last == nil {
		t.Fatalf("expected a stored sync report: %v", err)
	}
	if last.ID != r.ReportID || !last.Success || last.Records != 4 || last.Parcels != 2 {
		t.Errorf("unexpected report: %+v", last)
	}
	if last.DateStart != "2025-10-31" || last.DateEnd != "2025-11-03" {
		t.Errorf("unexpected date range %s..%s", last.DateStart, last.DateEnd)
	}
	if len(last.Steps) != totalSteps-1 {
		t.Errorf("expected the steps before Record to be stored, got %v", last.Steps)
	}
}

func TestRunStopsOnOrderFetchFailure(t *testing.T) {
	db := openTestDB(t)
	failing := sheets.SourceFunc(func(context.Context, string) ([]transform.RawRow, error) {
		return nil, apperr.Upstream("fetching orders", nil)
	})
	r := New(failing, parcels(), opts, db).Run(context.Background())

	if apperr.KindOf(r.Err()) != apperr.KindUpstream {
		t.Fatalf("expected upstream error, got %v", r.Err())
	}
	if len(r.Steps) != 2 || r.Steps[1].Name != "Record" {
		t.Errorf("expected fetch then record, got %v", r.Steps)
	}

	last, _ := db.GetLastSyncReport()
	if last == nil || last.Success || !strings.Contains(last.ErrorMessage, "fetching orders") {
		t.Errorf("expected a failed sync report, got %+v", last)
	}
}

func TestRunReportsRecordFailureAfterFetchFailure(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.Close()

	failing := sheets.SourceFunc(func(context.Context, string) ([]transform.RawRow, error) {
		return nil, apperr.Upstream("fetching orders", nil)
	})
	r := New(failing, nil, opts, db).Run(context.Background())

	if len(r.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %v", r.Steps)
	}
	rec := r.Steps[1]
	if rec.Name != "Record" || rec.Err == nil || !strings.Contains(rec.Err.Error(), "storing sync report") {
		t.Errorf("expected a visible record failure, got %v", rec)
	}
}

func TestRunWithoutParcelsOrDB(t *testing.T) {
	r := New(orders(), nil, opts, nil).Run(context.Background())
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Parcels != nil {
		t.Error("parcels should be skipped")
	}
	if got := r.Steps[len(r.Steps)-1].Summary; !strings.Contains(got, "no database") {
		t.Errorf("unexpected record summary %q", got)
	}
}

func TestDryRun(t *testing.T) {
	db := openTestDB(t)
	p := New(orders(), nil, opts, db)
	p.now = func() time.Time { return time.Date(2025, 11, 4, 8, 0, 0, 0, time.UTC) }
	p.Run(context.Background())

	r := p.DryRun()
	if len(r.Steps) != totalSteps {
		t.Fatalf("expected %d steps, got %d", totalSteps, len(r.Steps))
	}
	for _, s := range r.Steps {
		if !strings.HasPrefix(s.Summary, "[dry-run]") {
			t.Errorf("step %s should be a dry run: %q", s.Name, s.Summary)
		}
	}
	if !strings.Contains(r.Steps[2].Summary, "not configured") {
		t.Errorf("expected parcels to be reported as not configured: %q", r.Steps[2].Summary)
	}
	if !strings.Contains(r.Steps[5].Summary, "2025-11-04T08:00:00Z") {
		t.Errorf("expected the last run time: %q", r.Steps[5].Summary)
	}
}
