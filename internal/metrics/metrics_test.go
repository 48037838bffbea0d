package metrics

import (
	"encoding/json"
	"testing"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

func day(date string, orders int, revenue, shipping, ads float64) transform.DailyRecord {
	return transform.DailyRecord{
		Date:        date,
		TotalOrders: orders,
		Revenue:     revenue,
		ShippingFee: shipping,
		AdSpend:     ads,
	}
}

func withStage(r transform.DailyRecord, s transform.Stage, count int, amount float64) transform.DailyRecord {
	r.Stages[s] = transform.StageValue{Count: count, Amount: amount}
	return r
}

func sample() []transform.DailyRecord {
	return []transform.DailyRecord{
		withStage(day("2025-11-01", 100, 10000, 1000, 500), transform.Delivered, 60, 6000),
		withStage(day("2025-11-03", 50, 5000, 500, 250), transform.Delivered, 20, 2000),
		withStage(day("2025-11-02", 150, 15000, 1500, 750), transform.Delivered, 90, 9000),
	}
}

func TestEmptyInputReturnsNil(t *testing.T) {
	if GetOverview(nil) != nil {
		t.Error("overview should be nil")
	}
	if GetLifecycle([]transform.DailyRecord{}) != nil {
		t.Error("lifecycle should be nil")
	}
	if GetIssues(nil) != nil {
		t.Error("issues should be nil")
	}
	if GetFinancial(nil) != nil {
		t.Error("financial should be nil")
	}
	if GetAnalytics(nil) != nil {
		t.Error("analytics should be nil")
	}
}

func TestOverview(t *testing.T) {
	o := GetOverview(sample())
	if o.Latest.Date != "2025-11-03" {
		t.Errorf("latest should be chronological, got %s", o.Latest.Date)
	}
	if o.Latest.Stage(transform.Delivered).Percent != 40 {
		t.Errorf("latest delivered percent = %v, want 40", o.Latest.Stage(transform.Delivered).Percent)
	}
	if o.Totals.TotalOrders != 300 || o.Totals.Revenue != 30000 {
		t.Errorf("unexpected totals: %+v", o.Totals)
	}
	if o.Totals.Stage(transform.Delivered).Percent != 56.67 {
		t.Errorf("totals delivered percent = %v, want 56.67", o.Totals.Stage(transform.Delivered).Percent)
	}
	if o.RecordCount != 3 || o.DateRange != (DateRange{"2025-11-01", "2025-11-03"}) {
		t.Errorf("unexpected count/range: %d %+v", o.RecordCount, o.DateRange)
	}
}

func TestLifecycle(t *testing.T) {
	lc := GetLifecycle(sample())
	if len(lc.Stages) != int(transform.NumStages) {
		t.Fatalf("expected %d stages, got %d", transform.NumStages, len(lc.Stages))
	}
	if lc.Stages[0].Key != "pendingNotPrinted" {
		t.Errorf("funnel should start with pendingNotPrinted, got %s", lc.Stages[0].Key)
	}
	d, ok := lc.Stage("delivered")
	if !ok {
		t.Fatal("missing delivered stage")
	}
	if d.Count != 170 || d.Amount != 17000 || d.Percent != 56.67 {
		t.Errorf("unexpected delivered stage: %+v", d)
	}
}

func TestIssues(t *testing.T) {
	r := day("2025-11-01", 100, 0, 0, 0)
	r = withStage(r, transform.Detained, 6, 0)
	r = withStage(r, transform.Returned, 25, 0)
	r = withStage(r, transform.Cancelled, 10, 0)
	r = withStage(r, transform.CancelledWithoutPrice, 6, 0)
	r = withStage(r, transform.PendingNotPrinted, 10, 0)
	r = withStage(r, transform.PendingPrintedWaybill, 10, 0)

	issues := GetIssues([]transform.DailyRecord{r})
	got := map[string]Alert{}
	for _, a := range issues.Alerts {
		got[a.Type] = a
	}
	if a := got["detention"]; a.Severity != SeverityWarning || a.Value != 6 || a.Threshold != 5 {
		t.Errorf("unexpected detention alert: %+v", a)
	}
	if a := got["returns"]; a.Severity != SeverityCritical {
		t.Errorf("returns at 25%% should be critical, got %+v", a)
	}
	if a := got["cancellations"]; a.Value != 16 {
		t.Errorf("cancellations should include both cancelled stages, got %+v", a)
	}
	if _, ok := got["pending"]; ok {
		t.Error("pending at exactly 20% should not alert")
	}
	if !issues.HasIssues {
		t.Error("expected HasIssues")
	}
}

func TestIssuesCompareUnroundedRate(t *testing.T) {
	// 5.004% rounds to 5.00 but is still above the 5% threshold.
	r := withStage(day("2025-11-01", 100000, 0, 0, 0), transform.Detained, 5004, 0)
	issues := GetIssues([]transform.DailyRecord{r})
	if len(issues.Alerts) != 1 || issues.Alerts[0].Type != "detention" {
		t.Fatalf("expected a detention alert, got %+v", issues.Alerts)
	}
	if a := issues.Alerts[0]; a.Value != 5 || a.Severity != SeverityWarning {
		t.Errorf("unexpected alert: %+v", a)
	}

	// 10.004% is above twice the threshold.
	r = withStage(day("2025-11-01", 100000, 0, 0, 0), transform.Detained, 10004, 0)
	if a := GetIssues([]transform.DailyRecord{r}).Alerts[0]; a.Severity != SeverityCritical {
		t.Errorf("expected critical, got %+v", a)
	}
}

func TestIssuesNone(t *testing.T) {
	issues := GetIssues(sample())
	if issues.HasIssues || len(issues.Alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", issues.Alerts)
	}
	b, _ := json.Marshal(issues)
	if string(b) != `{"totalOrders":300,"hasIssues":false,"alerts":[]}` {
		t.Errorf("unexpected json: %s", b)
	}
}

func TestFinancial(t *testing.T) {
	f := GetFinancial(sample())
	if f.GrossRevenue != 30000 || f.ShippingFees != 3000 || f.AdSpend != 1500 {
		t.Errorf("unexpected sums: %+v", f)
	}
	if f.NetRevenue != 25500 || f.ProfitMargin != 85 {
		t.Errorf("net/margin = %v/%v, want 25500/85", f.NetRevenue, f.ProfitMargin)
	}
	if f.AverageOrderValue != 100 || f.CostPerAcquisition != 5 {
		t.Errorf("aov/cpa = %v/%v, want 100/5", f.AverageOrderValue, f.CostPerAcquisition)
	}

	d := f.Delivered
	if d.Orders != 170 || d.Revenue != 17000 {
		t.Errorf("unexpected delivered totals: %+v", d)
	}
	if d.ShippingFees != 1700 || d.AdSpend != 850 {
		t.Errorf("delivered allocation = %v/%v, want 1700/850", d.ShippingFees, d.AdSpend)
	}
	if d.NetRevenue != 14450 || d.AverageOrderValue != 100 {
		t.Errorf("delivered net/aov = %v/%v", d.NetRevenue, d.AverageOrderValue)
	}
}

func TestFinancialZeroOrders(t *testing.T) {
	f := GetFinancial([]transform.DailyRecord{day("2025-11-01", 0, 0, 0, 0)})
	if f.ProfitMargin != 0 || f.AverageOrderValue != 0 || f.Delivered.AllocationRatio != 0 {
		t.Errorf("zero orders should not divide: %+v", f)
	}
}

func TestAnalytics(t *testing.T) {
	a := GetAnalytics(sample())
	if a.Days != 3 {
		t.Fatalf("expected 3 days, got %d", a.Days)
	}
	if a.Trend[0].Date != "2025-11-01" || a.Trend[2].Date != "2025-11-03" {
		t.Errorf("trend should ascend: %+v", a.Trend)
	}
	if a.PeakDay.Date != "2025-11-02" {
		t.Errorf("peak day = %s", a.PeakDay.Date)
	}
	if a.AverageDailyOrders != 100 || a.AverageDailyRevenue != 10000 {
		t.Errorf("averages = %v/%v", a.AverageDailyOrders, a.AverageDailyRevenue)
	}
	if a.OrdersGrowth != -50 || a.RevenueGrowth != -50 {
		t.Errorf("growth = %v/%v, want -50/-50", a.OrdersGrowth, a.RevenueGrowth)
	}
}

func TestAggregatorsAreIdempotent(t *testing.T) {
	records := sample()
	before, _ := json.Marshal(records)
	for name, fn := range map[string]func([]transform.DailyRecord) any{
		"overview":  func(r []transform.DailyRecord) any { return GetOverview(r) },
		"lifecycle": func(r []transform.DailyRecord) any { return GetLifecycle(r) },
		"issues":    func(r []transform.DailyRecord) any { return GetIssues(r) },
		"financial": func(r []transform.DailyRecord) any { return GetFinancial(r) },
		"analytics": func(r []transform.DailyRecord) any { return GetAnalytics(r) },
	} {
		a, _ := json.Marshal(fn(records))
		b, _ := json.Marshal(fn(records))
		if string(a) != string(b) {
			t.Errorf("%s: output differs between calls", name)
		}
	}
	after, _ := json.Marshal(records)
	if string(before) != string(after) {
		t.Error("aggregators mutated their input")
	}
}
