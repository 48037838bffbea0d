package report

import (
	"context"
	"strings"
	"testing"

	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/sheets"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

func testPayload(t *testing.T) *dashboard.Payload {
	t.Helper()
	grid := [][]string{
		{"2025-11-01", "100", "200", "50", "100", "10000", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "30", "3000", "30"},
		{"2025-11-02", "100", "200", "50", "100", "12000"},
		{"2025-11-03", "100", "200", "50", "100", "14000"},
	}
	svc := dashboard.NewService(&sheets.StaticSource{Rows: grid}, nil, dashboard.Options{})
	p, err := svc.GetCompleteDashboard(context.Background(), "day", "", "")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	return p
}

func TestCompose(t *testing.T) {
	r := Compose(testPayload(t), nil)
	if r.Title != "Logistics report, Nov 01, 2025 to Nov 03, 2025" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if !strings.Contains(r.Summary, "300 orders worth ₱36,000.00 over 3 days") {
		t.Errorf("unexpected summary:\n%s", r.Summary)
	}
	for _, want := range []string{"## Overview", "## Order lifecycle", "| Delivered | 30 | ₱3,000.00 | 10.00% |", "## Financials", "## Forecast"} {
		if !strings.Contains(r.BodyMarkdown, want) {
			t.Errorf("expected %q in body", want)
		}
	}
	if !strings.HasPrefix(r.Markdown(), "# Logistics report") {
		t.Error("markdown should start with the title")
	}
}

func TestComposeNoData(t *testing.T) {
	r := Compose(&dashboard.Payload{Success: false, Error: dashboard.ErrNoData}, nil)
	if !strings.Contains(r.Summary, "No data") || r.BodyMarkdown != dashboard.ErrNoData {
		t.Errorf("unexpected empty report: %+v", r)
	}
	if Compose(nil, nil) == nil {
		t.Error("nil payload should still compose")
	}
}

func TestComposeParcels(t *testing.T) {
	parcels := transform.TransformParcels([]transform.RawRow{
		{"d", "T1", "Returned", "Acme", "A", "Makati", "100", "10", "50"},
		{"d", "T2", "Delivered", "Zed", "B", "Cebu City", "200", "10", "50"},
	})
	r := Compose(testPayload(t), parcels)
	if !strings.Contains(r.BodyMarkdown, "## Parcels by island") {
		t.Fatal("expected parcel section")
	}
	if !strings.Contains(r.BodyMarkdown, "| Luzon | 1 | 0 | 1 | ₱100.00 |") {
		t.Errorf("unexpected luzon row in:\n%s", r.BodyMarkdown)
	}
	if !strings.Contains(r.BodyMarkdown, "Acme (1)") {
		t.Error("expected top RTS shipper")
	}
}

func TestMoneyFormatting(t *testing.T) {
	tests := map[float64]string{
		0:          "₱0.00",
		1234.999:   "₱1,235.00",
		-1500.5:    "-₱1,500.50",
		1234567.89: "₱1,234,567.89",
	}
	for in, want := range tests {
		if got := peso(in); got != want {
			t.Errorf("peso(%v) = %q, want %q", in, got, want)
		}
	}
	if count(-1234) != "-1,234" || count(999) != "999" {
		t.Error("unexpected count formatting")
	}
}
