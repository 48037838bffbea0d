package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		spec string
		want Range
	}{
		{"", Range{StartCol: 1, StartRow: 1}},
		{"Orders", Range{Sheet: "Orders", StartCol: 1, StartRow: 1}},
		{"Orders!A3:AM", Range{Sheet: "Orders", StartCol: 1, StartRow: 3, EndCol: 39}},
		{"'Daily Orders'!B2:D10", Range{Sheet: "Daily Orders", StartCol: 2, StartRow: 2, EndCol: 4, EndRow: 10}},
		{"A5", Range{StartCol: 1, StartRow: 5}},
		{"$C$4:$E", Range{StartCol: 3, StartRow: 4, EndCol: 5}},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.spec)
		if err != nil {
			t.Errorf("ParseRange(%q): %v", tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRange(%q) = %+v, want %+v", tt.spec, got, tt.want)
		}
	}
}

func TestParseRangeInvalid(t *testing.T) {
	for _, spec := range []string{"Orders!C3:A", "Orders!A10:B2", "Orders!1:B"} {
		_, err := ParseRange(spec)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("ParseRange(%q): expected validation error, got %v", spec, err)
		}
	}
}

func TestRangeApply(t *testing.T) {
	grid := [][]string{
		{"Title"},
		{"Date", "Orders", "Revenue"},
		{"2025-11-01", "10", "100"},
		{"", "", ""},
		{"2025-11-02", "12"},
		{"2025-11-03", "14", "140"},
	}
	r, _ := ParseRange("A3:B5")
	rows := r.Apply(grid)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if len(rows[0]) != 2 || rows[0][1] != "10" {
		t.Errorf("expected columns A:B, got %v", rows[0])
	}
	if rows[1][0] != "2025-11-02" {
		t.Errorf("blank row should be skipped, got %v", rows[1])
	}
}

func TestHTTPSourceFetchRows(t *testing.T) {
	var gotSheet, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSheet = r.URL.Query().Get("sheet")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Date,Ads\nheader,x\n\"NOVEMBER 1-3, 2025\",\"1,500\"\n,\n2025-11-04,20\n"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/export?format=csv", "secret", time.Second)
	rows, err := src.FetchRows(context.Background(), "Orders!A3:F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSheet != "Orders" || gotKey != "secret" {
		t.Errorf("query sheet=%q key=%q", gotSheet, gotKey)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "NOVEMBER 1-3, 2025" || rows[0][1] != "1,500" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		status int
	}{
		{http.StatusUnauthorized},
		{http.StatusForbidden},
		{http.StatusInternalServerError},
		{http.StatusBadGateway},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := NewHTTPSource(srv.URL, "", time.Second).FetchRows(context.Background(), "Orders!A3:F")
		srv.Close()
		if !errors.Is(err, apperr.ErrSheetsUnavailable) {
			t.Errorf("HTTP %d: expected ErrSheetsUnavailable, got %v", tt.status, err)
		}
		if apperr.KindOf(err) != apperr.KindUpstream {
			t.Errorf("HTTP %d: expected upstream kind, got %s", tt.status, apperr.KindOf(err))
		}
	}
}

func TestHTTPSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPSource(srv.URL, "", 50*time.Millisecond).FetchRows(context.Background(), "Orders")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindTimeout {
		t.Errorf("expected timeout kind, got %s", apperr.KindOf(err))
	}
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Orders")
	f.SetSheetRow("Orders", "A1", &[]any{"Daily orders"})
	f.SetSheetRow("Orders", "A2", &[]any{"Date", "Ads", "Shipping"})
	f.SetSheetRow("Orders", "A3", &[]any{"2025-11-01", "50", "150"})
	f.SetSheetRow("Orders", "A4", &[]any{"2025-11-02", "60", "160"})
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	src := NewXLSXSource(path)
	rows, err := src.FetchRows(context.Background(), "Orders!A3:C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "160" {
		t.Errorf("unexpected rows: %v", rows)
	}

	_, err = src.FetchRows(context.Background(), "Missing!A1:B")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found for missing sheet, got %v", err)
	}
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Rows: [][]string{{"h"}, {"a", "b"}}}
	rows, err := src.FetchRows(context.Background(), "A2:A")
	if err != nil || len(rows) != 1 || len(rows[0]) != 1 {
		t.Errorf("unexpected result %v %v", rows, err)
	}
}
