// Package export writes daily records and parcels as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// RecordsSheet is the worksheet name of an XLSX records export.
const RecordsSheet = "Daily Records"

// Headers are the column names of a records export, matching the JSON
// field names of a daily record.
func Headers() []string {
	h := []string{"date", "adSpend", "shippingFee", "totalItems", "totalOrders", "revenue"}
	for _, s := range transform.Stages() {
		h = append(h, s.Key()+"Count", s.Key()+"Amount", s.Key()+"Percent")
	}
	return h
}

func values(r transform.DailyRecord) []any {
	v := []any{r.Date, r.AdSpend, r.ShippingFee, r.TotalItems, r.TotalOrders, r.Revenue}
	for _, s := range transform.Stages() {
		st := r.Stage(s)
		v = append(v, st.Count, st.Amount, st.Percent)
	}
	return v
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
	return ""
}

// WriteCSV writes a header line and one line per record.
func WriteCSV(w io.Writer, records []transform.DailyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers()); err != nil {
		return err
	}
	line := make([]string, len(Headers()))
	for _, r := range records {
		for i, v := range values(r) {
			line[i] = format(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes records to a single-sheet workbook with numeric cells.
func WriteXLSX(w io.Writer, records []transform.DailyRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	headers := Headers()
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(RecordsSheet, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(RecordsSheet, "A", "A", 12); err != nil {
		return err
	}

	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := values(r)
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// ParcelHeaders are the column names of a parcel export.
func ParcelHeaders() []string {
	return []string{
		"date", "trackingNumber", "status", "rawStatus", "shipper", "consigneeName",
		"province", "region", "island", "codAmount", "serviceCharge", "totalCost", "rtsFee",
	}
}

// WriteParcelsCSV writes one line per parcel.
func WriteParcelsCSV(w io.Writer, parcels []transform.ParcelRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ParcelHeaders()); err != nil {
		return err
	}
	for _, p := range parcels {
		if err := cw.Write([]string{
			p.Date, p.TrackingNumber, string(p.Status), p.RawStatus, p.Shipper, p.ConsigneeName,
			p.Province, p.Region, p.Island,
			format(p.CODAmount), format(p.ServiceCharge), format(p.TotalCost), format(p.RTSFee),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
