package sheets

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// XLSXSource reads rows from a local workbook.
type XLSXSource struct {
	path string
}

func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// FetchRows opens the workbook on each call so edits are picked up.
// An empty sheet name reads the first sheet.
func (s *XLSXSource) FetchRows(ctx context.Context, rangeSpec string) ([]transform.RawRow, error) {
	r, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Timeout("workbook read cancelled")
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperr.Upstream("open workbook "+s.path, err)
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apperr.NotFound("sheet " + sheet)
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Upstream("read sheet "+sheet, err)
	}
	return r.Apply(grid), nil
}
