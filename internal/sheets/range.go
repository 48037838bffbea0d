package sheets

import (
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Range is a parsed A1 range. Rows and columns are 1-based; a zero end
// means unbounded.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses "Sheet!A3:AM", "A3:AM10", "Sheet" or "" (everything).
func ParseRange(spec string) (Range, error) {
	r := Range{StartCol: 1, StartRow: 1}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return r, nil
	}

	cells := spec
	if i := strings.LastIndex(spec, "!"); i >= 0 {
		r.Sheet = strings.Trim(spec[:i], "'")
		cells = spec[i+1:]
	} else if !strings.Contains(spec, ":") && !looksLikeCell(spec) {
		r.Sheet = spec
		return r, nil
	}
	if cells == "" {
		return r, nil
	}

	start, end, hasEnd := strings.Cut(cells, ":")
	var err error
	if r.StartCol, r.StartRow, err = parseRef(start); err != nil {
		return Range{}, err
	}
	if r.StartRow == 0 {
		r.StartRow = 1
	}
	if hasEnd {
		if r.EndCol, r.EndRow, err = parseRef(end); err != nil {
			return Range{}, err
		}
		if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
			return Range{}, apperr.Validation("range end precedes start: " + spec)
		}
	}
	return r, nil
}

// parseRef reads "AM" or "A3"; a missing row is returned as 0.
func parseRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(ref, "$", "")))
	if ref == "" {
		return 0, 0, apperr.Validation("empty cell reference")
	}
	if unicode.IsDigit(rune(ref[len(ref)-1])) {
		col, row, err = excelize.CellNameToCoordinates(ref)
	} else {
		col, err = excelize.ColumnNameToNumber(ref)
	}
	if err != nil {
		return 0, 0, apperr.New(apperr.KindValidation, "invalid cell reference "+ref, err)
	}
	return col, row, nil
}

func looksLikeCell(s string) bool {
	_, _, err := excelize.CellNameToCoordinates(strings.ToUpper(s))
	return err == nil
}

// Apply windows a full sheet grid to the range and drops blank rows.
func (r Range) Apply(grid [][]string) []transform.RawRow {
	var out []transform.RawRow
	for i, cells := range grid {
		rowNum := i + 1
		if rowNum < r.StartRow {
			continue
		}
		if r.EndRow != 0 && rowNum > r.EndRow {
			break
		}
		from := r.StartCol - 1
		if from >= len(cells) {
			continue
		}
		to := len(cells)
		if r.EndCol != 0 && r.EndCol < to {
			to = r.EndCol
		}
		window := cells[from:to]
		if isBlank(window) {
			continue
		}
		row := make(transform.RawRow, len(window))
		copy(row, window)
		out = append(out, row)
	}
	return out
}
