// Package sheets reads raw order and parcel rows from a spreadsheet.
package sheets

import (
	"context"
	"strings"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Source fetches the rows selected by an A1-style range such as "Orders!A3:AM".
type Source interface {
	FetchRows(ctx context.Context, rangeSpec string) ([]transform.RawRow, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, rangeSpec string) ([]transform.RawRow, error)

func (f SourceFunc) FetchRows(ctx context.Context, rangeSpec string) ([]transform.RawRow, error) {
	return f(ctx, rangeSpec)
}

// StaticSource serves fixed rows, windowed by the requested range.
type StaticSource struct {
	Rows [][]string
}

func (s *StaticSource) FetchRows(_ context.Context, rangeSpec string) ([]transform.RawRow, error) {
	r, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}
	return r.Apply(s.Rows), nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
