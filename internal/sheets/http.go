package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// DefaultTimeout bounds a single sheet fetch.
const DefaultTimeout = 30 * time.Second

// HTTPSource downloads a published CSV export of a sheet.
type HTTPSource struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPSource creates a source for a CSV export URL. The API key, when
// set, is sent as the "key" query parameter.
func NewHTTPSource(exportURL, apiKey string, timeout time.Duration) *HTTPSource {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		url:    exportURL,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchRows downloads the sheet named in rangeSpec and windows it.
func (s *HTTPSource) FetchRows(ctx context.Context, rangeSpec string) ([]transform.RawRow, error) {
	r, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(s.url)
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "invalid sheet URL", err)
	}
	q := u.Query()
	if r.Sheet != "" {
		q.Set("sheet", r.Sheet)
	}
	if s.apiKey != "" {
		q.Set("key", s.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.Internal("build sheet request", err)
	}
	req.Header.Set("User-Agent", "LogiDash/1.0 (dashboard sync)")
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperr.Timeout(fmt.Sprintf("sheet %q did not respond within %s", r.Sheet, s.client.Timeout))
		}
		return nil, apperr.Upstream("sheet request failed", fmt.Errorf("%w: %v", apperr.ErrSheetsUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Upstream(fmt.Sprintf("sheet access denied (HTTP %d)", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, apperr.Upstream(fmt.Sprintf("sheet request failed (HTTP %d)", resp.StatusCode), nil)
	}

	grid, err := readCSV(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, apperr.Timeout("sheet download timed out")
		}
		return nil, apperr.Upstream("malformed sheet export", fmt.Errorf("%w: %v", apperr.ErrSheetsUnavailable, err))
	}

	rows := r.Apply(grid)
	log.Debug().
		Str("sheet", r.Sheet).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched sheet")
	return rows, nil
}

func readCSV(body io.Reader) ([][]string, error) {
	cr := csv.NewReader(body)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
