package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
	"github.com/TobiSchelling/LogiDash/internal/cache"
	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/database"
	"github.com/TobiSchelling/LogiDash/internal/export"
	"github.com/TobiSchelling/LogiDash/internal/metrics"
	"github.com/TobiSchelling/LogiDash/internal/report"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// response is the envelope for every JSON endpoint except /api/dashboard,
// which returns the payload itself.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func query(c *gin.Context) dashboard.Query {
	return dashboard.Query{
		SortBy:    c.Query("sortBy"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
}

func queryParams(q dashboard.Query) map[string]string {
	return map[string]string{
		"sortBy":    q.SortBy,
		"startDate": q.StartDate,
		"endDate":   q.EndDate,
	}
}

// serveCached answers from the cache when possible, otherwise calls load and
// caches a successful result under the endpoint's TTL.
func (s *Server) serveCached(c *gin.Context, endpoint string, params map[string]string, load func(ctx context.Context) (any, error)) {
	key := cache.Key(endpoint, params)
	if v, ok := s.cache.Get(key); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, v)
		return
	}

	v, err := load(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Set(endpoint, key, v)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, v)
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	evt := log.Warn()
	if status >= http.StatusInternalServerError && kind == apperr.KindInternal {
		evt = log.Error()
	}
	evt.Err(err).Str("path", c.Request.URL.Path).Str("code", string(kind)).Msg("request failed")
	_ = c.Error(err)

	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	body := gin.H{
		"success": false,
		"error":   msg,
		"code":    string(kind),
	}
	if s.opts.Dev {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"cache":  s.cache.Stats(),
	}
	if s.db != nil {
		if v, err := s.db.SchemaVersion(); err == nil {
			body["schemaVersion"] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleDashboard(c *gin.Context) {
	q := query(c)
	s.serveCached(c, "dashboard", queryParams(q), func(ctx context.Context) (any, error) {
		return s.svc.GetCompleteDashboard(ctx, q.SortBy, q.StartDate, q.EndDate)
	})
}

// tableView serves one metric computed over the grouped table.
func (s *Server) tableView(c *gin.Context, endpoint string, compute func([]transform.DailyRecord) any) {
	q := query(c)
	s.serveCached(c, endpoint, queryParams(q), func(ctx context.Context) (any, error) {
		table, err := s.svc.Table(ctx, q)
		if err != nil {
			return nil, err
		}
		return envelope(compute(table)), nil
	})
}

// envelope wraps a metric result; aggregators return nil for empty input.
func envelope(v any) response {
	if isNil(v) {
		return response{Success: false, Error: dashboard.ErrNoData}
	}
	return response{Success: true, Data: v}
}

func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *metrics.Overview:
		return x == nil
	case *metrics.Lifecycle:
		return x == nil
	case *metrics.Issues:
		return x == nil
	case *metrics.Financial:
		return x == nil
	case *metrics.Analytics:
		return x == nil
	}
	return false
}

func (s *Server) handleOverview(c *gin.Context) {
	s.tableView(c, "overview", func(r []transform.DailyRecord) any { return metrics.GetOverview(r) })
}

func (s *Server) handleLifecycle(c *gin.Context) {
	s.tableView(c, "lifecycle", func(r []transform.DailyRecord) any { return metrics.GetLifecycle(r) })
}

func (s *Server) handleIssues(c *gin.Context) {
	s.tableView(c, "issues", func(r []transform.DailyRecord) any { return metrics.GetIssues(r) })
}

func (s *Server) handleFinancial(c *gin.Context) {
	s.tableView(c, "financial", func(r []transform.DailyRecord) any { return metrics.GetFinancial(r) })
}

func (s *Server) handleAnalytics(c *gin.Context) {
	q := query(c)
	s.serveCached(c, "analytics", queryParams(q), func(ctx context.Context) (any, error) {
		daily, _, err := s.svc.Daily(ctx, q)
		if err != nil {
			return nil, err
		}
		return envelope(metrics.GetAnalytics(daily)), nil
	})
}

func (s *Server) handleForecast(c *gin.Context) {
	q := query(c)
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 90 {
			s.writeError(c, apperr.Validation("days must be an integer between 1 and 90"))
			return
		}
		days = n
	}

	params := queryParams(q)
	params["days"] = c.Query("days")
	s.serveCached(c, "forecast", params, func(ctx context.Context) (any, error) {
		res, err := s.svc.Forecast(ctx, q, days)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return response{Success: false, Error: "not enough data to forecast"}, nil
		}
		return response{Success: true, Data: res}, nil
	})
}

func (s *Server) handleRecords(c *gin.Context) {
	q := query(c)
	s.serveCached(c, "records", queryParams(q), func(ctx context.Context) (any, error) {
		table, err := s.svc.Table(ctx, q)
		if err != nil {
			return nil, err
		}
		if table == nil {
			table = []transform.DailyRecord{}
		}
		return response{Success: true, Data: table}, nil
	})
}

func (s *Server) handleParcels(c *gin.Context) {
	island := strings.ToLower(strings.TrimSpace(c.Query("island")))
	s.serveCached(c, "parcels", map[string]string{"island": island}, func(ctx context.Context) (any, error) {
		groups, err := s.svc.Parcels(ctx)
		if err != nil {
			return nil, err
		}
		if island == "" || island == "all" {
			return response{Success: true, Data: groups}, nil
		}
		bucket := groups.Island(island)
		if bucket == nil {
			return nil, apperr.Validation("island must be one of all, luzon, visayas, mindanao")
		}
		return response{Success: true, Data: bucket}, nil
	})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	table, err := s.svc.Table(c.Request.Context(), query(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, table); err != nil {
		s.writeError(c, apperr.Internal("writing csv", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="records.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	table, err := s.svc.Table(c.Request.Context(), query(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table); err != nil {
		s.writeError(c, apperr.Internal("writing xlsx", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="records.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleCacheClear(c *gin.Context) {
	n := s.cache.Clear()
	log.Info().Int("entries", n).Msg("cache cleared")
	c.JSON(http.StatusOK, response{Success: true, Data: gin.H{"cleared": n}})
}

func (s *Server) handleListAudit(c *gin.Context) {
	if s.db == nil {
		s.writeError(c, apperr.Configuration("audit log is not enabled"))
		return
	}

	f := database.AuditFilter{
		Action: c.Query("action"),
		Actor:  c.Query("actor"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(c, apperr.Validation("limit must be a positive integer"))
			return
		}
		f.Limit = n
	}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(c, apperr.Validation("since must be an RFC 3339 timestamp"))
			return
		}
		f.Since = t
	}

	entries, err := s.db.ListAudit(f)
	if err != nil {
		s.writeError(c, apperr.Internal("listing audit log", err))
		return
	}
	if entries == nil {
		entries = []database.AuditEntry{}
	}
	c.JSON(http.StatusOK, response{Success: true, Data: entries})
}

type auditRequest struct {
	Action string `json:"action" binding:"required"`
	Actor  string `json:"actor"`
	Target string `json:"target"`
	Detail string `json:"detail"`
}

func (s *Server) handleCreateAudit(c *gin.Context) {
	if s.db == nil {
		s.writeError(c, apperr.Configuration("audit log is not enabled"))
		return
	}

	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperr.Validation("action is required"))
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = strings.TrimSpace(c.GetHeader(ActorHeader))
	}

	entry, err := s.db.InsertAudit(database.AuditEntry{
		Action:     req.Action,
		Actor:      actor,
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		Target:     req.Target,
		Detail:     req.Detail,
		StatusCode: http.StatusCreated,
		Success:    true,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		s.writeError(c, apperr.Internal("writing audit entry", err))
		return
	}
	c.JSON(http.StatusCreated, response{Success: true, Data: entry})
}

func (s *Server) handleIndex(c *gin.Context) {
	q := query(c)
	p, err := s.svc.GetCompleteDashboard(c.Request.Context(), q.SortBy, q.StartDate, q.EndDate)
	if err != nil {
		p = &dashboard.Payload{Success: false, Error: err.Error()}
	}
	s.render(c, "index.html", p)
}

func (s *Server) handleReport(c *gin.Context) {
	ctx := c.Request.Context()
	q := query(c)
	p, err := s.svc.GetCompleteDashboard(ctx, q.SortBy, q.StartDate, q.EndDate)
	if err != nil {
		p = &dashboard.Payload{Success: false, Error: err.Error()}
	}

	var parcels *transform.ParcelGroups
	if p.Success {
		if groups, err := s.svc.Parcels(ctx); err == nil {
			parcels = groups
		} else if apperr.KindOf(err) != apperr.KindConfiguration {
			log.Warn().Err(err).Msg("report without parcels")
		}
	}

	rep := report.Compose(p, parcels)
	s.render(c, "report.html", map[string]any{
		"Title":   rep.Title,
		"Summary": rep.Summary,
		"Body":    rep.BodyMarkdown,
	})
}
