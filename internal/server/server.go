package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/LogiDash/internal/cache"
	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Options tunes the HTTP layer.
type Options struct {
	// Dev adds error details and panic stacks to error responses.
	Dev         bool
	CORSOrigins []string
}

// Server is the HTTP API and report UI for the dashboard.
type Server struct {
	svc    *dashboard.Service
	db     *database.DB
	cache  *cache.Cache
	opts   Options
	pages  map[string]*template.Template
	engine *gin.Engine
}

// New creates a Server. db may be nil, in which case auditing is disabled.
func New(svc *dashboard.Service, db *database.DB, c *cache.Cache, opts Options) (*Server, error) {
	if c == nil {
		c = cache.New(nil)
	}

	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so their "content" blocks don't collide.
	pageNames := []string{"index.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{svc: svc, db: db, cache: c, opts: opts, pages: pages, engine: gin.New()}
	s.engine.Use(requestLogger(), s.recovery(), corsMiddleware(opts.CORSOrigins), s.auditMiddleware())
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.engine.StaticFS("/static", http.FS(staticSub))

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/report", s.handleReport)

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/dashboard", s.handleDashboard)
	api.GET("/overview", s.handleOverview)
	api.GET("/lifecycle", s.handleLifecycle)
	api.GET("/issues", s.handleIssues)
	api.GET("/financial", s.handleFinancial)
	api.GET("/analytics", s.handleAnalytics)
	api.GET("/forecast", s.handleForecast)
	api.GET("/records", s.handleRecords)
	api.GET("/parcels", s.handleParcels)
	api.GET("/export/records.csv", s.handleExportCSV)
	api.GET("/export/records.xlsx", s.handleExportXLSX)
	api.POST("/cache/clear", s.handleCacheClear)
	api.GET("/audit", s.handleListAudit)
	api.POST("/audit", s.handleCreateAudit)
}

func (s *Server) render(c *gin.Context, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("template not found")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("rendering template")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve runs the server on port until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, srv *Server, port int) error {
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on http://%s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
