package server

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/LogiDash/internal/database"
)

// ActorHeader names the caller recorded in the audit log.
const ActorHeader = "X-Actor"

var auditedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// POST /api/audit writes its own entry.
var auditExcludedPaths = map[string]bool{
	"/api/audit":  true,
	"/api/health": true,
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("handler panicked")

		body := gin.H{
			"success": false,
			"error":   "internal server error",
			"code":    "INTERNAL",
		}
		if s.opts.Dev {
			body["stack"] = string(debug.Stack())
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", ActorHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// auditMiddleware records every mutating request in the audit log.
func (s *Server) auditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if s.db == nil || !auditedMethods[c.Request.Method] || auditExcludedPaths[path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := database.AuditEntry{
			Action:     auditAction(c.Request.Method, path),
			Actor:      strings.TrimSpace(c.GetHeader(ActorHeader)),
			Method:     c.Request.Method,
			Path:       path,
			Target:     c.Request.URL.RawQuery,
			StatusCode: status,
			Success:    status < http.StatusBadRequest,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			DurationMS: time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			entry.ErrorMessage = c.Errors.String()
		}

		if _, err := s.db.InsertAudit(entry); err != nil {
			log.Error().Err(err).Str("path", path).Msg("writing audit entry")
		}
	}
}

// auditAction derives an action name such as "cache.clear" from the route.
func auditAction(method, path string) string {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/api"), "/")
	if trimmed == "" {
		return strings.ToLower(method)
	}
	return strings.ReplaceAll(trimmed, "/", ".")
}
