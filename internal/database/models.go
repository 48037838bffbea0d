package database

import "time"

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Actor        string    `json:"actor"`
	Method       string    `json:"method,omitempty"`
	Path         string    `json:"path,omitempty"`
	Target       string    `json:"target,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	StatusCode   int       `json:"statusCode"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	DurationMS   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuditFilter narrows an audit listing. Zero values match everything.
type AuditFilter struct {
	Action string
	Actor  string
	Since  time.Time
	Limit  int
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	RowsRead     int       `json:"rowsRead"`
	RowsSkipped  int       `json:"rowsSkipped"`
	Records      int       `json:"records"`
	Parcels      int       `json:"parcels"`
	DateStart    string    `json:"dateStart,omitempty"`
	DateEnd      string    `json:"dateEnd,omitempty"`
	Alerts       int       `json:"alerts"`
	Steps        []string  `json:"steps"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}
