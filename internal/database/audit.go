package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultAuditLimit caps listings that do not set a limit.
const DefaultAuditLimit = 100

// auditTimeLayout is fixed width so created_at sorts as text.
const auditTimeLayout = "2006-01-02T15:04:05.000000Z"

// InsertAudit appends an entry. A missing ID, actor or timestamp is filled
// in; the stored entry is returned.
func (db *DB) InsertAudit(e AuditEntry) (AuditEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Actor == "" {
		e.Actor = "anonymous"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)

	_, err := db.conn.Exec(
		`INSERT INTO audit_log
		(id, action, actor, method, path, target, detail, status_code, success,
		 error_message, ip_address, user_agent, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Actor, e.Method, e.Path, e.Target, e.Detail, e.StatusCode, e.Success,
		e.ErrorMessage, e.IPAddress, e.UserAgent, e.DurationMS, e.CreatedAt.Format(auditTimeLayout),
	)
	if err != nil {
		return AuditEntry{}, err
	}
	return e, nil
}

// GetAudit returns one entry by ID, or nil when it does not exist.
func (db *DB) GetAudit(id string) (*AuditEntry, error) {
	row := db.conn.QueryRow(`SELECT `+auditColumns+` FROM audit_log WHERE id = ?`, id)
	e, err := scanAudit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAudit returns entries newest first.
func (db *DB) ListAudit(f AuditFilter) ([]AuditEntry, error) {
	var where []string
	var args []any
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(auditTimeLayout))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	query := `SELECT ` + auditColumns + ` FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountAudit returns the number of stored entries.
func (db *DB) CountAudit() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&n)
	return n, err
}

const auditColumns = `id, action, actor, method, path, target, detail, status_code, success,
	error_message, ip_address, user_agent, duration_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(s scanner) (AuditEntry, error) {
	var e AuditEntry
	var method, path, target, detail, errMsg, ip, ua sql.NullString
	var created string
	if err := s.Scan(&e.ID, &e.Action, &e.Actor, &method, &path, &target, &detail,
		&e.StatusCode, &e.Success, &errMsg, &ip, &ua, &e.DurationMS, &created); err != nil {
		return AuditEntry{}, err
	}
	e.Method, e.Path, e.Target, e.Detail = method.String, path.String, target.String, detail.String
	e.ErrorMessage, e.IPAddress, e.UserAgent = errMsg.String, ip.String, ua.String
	e.CreatedAt, _ = time.Parse(auditTimeLayout, created)
	return e, nil
}
