package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// InsertSyncReport stores a sync run and returns its ID.
func (db *DB) InsertSyncReport(r SyncReport) (int64, error) {
	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return 0, err
	}
	result, err := db.conn.Exec(
		`INSERT INTO sync_reports
		(started_at, finished_at, rows_read, rows_skipped, records, parcels,
		 date_start, date_end, alerts, steps, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
		r.RowsRead, r.RowsSkipped, r.Records, r.Parcels,
		r.DateStart, r.DateEnd, r.Alerts, string(steps), r.Success, r.ErrorMessage,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastSyncReport returns the most recent run, or nil when none exist.
func (db *DB) GetLastSyncReport() (*SyncReport, error) {
	reports, err := db.ListSyncReports(1)
	if err != nil || len(reports) == 0 {
		return nil, err
	}
	return &reports[0], nil
}

// ListSyncReports returns up to limit runs, newest first.
func (db *DB) ListSyncReports(limit int) ([]SyncReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, started_at, finished_at, rows_read, rows_skipped, records, parcels,
		date_start, date_end, alerts, steps, success, error_message
		FROM sync_reports ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []SyncReport
	for rows.Next() {
		var r SyncReport
		var started, finished string
		var dateStart, dateEnd, steps, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.RowsRead, &r.RowsSkipped, &r.Records,
			&r.Parcels, &dateStart, &dateEnd, &r.Alerts, &steps, &r.Success, &errMsg); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.DateStart, r.DateEnd, r.ErrorMessage = dateStart.String, dateEnd.String, errMsg.String
		if steps.Valid && steps.String != "" {
			json.Unmarshal([]byte(steps.String), &r.Steps)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
