package db

import (
	"fmt"
	"time"
)

// QueryRecord is one logged query cycle.
type QueryRecord struct {
	QueryID      int64
	QueryText    string
	RequestURL   string
	Status       string
	ErrorMessage string
	ResultCount  int
	DurationMS   int64
	CreatedAt    time.Time
}

// InsertQuery records a completed query cycle, returning the query_id.
func (db *DB) InsertQuery(rec QueryRecord) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO queries (query_text, request_url, status, error_message, result_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.QueryText, rec.RequestURL, rec.Status, rec.ErrorMessage, rec.ResultCount, rec.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("failed to insert query record: %w", err)
	}

	queryID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get query ID: %w", err)
	}
	return queryID, nil
}

// ListQueries returns the most recent records, newest first.
func (db *DB) ListQueries(limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT query_id, query_text, request_url, status, error_message, result_count, duration_ms, created_at
		FROM queries
		ORDER BY created_at DESC, query_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		err := rows.Scan(&rec.QueryID, &rec.QueryText, &rec.RequestURL, &rec.Status,
			&rec.ErrorMessage, &rec.ResultCount, &rec.DurationMS, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// CountQueries returns the total number of recorded queries.
func (db *DB) CountQueries() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM queries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return count, nil
}

// ClearQueries deletes all recorded queries.
func (db *DB) ClearQueries() (int64, error) {
	result, err := db.Exec("DELETE FROM queries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear queries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted queries: %w", err)
	}
	return deleted, nil
}
