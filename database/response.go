package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrNotFound = errors.New("not found")

// fixed width so timestamps compare correctly as text
const timestampLayout = "2006-01-02T15:04:05.000Z"

type ResponseRow struct {
	Id        int64
	Endpoint  string
	Query     string // arguments the response was fetched with
	FetchedAt time.Time
	Body      string // response re-encoded as JSON
}

func (d *Database) SaveResponse(ctx context.Context, row ResponseRow) (int64, error) {
	if row.FetchedAt.IsZero() {
		row.FetchedAt = time.Now()
	}

	res, err := d.write.ExecContext(ctx, `
		INSERT INTO response (endpoint, query, fetched_at, body)
		VALUES (?, ?, ?, ?)`,
		row.Endpoint,
		row.Query,
		row.FetchedAt.UTC().Format(timestampLayout),
		row.Body)
	if err != nil {
		return 0, fmt.Errorf("saving response for %s: %w", row.Endpoint, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading id of saved response: %w", err)
	}

	d.logger.Debug("response archived", slog.String("endpoint", row.Endpoint), slog.Int64("id", id))
	return id, nil
}

func (d *Database) GetLatestResponse(ctx context.Context, endpoint string) (ResponseRow, error) {
	rows, err := d.GetResponses(ctx, endpoint, 1)
	if err != nil {
		return ResponseRow{}, err
	}
	if len(rows) == 0 {
		return ResponseRow{}, fmt.Errorf("latest response for %s: %w", endpoint, ErrNotFound)
	}
	return rows[0], nil
}

// GetResponses returns the newest responses of an endpoint first.
func (d *Database) GetResponses(ctx context.Context, endpoint string, limit int) ([]ResponseRow, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT id, endpoint, query, fetched_at, body
		FROM response
		WHERE endpoint = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?`,
		endpoint, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching responses: %w", err)
	}
	defer rows.Close()

	var result []ResponseRow
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading response rows: %w", err)
	}

	return result, nil
}

func scanResponse(rows *sql.Rows) (ResponseRow, error) {
	var r ResponseRow
	var ts string
	if err := rows.Scan(&r.Id, &r.Endpoint, &r.Query, &ts, &r.Body); err != nil {
		return ResponseRow{}, fmt.Errorf("scanning response row: %w", err)
	}
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return ResponseRow{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	r.FetchedAt = t
	return r, nil
}

func (d *Database) PurgeResponses(ctx context.Context, retentionDays int) error {
	d.logger.Debug("purging table response")
	before := time.Now().Add(-24 * time.Hour * time.Duration(retentionDays))
	res, err := d.write.ExecContext(ctx, `
		DELETE FROM response WHERE fetched_at < ?`,
		before.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("error when purging response: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		d.logger.Warn("can't get rows affected by purge", slog.String("table", "response"), slog.Any("error", err))
	} else {
		d.logger.Debug(fmt.Sprintf("purged %d rows from response", rows))
	}
	return nil
}
