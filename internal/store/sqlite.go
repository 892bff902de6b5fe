package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/hazz-dev/appstatus/internal/status"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    service     TEXT    NOT NULL,
    status      TEXT    NOT NULL CHECK(status IN ('UP', 'DOWN', 'UNKNOWN', 'DEGRADED')),
    host        TEXT    NOT NULL,
    observed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_service ON records(service);
CREATE INDEX IF NOT EXISTS idx_records_service_observed ON records(service, observed_at DESC, id DESC);
`

// SQLite is a Repository backed by an embedded SQLite database. Timestamps
// are stored as UTC unix nanoseconds and the AUTOINCREMENT row id supplies
// the insertion-order tie-break, so "latest" is exact even for records
// sharing a timestamp.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append stores one record and returns its row id.
func (s *SQLite) Append(ctx context.Context, r status.Record) (RecordID, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (service, status, host, observed_at) VALUES (?, ?, ?, ?)`,
		r.ServiceName,
		string(r.Status),
		r.HostName,
		r.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("appending record for %q: %w", r.ServiceName, unavailable(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("reading insert id for %q: %w", r.ServiceName, unavailable(err))
	}
	return RecordID(strconv.FormatInt(id, 10)), nil
}

// LatestByName returns the most recent record for the given service.
func (s *SQLite) LatestByName(ctx context.Context, name string) (status.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT service, status, host, observed_at FROM records WHERE service = ? ORDER BY observed_at DESC, id DESC LIMIT 1`,
		name,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return status.Record{}, fmt.Errorf("no record for %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return status.Record{}, fmt.Errorf("querying latest record for %q: %w", name, unavailable(err))
	}
	return r, nil
}

// LatestAll returns the most recent record for every service name ever
// appended.
func (s *SQLite) LatestAll(ctx context.Context) (map[string]status.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, status, host, observed_at
		FROM (
			SELECT service, status, host, observed_at,
			       ROW_NUMBER() OVER (PARTITION BY service ORDER BY observed_at DESC, id DESC) AS rn
			FROM records
		)
		WHERE rn = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest records: %w", unavailable(err))
	}
	defer rows.Close()

	latest := make(map[string]status.Record)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		latest[r.ServiceName] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", unavailable(err))
	}
	return latest, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (status.Record, error) {
	var r status.Record
	var st string
	var observedAt int64
	if err := row.Scan(&r.ServiceName, &st, &r.HostName, &observedAt); err != nil {
		return status.Record{}, err
	}
	r.Status = status.Status(st)
	r.Timestamp = time.Unix(0, observedAt).UTC()
	return r, nil
}
