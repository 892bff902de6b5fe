// Package store defines the append-only status repository and its two
// backends: an embedded SQLite database and a directory of per-record JSON
// documents.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazz-dev/appstatus/internal/status"
)

// RecordID identifies a stored record. Its form is backend-specific: the
// SQLite backend uses the row id, the file backend the document filename.
type RecordID string

var (
	// ErrNotFound is returned when no record has ever been appended for
	// the queried service name.
	ErrNotFound = errors.New("store: record not found")

	// ErrUnavailable is returned when the backing store cannot be
	// reached. Callers do not retry; retry policy lives outside the core.
	ErrUnavailable = errors.New("store: unavailable")
)

// Repository is an append-only store of status records. Records are never
// mutated or deleted through this interface.
//
// "Latest" is a total order: the record with the greatest timestamp wins,
// and among records sharing a timestamp the one appended later wins.
type Repository interface {
	// Append stores one record atomically.
	Append(ctx context.Context, r status.Record) (RecordID, error)

	// LatestByName returns the most recent record for the name, or
	// ErrNotFound.
	LatestByName(ctx context.Context, name string) (status.Record, error)

	// LatestAll returns one entry per distinct name ever appended, each
	// mapped to its most recent record.
	LatestAll(ctx context.Context) (map[string]status.Record, error)

	Close() error
}

// unavailable wraps a backend failure so callers can match ErrUnavailable
// with errors.Is while keeping the cause in the message.
func unavailable(cause error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, cause)
}
