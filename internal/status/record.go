package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is a single immutable observation of one service's state at one
// instant. Records are created once, appended once to a repository, and
// thereafter only read; nothing in this codebase mutates a stored record.
type Record struct {
	ServiceName string
	Status      Status
	HostName    string
	Timestamp   time.Time
}

// ValidationError describes a record field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewRecord builds a fully populated Record. Defaults are filled exactly
// once here: an empty host becomes the UnknownHost sentinel and a zero
// timestamp becomes the current UTC time, so no downstream code ever has
// to re-check for missing fields.
func NewRecord(serviceName string, st Status, hostName string, ts time.Time) (Record, error) {
	if serviceName == "" {
		return Record{}, &ValidationError{Field: "service_name", Reason: "must not be empty"}
	}
	if !st.Valid() {
		return Record{}, &ValidationError{Field: "service_status", Reason: fmt.Sprintf("unrecognized value %q", string(st))}
	}
	if hostName == "" {
		hostName = UnknownHost
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return Record{
		ServiceName: serviceName,
		Status:      st,
		HostName:    hostName,
		Timestamp:   ts.UTC(),
	}, nil
}

// wireRecord is the JSON document shape used on the API and in persisted
// status files.
type wireRecord struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	Timestamp     string `json:"timestamp"`
}

// MarshalJSON encodes the record in its wire shape, with the timestamp in
// RFC 3339 UTC.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		ServiceName:   r.ServiceName,
		ServiceStatus: string(r.Status),
		HostName:      r.HostName,
		Timestamp:     r.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON decodes a wire-shape document and validates it through
// NewRecord. A missing timestamp is rejected here: persisted documents
// always carry one.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		return &ValidationError{Field: "timestamp", Reason: fmt.Sprintf("not a valid RFC 3339 timestamp: %q", w.Timestamp)}
	}
	rec, err := NewRecord(w.ServiceName, Status(w.ServiceStatus), w.HostName, ts)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// filenameTimeLayout is compact ISO-8601 basic format, UTC.
const filenameTimeLayout = "20060102T150405Z"

// Filename returns the conventional name for this record when persisted as
// a standalone JSON document: {service_name}-status-{YYYYMMDDTHHMMSSZ}.json.
func (r Record) Filename() string {
	return fmt.Sprintf("%s-status-%s.json", r.ServiceName, r.Timestamp.UTC().Format(filenameTimeLayout))
}
