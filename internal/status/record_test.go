package status_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hazz-dev/appstatus/internal/status"
)

func TestNewRecord_FillsDefaults(t *testing.T) {
	before := time.Now()
	r, err := status.NewRecord("httpd", status.Up, "", time.Time{})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if r.HostName != status.UnknownHost {
		t.Errorf("expected host %q, got %q", status.UnknownHost, r.HostName)
	}
	if r.Timestamp.Before(before.UTC().Add(-time.Second)) || r.Timestamp.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("expected timestamp near now, got %v", r.Timestamp)
	}
	if r.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", r.Timestamp.Location())
	}
}

func TestNewRecord_KeepsSuppliedFields(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	r, err := status.NewRecord("rabbitmq", status.Down, "host01", ts)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if r.HostName != "host01" {
		t.Errorf("expected host01, got %q", r.HostName)
	}
	if !r.Timestamp.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, r.Timestamp)
	}
}

func TestNewRecord_Validation(t *testing.T) {
	tests := []struct {
		name    string
		service string
		st      status.Status
		field   string
	}{
		{"empty name", "", status.Up, "service_name"},
		{"bad status", "httpd", status.Status("MAYBE"), "service_status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := status.NewRecord(tt.service, tt.st, "", time.Time{})
			var verr *status.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []status.Status{status.Up, status.Down, status.Unknown, status.Degraded} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if status.Status("MAYBE").Valid() {
		t.Error("expected MAYBE to be invalid")
	}
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.UTC)
	r, err := status.NewRecord("postgresql", status.Up, "host01", ts)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if raw["service_name"] != "postgresql" {
		t.Errorf("expected service_name postgresql, got %q", raw["service_name"])
	}
	if raw["service_status"] != "UP" {
		t.Errorf("expected service_status UP, got %q", raw["service_status"])
	}
	if raw["host_name"] != "host01" {
		t.Errorf("expected host_name host01, got %q", raw["host_name"])
	}

	var back status.Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.ServiceName != r.ServiceName || back.Status != r.Status || back.HostName != r.HostName {
		t.Errorf("round trip mismatch: %+v vs %+v", back, r)
	}
	if !back.Timestamp.Equal(r.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", back.Timestamp, r.Timestamp)
	}
}

func TestRecord_UnmarshalRejectsBadStatus(t *testing.T) {
	doc := `{"service_name":"httpd","service_status":"MAYBE","host_name":"h","timestamp":"2024-03-01T12:30:45Z"}`
	var r status.Record
	err := json.Unmarshal([]byte(doc), &r)
	var verr *status.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRecord_UnmarshalRejectsMissingTimestamp(t *testing.T) {
	doc := `{"service_name":"httpd","service_status":"UP","host_name":"h"}`
	var r status.Record
	if err := json.Unmarshal([]byte(doc), &r); err == nil {
		t.Fatal("expected error for missing timestamp")
	}
}

func TestRecord_Filename(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	r, err := status.NewRecord("httpd", status.Up, "host01", ts)
	if err != nil {
		t.Fatal(err)
	}
	want := "httpd-status-20240301T123045Z.json"
	if got := r.Filename(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRecord_FilenameConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2024, 3, 1, 14, 30, 45, 0, loc)
	r, err := status.NewRecord("httpd", status.Up, "host01", ts)
	if err != nil {
		t.Fatal(err)
	}
	want := "httpd-status-20240301T123045Z.json"
	if got := r.Filename(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
