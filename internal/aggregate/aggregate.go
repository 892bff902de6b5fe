// Package aggregate derives the application's composite status from the
// latest records of its dependency services.
package aggregate

import "github.com/hazz-dev/appstatus/internal/status"

// Status computes the composite application status over the configured
// dependency names. It is a pure function: no I/O, no clock reads.
//
// A dependency with no record counts as UNKNOWN rather than being dropped.
// The result is UP when every dependency is UP, DOWN when none is UP, and
// DEGRADED for a genuine mix.
func Status(deps []string, records map[string]status.Record) status.Status {
	// An empty dependency set is rejected at config load; if one slips
	// through there is nothing confirmed up.
	if len(deps) == 0 {
		return status.Down
	}

	allUp := true
	anyUp := false
	for _, name := range deps {
		st := status.Unknown
		if r, ok := records[name]; ok {
			st = r.Status
		}
		if st == status.Up {
			anyUp = true
		} else {
			allUp = false
		}
	}

	switch {
	case allUp:
		return status.Up
	case !anyUp:
		return status.Down
	default:
		return status.Degraded
	}
}
