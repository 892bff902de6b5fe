// Package status holds the data model shared by the whole system: the
// status vocabulary and the immutable Record type every component
// produces, stores, or reads.
package status

// Status is the recorded state of a single service.
//
// Up, Down, and Unknown are produced by probes; Degraded appears only on
// the composite record the aggregator writes for the application itself,
// never on a raw dependency record. The inverse holds for Unknown: the
// aggregator never emits it.
type Status string

const (
	Up       Status = "UP"
	Down     Status = "DOWN"
	Unknown  Status = "UNKNOWN"
	Degraded Status = "DEGRADED"
)

// Valid reports whether s is one of the recognized status values.
func (s Status) Valid() bool {
	switch s {
	case Up, Down, Unknown, Degraded:
		return true
	}
	return false
}

// UnknownHost is the sentinel host name used when no host is supplied and
// the local hostname cannot be determined.
const UnknownHost = "unknown"
