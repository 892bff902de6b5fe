// Package checker probes the raw state of dependency services and turns the
// answers into status records. A probe can fail; a check cannot — failure is
// encoded as an UNKNOWN record, never as an error.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazz-dev/appstatus/internal/config"
	"github.com/hazz-dev/appstatus/internal/status"
)

// State is the raw service state reported by a StateProvider.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateUnknown State = "unknown"
)

// StateProvider answers a single question: is the service behind it running?
// A provider returns StateUnknown together with the underlying error when it
// cannot tell; it must not guess.
type StateProvider interface {
	State(ctx context.Context) (State, error)
}

// NewProvider returns the appropriate StateProvider for the given dependency
// configuration. Unrecognized provider tags are rejected here rather than
// falling through to a default.
func NewProvider(dep config.Dependency) (StateProvider, error) {
	switch dep.Provider {
	case "systemd":
		return newSystemdProvider(dep), nil
	case "tcp":
		return newTCPProvider(dep), nil
	case "http":
		return newHTTPProvider(dep), nil
	case "docker":
		return newDockerProvider(dep), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", dep.Provider)
	}
}

// Checker wraps StateProvider answers into immutable status records. It does
// not store anything; appending records is the caller's concern.
type Checker struct {
	host   string
	logger *slog.Logger
	now    func() time.Time
}

// NewChecker creates a Checker that stamps records with the given host name.
// An empty host falls back to the local hostname, then to the unknown-host
// sentinel. Pass nil logger to use the default logger.
func NewChecker(host string, logger *slog.Logger) *Checker {
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host = h
		} else {
			host = status.UnknownHost
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		host:   host,
		logger: logger,
		now:    time.Now,
	}
}

// Host returns the host name the checker stamps on its records.
func (c *Checker) Host() string {
	return c.host
}

// Check probes the service once through the given provider and returns the
// resulting record. Provider errors, timeouts, and ambiguous answers all map
// to UNKNOWN; running maps to UP and stopped to DOWN. There is no retry —
// retry policy belongs to the caller.
func (c *Checker) Check(ctx context.Context, serviceName string, provider StateProvider) status.Record {
	state, err := provider.State(ctx)

	var st status.Status
	switch state {
	case StateRunning:
		st = status.Up
	case StateStopped:
		st = status.Down
	default:
		st = status.Unknown
	}
	if err != nil {
		st = status.Unknown
		c.logger.Warn("probe failed", "service", serviceName, "error", err)
	}

	return status.Record{
		ServiceName: serviceName,
		Status:      st,
		HostName:    c.host,
		Timestamp:   c.now().UTC(),
	}
}
