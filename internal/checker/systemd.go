package checker

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazz-dev/appstatus/internal/config"
)

// systemdProvider asks systemd for the unit's state via `systemctl is-active`.
type systemdProvider struct {
	unit string
	exec CommandExecutor
}

func newSystemdProvider(dep config.Dependency) *systemdProvider {
	return &systemdProvider{unit: dep.Target, exec: &osExecutor{}}
}

// NewSystemdProviderWithExecutor creates a systemd provider with a custom
// command executor (for testing).
func NewSystemdProviderWithExecutor(dep config.Dependency, exec CommandExecutor) StateProvider {
	return &systemdProvider{unit: dep.Target, exec: exec}
}

func (p *systemdProvider) State(ctx context.Context) (State, error) {
	stdout, _, err := p.exec.Run(ctx, "systemctl", "is-active", p.unit)

	// systemctl exits non-zero for anything but an active unit, yet still
	// prints the state. A clean answer takes precedence over the exit code.
	switch answer := strings.TrimSpace(string(stdout)); answer {
	case "active":
		return StateRunning, nil
	case "", "unknown":
		// Fall through: no usable answer.
	default:
		return StateStopped, nil
	}

	if ctx.Err() != nil {
		return StateUnknown, ctx.Err()
	}
	if err != nil {
		return StateUnknown, fmt.Errorf("running systemctl for unit %q: %w", p.unit, err)
	}
	return StateUnknown, fmt.Errorf("systemctl gave no usable answer for unit %q", p.unit)
}
