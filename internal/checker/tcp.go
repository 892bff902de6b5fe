package checker

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/hazz-dev/appstatus/internal/config"
)

// tcpProvider treats an accepted connection as running and a refused one as
// stopped. Timeouts and other dial failures are ambiguous: the service may be
// fine behind an unreachable network, so they map to unknown.
type tcpProvider struct {
	addr    string
	timeout config.Duration
}

func newTCPProvider(dep config.Dependency) *tcpProvider {
	return &tcpProvider{addr: dep.Target, timeout: dep.Timeout}
}

func (p *tcpProvider) State(ctx context.Context) (State, error) {
	dialer := &net.Dialer{Timeout: p.timeout.Duration}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err == nil {
		conn.Close()
		return StateRunning, nil
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return StateStopped, nil
	}
	return StateUnknown, err
}
