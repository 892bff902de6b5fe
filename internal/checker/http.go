package checker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"

	"github.com/hazz-dev/appstatus/internal/config"
)

// httpProvider probes a health URL. A 2xx response means running; any other
// HTTP response means the service answered but is not serving, which counts
// as stopped. A refused connection is also stopped; everything else is
// ambiguous and maps to unknown.
type httpProvider struct {
	url    string
	client *http.Client
}

func newHTTPProvider(dep config.Dependency) *httpProvider {
	return &httpProvider{
		url:    dep.Target,
		client: &http.Client{Timeout: dep.Timeout.Duration},
	}
}

func (p *httpProvider) State(ctx context.Context) (State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return StateUnknown, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return StateStopped, nil
		}
		return StateUnknown, err
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return StateRunning, nil
	}
	return StateStopped, nil
}
