package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hazz-dev/appstatus/internal/config"
)

const dockerSockPath = "/var/run/docker.sock"

// ContainerState holds the minimal Docker container state we care about.
type ContainerState struct {
	Running bool
}

// DockerClient abstracts Docker Engine API access for testability.
type DockerClient interface {
	InspectContainer(ctx context.Context, name string) (*ContainerState, error)
}

// dockerProvider maps the container's inspect state: running container means
// running, an inspectable but stopped container means stopped, and an
// unreachable daemon or missing container means unknown.
type dockerProvider struct {
	container string
	client    DockerClient
}

func newDockerProvider(dep config.Dependency) *dockerProvider {
	return &dockerProvider{
		container: dep.Target,
		client:    newUnixDockerClient(dep.Timeout.Duration),
	}
}

// NewDockerProviderWithClient creates a docker provider with a custom client
// (for testing).
func NewDockerProviderWithClient(dep config.Dependency, client DockerClient) StateProvider {
	return &dockerProvider{container: dep.Target, client: client}
}

func (p *dockerProvider) State(ctx context.Context) (State, error) {
	state, err := p.client.InspectContainer(ctx, p.container)
	if err != nil {
		return StateUnknown, err
	}
	if state.Running {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// unixDockerClient queries the Docker Engine API over the Unix socket.
type unixDockerClient struct {
	client *http.Client
}

func newUnixDockerClient(timeout time.Duration) *unixDockerClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return net.DialTimeout("unix", dockerSockPath, timeout)
		},
	}
	return &unixDockerClient{
		client: &http.Client{Transport: transport, Timeout: timeout},
	}
}

func (d *unixDockerClient) InspectContainer(ctx context.Context, name string) (*ContainerState, error) {
	url := fmt.Sprintf("http://localhost/containers/%s/json", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying docker socket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("container %q not found", name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docker API returned status %d", resp.StatusCode)
	}

	var body struct {
		State ContainerState `json:"State"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding docker response: %w", err)
	}
	return &body.State, nil
}
