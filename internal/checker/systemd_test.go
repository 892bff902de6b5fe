package checker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazz-dev/appstatus/internal/checker"
	"github.com/hazz-dev/appstatus/internal/config"
)

// fakeExecutor implements checker.CommandExecutor for testing.
type fakeExecutor struct {
	stdout string
	stderr string
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.gotName = name
	f.gotArgs = args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func makeSystemdDep(unit string) config.Dependency {
	return config.Dependency{
		Name:     unit,
		Provider: "systemd",
		Target:   unit,
		Timeout:  config.Duration{Duration: 5 * time.Second},
	}
}

func TestSystemdProvider_Active(t *testing.T) {
	exec := &fakeExecutor{stdout: "active\n"}
	p := checker.NewSystemdProviderWithExecutor(makeSystemdDep("httpd"), exec)

	state, err := p.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != checker.StateRunning {
		t.Errorf("expected running, got %q", state)
	}
	if exec.gotName != "systemctl" {
		t.Errorf("expected systemctl invocation, got %q", exec.gotName)
	}
	if len(exec.gotArgs) != 2 || exec.gotArgs[0] != "is-active" || exec.gotArgs[1] != "httpd" {
		t.Errorf("unexpected args: %v", exec.gotArgs)
	}
}

func TestSystemdProvider_InactiveAnswers(t *testing.T) {
	// systemctl exits non-zero for these but the printed state is the answer.
	for _, answer := range []string{"inactive", "failed", "deactivating"} {
		t.Run(answer, func(t *testing.T) {
			exec := &fakeExecutor{stdout: answer + "\n", err: errors.New("exit status 3")}
			p := checker.NewSystemdProviderWithExecutor(makeSystemdDep("httpd"), exec)

			state, err := p.State(context.Background())
			if err != nil {
				t.Fatalf("State: %v", err)
			}
			if state != checker.StateStopped {
				t.Errorf("expected stopped for %q, got %q", answer, state)
			}
		})
	}
}

func TestSystemdProvider_UnknownAnswer(t *testing.T) {
	exec := &fakeExecutor{stdout: "unknown\n", err: errors.New("exit status 3")}
	p := checker.NewSystemdProviderWithExecutor(makeSystemdDep("ghost"), exec)

	state, err := p.State(context.Background())
	if state != checker.StateUnknown {
		t.Errorf("expected unknown, got %q", state)
	}
	if err == nil {
		t.Error("expected an error alongside the unknown state")
	}
}

func TestSystemdProvider_CommandMissing(t *testing.T) {
	exec := &fakeExecutor{err: errors.New(`exec: "systemctl": executable file not found in $PATH`)}
	p := checker.NewSystemdProviderWithExecutor(makeSystemdDep("httpd"), exec)

	state, err := p.State(context.Background())
	if state != checker.StateUnknown {
		t.Errorf("expected unknown when systemctl is missing, got %q", state)
	}
	if err == nil {
		t.Error("expected an error when systemctl is missing")
	}
}

func TestSystemdProvider_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{err: context.Canceled}
	p := checker.NewSystemdProviderWithExecutor(makeSystemdDep("httpd"), exec)

	state, err := p.State(ctx)
	if state != checker.StateUnknown {
		t.Errorf("expected unknown on cancelled context, got %q", state)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
