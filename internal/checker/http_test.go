package checker_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazz-dev/appstatus/internal/checker"
	"github.com/hazz-dev/appstatus/internal/config"
)

func makeHTTPDep(t *testing.T, url string) config.Dependency {
	t.Helper()
	return config.Dependency{
		Name:     "test-http",
		Provider: "http",
		Target:   url,
		Timeout:  config.Duration{Duration: 2 * time.Second},
	}
}

func TestHTTPProvider_Running(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := checker.NewProvider(makeHTTPDep(t, srv.URL))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	state, err := p.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != checker.StateRunning {
		t.Errorf("expected running, got %q", state)
	}
}

func TestHTTPProvider_ErrorStatusMeansStopped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := checker.NewProvider(makeHTTPDep(t, srv.URL))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	state, err := p.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != checker.StateStopped {
		t.Errorf("expected stopped for 503 response, got %q", state)
	}
}

func TestHTTPProvider_RefusedMeansStopped(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	p, err := checker.NewProvider(makeHTTPDep(t, "http://"+addr+"/health"))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	state, err := p.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != checker.StateStopped {
		t.Errorf("expected stopped for refused connection, got %q", state)
	}
}

func TestHTTPProvider_TimeoutMeansUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	dep := makeHTTPDep(t, srv.URL)
	dep.Timeout = config.Duration{Duration: 50 * time.Millisecond}

	p, err := checker.NewProvider(dep)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	state, err := p.State(context.Background())
	if state != checker.StateUnknown {
		t.Errorf("expected unknown on timeout, got %q", state)
	}
	if err == nil {
		t.Error("expected an error on timeout")
	}
}

func TestHTTPProvider_BadURL(t *testing.T) {
	p, err := checker.NewProvider(makeHTTPDep(t, "://not-a-url"))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	state, err := p.State(context.Background())
	if state != checker.StateUnknown {
		t.Errorf("expected unknown for bad URL, got %q", state)
	}
	if err == nil {
		t.Error("expected an error for bad URL")
	}
}
