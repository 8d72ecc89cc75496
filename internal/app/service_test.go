package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medcart/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	stopped  bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return s.stopErr
}

func TestRunnerStopsAllOnContextCancel(t *testing.T) {
	a := &fakeService{name: "a"}
	b := &fakeService{name: "b"}
	closed := false
	runner := NewRunner(a, b).WithCloser(func() error {
		closed = true
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.stopped || !b.stopped {
		t.Fatalf("expected all services stopped, got a=%v b=%v", a.stopped, b.stopped)
	}
	if !closed {
		t.Fatalf("expected closer to run")
	}
}

func TestRunnerCombinesStartAndStopErrors(t *testing.T) {
	failing := &fakeService{name: "http", startErr: errors.New("bind failed")}
	other := &fakeService{name: "worker", stopErr: errors.New("shutdown failed")}
	runner := NewRunner(failing, other).WithCloser(func() error {
		return errors.New("close failed")
	})

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"bind failed", "shutdown failed", "close failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
}

func TestBuildRunnerRejectsInvalidMode(t *testing.T) {
	cfg := &config.Config{}
	if _, err := BuildRunner(cfg, "batch"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
	if _, err := BuildRunner(cfg, ModeWorker); err == nil {
		t.Fatalf("expected worker mode to require queue")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestNormalizeOptionsUsesConfiguredShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeoutSeconds = 25
	opts := normalizeOptions(Options{Config: cfg, Mode: " Worker "})
	if opts.ShutdownTimeout != 25*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", opts.ShutdownTimeout)
	}
	if opts.Mode != ModeWorker {
		t.Fatalf("unexpected mode: %q", opts.Mode)
	}
}
