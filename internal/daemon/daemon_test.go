package daemon

import (
	"context"
	"strings"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/testsupport"
	"slidecast/internal/workflow"
)

func newLifecycleDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithHandlers(cfg, store, logging.NewNop(), defaultStubStages(cfg))
	d, err := New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	d := newLifecycleDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	if d.Addr() == "" {
		t.Fatal("expected a bound API address after Start")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start on the same daemon to fail")
	}

	status := d.Status(context.Background())
	if !status.Running || status.Version != Version {
		t.Fatalf("unexpected status %#v", status)
	}
	if !status.Workflow.Running {
		t.Fatal("expected workflow to be running")
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonLockRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	first := newLifecycleDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second := newLifecycleDaemon(t, cfg)
	err := second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail acquiring the lock")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second instance after release: %v", err)
	}
	second.Stop()
}
