package main

import (
	"context"
	"encoding/json"
	"testing"

	"slidecast/internal/api"
	"slidecast/internal/testsupport"
)

func TestSessionsCommandListsSessions(t *testing.T) {
	env := setupCLITestEnv(t)

	sess := testsupport.NewSession(t, env.store)
	testsupport.SeedAssets(t, env.store, sess.ID, 3)

	out, _, err := runCLI(t, []string{"sessions"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, sess.ID)
	requireContains(t, out, "Pending")
	requireContains(t, out, "3")
}

func TestSessionsCommandJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	sess := testsupport.NewSession(t, env.store)
	out, _, err := runCLI(t, []string{"sessions", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("sessions --json: %v", err)
	}

	var resp api.SessionListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].SessionID != sess.ID {
		t.Fatalf("unexpected listing %#v", resp)
	}
}

func TestSessionsCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sessions"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No sessions")
}

func TestStatusCommandAgainstRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "== Workflow ==")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "Ffmpeg")
}

func TestStatusCommandWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.daemon.Stop()

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status without daemon: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "ERROR")
	requireContains(t, out, "== Dependencies ==")
}

func TestDaemonStatusSnapshot(t *testing.T) {
	env := setupCLITestEnv(t)

	status := env.daemon.Status(context.Background())
	if !status.Running || status.Version == "" {
		t.Fatalf("unexpected daemon status %#v", status)
	}
	if len(status.Workflow.StageHealth) != 3 {
		t.Fatalf("expected 3 stage health entries, got %d", len(status.Workflow.StageHealth))
	}
}
