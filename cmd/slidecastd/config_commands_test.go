package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigNewAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "new", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config new: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "new", "--path", target}, "", "")
	if err == nil {
		t.Fatal("expected second config new without --overwrite to fail")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path:")
	requireContains(t, out, "[paths]")
	if env.cfg.Script.APIKey != "" {
		requireContains(t, out, "********")
	}
}
