package deps

import (
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" || results[1].Solution == "" {
		t.Fatalf("expected detail and solution for missing binary, got %#v", results[1])
	}
}

func TestCheckReportsMissingCredentials(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)
	t.Setenv("SLIDECAST_SCRIPT_API_KEY", "")
	t.Setenv("SLIDECAST_VOICE_API_KEY", "")

	cfg := config.Default()
	cfg.Script.APIKey = "configured"
	cfg.Voice.APIKey = ""

	statuses := Check(&cfg)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}

	missing := FirstMissing(statuses)
	if missing == nil {
		t.Fatal("expected a missing dependency")
	}
	if missing.Name != "voice service" {
		t.Fatalf("expected voice service to be first missing, got %q", missing.Name)
	}
	if missing.Solution == "" {
		t.Fatal("expected a remediation hint")
	}
}

func TestFirstMissingAllAvailable(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b", Available: false, Optional: true},
	}
	if missing := FirstMissing(statuses); missing != nil {
		t.Fatalf("expected nil, got %#v", missing)
	}
}
