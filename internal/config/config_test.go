package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config to report exists=false (path %s)", path)
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Errorf("expected default api bind, got %q", cfg.Paths.APIBind)
	}
	if cfg.Workflow.MaxAssets != defaultMaxAssets {
		t.Errorf("expected default max assets, got %d", cfg.Workflow.MaxAssets)
	}
	if cfg.Voice.Format != defaultVoiceFormat {
		t.Errorf("expected default voice format, got %q", cfg.Voice.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
upload_dir = "` + dir + `/uploads"
output_dir = "` + dir + `/output"
log_dir = "` + dir + `/logs"
api_bind = "127.0.0.1:9000"

[voice]
format = "WAV"

[workflow]
max_assets = 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Errorf("unexpected api bind %q", cfg.Paths.APIBind)
	}
	if cfg.Voice.Format != "wav" {
		t.Errorf("expected lowercased voice format, got %q", cfg.Voice.Format)
	}
	if cfg.Workflow.MaxAssets != 12 {
		t.Errorf("expected max assets 12, got %d", cfg.Workflow.MaxAssets)
	}
	if cfg.Script.Model == "" {
		t.Error("expected script model default to be filled in")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "heartbeat timeout below interval",
			mutate: func(c *Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval },
			want:   "heartbeat_timeout",
		},
		{
			name:   "fps out of range",
			mutate: func(c *Config) { c.Video.FPS = 500 },
			want:   "video.fps",
		},
		{
			name:   "unsupported voice format",
			mutate: func(c *Config) { c.Voice.Format = "midi" },
			want:   "voice.format",
		},
		{
			name:   "missing ffmpeg binary",
			mutate: func(c *Config) { c.Video.FFmpegBinary = "" },
			want:   "ffmpeg_binary",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestScriptAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("SLIDECAST_SCRIPT_API_KEY", "env-key")
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Script.APIKey != "env-key" {
		t.Errorf("expected api key from environment, got %q", cfg.Script.APIKey)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := expandPath("~/slidecast-test")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if expanded != filepath.Join(home, "slidecast-test") {
		t.Errorf("unexpected expansion %q", expanded)
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config should validate: %v", err)
	}
}
