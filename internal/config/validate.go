package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.session_ttl_hours":    c.Workflow.SessionTTLHours,
		"workflow.janitor_interval":     c.Workflow.JanitorInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.MaxAssets <= 0 {
		return errors.New("workflow.max_assets must be positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.FFmpegBinary == "" {
		return errors.New("video.ffmpeg_binary must be set")
	}
	if c.Video.FFprobeBinary == "" {
		return errors.New("video.ffprobe_binary must be set")
	}
	if c.Video.FPS <= 0 || c.Video.FPS > 120 {
		return errors.New("video.fps must be between 1 and 120")
	}
	if c.Video.RenderTimeout <= 0 {
		return errors.New("video.render_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateVoice() error {
	switch c.Voice.Format {
	case "mp3", "wav", "aac", "opus", "flac":
		return nil
	default:
		return fmt.Errorf("voice.format %q is not supported", c.Voice.Format)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
