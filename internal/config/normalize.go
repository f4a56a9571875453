package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScript()
	c.normalizeVoice()
	c.normalizeVideo()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeScript() {
	c.Script.APIKey = strings.TrimSpace(c.Script.APIKey)
	if c.Script.APIKey == "" {
		if value, ok := os.LookupEnv("SLIDECAST_SCRIPT_API_KEY"); ok {
			c.Script.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Script.APIKey = strings.TrimSpace(value)
		}
	}
	c.Script.BaseURL = strings.TrimSpace(c.Script.BaseURL)
	if c.Script.BaseURL == "" {
		c.Script.BaseURL = defaultScriptBaseURL
	}
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	if c.Script.Model == "" {
		c.Script.Model = defaultScriptModel
	}
	c.Script.Referer = strings.TrimSpace(c.Script.Referer)
	c.Script.Title = strings.TrimSpace(c.Script.Title)
	if c.Script.Title == "" {
		c.Script.Title = defaultScriptTitle
	}
	if c.Script.TimeoutSeconds <= 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeout
	}
}

func (c *Config) normalizeVoice() {
	c.Voice.APIKey = strings.TrimSpace(c.Voice.APIKey)
	if c.Voice.APIKey == "" {
		if value, ok := os.LookupEnv("SLIDECAST_VOICE_API_KEY"); ok {
			c.Voice.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Voice.APIKey = strings.TrimSpace(value)
		}
	}
	c.Voice.BaseURL = strings.TrimSpace(c.Voice.BaseURL)
	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = defaultVoiceBaseURL
	}
	c.Voice.Model = strings.TrimSpace(c.Voice.Model)
	if c.Voice.Model == "" {
		c.Voice.Model = defaultVoiceModel
	}
	c.Voice.Voice = strings.TrimSpace(c.Voice.Voice)
	if c.Voice.Voice == "" {
		c.Voice.Voice = defaultVoiceName
	}
	c.Voice.Format = strings.ToLower(strings.TrimSpace(c.Voice.Format))
	if c.Voice.Format == "" {
		c.Voice.Format = defaultVoiceFormat
	}
	if c.Voice.TimeoutSeconds <= 0 {
		c.Voice.TimeoutSeconds = defaultVoiceTimeout
	}
}

func (c *Config) normalizeVideo() {
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.RenderTimeout <= 0 {
		c.Video.RenderTimeout = defaultRenderTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SessionTTLHours <= 0 {
		c.Workflow.SessionTTLHours = defaultSessionTTLHours
	}
	if c.Workflow.JanitorInterval <= 0 {
		c.Workflow.JanitorInterval = defaultJanitorInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.Workflow.MaxAssets <= 0 {
		c.Workflow.MaxAssets = defaultMaxAssets
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
