package script

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/services/llm"
	"slidecast/internal/session"
	"slidecast/internal/stage"
)

// ScriptFileName is the artifact written into the session directory.
const ScriptFileName = "script.json"

// ChatClient is the subset of the chat API the script stage needs.
type ChatClient interface {
	CompleteJSONWithImages(ctx context.Context, systemPrompt, userPrompt string, images []llm.Image) (string, error)
}

// Scripter turns a session's slide images into a narration script.
type Scripter struct {
	store  *session.Store
	cfg    *config.Config
	logger *slog.Logger
	client ChatClient
}

// NewScripter constructs the script stage handler using the configured chat
// service.
func NewScripter(cfg *config.Config, store *session.Store, logger *slog.Logger) *Scripter {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Script.BaseURL,
		Model:          cfg.Script.Model,
		Referer:        cfg.Script.Referer,
		Title:          cfg.Script.Title,
		TimeoutSeconds: cfg.Script.TimeoutSeconds,
	})
	return NewScripterWithClient(cfg, store, logger, client)
}

// NewScripterWithClient allows injecting the chat client (used in tests).
func NewScripterWithClient(cfg *config.Config, store *session.Store, logger *slog.Logger, client ChatClient) *Scripter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "script"))
	}
	return &Scripter{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (s *Scripter) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, s.logger)
	if sess.AssetCount == 0 {
		return services.Wrap(
			services.ErrValidation,
			"script",
			"validate inputs",
			"Session has no uploaded images; upload slides before generating",
			nil,
		)
	}
	sess.InitProgress("Scripting", "Preparing narration script")
	logger.Info("starting script preparation", logging.Int("slides", sess.AssetCount))
	return nil
}

func (s *Scripter) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, s.logger)

	assets, err := s.store.Assets(ctx, sess.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "script", "load assets", "Failed to load session assets", err)
	}
	if len(assets) == 0 {
		return services.Wrap(services.ErrValidation, "script", "load assets", "Session has no uploaded images", nil)
	}

	s.updateProgress(ctx, sess, "Reading slide images", 10)
	images := make([]llm.Image, 0, len(assets))
	for _, asset := range assets {
		data, err := os.ReadFile(asset.Path)
		if err != nil {
			return services.Wrap(services.ErrTransient, "script", "read image",
				fmt.Sprintf("Failed to read slide image %s", asset.FileName), err)
		}
		images = append(images, llm.Image{MIMEType: asset.MIMEType, Data: data})
	}

	s.updateProgress(ctx, sess, "Requesting narration from script service", 30)
	logger.Info("requesting narration script", logging.Int("slides", len(images)))
	content, err := s.client.CompleteJSONWithImages(ctx, systemPrompt, userPrompt(len(images)), images)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "script", "complete", "Script service request failed", err)
	}

	var result Script
	if err := llm.DecodeModelJSON(content, &result); err != nil {
		return services.Wrap(services.ErrExternalTool, "script", "decode response", "Script service returned malformed JSON", err)
	}
	if err := result.Validate(len(images)); err != nil {
		return services.Wrap(services.ErrExternalTool, "script", "validate response", "Script service response does not match the slides", err)
	}

	path := filepath.Join(s.cfg.SessionDir(sess.ID), ScriptFileName)
	if err := result.Save(path); err != nil {
		return services.Wrap(services.ErrTransient, "script", "save script", "Failed to persist narration script", err)
	}

	sess.ScriptFile = path
	sess.SetProgress("Scripting", "Narration script ready", 100)
	logger.Info("script completed", logging.String("script_file", path), logging.Int("slides", len(result.Slides)))
	return nil
}

// HealthCheck verifies the script service credentials are configured.
func (s *Scripter) HealthCheck(ctx context.Context) stage.Health {
	const name = "script"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable", "Provide a slidecast config file")
	}
	if strings.TrimSpace(s.cfg.Script.APIKey) == "" {
		return stage.Unhealthy(name, "script service api key not configured",
			"Set script.api_key in the config file or export SLIDECAST_SCRIPT_API_KEY")
	}
	if s.client == nil {
		return stage.Unhealthy(name, "chat client unavailable", "Restart the daemon")
	}
	return stage.Healthy(name)
}

func (s *Scripter) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	logger := logging.WithContext(ctx, s.logger)
	copy := *sess
	copy.SetProgress("Scripting", message, percent)
	if err := s.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist script progress", logging.Error(err))
		return
	}
	*sess = copy
}
