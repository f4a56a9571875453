// Package voice synthesizes narration audio for a session's script through an
// OpenAI-compatible speech service.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/script"
	"slidecast/internal/services"
	"slidecast/internal/services/tts"
	"slidecast/internal/session"
	"slidecast/internal/stage"
)

// AudioDirName is the directory created inside the session directory for
// narration audio files.
const AudioDirName = "audio"

// SpeechClient is the subset of the speech API the voice stage needs.
type SpeechClient interface {
	SynthesizeToFile(ctx context.Context, text, path string) error
	Configured() bool
	Format() string
}

// Synthesizer narrates a session's script one slide at a time.
type Synthesizer struct {
	store  *session.Store
	cfg    *config.Config
	logger *slog.Logger
	client SpeechClient
}

// NewSynthesizer constructs the voice stage handler using the configured
// speech service.
func NewSynthesizer(cfg *config.Config, store *session.Store, logger *slog.Logger) *Synthesizer {
	client := tts.NewClient(tts.Config{
		APIKey:         cfg.Voice.APIKey,
		BaseURL:        cfg.Voice.BaseURL,
		Model:          cfg.Voice.Model,
		Voice:          cfg.Voice.Voice,
		Format:         cfg.Voice.Format,
		TimeoutSeconds: cfg.Voice.TimeoutSeconds,
	})
	return NewSynthesizerWithClient(cfg, store, logger, client)
}

// NewSynthesizerWithClient allows injecting the speech client (used in tests).
func NewSynthesizerWithClient(cfg *config.Config, store *session.Store, logger *slog.Logger, client SpeechClient) *Synthesizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "voice"))
	}
	return &Synthesizer{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (v *Synthesizer) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, v.logger)
	if strings.TrimSpace(sess.ScriptFile) == "" {
		return services.Wrap(
			services.ErrValidation,
			"voice",
			"validate inputs",
			"No narration script present; the script stage must run first",
			nil,
		)
	}
	sess.InitProgress("Voicing", "Preparing speech synthesis")
	logger.Info("starting voice preparation", logging.String("script_file", sess.ScriptFile))
	return nil
}

func (v *Synthesizer) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, v.logger)

	narration, err := script.Load(sess.ScriptFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "voice", "load script", "Failed to load narration script", err)
	}

	audioDir := filepath.Join(v.cfg.SessionDir(sess.ID), AudioDirName)
	total := len(narration.Slides)
	for i, slide := range narration.Slides {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(audioDir, fmt.Sprintf("%03d.%s", i, v.client.Format()))
		v.updateProgress(ctx, sess, fmt.Sprintf("Narrating slide %d of %d", i+1, total),
			float64(i)/float64(total)*100)
		if err := v.client.SynthesizeToFile(ctx, slide.Narration, target); err != nil {
			return services.Wrap(services.ErrExternalTool, "voice", "synthesize",
				fmt.Sprintf("Speech synthesis failed for slide %d", i+1), err)
		}
		logger.Info("slide narrated", logging.Int("slide", i+1), logging.String("audio_file", target))
	}

	sess.AudioDir = audioDir
	sess.SetProgress("Voicing", "Narration audio ready", 100)
	logger.Info("voice completed", logging.String("audio_dir", audioDir), logging.Int("slides", total))
	return nil
}

// HealthCheck verifies the speech service credentials are configured.
func (v *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "voice"
	if v.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable", "Provide a slidecast config file")
	}
	if v.client == nil || !v.client.Configured() {
		return stage.Unhealthy(name, "voice service api key not configured",
			"Set voice.api_key in the config file or export SLIDECAST_VOICE_API_KEY")
	}
	return stage.Healthy(name)
}

func (v *Synthesizer) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	logger := logging.WithContext(ctx, v.logger)
	copy := *sess
	copy.SetProgress("Voicing", message, percent)
	if err := v.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist voice progress", logging.Error(err))
		return
	}
	*sess = copy
}
