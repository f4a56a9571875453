// Package video assembles the final narrated slideshow by rendering the
// session's images and narration audio through ffmpeg with crossfade
// transitions.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/media/ffprobe"
	"slidecast/internal/services"
	"slidecast/internal/session"
	"slidecast/internal/stage"
)

// MinTransition and MaxTransition bound the crossfade duration in seconds.
const (
	MinTransition = 0.5
	MaxTransition = 2.0
)

// DurationProber measures the playable length of an audio file in seconds.
type DurationProber func(ctx context.Context, binary, path string) (float64, error)

func ffprobeDuration(ctx context.Context, binary, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return 0, fmt.Errorf("no usable duration for %s", path)
	}
	return duration, nil
}

// Renderer runs the video assembly stage for a session.
type Renderer struct {
	store  *session.Store
	cfg    *config.Config
	logger *slog.Logger
	run    CommandRunner
	probe  DurationProber
}

// NewRenderer constructs the video stage handler backed by the configured
// ffmpeg and ffprobe binaries.
func NewRenderer(cfg *config.Config, store *session.Store, logger *slog.Logger) *Renderer {
	return NewRendererWithTools(cfg, store, logger, NewFFmpegRunner(), ffprobeDuration)
}

// NewRendererWithTools allows injecting the command runner and duration
// prober (used in tests).
func NewRendererWithTools(cfg *config.Config, store *session.Store, logger *slog.Logger, runner CommandRunner, prober DurationProber) *Renderer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "video"))
	}
	return &Renderer{store: store, cfg: cfg, logger: stageLogger, run: runner, probe: prober}
}

func (r *Renderer) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, r.logger)
	if strings.TrimSpace(sess.AudioDir) == "" {
		return services.Wrap(services.ErrValidation, "video", "validate inputs",
			"No narration audio present; the voice stage must run first", nil)
	}
	if sess.AssetCount == 0 {
		return services.Wrap(services.ErrValidation, "video", "validate inputs",
			"Session has no uploaded images", nil)
	}
	if sess.Transition < MinTransition || sess.Transition > MaxTransition {
		return services.Wrap(services.ErrValidation, "video", "validate inputs",
			fmt.Sprintf("Transition duration %.2fs is outside the allowed %.1f-%.1fs range", sess.Transition, MinTransition, MaxTransition), nil)
	}
	if !ValidStyle(sess.Slide) {
		return services.Wrap(services.ErrValidation, "video", "validate inputs",
			fmt.Sprintf("Unknown slide style %q; supported styles are %s", sess.Slide, strings.Join(Styles(), ", ")), nil)
	}
	sess.InitProgress("Rendering", "Preparing video assembly")
	logger.Info("starting render preparation",
		logging.Int("slides", sess.AssetCount),
		logging.String("slide_style", sess.Slide),
		logging.Float64("transition_seconds", sess.Transition))
	return nil
}

func (r *Renderer) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, r.logger)

	assets, err := r.store.Assets(ctx, sess.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "video", "load assets", "Failed to load session assets", err)
	}
	audioFiles, err := listAudioFiles(sess.AudioDir)
	if err != nil {
		return services.Wrap(services.ErrValidation, "video", "load audio", "Failed to list narration audio", err)
	}
	if len(audioFiles) != len(assets) {
		return services.Wrap(services.ErrValidation, "video", "load audio",
			fmt.Sprintf("Narration audio count %d does not match slide count %d", len(audioFiles), len(assets)), nil)
	}

	r.updateProgress(ctx, sess, "Measuring narration audio", 5)
	slides := make([]Slide, 0, len(assets))
	for i, asset := range assets {
		duration, err := r.probe(ctx, r.cfg.Video.FFprobeBinary, audioFiles[i])
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "video", "probe audio",
				fmt.Sprintf("Failed to measure narration audio for slide %d", i+1), err)
		}
		slides = append(slides, Slide{ImagePath: asset.Path, AudioPath: audioFiles[i], Duration: duration})
	}

	if err := os.MkdirAll(r.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "video", "prepare output", "Failed to create output directory", err)
	}
	outputPath := filepath.Join(r.cfg.Paths.OutputDir, OutputFileName(sess.ID, sess.Attempt))

	plan := Plan{
		Slides:     slides,
		Style:      sess.Slide,
		Transition: sess.Transition,
		Width:      r.cfg.Video.Width,
		Height:     r.cfg.Video.Height,
		FPS:        r.cfg.Video.FPS,
		OutputPath: outputPath,
	}

	renderCtx := ctx
	if r.cfg.Video.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Video.RenderTimeout)*time.Second)
		defer cancel()
	}

	total := plan.TotalDuration()
	logger.Info("launching ffmpeg render",
		logging.String("output", outputPath),
		logging.Int("slides", len(slides)),
		logging.Float64("total_seconds", total))

	lastPersisted := time.Time{}
	onPosition := func(seconds float64) {
		if total <= 0 {
			return
		}
		now := time.Now()
		if !lastPersisted.IsZero() && now.Sub(lastPersisted) < 2*time.Second {
			return
		}
		lastPersisted = now
		percent := math.Min(seconds/total*100, 99)
		r.updateProgress(ctx, sess, fmt.Sprintf("Rendering video %.0f%%", percent), percent)
	}

	r.updateProgress(ctx, sess, "Rendering video", 10)
	if err := r.run.Run(renderCtx, r.cfg.Video.FFmpegBinary, plan.Args(), onPosition); err != nil {
		if renderCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "video", "render",
				fmt.Sprintf("Render exceeded the %ds limit", r.cfg.Video.RenderTimeout), err)
		}
		return services.Wrap(services.ErrExternalTool, "video", "render",
			"ffmpeg failed to assemble the video; check the ffmpeg install and the session assets", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "video", "verify output",
			"ffmpeg reported success but produced no video file", err)
	}

	sess.VideoFile = outputPath
	sess.SetProgress("Rendering", "Video ready", 100)
	logger.Info("render completed",
		logging.String("video_file", outputPath),
		logging.Int64("size_bytes", info.Size()))
	return nil
}

// HealthCheck verifies the ffmpeg and ffprobe binaries resolve on PATH.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "video"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable", "Provide a slidecast config file")
	}
	for _, binary := range []string{r.cfg.Video.FFmpegBinary, r.cfg.Video.FFprobeBinary} {
		if _, err := exec.LookPath(strings.TrimSpace(binary)); err != nil {
			return stage.Unhealthy(name,
				fmt.Sprintf("%s not found", strings.TrimSpace(binary)),
				"Install ffmpeg and ensure both ffmpeg and ffprobe are on PATH or configured in the video section")
		}
	}
	return stage.Healthy(name)
}

// OutputFileName is the on-disk name of the rendered video for one attempt.
func OutputFileName(sessionID string, attempt int64) string {
	return fmt.Sprintf("slidecast_%s_%d.mp4", sessionID, attempt)
}

func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (r *Renderer) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	logger := logging.WithContext(ctx, r.logger)
	copy := *sess
	copy.SetProgress("Rendering", message, percent)
	if err := r.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist render progress", logging.Error(err))
		return
	}
	*sess = copy
}
