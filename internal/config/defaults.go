package config

const (
	defaultUploadDir          = "~/.local/share/slidecast/uploads"
	defaultOutputDir          = "~/.local/share/slidecast/output"
	defaultLogDir             = "~/.local/share/slidecast/logs"
	defaultAPIBind            = "127.0.0.1:8754"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultScriptBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultScriptModel        = "google/gemini-3-flash-preview"
	defaultScriptTitle        = "Slidecast Narrator"
	defaultScriptTimeout      = 60
	defaultVoiceBaseURL       = "https://api.openai.com/v1/audio/speech"
	defaultVoiceModel         = "gpt-4o-mini-tts"
	defaultVoiceName          = "alloy"
	defaultVoiceFormat        = "mp3"
	defaultVoiceTimeout       = 120
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultVideoFPS           = 24
	defaultVideoWidth         = 1280
	defaultVideoHeight        = 720
	defaultRenderTimeout      = 1800
	defaultSessionTTLHours    = 24
	defaultJanitorInterval    = 300
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultMaxAssets          = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Script: Script{
			BaseURL:        defaultScriptBaseURL,
			Model:          defaultScriptModel,
			Title:          defaultScriptTitle,
			TimeoutSeconds: defaultScriptTimeout,
		},
		Voice: Voice{
			BaseURL:        defaultVoiceBaseURL,
			Model:          defaultVoiceModel,
			Voice:          defaultVoiceName,
			Format:         defaultVoiceFormat,
			TimeoutSeconds: defaultVoiceTimeout,
		},
		Video: Video{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			FPS:           defaultVideoFPS,
			Width:         defaultVideoWidth,
			Height:        defaultVideoHeight,
			RenderTimeout: defaultRenderTimeout,
		},
		Workflow: Workflow{
			SessionTTLHours:    defaultSessionTTLHours,
			JanitorInterval:    defaultJanitorInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			MaxAssets:          defaultMaxAssets,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
