package config

import (
	"time"

	"github.com/pitabwire/frame/config"

	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/pipeline"
	"github.com/voicetyped/voxlate/internal/translate"
)

// BackendSettings selects the speech and translation backends and carries
// their credentials.
type BackendSettings struct {
	ASRBackend string `envDefault:"google" env:"ASR_BACKEND"`
	TTSBackend string `envDefault:"google" env:"TTS_BACKEND"`
	MTBackend  string `envDefault:"google" env:"MT_BACKEND"`

	ASRModel string `envDefault:"" env:"ASR_MODEL"`
	TTSModel string `envDefault:"" env:"TTS_MODEL"`
	TTSVoice string `envDefault:"" env:"TTS_VOICE"`
	MTModel  string `envDefault:"" env:"MT_MODEL"`

	GoogleAPIKey         string `envDefault:""                          env:"GOOGLE_API_KEY"`
	DeepgramAPIKey       string `envDefault:""                          env:"DEEPGRAM_API_KEY"`
	ElevenLabsAPIKey     string `envDefault:""                          env:"ELEVENLABS_API_KEY"`
	OpenAIAPIKey         string `envDefault:""                          env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envDefault:"https://api.openai.com/v1" env:"OPENAI_BASE_URL"`
	PiperBinaryPath      string `envDefault:"piper"                     env:"PIPER_BINARY_PATH"`
	PiperModelPath       string `envDefault:""                          env:"PIPER_MODEL_PATH"`
	PiperModelsDir       string `envDefault:"./models"                  env:"PIPER_MODELS_DIR"`
	LibreTranslateURL    string `envDefault:""                          env:"LIBRETRANSLATE_URL"`
	LibreTranslateAPIKey string `envDefault:""                          env:"LIBRETRANSLATE_API_KEY"`

	CallTimeoutSec int `envDefault:"30" env:"CLIENT_CALL_TIMEOUT_SEC"`
}

func (b BackendSettings) shared() map[string]string {
	return map[string]string{
		"google_api_key":         b.GoogleAPIKey,
		"deepgram_api_key":       b.DeepgramAPIKey,
		"elevenlabs_api_key":     b.ElevenLabsAPIKey,
		"openai_api_key":         b.OpenAIAPIKey,
		"openai_base_url":        b.OpenAIBaseURL,
		"piper_binary_path":      b.PiperBinaryPath,
		"piper_model_path":       b.PiperModelPath,
		"piper_models_dir":       b.PiperModelsDir,
		"libretranslate_url":     b.LibreTranslateURL,
		"libretranslate_api_key": b.LibreTranslateAPIKey,
	}
}

// ASRConfig is the factory config for the ASR backend.
func (b BackendSettings) ASRConfig() map[string]string {
	m := b.shared()
	setIf(m, b.ASRModel, "model", "openai_asr_model")
	return m
}

// TTSConfig is the factory config for the TTS backend.
func (b BackendSettings) TTSConfig() map[string]string {
	m := b.shared()
	setIf(m, b.TTSModel, "model", "openai_tts_model")
	setIf(m, b.TTSVoice, "voice")
	return m
}

// MTConfig is the factory config for the translation backend.
func (b BackendSettings) MTConfig() map[string]string {
	m := b.shared()
	setIf(m, b.MTModel, "openai_translate_model")
	return m
}

// CallTimeout bounds a single synthesis or recognition call.
func (b BackendSettings) CallTimeout() time.Duration {
	return time.Duration(b.CallTimeoutSec) * time.Second
}

func setIf(m map[string]string, value string, keys ...string) {
	if value == "" {
		return
	}
	for _, k := range keys {
		m[k] = value
	}
}

// RetrySettings tunes the retrying translator and its circuit breaker.
type RetrySettings struct {
	MaxRetries        int `envDefault:"3"    env:"TRANSLATE_MAX_RETRIES"`
	InitialDelayMs    int `envDefault:"1000" env:"TRANSLATE_INITIAL_DELAY_MS"`
	AttemptTimeoutSec int `envDefault:"15"   env:"TRANSLATE_ATTEMPT_TIMEOUT_SEC"`
	CBFailThreshold   int `envDefault:"0"    env:"CB_FAILURE_THRESHOLD"`
	CBResetTimeoutSec int `envDefault:"60"   env:"CB_RESET_TIMEOUT_SEC"`
}

// TranslateConfig converts the settings for translate.New.
func (r RetrySettings) TranslateConfig() translate.Config {
	return translate.Config{
		MaxRetries:     r.MaxRetries,
		InitialDelay:   time.Duration(r.InitialDelayMs) * time.Millisecond,
		AttemptTimeout: time.Duration(r.AttemptTimeoutSec) * time.Second,
	}
}

// Breaker builds the circuit breaker, or returns nil when it is disabled.
func (r RetrySettings) Breaker() *translate.Breaker {
	if r.CBFailThreshold <= 0 {
		return nil
	}
	return translate.NewBreaker(translate.BreakerConfig{
		FailureThreshold: r.CBFailThreshold,
		ResetTimeout:     time.Duration(r.CBResetTimeoutSec) * time.Second,
	})
}

// PipelineSettings configures the continuous listen-translate-speak loop.
type PipelineSettings struct {
	SourceLanguage     string  `envDefault:"en"                                         env:"LIVE_SOURCE_LANG"`
	TargetLanguage     string  `envDefault:"es"                                         env:"LIVE_TARGET_LANG"`
	ListenTimeoutSec   int     `envDefault:"5"                                          env:"LISTEN_TIMEOUT_SEC"`
	PhraseLimitSec     int     `envDefault:"5"                                          env:"PHRASE_TIME_LIMIT_SEC"`
	SlowSpeech         bool    `envDefault:"false"                                      env:"SLOW_SPEECH"`
	RecorderCommand    string  `envDefault:"arecord -q -t raw -f S16_LE -c 1 -r 16000" env:"RECORDER_COMMAND"`
	PlayerPCMCommand   string  `envDefault:""                                           env:"PLAYER_PCM_COMMAND"`
	PlayerCommand      string  `envDefault:""                                           env:"PLAYER_COMMAND"`
	VADEnergyThreshold float64 `envDefault:"500"                                        env:"VAD_ENERGY_THRESHOLD"`
	VADSilenceMs       int     `envDefault:"700"                                        env:"VAD_SILENCE_MS"`
	CaptureRetryMs     int     `envDefault:"1000"                                       env:"CAPTURE_RETRY_MS"`
}

// OrchestratorConfig converts the settings for pipeline.New.
func (p PipelineSettings) OrchestratorConfig() pipeline.Config {
	return pipeline.Config{
		SourceLanguage:    p.SourceLanguage,
		TargetLanguage:    p.TargetLanguage,
		ListenTimeout:     time.Duration(p.ListenTimeoutSec) * time.Second,
		PhraseLimit:       time.Duration(p.PhraseLimitSec) * time.Second,
		SlowSpeech:        p.SlowSpeech,
		CaptureRetryDelay: time.Duration(p.CaptureRetryMs) * time.Millisecond,
	}
}

// VADConfig returns the capture segmentation parameters.
func (p PipelineSettings) VADConfig() audio.VADConfig {
	cfg := audio.DefaultVADConfig()
	if p.VADEnergyThreshold > 0 {
		cfg.EnergyThreshold = p.VADEnergyThreshold
	}
	if p.VADSilenceMs > 0 {
		cfg.SilenceMinDurMs = p.VADSilenceMs
	}
	return cfg
}

// StorageSettings chooses where synthesized clips are kept. A MinIO endpoint
// takes precedence over the bucket URL.
type StorageSettings struct {
	AudioBucketURL string `envDefault:"file:///tmp/voxlate/audio?create_dir=true" env:"AUDIO_BUCKET_URL"`
	MinioEndpoint  string `envDefault:""                                          env:"MINIO_ENDPOINT"`
	MinioAccessKey string `envDefault:""                                          env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envDefault:""                                          env:"MINIO_SECRET_KEY"`
	MinioBucket    string `envDefault:"voxlate-audio"                             env:"MINIO_BUCKET"`
	MinioRegion    string `envDefault:""                                          env:"MINIO_REGION"`
	MinioUseSSL    bool   `envDefault:"false"                                     env:"MINIO_USE_SSL"`
}

// MinioConfig converts the settings for audio.NewMinioStore.
func (s StorageSettings) MinioConfig() audio.MinioConfig {
	return audio.MinioConfig{
		Endpoint:  s.MinioEndpoint,
		AccessKey: s.MinioAccessKey,
		SecretKey: s.MinioSecretKey,
		Bucket:    s.MinioBucket,
		Region:    s.MinioRegion,
		UseSSL:    s.MinioUseSSL,
	}
}

// ServerConfig holds configuration for the request-mode server. The
// continuous loop can run alongside it when LiveEnabled is set.
type ServerConfig struct {
	config.ConfigurationDefault
	BackendSettings
	RetrySettings
	StorageSettings
	PipelineSettings

	DefaultSourceLang   string `envDefault:"en"    env:"DEFAULT_SRC_LANG"`
	DefaultTargetLang   string `envDefault:"ta"    env:"DEFAULT_DEST_LANG"`
	LanguageCatalogFile string `envDefault:""      env:"LANGUAGE_CATALOG_FILE"`
	RateLimitPerMinute  int    `envDefault:"60"    env:"TRANSLATE_RATE_LIMIT_PER_MIN"`
	LiveEnabled         bool   `envDefault:"false" env:"LIVE_ENABLED"`
}

// LiveConfig holds configuration for the continuous command-line loop.
type LiveConfig struct {
	config.ConfigurationDefault
	BackendSettings
	RetrySettings
	PipelineSettings

	LanguageCatalogFile string `envDefault:"" env:"LANGUAGE_CATALOG_FILE"`
}
