package config

import (
	"time"
)

// Config holds docuflow configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	OCR       OCRCfg       `mapstructure:"ocr" yaml:"ocr"`
	LLM       LLMCfg       `mapstructure:"llm" yaml:"llm"`
	Translate TranslateCfg `mapstructure:"translate" yaml:"translate"`
	Storage   StorageCfg   `mapstructure:"storage" yaml:"storage"`
	Download  DownloadCfg  `mapstructure:"download" yaml:"download"`
	S3        S3Cfg        `mapstructure:"s3" yaml:"s3"`
	Image     ImageCfg     `mapstructure:"image" yaml:"image"`
	Log       LogCfg       `mapstructure:"log" yaml:"log"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// OCRCfg configures the CLOVA OCR gateway.
type OCRCfg struct {
	InvokeURL      string `mapstructure:"invoke_url" yaml:"invoke_url"` // supports ${ENV_VAR} syntax
	Secret         string `mapstructure:"secret" yaml:"secret"`         // supports ${ENV_VAR} syntax
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// LLMCfg configures the chat completion backend.
type LLMCfg struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Model          string `mapstructure:"model" yaml:"model"`
	TranslateModel string `mapstructure:"translate_model" yaml:"translate_model"` // empty uses Model
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // 0 = no timeout
}

// TranslateCfg tunes the translation agent. Delays are Go duration strings.
type TranslateCfg struct {
	MaxBatchChars int    `mapstructure:"max_batch_chars" yaml:"max_batch_chars"`
	MaxAttempts   int    `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay  string `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay      string `mapstructure:"max_delay" yaml:"max_delay"`
}

// StorageCfg locates session artifacts. Empty directories resolve under the home directory.
type StorageCfg struct {
	OutputsDir   string `mapstructure:"outputs_dir" yaml:"outputs_dir"`
	GeneratedDir string `mapstructure:"generated_dir" yaml:"generated_dir"`
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
	KeepSessions bool   `mapstructure:"keep_sessions" yaml:"keep_sessions"`
}

// DownloadCfg configures image downloads.
type DownloadCfg struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// S3Cfg configures s3:// image references.
type S3Cfg struct {
	Region string `mapstructure:"region" yaml:"region"`
}

// ImageCfg configures binarization.
type ImageCfg struct {
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug|info|warn|error
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8000",
		},
		OCR: OCRCfg{
			InvokeURL:      "${CLOVA_OCR_INVOKE_URL}",
			Secret:         "${CLOVA_OCR_SECRET}",
			TimeoutSeconds: 30,
		},
		LLM: LLMCfg{
			APIKey: "${OPENAI_API_KEY}",
			Model:  "gpt-4o",
		},
		Translate: TranslateCfg{
			MaxBatchChars: 4000,
			MaxAttempts:   5,
			InitialDelay:  "2s",
			MaxDelay:      "20s",
		},
		Storage: StorageCfg{
			KeepSessions: true,
		},
		Download: DownloadCfg{
			TimeoutSeconds: 30,
		},
		Image: ImageCfg{
			Threshold: 200,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// OCRInvokeURL returns the OCR endpoint with env references resolved.
func (c *Config) OCRInvokeURL() string {
	return ResolveEnvVars(c.OCR.InvokeURL)
}

// OCRSecret returns the OCR shared secret with env references resolved.
func (c *Config) OCRSecret() string {
	return ResolveEnvVars(c.OCR.Secret)
}

// LLMAPIKey returns the LLM API key with env references resolved.
func (c *Config) LLMAPIKey() string {
	return ResolveEnvVars(c.LLM.APIKey)
}

// TranslationModel returns the translation model, falling back to the structuring model.
func (c *Config) TranslationModel() string {
	if c.LLM.TranslateModel != "" {
		return c.LLM.TranslateModel
	}
	return c.LLM.Model
}

// Delays parses the translation retry delays. Unparseable or empty values
// yield zero, which the agent replaces with its own defaults.
func (t TranslateCfg) Delays() (initial, max time.Duration) {
	initial, _ = time.ParseDuration(t.InitialDelay)
	max, _ = time.ParseDuration(t.MaxDelay)
	return initial, max
}

// Seconds converts a seconds setting to a duration.
func Seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
