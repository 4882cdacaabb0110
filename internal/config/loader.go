package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ASRD_ADDR.
const EnvPrefix = "ASRD_"

// Device selection values.
const (
	DeviceAuto        = "auto"
	DeviceAccelerator = "accelerator"
	DeviceCPU         = "cpu"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr" env:"ADDR"`

	// Model is a known model name (see `asrd models`) or a path to a ggml file.
	Model        string `json:"model" yaml:"model" toml:"model" env:"MODEL"`
	ModelDir     string `json:"model_dir" yaml:"model_dir" toml:"model_dir" env:"MODEL_DIR"`
	AutoDownload bool   `json:"auto_download" yaml:"auto_download" toml:"auto_download" env:"AUTO_DOWNLOAD"`
	RuntimeBin   string `json:"runtime_bin" yaml:"runtime_bin" toml:"runtime_bin" env:"RUNTIME_BIN"`
	Device       string `json:"device" yaml:"device" toml:"device" env:"DEVICE"`
	Threads      int    `json:"threads" yaml:"threads" toml:"threads" env:"THREADS"`
	Language     string `json:"language" yaml:"language" toml:"language" env:"LANGUAGE"`

	FFmpegBin             string `json:"ffmpeg_bin" yaml:"ffmpeg_bin" toml:"ffmpeg_bin" env:"FFMPEG_BIN"`
	CommandTimeoutSeconds int    `json:"command_timeout_seconds" yaml:"command_timeout_seconds" toml:"command_timeout_seconds" env:"COMMAND_TIMEOUT_SECONDS"`
	TempDir               string `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir" env:"TEMP_DIR"`

	// MaxUploadBytes caps one upload; 0 keeps the historical unlimited behavior.
	MaxUploadBytes      int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" toml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	MaxQueueDepth       int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" env:"MAX_QUEUE_DEPTH"`
	MaxWaitSeconds      int   `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds" env:"MAX_WAIT_SECONDS"`
	InferTimeoutSeconds int   `json:"infer_timeout_seconds" yaml:"infer_timeout_seconds" toml:"infer_timeout_seconds" env:"INFER_TIMEOUT_SECONDS"`

	SkipSilence          bool    `json:"skip_silence" yaml:"skip_silence" toml:"skip_silence" env:"SKIP_SILENCE"`
	SilenceThresholdDBFS float64 `json:"silence_threshold_dbfs" yaml:"silence_threshold_dbfs" toml:"silence_threshold_dbfs" env:"SILENCE_THRESHOLD_DBFS"`

	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string   `json:"log_format" yaml:"log_format" toml:"log_format" env:"LOG_FORMAT"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:                  "127.0.0.1:8002",
		Model:                 "base",
		ModelDir:              "~/.cache/asrd/models",
		AutoDownload:          true,
		Device:                DeviceAuto,
		Language:              "auto",
		FFmpegBin:             "ffmpeg",
		CommandTimeoutSeconds: 60,
		MaxQueueDepth:         32,
		MaxWaitSeconds:        120,
		SilenceThresholdDBFS:  -50,
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// Load reads a configuration file based on its extension, on top of Default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadDotEnv loads the first existing file of paths into the process
// environment. Variables already set win over the file.
func LoadDotEnv(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// ApplyEnv overlays ASRD_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the optional
// file, then the environment.
func Resolve(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid addr %q: %w", c.Addr, err)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	switch c.Device {
	case DeviceAuto, DeviceAccelerator, DeviceCPU:
	default:
		return fmt.Errorf("invalid device %q (want auto, accelerator or cpu)", c.Device)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must be >= 0, got %d", c.MaxUploadBytes)
	}
	if c.MaxQueueDepth < 0 || c.MaxWaitSeconds < 0 || c.InferTimeoutSeconds < 0 || c.CommandTimeoutSeconds < 0 {
		return errors.New("queue depth and timeouts must be >= 0")
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want console or json)", c.LogFormat)
	}
	return nil
}

// MaxWait converts MaxWaitSeconds.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitSeconds) * time.Second }

// InferTimeout converts InferTimeoutSeconds; 0 disables the timeout.
func (c Config) InferTimeout() time.Duration {
	return time.Duration(c.InferTimeoutSeconds) * time.Second
}

// CommandTimeout converts CommandTimeoutSeconds.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}
