package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is the local development backend used when neither the
// config file nor VOICENOTE_API_URL names one.
const DefaultAPIBaseURL = "http://localhost:8000"

// APIConfig holds the backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the backend API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// QueryConfig tunes the client-side query cache.
type QueryConfig struct {
	StaleTimeSec int `mapstructure:"stale_time_sec" yaml:"stale_time_sec"`
	GCTimeSec    int `mapstructure:"gc_time_sec" yaml:"gc_time_sec"`
	Retry        int `mapstructure:"retry" yaml:"retry"`
}

// RecorderConfig holds microphone capture settings.
type RecorderConfig struct {
	// MinBytes is the smallest clip accepted for upload.
	MinBytes int `mapstructure:"min_bytes" yaml:"min_bytes"`

	// TimesliceMs is how often captured audio is flushed into the buffer.
	TimesliceMs int `mapstructure:"timeslice_ms" yaml:"timeslice_ms"`

	// InputFormat is the ffmpeg input format (e.g. "pulse", "alsa").
	InputFormat string `mapstructure:"input_format" yaml:"input_format"`

	// InputDevice is the ffmpeg input device name.
	InputDevice string `mapstructure:"input_device" yaml:"input_device"`
}

// CacheConfig controls the on-disk copy of the query cache.
type CacheConfig struct {
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
	Persist bool   `mapstructure:"persist" yaml:"persist"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// WatchConfig controls the inbox watcher.
type WatchConfig struct {
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Query    QueryConfig    `mapstructure:"query" yaml:"query"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// Timeout returns the HTTP timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// StaleTime returns the default staleness window.
func (c QueryConfig) StaleTime() time.Duration {
	return time.Duration(c.StaleTimeSec) * time.Second
}

// GCTime returns how long unobserved cache entries are kept.
func (c QueryConfig) GCTime() time.Duration {
	return time.Duration(c.GCTimeSec) * time.Second
}

// Timeslice returns the capture flush interval.
func (c RecorderConfig) Timeslice() time.Duration {
	return time.Duration(c.TimesliceMs) * time.Millisecond
}

// configDir returns ~/.config/voicenote, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "voicenote")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/voicenote/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultAPIBaseURL,
			TimeoutSec: 60,
		},
		Query: QueryConfig{
			StaleTimeSec: 30,
			GCTimeSec:    300,
			Retry:        1,
		},
		Recorder: RecorderConfig{
			MinBytes:    1000,
			TimesliceMs: 1000,
			InputFormat: "pulse",
			InputDevice: "default",
		},
		Cache: CacheConfig{
			DBPath:  filepath.Join(configDir(), "cache.db"),
			Persist: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(configDir(), "voicenote.log"),
		},
		Watch: WatchConfig{
			Patterns: []string{"**/*.{webm,ogg,mp3,m4a,mp4,wav}"},
		},
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 50,
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so missing keys resolve.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("query.stale_time_sec", d.Query.StaleTimeSec)
	v.SetDefault("query.gc_time_sec", d.Query.GCTimeSec)
	v.SetDefault("query.retry", d.Query.Retry)
	v.SetDefault("recorder.min_bytes", d.Recorder.MinBytes)
	v.SetDefault("recorder.timeslice_ms", d.Recorder.TimesliceMs)
	v.SetDefault("recorder.input_format", d.Recorder.InputFormat)
	v.SetDefault("recorder.input_device", d.Recorder.InputDevice)
	v.SetDefault("cache.db_path", d.Cache.DBPath)
	v.SetDefault("cache.persist", d.Cache.Persist)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("watch.patterns", d.Watch.Patterns)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.page_size", d.Display.PageSize)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with VOICENOTE_ override file values;
// VOICENOTE_API_URL selects the backend. A missing file yields defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v, defaultAppConfig())

	v.SetEnvPrefix("voicenote")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.base_url", "VOICENOTE_API_URL"); err != nil {
		return nil, fmt.Errorf("binding VOICENOTE_API_URL: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.Query.Retry < 0 {
		cfg.Query.Retry = 0
	}
	if cfg.Recorder.TimesliceMs <= 0 {
		cfg.Recorder.TimesliceMs = 1000
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("query", cfg.Query)
	v.Set("recorder", cfg.Recorder)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)
	v.Set("watch", cfg.Watch)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
