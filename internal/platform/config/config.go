package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "worklens"
	configType = "yaml"
	envPrefix  = "WORKLENS"

	BackendLocal  = "local"
	BackendPlugin = "plugin"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Capture struct {
	Interval     time.Duration
	Backend      string
	PluginBinary string
	Feed         string
	Screenshots  bool
	SpeakHotkey  []string
}

type Analysis struct {
	ShortWindow    time.Duration
	RepeatInterval int
	Temperature    float64
}

type Tasks struct {
	MaxIterations int
}

type Model struct {
	Provider  string
	Name      string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

type Log struct {
	Level       string
	Development bool
}

type Config struct {
	DataDir     string
	DBPath      string
	ReportsDir  string
	PrivacyPath string

	Capture  Capture
	Analysis Analysis
	Tasks    Tasks
	Model    Model
	Log      Log
}

// MediumWindow is the span covered by one medium-term analysis.
func (c Config) MediumWindow() time.Duration {
	return c.Analysis.ShortWindow * time.Duration(c.Analysis.RepeatInterval)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.interval", 10)
	v.SetDefault("capture.backend", BackendLocal)
	v.SetDefault("capture.plugin_binary", "")
	v.SetDefault("capture.feed", "")
	v.SetDefault("capture.screenshots", false)
	v.SetDefault("capture.hotkeys.speak", []string{"leftctrl", "leftalt", "s"})
	v.SetDefault("analysis.short_window", 30)
	v.SetDefault("analysis.repeat_interval", 10)
	v.SetDefault("analysis.temperature", 0.7)
	v.SetDefault("tasks.max_iterations", 8)
	v.SetDefault("model.provider", ProviderOpenAI)
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.max_tokens", 2048)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads worklens.yaml from dataDir when present and applies
// WORKLENS_* environment overrides.
func Load(dataDir string, v *viper.Viper) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dataDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		DataDir:     dataDir,
		DBPath:      filepath.Join(dataDir, "worklens.db"),
		ReportsDir:  filepath.Join(dataDir, "reports"),
		PrivacyPath: filepath.Join(dataDir, "privacy.yaml"),
		Capture: Capture{
			Interval:     seconds(v.GetFloat64("capture.interval")),
			Backend:      v.GetString("capture.backend"),
			PluginBinary: v.GetString("capture.plugin_binary"),
			Feed:         v.GetString("capture.feed"),
			Screenshots:  v.GetBool("capture.screenshots"),
			SpeakHotkey:  v.GetStringSlice("capture.hotkeys.speak"),
		},
		Analysis: Analysis{
			ShortWindow:    seconds(v.GetFloat64("analysis.short_window")),
			RepeatInterval: v.GetInt("analysis.repeat_interval"),
			Temperature:    v.GetFloat64("analysis.temperature"),
		},
		Tasks: Tasks{MaxIterations: v.GetInt("tasks.max_iterations")},
		Model: Model{
			Provider:  v.GetString("model.provider"),
			Name:      v.GetString("model.name"),
			BaseURL:   v.GetString("model.base_url"),
			APIKey:    v.GetString("model.api_key"),
			MaxTokens: v.GetInt("model.max_tokens"),
		},
		Log: Log{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Capture.Interval < time.Second {
		return fmt.Errorf("capture.interval must be at least 1 second")
	}
	if c.Analysis.ShortWindow <= 0 {
		return fmt.Errorf("analysis.short_window must be positive")
	}
	if c.Analysis.RepeatInterval < 1 {
		return fmt.Errorf("analysis.repeat_interval must be at least 1")
	}
	if c.Tasks.MaxIterations < 1 {
		return fmt.Errorf("tasks.max_iterations must be at least 1")
	}
	switch c.Capture.Backend {
	case BackendLocal:
	case BackendPlugin:
		if c.Capture.PluginBinary == "" {
			return fmt.Errorf("capture.plugin_binary is required for the plugin backend")
		}
	default:
		return fmt.Errorf("unknown capture backend %q", c.Capture.Backend)
	}
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
