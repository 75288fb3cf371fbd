package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/tabcap/analyze"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	OutputDir     string        `mapstructure:"output_dir" yaml:"output_dir"`
	Browser       BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture       CaptureConfig `mapstructure:"capture" yaml:"capture"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Filter        FilterConfig  `mapstructure:"filter" yaml:"filter"`
	Analyze       AnalyzeConfig `mapstructure:"analyze" yaml:"analyze"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BrowserConfig points at the browser's remote debugging endpoint.
type BrowserConfig struct {
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url"`
}

// CaptureConfig controls capture session behavior.
type CaptureConfig struct {
	PromptForPath         bool `mapstructure:"prompt_for_path" yaml:"prompt_for_path"`
	CleanupTimeoutSeconds int  `mapstructure:"cleanup_timeout_seconds" yaml:"cleanup_timeout_seconds"`
}

// HTTPConfig configures the control API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// FilterConfig configures the offline log filter.
type FilterConfig struct {
	RulesPath string `mapstructure:"rules_path" yaml:"rules_path"`
}

// AnalyzeConfig configures the model-backed log analyzer. The API key is
// taken from the environment, never from the config file.
type AnalyzeConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		OutputDir:     filepath.Join(home, ".tabcap", "logs"),
		Browser: BrowserConfig{
			RemoteURL: "ws://127.0.0.1:9222",
		},
		Capture: CaptureConfig{
			PromptForPath:         false,
			CleanupTimeoutSeconds: 5,
		},
		HTTP: HTTPConfig{
			Addr: ":27490",
		},
		Filter: FilterConfig{
			RulesPath: "",
		},
		Analyze: AnalyzeConfig{
			BaseURL:   analyze.DefaultBaseURL,
			Model:     analyze.DefaultModel,
			MaxTokens: analyze.DefaultMaxTokens,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabcap", "config.yaml"), nil
}
