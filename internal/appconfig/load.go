package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("browser.remote_url", cfg.Browser.RemoteURL)
	v.SetDefault("capture.prompt_for_path", cfg.Capture.PromptForPath)
	v.SetDefault("capture.cleanup_timeout_seconds", cfg.Capture.CleanupTimeoutSeconds)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("filter.rules_path", cfg.Filter.RulesPath)
	v.SetDefault("analyze.base_url", cfg.Analyze.BaseURL)
	v.SetDefault("analyze.model", cfg.Analyze.Model)
	v.SetDefault("analyze.max_tokens", cfg.Analyze.MaxTokens)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
		if v.IsSet("analyze.api_key") {
			return Config{}, fmt.Errorf("analyze.api_key must not be stored in config; set ANTHROPIC_API_KEY instead")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateBrowserConfig(cfg.Browser); err != nil {
		return Config{}, err
	}
	if cfg.Capture.CleanupTimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("capture.cleanup_timeout_seconds must be positive")
	}
	if cfg.Analyze.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("analyze.max_tokens must be positive")
	}
	return cfg, nil
}

func validateBrowserConfig(cfg BrowserConfig) error {
	parsed, err := url.Parse(cfg.RemoteURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("browser.remote_url must include scheme and host (e.g. ws://127.0.0.1:9222)")
	}
	switch parsed.Scheme {
	case "ws", "wss", "http", "https":
		return nil
	default:
		return fmt.Errorf("browser.remote_url has unsupported scheme %q", parsed.Scheme)
	}
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.OutputDir = expandEnv(cfg.OutputDir)
	cfg.Browser.RemoteURL = expandEnv(cfg.Browser.RemoteURL)
	cfg.Filter.RulesPath = expandEnv(cfg.Filter.RulesPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
