package schema

import "time"

// ManagerConfig defines defaults for the capture session manager.
type ManagerConfig struct {
	// PromptForPath asks the download store to let the user pick the save
	// location, where the store supports it.
	PromptForPath bool
	// CleanupTimeout bounds the best-effort detach issued during session
	// teardown.
	CleanupTimeout time.Duration
}

// DefaultCleanupTimeout bounds detach calls during stop/close handling.
const DefaultCleanupTimeout = 5 * time.Second

// NormalizeManagerConfig applies defaults.
func NormalizeManagerConfig(cfg ManagerConfig) ManagerConfig {
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = DefaultCleanupTimeout
	}
	return cfg
}
