package resilience

import "time"

type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryConfig waits just over a minute, which clears GitHub's
// secondary rate limit window.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     61 * time.Second,
	}
}

func NormalizeRetryConfig(cfg RetryConfig) RetryConfig {
	defaults := DefaultRetryConfig()
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = defaults.Backoff
	}
	return cfg
}
