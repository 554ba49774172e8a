package config

import "time"

// MirrorConfig is the root configuration for a mirror instance.
type MirrorConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Sync     SyncConfig     `yaml:"sync"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Feed     FeedConfig     `yaml:"feed"`
	Debug    DebugConfig    `yaml:"debug"`
}

// InstanceConfig identifies this mirror.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds upstream API settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"` // Sent as the API-Key header when set
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimit    float64       `yaml:"rate_limit"` // Requests per second; 0 disables
	RateBurst    int           `yaml:"rate_burst"`
}

// SyncConfig holds scheduler and page fetcher settings.
type SyncConfig struct {
	PollInterval         time.Duration `yaml:"poll_interval"`
	SafetyOffset         time.Duration `yaml:"safety_offset"`
	StaleRetryDelay      time.Duration `yaml:"stale_retry_delay"`
	StaleRetryLimit      int           `yaml:"stale_retry_limit"`
	ScanConcurrency      int           `yaml:"scan_concurrency"`
	ItemsRefreshInterval time.Duration `yaml:"items_refresh_interval"`
	MaxNewPages          int           `yaml:"max_new_pages"` // 0 means bounded by totalPages
}

// ServerConfig holds query API settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// FeedConfig holds cycle feed settings.
type FeedConfig struct {
	BufferSize   int           `yaml:"buffer_size"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// DebugConfig holds debugging aids.
type DebugConfig struct {
	DumpDir string `yaml:"dump_dir"` // Empty disables dumps
}
