package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID           = "mirror"
	DefaultBaseURL              = "https://api.hypixel.net/v2"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultRetryBackoff         = 500 * time.Millisecond
	DefaultPollInterval         = 59 * time.Second
	DefaultSafetyOffset         = 14 * time.Second
	DefaultStaleRetryDelay      = 2 * time.Second
	DefaultStaleRetryLimit      = 30
	DefaultScanConcurrency      = 8
	DefaultItemsRefreshInterval = time.Hour
	DefaultServerPort           = 8080
	DefaultShutdownTimeout      = 10 * time.Second
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "auction_mirror"
	DefaultFeedBufferSize       = 64
	DefaultFeedPingInterval     = 30 * time.Second
)

func (c *MirrorConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = 1
	}

	// Sync defaults
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = DefaultPollInterval
	}
	if c.Sync.SafetyOffset == 0 {
		c.Sync.SafetyOffset = DefaultSafetyOffset
	}
	if c.Sync.StaleRetryDelay == 0 {
		c.Sync.StaleRetryDelay = DefaultStaleRetryDelay
	}
	if c.Sync.StaleRetryLimit == 0 {
		c.Sync.StaleRetryLimit = DefaultStaleRetryLimit
	}
	if c.Sync.ScanConcurrency == 0 {
		c.Sync.ScanConcurrency = DefaultScanConcurrency
	}
	if c.Sync.ItemsRefreshInterval == 0 {
		c.Sync.ItemsRefreshInterval = DefaultItemsRefreshInterval
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Feed defaults
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultFeedPingInterval
	}
}
