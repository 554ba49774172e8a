package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *MirrorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.API.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	return nil
}

func (a *APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", a.BaseURL)
	}
	if a.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if a.RateLimit < 0 {
		return errors.New("api.rate_limit must be >= 0")
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.PollInterval <= 0 {
		return errors.New("sync.poll_interval must be positive")
	}
	if s.SafetyOffset <= 0 {
		return errors.New("sync.safety_offset must be positive")
	}
	if s.StaleRetryLimit < 1 {
		return errors.New("sync.stale_retry_limit must be >= 1")
	}
	if s.ScanConcurrency < 1 {
		return errors.New("sync.scan_concurrency must be >= 1")
	}
	if s.MaxNewPages < 0 {
		return errors.New("sync.max_new_pages must be >= 0")
	}
	return nil
}
