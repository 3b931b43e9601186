package config

import (
	"net/url"

	"github.com/plexura/syndic/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// API key is optional here: tools fail with an authentication error at
	// call time, which carries a better hint than a startup failure

	if c.Publer.BaseURL != "" {
		u, err := url.Parse(c.Publer.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Newf("publer.base_url must be a valid URL, got %q", c.Publer.BaseURL)
		}
	}

	if c.Publer.TimeoutSeconds < 0 {
		return errors.Newf("publer.timeout_seconds must be >= 0, got %d", c.Publer.TimeoutSeconds)
	}

	// Governor quota: 0 = use defaults, negative = invalid
	if c.Rate.WindowSeconds < 0 {
		return errors.Newf("rate.window_seconds must be >= 0, got %d", c.Rate.WindowSeconds)
	}
	if c.Rate.MaxCalls < 0 {
		return errors.Newf("rate.max_calls must be >= 0, got %d", c.Rate.MaxCalls)
	}

	if c.Optimal.MinConfidence < 0 || c.Optimal.MinConfidence > 1 {
		return errors.Newf("optimal.min_confidence must be in [0, 1], got %f", c.Optimal.MinConfidence)
	}
	if c.Optimal.AgreementWindowMinutes < 0 {
		return errors.Newf("optimal.agreement_window_minutes must be >= 0, got %d", c.Optimal.AgreementWindowMinutes)
	}

	if c.Plan.JitterMinutes < 0 {
		return errors.Newf("plan.jitter_minutes must be >= 0, got %d", c.Plan.JitterMinutes)
	}
	if c.Plan.MaxBulkItems < 0 {
		return errors.Newf("plan.max_bulk_items must be >= 0, got %d", c.Plan.MaxBulkItems)
	}

	if c.Content.FetchTimeoutSeconds < 0 {
		return errors.Newf("content.fetch_timeout_seconds must be >= 0, got %d", c.Content.FetchTimeoutSeconds)
	}
	if c.Content.MaxKeywords < 0 {
		return errors.Newf("content.max_keywords must be >= 0, got %d", c.Content.MaxKeywords)
	}

	return nil
}
