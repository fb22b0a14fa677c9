// config.go
// ----------
// This file defines the Config structure, which controls how the Governor admits, spaces,
// retries and caches requests against a quota-limited upstream API.
//
// The defaults mirror a BSCScan-style explorer that enforces roughly two requests per second.
// A config can be loaded from YAML (LoadConfig) and then overridden from the environment
// (ApplyEnv) before it is handed to New.
package requestgovernor

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/opengovern/request-governor/internal/timeparse"
)

// Config allows customization of admission limits, retries, caching and health thresholds.
type Config struct {
	MaxConcurrent        int           `yaml:"maxConcurrent"`        // Max simultaneous in-flight operations
	RequestInterval      time.Duration `yaml:"requestInterval"`      // Minimum spacing between dispatches
	SlidingWindow        time.Duration `yaml:"slidingWindow"`        // Window size for rate accounting
	MaxRequestsPerWindow int           `yaml:"maxRequestsPerWindow"` // Admissions allowed per window
	CacheMaxAge          time.Duration `yaml:"cacheMaxAge"`          // Cache entry TTL

	MaxAttempts       int           `yaml:"maxAttempts"`       // Attempts per request before a rate limit is surfaced
	BackoffBase       time.Duration `yaml:"backoffBase"`       // Initial backoff duration for exponential backoff
	BackoffMultiplier float64       `yaml:"backoffMultiplier"` // Growth factor applied per attempt
	BackoffJitter     time.Duration `yaml:"backoffJitter"`     // Max random jitter added to waits and backoff
	MaxBackoff        time.Duration `yaml:"maxBackoff"`        // Ceiling for a single backoff delay

	HealthWindow  time.Duration `yaml:"healthWindow"`  // Trailing window for rate-limit hit accounting
	DegradedRate  float64       `yaml:"degradedRate"`  // Hits per second above which health is DEGRADED
	ThrottledRate float64       `yaml:"throttledRate"` // Hits per second above which health is THROTTLED
}

// DefaultConfig returns the limits used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:        2,
		RequestInterval:      500 * time.Millisecond,
		SlidingWindow:        time.Second,
		MaxRequestsPerWindow: 2,
		CacheMaxAge:          30 * time.Second,

		MaxAttempts:       3,
		BackoffBase:       800 * time.Millisecond,
		BackoffMultiplier: 2,
		BackoffJitter:     120 * time.Millisecond,
		MaxBackoff:        30 * time.Second,

		HealthWindow:  time.Minute,
		DegradedRate:  0.2,
		ThrottledRate: 0.5,
	}
}

// Validate reports the first setting that would make the governor unusable.
func (c Config) Validate() error {
	switch {
	case c.MaxConcurrent < 1:
		return errors.Wrapf(ErrInvalidConfig, "maxConcurrent must be at least 1, got %d", c.MaxConcurrent)
	case c.MaxRequestsPerWindow < 1:
		return errors.Wrapf(ErrInvalidConfig, "maxRequestsPerWindow must be at least 1, got %d", c.MaxRequestsPerWindow)
	case c.SlidingWindow <= 0:
		return errors.Wrapf(ErrInvalidConfig, "slidingWindow must be positive, got %v", c.SlidingWindow)
	case c.MaxAttempts < 1:
		return errors.Wrapf(ErrInvalidConfig, "maxAttempts must be at least 1, got %d", c.MaxAttempts)
	case c.BackoffMultiplier < 1:
		return errors.Wrapf(ErrInvalidConfig, "backoffMultiplier must be at least 1, got %v", c.BackoffMultiplier)
	case c.HealthWindow <= 0:
		return errors.Wrapf(ErrInvalidConfig, "healthWindow must be positive, got %v", c.HealthWindow)
	}
	for name, d := range map[string]time.Duration{
		"requestInterval": c.RequestInterval,
		"cacheMaxAge":     c.CacheMaxAge,
		"backoffBase":     c.BackoffBase,
		"backoffJitter":   c.BackoffJitter,
		"maxBackoff":      c.MaxBackoff,
	} {
		if d < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s must not be negative, got %v", name, d)
		}
	}
	return nil
}

// LoadConfig reads a YAML document over DefaultConfig. Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading governor config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing governor config %s", path)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables named <prefix>_<FIELD>, e.g.
// GOVERNOR_MAX_CONCURRENT or GOVERNOR_REQUEST_INTERVAL. Durations accept "800", "1s" or "6m0s".
func (c *Config) ApplyEnv(prefix string) error {
	ints := map[string]*int{
		"MAX_CONCURRENT":          &c.MaxConcurrent,
		"MAX_REQUESTS_PER_WINDOW": &c.MaxRequestsPerWindow,
		"MAX_ATTEMPTS":            &c.MaxAttempts,
	}
	durations := map[string]*time.Duration{
		"REQUEST_INTERVAL": &c.RequestInterval,
		"SLIDING_WINDOW":   &c.SlidingWindow,
		"CACHE_MAX_AGE":    &c.CacheMaxAge,
		"BACKOFF_BASE":     &c.BackoffBase,
		"BACKOFF_JITTER":   &c.BackoffJitter,
		"MAX_BACKOFF":      &c.MaxBackoff,
		"HEALTH_WINDOW":    &c.HealthWindow,
	}
	floats := map[string]*float64{
		"BACKOFF_MULTIPLIER": &c.BackoffMultiplier,
		"DEGRADED_RATE":      &c.DegradedRate,
		"THROTTLED_RATE":     &c.ThrottledRate,
	}

	lookup := func(name string) (string, bool) {
		val, ok := os.LookupEnv(strings.ToUpper(prefix) + "_" + name)
		return strings.TrimSpace(val), ok && strings.TrimSpace(val) != ""
	}

	for name, dst := range ints {
		if val, ok := lookup(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				return errors.Wrapf(err, "env %s_%s", prefix, name)
			}
			*dst = n
		}
	}
	for name, dst := range durations {
		if val, ok := lookup(name); ok {
			d, err := timeparse.ParseDuration(val)
			if err != nil {
				return errors.Wrapf(err, "env %s_%s", prefix, name)
			}
			*dst = d
		}
	}
	for name, dst := range floats {
		if val, ok := lookup(name); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return errors.Wrapf(err, "env %s_%s", prefix, name)
			}
			*dst = f
		}
	}
	return c.Validate()
}
