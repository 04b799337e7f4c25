/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-keylock/config"
	"github.com/acronis/go-keylock/log"
)

const cfgDefaultKeyPrefix = "keylock"

const (
	cfgKeyDefaultExpiration   = "defaultExpiration"
	cfgKeyCheckInterval       = "checkInterval"
	cfgKeyMaxIdleEntries      = "maxIdleEntries"
	cfgKeyIdleTTL             = "idleTTL"
	cfgKeyIdleCleanupInterval = "idleCleanupInterval"
)

// Config represents a set of configuration parameters for the Lock.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// DefaultExpiration is the instance default expiration. Zero means no expiration.
	DefaultExpiration config.TimeDuration `mapstructure:"defaultExpiration" yaml:"defaultExpiration" json:"defaultExpiration"`

	// CheckInterval is the instance default interval at which queued Run calls re-check the slot.
	CheckInterval config.TimeDuration `mapstructure:"checkInterval" yaml:"checkInterval" json:"checkInterval"`

	// MaxIdleEntries limits the number of remembered idle identifiers. Zero means no limit.
	MaxIdleEntries int `mapstructure:"maxIdleEntries" yaml:"maxIdleEntries" json:"maxIdleEntries"`

	// IdleTTL is how long idle identifiers are remembered. Zero means forever.
	IdleTTL config.TimeDuration `mapstructure:"idleTTL" yaml:"idleTTL" json:"idleTTL"`

	// IdleCleanupInterval is the interval of periodic removal of expired idle identifiers.
	// It's used by StartWithConfig (NewWithConfig ignores it, pass it to Lock.RunPeriodicCleanup then).
	// Zero means expired identifiers are removed only on access.
	IdleCleanupInterval config.TimeDuration `mapstructure:"idleCleanupInterval" yaml:"idleCleanupInterval" json:"idleCleanupInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.DefaultExpiration = config.TimeDuration(DefaultExpiration)
	cfg.CheckInterval = config.TimeDuration(DefaultCheckInterval)
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the Lock in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyDefaultExpiration, DefaultExpiration.String())
	dp.SetDefault(cfgKeyCheckInterval, DefaultCheckInterval.String())
	dp.SetDefault(cfgKeyMaxIdleEntries, 0)
}

// Set sets the Lock configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	expiration, err := getNonNegativeDuration(dp, cfgKeyDefaultExpiration)
	if err != nil {
		return err
	}

	checkInterval, err := dp.GetDuration(cfgKeyCheckInterval)
	if err != nil {
		return err
	}
	if checkInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyCheckInterval, invalidArgumentErr("must be positive, got %s", checkInterval))
	}

	maxIdleEntries, err := dp.GetInt(cfgKeyMaxIdleEntries)
	if err != nil {
		return err
	}
	if maxIdleEntries < 0 {
		return dp.WrapKeyErr(cfgKeyMaxIdleEntries, invalidArgumentErr("must be greater or equal to 0, got %d", maxIdleEntries))
	}

	idleTTL, err := getNonNegativeDuration(dp, cfgKeyIdleTTL)
	if err != nil {
		return err
	}
	idleCleanupInterval, err := getNonNegativeDuration(dp, cfgKeyIdleCleanupInterval)
	if err != nil {
		return err
	}

	c.DefaultExpiration = config.TimeDuration(expiration)
	c.CheckInterval = config.TimeDuration(checkInterval)
	c.MaxIdleEntries = maxIdleEntries
	c.IdleTTL = config.TimeDuration(idleTTL)
	c.IdleCleanupInterval = config.TimeDuration(idleCleanupInterval)
	return nil
}

func getNonNegativeDuration(dp config.DataProvider, key string) (time.Duration, error) {
	d, err := dp.GetDuration(key)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, dp.WrapKeyErr(key, invalidArgumentErr("must be greater or equal to 0, got %s", d))
	}
	return d, nil
}

// NewWithConfig creates a new Lock from the configuration.
// Logger and metrics collector may be nil, in this case logging and metrics are disabled.
func NewWithConfig(cfg *Config, logger log.FieldLogger, metricsCollector MetricsCollector) (*Lock, error) {
	l, err := NewWithOpts(Opts{
		Expiration:       time.Duration(cfg.DefaultExpiration),
		CheckInterval:    time.Duration(cfg.CheckInterval),
		MaxIdleEntries:   cfg.MaxIdleEntries,
		IdleTTL:          time.Duration(cfg.IdleTTL),
		Logger:           logger,
		MetricsCollector: metricsCollector,
	})
	if err != nil {
		return nil, fmt.Errorf("create lock from config: %w", err)
	}
	return l, nil
}

// StartWithConfig creates a new Lock from the configuration like NewWithConfig does.
// If both IdleTTL and IdleCleanupInterval are set, it also starts periodic cleanup
// of expired idle identifiers in a separate goroutine which stops when ctx is done.
func StartWithConfig(
	ctx context.Context, cfg *Config, logger log.FieldLogger, metricsCollector MetricsCollector,
) (*Lock, error) {
	l, err := NewWithConfig(cfg, logger, metricsCollector)
	if err != nil {
		return nil, err
	}
	if cfg.IdleTTL > 0 && cfg.IdleCleanupInterval > 0 {
		go l.RunPeriodicCleanup(ctx, time.Duration(cfg.IdleCleanupInterval))
	}
	return l, nil
}
