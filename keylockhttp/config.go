/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylockhttp

import (
	"fmt"
	"time"

	"github.com/acronis/go-keylock/config"
)

const cfgDefaultKeyPrefix = "introspection"

const (
	cfgKeyAddress            = "address"
	cfgKeyTimeoutsWrite      = "timeouts.write"
	cfgKeyTimeoutsRead       = "timeouts.read"
	cfgKeyTimeoutsReadHeader = "timeouts.readHeader"
	cfgKeyTimeoutsIdle       = "timeouts.idle"
	cfgKeyTimeoutsShutdown   = "timeouts.shutdown"
)

const (
	defaultAddress            = "127.0.0.1:8081"
	defaultTimeoutsWrite      = time.Second * 15
	defaultTimeoutsRead       = time.Second * 15
	defaultTimeoutsReadHeader = time.Second * 10
	defaultTimeoutsIdle       = time.Minute
	defaultTimeoutsShutdown   = time.Second * 5
)

// Config represents a set of configuration parameters for Server.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// TimeoutsConfig represents a set of configuration parameters for Server relating to timeouts.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

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
	cfg.Address = defaultAddress
	cfg.Timeouts = TimeoutsConfig{
		Write:      config.TimeDuration(defaultTimeoutsWrite),
		Read:       config.TimeDuration(defaultTimeoutsRead),
		ReadHeader: config.TimeDuration(defaultTimeoutsReadHeader),
		Idle:       config.TimeDuration(defaultTimeoutsIdle),
		Shutdown:   config.TimeDuration(defaultTimeoutsShutdown),
	}
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

// SetProviderDefaults sets default configuration values for Server in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddress, defaultAddress)
	dp.SetDefault(cfgKeyTimeoutsWrite, defaultTimeoutsWrite)
	dp.SetDefault(cfgKeyTimeoutsRead, defaultTimeoutsRead)
	dp.SetDefault(cfgKeyTimeoutsReadHeader, defaultTimeoutsReadHeader)
	dp.SetDefault(cfgKeyTimeoutsIdle, defaultTimeoutsIdle)
	dp.SetDefault(cfgKeyTimeoutsShutdown, defaultTimeoutsShutdown)
}

// Set sets Server configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	address, err := dp.GetString(cfgKeyAddress)
	if err != nil {
		return err
	}
	if address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}

	var timeouts TimeoutsConfig
	for _, t := range []struct {
		key string
		dst *config.TimeDuration
	}{
		{cfgKeyTimeoutsWrite, &timeouts.Write},
		{cfgKeyTimeoutsRead, &timeouts.Read},
		{cfgKeyTimeoutsReadHeader, &timeouts.ReadHeader},
		{cfgKeyTimeoutsIdle, &timeouts.Idle},
		{cfgKeyTimeoutsShutdown, &timeouts.Shutdown},
	} {
		var dur time.Duration
		if dur, err = dp.GetDuration(t.key); err != nil {
			return err
		}
		if dur < 0 {
			return dp.WrapKeyErr(t.key, fmt.Errorf("cannot be negative"))
		}
		*t.dst = config.TimeDuration(dur)
	}

	c.Address = address
	c.Timeouts = timeouts
	return nil
}
