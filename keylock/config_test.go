/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-keylock/config"
)

func TestConfig(t *testing.T) {
	expectedCfg := func() *Config {
		cfg := NewDefaultConfig()
		cfg.DefaultExpiration = config.TimeDuration(30 * time.Second)
		cfg.CheckInterval = config.TimeDuration(5 * time.Millisecond)
		cfg.MaxIdleEntries = 1000
		cfg.IdleTTL = config.TimeDuration(time.Hour)
		cfg.IdleCleanupInterval = config.TimeDuration(time.Minute)
		return cfg
	}

	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
	}{
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
keylock:
  defaultExpiration: 30s
  checkInterval: 5ms
  maxIdleEntries: 1000
  idleTTL: 1h
  idleCleanupInterval: 1m
`,
		},
		{
			name:        "json config",
			cfgDataType: config.DataTypeJSON,
			cfgData: `
{
	"keylock": {
		"defaultExpiration": "30s",
		"checkInterval": "5ms",
		"maxIdleEntries": 1000,
		"idleTTL": "1h",
		"idleCleanupInterval": "1m"
	}
}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(tt.cfgData), tt.cfgDataType, cfg)
			require.NoError(t, err)
			require.Equal(t, expectedCfg(), cfg)

			var appCfg struct {
				KeyLock *Config `yaml:"keylock" json:"keylock"`
			}
			appCfg.KeyLock = NewDefaultConfig()
			switch tt.cfgDataType {
			case config.DataTypeYAML:
				require.NoError(t, yaml.Unmarshal([]byte(tt.cfgData), &appCfg))
			case config.DataTypeJSON:
				require.NoError(t, json.Unmarshal([]byte(tt.cfgData), &appCfg))
			}
			require.Equal(t, expectedCfg(), appCfg.KeyLock)
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBuffer(nil), config.DataTypeYAML, cfg))
	require.Equal(t, NewDefaultConfig(), cfg)

	l, err := NewWithConfig(cfg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultExpiration, l.Expiration())
	require.Equal(t, DefaultCheckInterval, l.CheckInterval())
}

func TestConfig_EnvVars(t *testing.T) {
	t.Setenv("KEYLOCKTEST_LOCKS_CHECKINTERVAL", "20ms")
	t.Setenv("KEYLOCKTEST_LOCKS_MAXIDLEENTRIES", "3")

	cfg := NewConfig(WithKeyPrefix("locks"))
	require.Equal(t, "locks", cfg.KeyPrefix())
	require.NoError(t, config.NewDefaultLoader("keylocktest").Load(cfg))
	require.Equal(t, config.TimeDuration(20*time.Millisecond), cfg.CheckInterval)
	require.Equal(t, 3, cfg.MaxIdleEntries)

	l, err := NewWithConfig(cfg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 20*time.Millisecond, l.CheckInterval())
}

func TestConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name           string
		yamlData       string
		expectedErrMsg string
	}{
		{
			name:           "zero check interval",
			yamlData:       "keylock:\n  checkInterval: 0s\n",
			expectedErrMsg: "keylock.checkInterval: must be positive, got 0s: invalid argument",
		},
		{
			name:           "negative check interval",
			yamlData:       "keylock:\n  checkInterval: -5ms\n",
			expectedErrMsg: "keylock.checkInterval: must be positive, got -5ms: invalid argument",
		},
		{
			name:           "negative expiration",
			yamlData:       "keylock:\n  defaultExpiration: -1s\n",
			expectedErrMsg: "keylock.defaultExpiration: must be greater or equal to 0, got -1s: invalid argument",
		},
		{
			name:           "negative max idle entries",
			yamlData:       "keylock:\n  maxIdleEntries: -1\n",
			expectedErrMsg: "keylock.maxIdleEntries: must be greater or equal to 0, got -1: invalid argument",
		},
		{
			name:           "negative idle TTL",
			yamlData:       "keylock:\n  idleTTL: -1m\n",
			expectedErrMsg: "keylock.idleTTL: must be greater or equal to 0, got -1m0s: invalid argument",
		},
		{
			name:           "malformed check interval",
			yamlData:       "keylock:\n  checkInterval: often\n",
			expectedErrMsg: `keylock.checkInterval: time: invalid duration "often"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(tt.yamlData), config.DataTypeYAML, cfg)
			require.EqualError(t, err, tt.expectedErrMsg)
		})
	}
}
