/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylockhttp

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-keylock/config"
)

func TestConfig(t *testing.T) {
	cfgData := `
introspection:
  address: 127.0.0.1:9090
  timeouts:
    write: 5s
    shutdown: 1s
`
	cfg := NewConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(cfgData), config.DataTypeYAML, cfg)
	require.NoError(t, err)

	expectedCfg := NewDefaultConfig()
	expectedCfg.Address = "127.0.0.1:9090"
	expectedCfg.Timeouts.Write = config.TimeDuration(5 * time.Second)
	expectedCfg.Timeouts.Shutdown = config.TimeDuration(time.Second)
	require.Equal(t, expectedCfg, cfg)
}

func TestConfig_KeyPrefix(t *testing.T) {
	require.Equal(t, "introspection", (&Config{}).KeyPrefix())
	cfg := NewConfig(WithKeyPrefix("admin"))
	require.Equal(t, "admin", cfg.KeyPrefix())

	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString(`{"admin": {"address": ":7070"}}`), config.DataTypeJSON, cfg)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Address)
	require.Equal(t, config.TimeDuration(defaultTimeoutsIdle), cfg.Timeouts.Idle)
}

func TestConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantErr string
	}{
		{
			name:    "empty address",
			cfgData: `{"introspection": {"address": ""}}`,
			wantErr: "introspection.address: cannot be empty",
		},
		{
			name:    "negative timeout",
			cfgData: `{"introspection": {"timeouts": {"read": "-1s"}}}`,
			wantErr: "introspection.timeouts.read: cannot be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeJSON, NewConfig())
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
