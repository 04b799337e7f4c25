/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViperAdapter_Getters(t *testing.T) {
	cfgData := `
bool: true
int: 42
str: hello
level: DEBUG
duration: 150ms
size: 10M
sizeNum: 2048
sizeK8s: 1Gi
nested:
  name: foo
  count: 3
`
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(cfgData), DataTypeYAML))

	b, err := va.GetBool("bool")
	require.NoError(t, err)
	require.True(t, b)

	i, err := va.GetInt("int")
	require.NoError(t, err)
	require.Equal(t, 42, i)

	_, err = va.GetInt("str")
	require.ErrorContains(t, err, "str: ")

	s, err := va.GetString("str")
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	level, err := va.GetStringFromSet("level", []string{"info", "debug"}, true)
	require.NoError(t, err)
	require.Equal(t, "DEBUG", level)
	_, err = va.GetStringFromSet("level", []string{"info", "debug"}, false)
	require.EqualError(t, err, `level: unknown value "DEBUG", should be one of [info debug]`)

	d, err := va.GetDuration("duration")
	require.NoError(t, err)
	require.Equal(t, 150*time.Millisecond, d)
	d, err = va.GetDuration("missing")
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), d)
	_, err = va.GetDuration("str")
	require.ErrorContains(t, err, "str: ")

	bs, err := va.GetByteSize("size")
	require.NoError(t, err)
	require.Equal(t, ByteSize(10*1024*1024), bs)
	bs, err = va.GetByteSize("sizeNum")
	require.NoError(t, err)
	require.Equal(t, ByteSize(2048), bs)
	bs, err = va.GetByteSize("sizeK8s")
	require.NoError(t, err)
	require.Equal(t, ByteSize(1024*1024*1024), bs)
	bs, err = va.GetByteSize("missing")
	require.NoError(t, err)
	require.Equal(t, ByteSize(0), bs)
	_, err = va.GetByteSize("str")
	require.ErrorContains(t, err, "str: invalid byte size format")

	var nested struct {
		Name  string
		Count int
	}
	require.NoError(t, va.UnmarshalKey("nested", &nested))
	require.Equal(t, "foo", nested.Name)
	require.Equal(t, 3, nested.Count)
}

func TestViperAdapter_GetByteSize_Negative(t *testing.T) {
	va := NewViperAdapter()
	va.Set("size", -1)
	_, err := va.GetByteSize("size")
	require.EqualError(t, err, "size: negative value is not allowed: -1")
}

func TestViperAdapter_UseEnvVars(t *testing.T) {
	t.Setenv("KEYLOCKTEST_KEYLOCK_CHECKINTERVAL", "7ms")

	va := NewViperAdapter()
	va.UseEnvVars("keylocktest")
	va.SetDefault("keylock.checkInterval", "1ms")

	d, err := va.GetDuration("keylock.checkInterval")
	require.NoError(t, err)
	require.Equal(t, 7*time.Millisecond, d)
}
