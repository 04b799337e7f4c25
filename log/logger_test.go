/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func decodeJSONLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLogger, err := New(&buf, Opts{Level: LevelDebug})
	require.NoError(t, err)

	logger.With(String("identifier", "/tmp/a")).Debug("lock slot is acquired", Duration("wait", time.Millisecond))
	logger.Error("lock slot is expired", Error(errors.New("boom")), Int("waiters", 2), Bool("abandoned", true))
	closeLogger()

	entries := decodeJSONLines(t, buf.Bytes())
	require.Len(t, entries, 2)

	require.Equal(t, "lock slot is acquired", entries[0]["msg"])
	require.Equal(t, "debug", entries[0]["level"])
	require.Equal(t, "/tmp/a", entries[0]["identifier"])
	require.Contains(t, entries[0], "time")

	require.Equal(t, "lock slot is expired", entries[1]["msg"])
	require.Equal(t, "error", entries[1]["level"])
	require.Equal(t, "boom", entries[1]["error"])
	require.EqualValues(t, 2, entries[1]["waiters"])
	require.Equal(t, true, entries[1]["abandoned"])
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level    Level
		wantMsgs []string
	}{
		{level: "", wantMsgs: []string{"info", "warn", "error"}},
		{level: LevelDebug, wantMsgs: []string{"debug", "info", "warn", "error"}},
		{level: LevelWarn, wantMsgs: []string{"warn", "error"}},
		{level: LevelError, wantMsgs: []string{"error"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			logger, closeLogger, err := New(&buf, Opts{Level: tt.level, Format: FormatJSON})
			require.NoError(t, err)
			logger.Debug("debug")
			logger.Info("info")
			logger.Warn("warn")
			logger.Error("error")
			closeLogger()

			var gotMsgs []string
			for _, entry := range decodeJSONLines(t, buf.Bytes()) {
				gotMsgs = append(gotMsgs, entry["msg"].(string))
			}
			require.Equal(t, tt.wantMsgs, gotMsgs)
		})
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLogger, err := New(&buf, Opts{Format: FormatText, NoColor: true})
	require.NoError(t, err)
	logger.Info("queued waiters are canceled", Int("canceled", 3))
	closeLogger()

	out := buf.String()
	require.Contains(t, out, "queued waiters are canceled")
	require.Contains(t, out, "canceled")
	require.NotContains(t, out, "\x1b[")
}

func TestNew_InvalidOpts(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, Opts{Level: "verbose"})
	require.EqualError(t, err, `unknown log level "verbose"`)

	_, _, err = New(&bytes.Buffer{}, Opts{Format: "xml"})
	require.EqualError(t, err, `unknown log format "xml"`)
}

func TestNewDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	require.NotNil(t, logger)
	require.NotPanics(t, func() {
		logger.With(String("identifier", "x")).Error("dropped", Error(errors.New("some error")))
	})
}
