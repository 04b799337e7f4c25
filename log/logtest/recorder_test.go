/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-keylock/log"
)

func TestRecorder(t *testing.T) {
	logRecorder := NewRecorder()
	waiterLogger := logRecorder.With(log.String("identifier", "order-42"))
	waiterLogger.Warn("message1", log.Int("num", 10), log.String("str", "abc"))
	logRecorder.Info("message2")
	logRecorder.Debug("message2")

	require.Len(t, logRecorder.Entries(), 3)

	_, found := logRecorder.FindEntry("foobar")
	require.False(t, found)

	logEntry, found := logRecorder.FindEntry("message1")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, logEntry.Level)
	require.Len(t, logEntry.Fields, 3)

	logFieldNum, found := logEntry.FindField("num")
	require.True(t, found)
	require.Equal(t, 10, int(logFieldNum.Int))

	str, found := logEntry.StringField("str")
	require.True(t, found)
	require.Equal(t, "abc", str)

	identifier, found := logEntry.StringField("identifier")
	require.True(t, found)
	require.Equal(t, "order-42", identifier)

	_, found = logEntry.StringField("num")
	require.False(t, found)

	entries := logRecorder.FindAllEntries("message2")
	require.Len(t, entries, 2)
	require.Equal(t, []log.Level{log.LevelInfo, log.LevelDebug}, []log.Level{entries[0].Level, entries[1].Level})
	require.Empty(t, entries[0].Fields)

	logRecorder.Reset()
	require.Empty(t, logRecorder.Entries())
	_, found = logRecorder.FindEntry("message1")
	require.False(t, found)
}
