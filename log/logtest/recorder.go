/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"

	"github.com/acronis/go-keylock/log"
)

// RecordedEntry is a single entry written to Recorder.
// Fields contain the fields bound by With followed by the fields of the call.
type RecordedEntry struct {
	Level  log.Level
	Text   string
	Fields []log.Field
}

// FindField returns the last field with the given key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := len(re.Fields) - 1; i >= 0; i-- {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// StringField returns a value of the string field with the given key.
func (re *RecordedEntry) StringField(key string) (string, bool) {
	f, ok := re.FindField(key)
	if !ok || f.Bytes == nil {
		return "", false
	}
	return string(f.Bytes), true
}

type entryStore struct {
	mu      sync.Mutex
	entries []RecordedEntry
}

// Recorder is a log.FieldLogger that keeps every entry in memory, so tests can assert on them.
// Loggers derived with With share entries with their parent.
type Recorder struct {
	store  *entryStore
	fields []log.Field
}

var _ log.FieldLogger = (*Recorder)(nil)

// NewRecorder returns an empty Recorder. Entries of all levels are recorded.
func NewRecorder() *Recorder {
	return &Recorder{store: &entryStore{}}
}

// With returns a Recorder that adds fs to every entry.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	fields := make([]log.Field, 0, len(r.fields)+len(fs))
	return &Recorder{store: r.store, fields: append(append(fields, r.fields...), fs...)}
}

// Debug records an entry at "debug" level.
func (r *Recorder) Debug(msg string, fs ...log.Field) { r.record(log.LevelDebug, msg, fs) }

// Info records an entry at "info" level.
func (r *Recorder) Info(msg string, fs ...log.Field) { r.record(log.LevelInfo, msg, fs) }

// Warn records an entry at "warn" level.
func (r *Recorder) Warn(msg string, fs ...log.Field) { r.record(log.LevelWarn, msg, fs) }

// Error records an entry at "error" level.
func (r *Recorder) Error(msg string, fs ...log.Field) { r.record(log.LevelError, msg, fs) }

func (r *Recorder) record(level log.Level, msg string, fs []log.Field) {
	fields := make([]log.Field, 0, len(r.fields)+len(fs))
	entry := RecordedEntry{Level: level, Text: msg, Fields: append(append(fields, r.fields...), fs...)}
	r.store.mu.Lock()
	r.store.entries = append(r.store.entries, entry)
	r.store.mu.Unlock()
}

// Entries returns a copy of all recorded entries in the order they were written.
func (r *Recorder) Entries() []RecordedEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]RecordedEntry(nil), r.store.entries...)
}

// FindEntry returns the first entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	if found := r.FindAllEntries(msg); len(found) != 0 {
		return found[0], true
	}
	return RecordedEntry{}, false
}

// FindAllEntries returns all entries with the given message.
func (r *Recorder) FindAllEntries(msg string) []RecordedEntry {
	var found []RecordedEntry
	for _, entry := range r.Entries() {
		if entry.Text == msg {
			found = append(found, entry)
		}
	}
	return found
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.store.mu.Lock()
	r.store.entries = nil
	r.store.mu.Unlock()
}
