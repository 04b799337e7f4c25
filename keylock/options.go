/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"time"

	"github.com/acronis/go-keylock/log"
)

// Opts represents options for the Lock.
type Opts struct {
	// Defaults provides values for Expiration and CheckInterval when they are zero.
	// Values are read once, in NewWithOpts. If nil, package-level defaults are used.
	Defaults *Defaults

	// Expiration is the instance default expiration.
	// Zero means the value is taken from Defaults. Negative values are not allowed.
	Expiration time.Duration

	// CheckInterval is the instance default interval of re-checking the queue.
	// Zero means the value is taken from Defaults. Negative values are not allowed.
	CheckInterval time.Duration

	// MaxIdleEntries limits how many identifiers without active or queued work keep their last state.
	// The least recently used ones are forgotten first and report StateUndefined again.
	// Zero means no limit.
	MaxIdleEntries int

	// IdleTTL is how long an identifier without active or queued work keeps its last state.
	// Expired history is removed on access or by RunPeriodicCleanup. Zero means forever.
	IdleTTL time.Duration

	// Logger is used for debug messages about slot transitions. If nil, logging is disabled.
	Logger log.FieldLogger

	// MetricsCollector collects statistics about the lock usage. If nil, metrics are disabled.
	MetricsCollector MetricsCollector
}

// RunOption overrides instance defaults for a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	expiration       time.Duration
	hasExpiration    bool
	checkInterval    time.Duration
	hasCheckInterval bool
}

// WithExpiration sets the expiration for a single Run call.
// It's measured from the moment the callback gets the slot. The value must be positive.
func WithExpiration(expiration time.Duration) RunOption {
	return func(o *runOptions) {
		o.expiration = expiration
		o.hasExpiration = true
	}
}

// WithCheckInterval sets the interval at which a queued Run call re-checks whether it may take the slot.
// The value must be positive.
func WithCheckInterval(interval time.Duration) RunOption {
	return func(o *runOptions) {
		o.checkInterval = interval
		o.hasCheckInterval = true
	}
}

func makeRunOptions(opts []RunOption) (runOptions, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.hasExpiration && ro.expiration <= 0 {
		return ro, invalidArgumentErr("expiration must be positive, got %s", ro.expiration)
	}
	if ro.hasCheckInterval && ro.checkInterval <= 0 {
		return ro, invalidArgumentErr("check interval must be positive, got %s", ro.checkInterval)
	}
	return ro, nil
}
