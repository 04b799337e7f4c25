/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"sync"
	"time"
)

// Default values used when neither Defaults nor Opts provide one.
const (
	// DefaultExpiration is zero which means that the slot never expires.
	DefaultExpiration time.Duration = 0

	// DefaultCheckInterval is the interval at which a queued waiter re-checks whether it may take the slot.
	DefaultCheckInterval = time.Millisecond
)

// Defaults holds default values that are captured by Lock instances at construction time.
// Changing Defaults afterward doesn't affect already constructed instances.
// It's safe for concurrent use.
type Defaults struct {
	mu            sync.RWMutex
	expiration    time.Duration
	checkInterval time.Duration
}

// NewDefaults creates Defaults initialized with DefaultExpiration and DefaultCheckInterval.
func NewDefaults() *Defaults {
	return &Defaults{expiration: DefaultExpiration, checkInterval: DefaultCheckInterval}
}

// Expiration returns the default expiration. Zero means no expiration.
func (d *Defaults) Expiration() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expiration
}

// SetExpiration sets the default expiration.
// The value must be positive, otherwise ErrInvalidArgument is returned and the previous value is kept.
// Use ClearExpiration to disable expiration.
func (d *Defaults) SetExpiration(expiration time.Duration) error {
	if expiration <= 0 {
		return invalidArgumentErr("default expiration must be positive, got %s", expiration)
	}
	d.mu.Lock()
	d.expiration = expiration
	d.mu.Unlock()
	return nil
}

// ClearExpiration disables the default expiration.
func (d *Defaults) ClearExpiration() {
	d.mu.Lock()
	d.expiration = 0
	d.mu.Unlock()
}

// CheckInterval returns the default check interval.
func (d *Defaults) CheckInterval() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.checkInterval
}

// SetCheckInterval sets the default check interval.
// The value must be positive, otherwise ErrInvalidArgument is returned and the previous value is kept.
func (d *Defaults) SetCheckInterval(interval time.Duration) error {
	if interval <= 0 {
		return invalidArgumentErr("default check interval must be positive, got %s", interval)
	}
	d.mu.Lock()
	d.checkInterval = interval
	d.mu.Unlock()
	return nil
}

func (d *Defaults) snapshot() (expiration, checkInterval time.Duration) {
	if d == nil {
		return DefaultExpiration, DefaultCheckInterval
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expiration, d.checkInterval
}
