/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import "fmt"

// LockState describes the lifecycle stage of an identifier.
type LockState int

// Lock states.
const (
	// StateUndefined means the identifier has never been used (or its history was evicted).
	StateUndefined LockState = iota
	// StateLocked means a unit of work is currently holding the slot.
	StateLocked
	// StateUnlocked means the last holder completed its work and released the slot.
	StateUnlocked
	// StateExpired means the last holder's slot was released by the expiration timer.
	StateExpired
	// StateCanceled means the last recorded event was a cancellation of queued work.
	StateCanceled
)

var lockStateNames = [...]string{
	StateUndefined: "undefined",
	StateLocked:    "locked",
	StateUnlocked:  "unlocked",
	StateExpired:   "expired",
	StateCanceled:  "canceled",
}

// String returns a lower-case name of the state.
func (s LockState) String() string {
	if s < 0 || int(s) >= len(lockStateNames) {
		return fmt.Sprintf("LockState(%d)", int(s))
	}
	return lockStateNames[s]
}

// MarshalText implements encoding.TextMarshaler interface.
func (s LockState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether the state may be recorded as the last outcome for an identifier.
func (s LockState) IsTerminal() bool {
	return s == StateUnlocked || s == StateExpired || s == StateCanceled
}
