/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"container/list"
	"time"

	"github.com/rs/xid"
)

// waiter is a single Run call. It stays in the entry queue until it takes the slot or gets canceled.
type waiter struct {
	id            xid.ID
	identifier    string
	expiration    time.Duration
	checkInterval time.Duration
	enqueuedAt    time.Time

	// Fields below are guarded by Lock.mu.
	elem      *list.Element // nil when the waiter is not in the queue
	activated bool
	timer     *time.Timer

	canceled chan struct{} // closed when the waiter is removed from the queue without running
	expired  chan struct{} // closed when the expiration timer releases the slot
}

func newWaiter(identifier string, expiration, checkInterval time.Duration) *waiter {
	return &waiter{
		id:            xid.New(),
		identifier:    identifier,
		expiration:    expiration,
		checkInterval: checkInterval,
		enqueuedAt:    time.Now(),
		canceled:      make(chan struct{}),
		expired:       make(chan struct{}),
	}
}

// lockEntry is a per-identifier state. It lives in Lock.entries while it has active or queued waiters.
type lockEntry struct {
	identifier string
	terminal   LockState
	active     *waiter
	queue      *list.List // of *waiter, in request order
}

func newLockEntry(identifier string, terminal LockState) *lockEntry {
	return &lockEntry{identifier: identifier, terminal: terminal, queue: list.New()}
}

func (e *lockEntry) isIdle() bool {
	return e.active == nil && e.queue.Len() == 0
}

func (e *lockEntry) state() LockState {
	if e.active != nil {
		return StateLocked
	}
	return e.terminal
}

// isNext reports whether w may take the slot right now.
func (e *lockEntry) isNext(w *waiter) bool {
	return e.active == nil && w.elem != nil && e.queue.Front() == w.elem
}
