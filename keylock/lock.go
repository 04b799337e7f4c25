/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-keylock/internal/lrucache"
	"github.com/acronis/go-keylock/log"
)

// CancelMode defines which queued waiters Cancel removes.
type CancelMode string

// Cancel modes.
const (
	// CancelCurrent removes the single waiter that would take the slot next. An empty mode means the same.
	CancelCurrent CancelMode = "current"
	// CancelAll removes all queued waiters.
	CancelAll CancelMode = "all"
)

// Lock serializes execution of callbacks that share an identifier.
//
// Callbacks for one identifier run one at a time in request order.
// Callbacks for different identifiers don't affect each other.
type Lock struct {
	expiration    time.Duration
	checkInterval time.Duration

	logger           log.FieldLogger
	metricsCollector MetricsCollector

	mu          sync.Mutex
	entries     map[string]*lockEntry
	idle        *lrucache.LRUCache[string, LockState]
	queuedCount int
	activeCount int

	runningAfterExpiration atomic.Int32
}

// New creates a new Lock with package-level defaults.
func New() *Lock {
	l, err := NewWithOpts(Opts{})
	if err != nil {
		panic(err) // zero options are always valid
	}
	return l
}

// NewWithOpts creates a new Lock with the provided options.
// Values of opts.Defaults are copied, so changing them later doesn't affect the created Lock.
func NewWithOpts(opts Opts) (*Lock, error) {
	if opts.Expiration < 0 {
		return nil, invalidArgumentErr("expiration must be positive or zero (use defaults), got %s", opts.Expiration)
	}
	if opts.CheckInterval < 0 {
		return nil, invalidArgumentErr("check interval must be positive or zero (use defaults), got %s", opts.CheckInterval)
	}
	if opts.MaxIdleEntries < 0 {
		return nil, invalidArgumentErr("max idle entries must be greater or equal to 0 (no limit), got %d", opts.MaxIdleEntries)
	}
	if opts.IdleTTL < 0 {
		return nil, invalidArgumentErr("idle TTL must be greater or equal to 0 (no expiration), got %s", opts.IdleTTL)
	}

	expiration, checkInterval := opts.Defaults.snapshot()
	if opts.Expiration > 0 {
		expiration = opts.Expiration
	}
	if opts.CheckInterval > 0 {
		checkInterval = opts.CheckInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	metricsCollector := opts.MetricsCollector
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}

	maxIdleEntries := opts.MaxIdleEntries
	if maxIdleEntries == 0 {
		maxIdleEntries = math.MaxInt
	}
	idle, err := lrucache.NewWithOpts[string, LockState](
		maxIdleEntries, idleMetrics{metricsCollector}, lrucache.Options{DefaultTTL: opts.IdleTTL})
	if err != nil {
		return nil, fmt.Errorf("create idle entries cache: %w", err)
	}

	return &Lock{
		expiration:       expiration,
		checkInterval:    checkInterval,
		logger:           logger,
		metricsCollector: metricsCollector,
		entries:          make(map[string]*lockEntry),
		idle:             idle,
	}, nil
}

// Expiration returns the instance default expiration. Zero means no expiration.
func (l *Lock) Expiration() time.Duration {
	return l.expiration
}

// CheckInterval returns the instance default check interval.
func (l *Lock) CheckInterval() time.Duration {
	return l.checkInterval
}

// Run is a non-generic version of the package-level Run function.
func (l *Lock) Run(
	ctx context.Context, identifier string, callback Callback[interface{}], opts ...RunOption,
) (RunResult[interface{}], error) {
	return Run(ctx, l, identifier, callback, opts...)
}

// Run executes callback once all previously requested callbacks for the identifier have released the slot.
// It blocks until the callback completes, the slot expires, or the request is canceled.
//
// An error is returned only for invalid arguments, in which case nothing is queued.
// Errors and panics of the callback are reported in RunResult.
// If ctx is done while the request is still queued, the request is canceled as if by Cancel.
// Once the callback has the slot, ctx is only passed to it.
func Run[T any](
	ctx context.Context, l *Lock, identifier string, callback Callback[T], opts ...RunOption,
) (RunResult[T], error) {
	entry, w, err := l.enqueue(identifier, callback != nil, opts)
	if err != nil {
		return RunResult[T]{}, err
	}
	return execute(ctx, l, entry, w, callback), nil
}

// RunAsync queues callback like Run does and returns immediately.
// The returned channel receives exactly one RunResult.
// Arguments are validated before returning, and the request takes its place in the queue before returning.
func RunAsync[T any](
	ctx context.Context, l *Lock, identifier string, callback Callback[T], opts ...RunOption,
) (<-chan RunResult[T], error) {
	entry, w, err := l.enqueue(identifier, callback != nil, opts)
	if err != nil {
		return nil, err
	}
	resCh := make(chan RunResult[T], 1)
	go func() {
		resCh <- execute(ctx, l, entry, w, callback)
	}()
	return resCh, nil
}

// Cancel removes queued waiters of the identifier that have not started yet and returns how many were removed.
// Run calls of the removed waiters return StateCanceled, their callbacks are never invoked.
// A callback that already holds the slot is not affected.
func (l *Lock) Cancel(identifier string, mode CancelMode) (int, error) {
	limit := 1
	switch mode {
	case "", CancelCurrent:
	case CancelAll:
		limit = math.MaxInt
	default:
		return 0, invalidArgumentErr("unknown cancel mode %q, should be one of %q, %q", mode, CancelCurrent, CancelAll)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[identifier]
	if !ok {
		return 0, nil
	}
	canceled := 0
	for canceled < limit && entry.queue.Len() > 0 {
		w := entry.queue.Front().Value.(*waiter)
		l.withdraw(entry, w)
		canceled++
	}
	if canceled == 0 {
		return 0, nil
	}
	entry.terminal = StateCanceled
	l.forgetIfIdle(entry)
	l.metricsCollector.SetQueuedWaiters(l.queuedCount)

	l.logger.Debug("queued waiters are canceled",
		log.String("identifier", identifier), log.Int("canceled", canceled), log.String("mode", string(mode)))
	return canceled, nil
}

// GetState returns the current state of the identifier.
// StateLocked is returned while a callback holds the slot; otherwise the last terminal state is returned.
// StateUndefined is returned for identifiers that have never been used (or whose idle history was evicted).
func (l *Lock) GetState(identifier string) LockState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[identifier]; ok {
		return entry.state()
	}
	if state, ok := l.idle.Get(identifier); ok {
		return state
	}
	return StateUndefined
}

// RunningAfterExpiration returns the number of callbacks whose slot expired but which are still running.
func (l *Lock) RunningAfterExpiration() int {
	return int(l.runningAfterExpiration.Load())
}

// RunPeriodicCleanup removes idle identifiers whose history is older than Opts.IdleTTL.
// It blocks until ctx is done, so it's supposed to be run in a separate goroutine.
func (l *Lock) RunPeriodicCleanup(ctx context.Context, cleanupInterval time.Duration) {
	l.idle.RunPeriodicCleanup(ctx, cleanupInterval)
}

func (l *Lock) enqueue(identifier string, hasCallback bool, opts []RunOption) (*lockEntry, *waiter, error) {
	if identifier == "" {
		return nil, nil, invalidArgumentErr("identifier must not be empty")
	}
	if !hasCallback {
		return nil, nil, invalidArgumentErr("callback must not be nil")
	}
	ro, err := makeRunOptions(opts)
	if err != nil {
		return nil, nil, err
	}

	expiration, checkInterval := l.expiration, l.checkInterval
	if ro.hasExpiration {
		expiration = ro.expiration
	}
	if ro.hasCheckInterval {
		checkInterval = ro.checkInterval
	}
	w := newWaiter(identifier, expiration, checkInterval)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.getOrCreateEntry(identifier)
	w.elem = entry.queue.PushBack(w)
	l.queuedCount++
	if entry.isNext(w) {
		l.activate(entry, w)
	}
	l.metricsCollector.SetQueuedWaiters(l.queuedCount)
	return entry, w, nil
}

func execute[T any](ctx context.Context, l *Lock, entry *lockEntry, w *waiter, callback Callback[T]) RunResult[T] {
	if !l.waitTurn(ctx, entry, w) {
		l.metricsCollector.IncRuns(StateCanceled)
		return RunResult[T]{LockState: StateCanceled}
	}

	done := make(chan RunResult[T], 1)
	go func() {
		out := invokeCallback(ctx, callback)
		state := l.release(entry, w, out.err)
		done <- out.toResult(state)
	}()

	var res RunResult[T]
	select {
	case res = <-done:
		if res.LockState == StateExpired {
			// The slot was released by the timer before we got the outcome, so it must not be reported.
			res = RunResult[T]{LockState: StateExpired}
		}
	case <-w.expired:
		res = RunResult[T]{LockState: StateExpired}
	}
	l.metricsCollector.IncRuns(res.LockState)
	return res
}

// waitTurn blocks until w holds the slot (true) or w is withdrawn from the queue (false).
func (l *Lock) waitTurn(ctx context.Context, entry *lockEntry, w *waiter) bool {
	l.mu.Lock()
	activated := w.activated
	l.mu.Unlock()
	if activated {
		return true
	}

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.canceled:
			return false
		case <-ctx.Done():
			return l.cancelOnContextDone(entry, w)
		case <-ticker.C:
			if activated, canceled := l.tryActivate(entry, w); activated || canceled {
				return activated
			}
		}
	}
}

func (l *Lock) tryActivate(entry *lockEntry, w *waiter) (activated bool, canceled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w.elem == nil {
		return w.activated, !w.activated
	}
	if !entry.isNext(w) {
		return false, false
	}
	l.activate(entry, w)
	l.metricsCollector.SetQueuedWaiters(l.queuedCount)
	return true, false
}

func (l *Lock) cancelOnContextDone(entry *lockEntry, w *waiter) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w.elem == nil {
		return w.activated
	}
	l.withdraw(entry, w)
	entry.terminal = StateCanceled
	l.forgetIfIdle(entry)
	l.metricsCollector.SetQueuedWaiters(l.queuedCount)

	l.logger.Debug("queued waiter is canceled by context",
		log.String("identifier", w.identifier), log.String("waiter_id", w.id.String()))
	return false
}

// activate gives the slot to w. Must be called with l.mu held.
func (l *Lock) activate(entry *lockEntry, w *waiter) {
	entry.queue.Remove(w.elem)
	w.elem = nil
	w.activated = true
	l.queuedCount--

	entry.active = w
	l.activeCount++
	l.metricsCollector.SetActiveSlots(l.activeCount)

	waited := time.Since(w.enqueuedAt)
	l.metricsCollector.ObserveWaitDuration(waited)

	if w.expiration > 0 {
		w.timer = time.AfterFunc(w.expiration, func() {
			l.expire(entry, w)
		})
	}

	l.logger.Debug("lock slot is acquired",
		log.String("identifier", w.identifier),
		log.String("waiter_id", w.id.String()),
		log.Int64("wait_ms", waited.Milliseconds()),
		log.Int64("expiration_ms", w.expiration.Milliseconds()),
	)
}

// withdraw removes queued w without running it. Must be called with l.mu held.
func (l *Lock) withdraw(entry *lockEntry, w *waiter) {
	entry.queue.Remove(w.elem)
	w.elem = nil
	l.queuedCount--
	close(w.canceled)
}

func (l *Lock) expire(entry *lockEntry, w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.active != w {
		return // released already
	}
	l.runningAfterExpiration.Inc()
	l.vacate(entry, StateExpired)
	close(w.expired)

	l.logger.Debug("lock slot is expired, callback keeps running",
		log.String("identifier", w.identifier),
		log.String("waiter_id", w.id.String()),
		log.Int64("expiration_ms", w.expiration.Milliseconds()),
	)
}

// release is called when the callback of w returns. It reports which state applied to the slot.
func (l *Lock) release(entry *lockEntry, w *waiter, callbackErr error) LockState {
	if panicErr, ok := callbackErr.(*PanicError); ok {
		l.logger.Warn(fmt.Sprintf("callback panicked: %v", panicErr.Value),
			log.String("identifier", w.identifier), log.String("waiter_id", w.id.String()),
			log.Bytes("stack", panicErr.Stack))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	if entry.active != w {
		l.metricsCollector.IncAbandonedCompletions()
		l.runningAfterExpiration.Dec()
		l.logger.Debug("callback of expired lock slot is completed, its outcome is discarded",
			log.String("identifier", w.identifier), log.String("waiter_id", w.id.String()),
			log.Bool("callback_success", callbackErr == nil))
		return StateExpired
	}
	l.vacate(entry, StateUnlocked)
	return StateUnlocked
}

// vacate frees the slot and records the terminal state. Must be called with l.mu held.
func (l *Lock) vacate(entry *lockEntry, state LockState) {
	entry.active = nil
	entry.terminal = state
	l.activeCount--
	l.metricsCollector.SetActiveSlots(l.activeCount)
	l.forgetIfIdle(entry)
}

// getOrCreateEntry must be called with l.mu held.
func (l *Lock) getOrCreateEntry(identifier string) *lockEntry {
	if entry, ok := l.entries[identifier]; ok {
		return entry
	}
	terminal := StateUndefined
	if state, ok := l.idle.Get(identifier); ok {
		terminal = state
		l.idle.Remove(identifier)
	}
	entry := newLockEntry(identifier, terminal)
	l.entries[identifier] = entry
	return entry
}

// forgetIfIdle moves the entry without active and queued waiters to the idle history.
// Must be called with l.mu held.
func (l *Lock) forgetIfIdle(entry *lockEntry) {
	if !entry.isIdle() || l.entries[entry.identifier] != entry {
		return
	}
	delete(l.entries, entry.identifier)
	l.idle.Add(entry.identifier, entry.terminal)
}
