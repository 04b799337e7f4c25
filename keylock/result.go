/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
)

// Callback is a unit of work protected by the lock.
// The passed context is the one given to Run. It is not canceled when the slot expires.
type Callback[T any] func(ctx context.Context) (T, error)

// RunResult describes how a Run call ended.
//
// A successful Run call by itself does not mean the protected work happened:
// callers should check LockState (Canceled means the callback never ran,
// Expired means the slot was released before the callback finished and its outcome is unknown)
// and CallbackSuccess.
type RunResult[T any] struct {
	LockState       LockState
	CallbackResult  T
	CallbackSuccess bool
	CallbackError   error
}

type callbackOutcome[T any] struct {
	val T
	err error
}

// invokeCallback calls cb and converts a panic into *PanicError.
func invokeCallback[T any](ctx context.Context, cb Callback[T]) (out callbackOutcome[T]) {
	defer func() {
		if p := recover(); p != nil {
			out = callbackOutcome[T]{err: newPanicError(p)}
		}
	}()
	val, err := cb(ctx)
	return callbackOutcome[T]{val: val, err: err}
}

func (o callbackOutcome[T]) toResult(state LockState) RunResult[T] {
	return RunResult[T]{
		LockState:       state,
		CallbackResult:  o.val,
		CallbackSuccess: o.err == nil,
		CallbackError:   o.err,
	}
}

// PanicError is an error that represents a panic value and stack trace of a callback.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("callback panicked: %v\n\n%s", p.Value, p.Stack)
}

// Unwrap returns the panic value if it is an error.
func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

func newPanicError(v interface{}) error {
	stack := debug.Stack()

	// The first line of the stack trace is "goroutine N [status]:" and only describes the callback goroutine.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}
