// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBufferOverflow is returned by a fixed buffer that is full.
	ErrBufferOverflow = errors.New("saga: channel buffer overflow")

	// ErrCancelled is the reason passed to Coroutine.Return when the
	// owning task is cancelled.
	ErrCancelled = errors.New("saga: task cancelled")

	// ErrChannelEnd is the reason passed to Coroutine.Return when a Take
	// matured against a closed channel.
	ErrChannelEnd = errors.New("saga: channel end")

	// ErrInvalidOption is returned by NewScheduler for a rejected option.
	ErrInvalidOption = errors.New("saga: invalid option")

	// ErrCoroutineRunning is raised when a coroutine is resumed while it
	// is already running.
	ErrCoroutineRunning = errors.New("saga: coroutine already running")

	// ErrUnhandledOperation is raised by a kont computation that performs
	// an operation the scheduler does not interpret.
	ErrUnhandledOperation = errors.New("saga: unhandled operation")
)

// ProcessError is a failure raised by a process.
// Trace lists the process names the failure crossed, innermost first.
type ProcessError struct {
	Trace []string
	Err   error
}

func (e *ProcessError) Error() string {
	if len(e.Trace) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + " (at " + strings.Join(e.Trace, " < ") + ")"
}

func (e *ProcessError) Unwrap() error { return e.Err }

// annotate records that err escaped the process called name.
func annotate(err error, name string) error {
	if pe, ok := err.(*ProcessError); ok {
		trace := make([]string, len(pe.Trace), len(pe.Trace)+1)
		copy(trace, pe.Trace)
		return &ProcessError{Trace: append(trace, name), Err: pe.Err}
	}
	return &ProcessError{Trace: []string{name}, Err: err}
}

// InternalError reports a broken runtime invariant.
// It is raised by panic and never recovered by the scheduler.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "saga: internal error: " + e.Msg }

// UsageError reports an invalid argument passed to a constructor.
// It is raised by panic at the call site.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string { return "saga: " + e.Op + ": " + e.Msg }

func usage(op, msg string) {
	panic(&UsageError{Op: op, Msg: msg})
}

// PanicError wraps a value recovered from a panicking user function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("saga: panic: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recovered converts a recovered panic value into an error.
// Runtime invariant violations are re-raised.
func recovered(r any) error {
	switch v := r.(type) {
	case *InternalError:
		panic(v)
	case *PanicError:
		return v
	}
	return &PanicError{Value: r}
}
