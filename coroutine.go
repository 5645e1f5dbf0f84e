// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"errors"
	"fmt"
)

// Coroutine is a suspendable computation stepped by the scheduler.
//
// Each method resumes the coroutine and runs it to its next yield or to
// its end. While suspended, value is the yielded effect and done is
// false. Once finished, done is true and value is the result. A non-nil
// err means the coroutine raised an error it did not handle.
//
// Next resumes with the outcome of the last yielded effect; the first
// call starts the coroutine and its argument is ignored. Throw resumes
// with a failure of the last yielded effect. Return asks the coroutine
// to finish early, running its cleanup; reason is ErrCancelled or
// ErrChannelEnd. Cleanup code may still yield effects.
type Coroutine interface {
	Next(v any) (value any, done bool, err error)
	Throw(cause error) (value any, done bool, err error)
	Return(reason error) (value any, done bool, err error)
}

type resumeMode uint8

const (
	resumeNext resumeMode = iota
	resumeThrow
	resumeReturn
)

type resumeMsg struct {
	mode resumeMode
	v    any
	err  error
}

type stepMsg struct {
	v     any
	done  bool
	err   error
	panic any
}

type routineState uint8

const (
	routineIdle routineState = iota
	routineSuspended
	routineRunning
	routineDone
)

// routine runs a body on its own goroutine in strict alternation with
// the caller: exactly one side runs at any time.
type routine struct {
	body      func(y *Yielder) (any, error)
	in        chan resumeMsg
	out       chan stepMsg
	state     routineState
	returning error
}

// Routine adapts a body into a Coroutine. The body yields effects with
// Yielder.Yield and runs on a dedicated goroutine that only executes
// while the scheduler waits on it.
//
// A failed effect surfaces as the error returned by Yield. When the
// process is cancelled, or a Take meets a closed channel, Yield returns
// ErrCancelled or ErrChannelEnd; the body should clean up and return.
// Returning that error, or nil, finishes normally.
//
// The body must not block on other processes (Task.Wait, Exec) since
// the scheduler is suspended while it runs.
func Routine(body func(y *Yielder) (any, error)) Coroutine {
	if body == nil {
		usage("Routine", "nil body")
	}
	return &routine{
		body: body,
		in:   make(chan resumeMsg),
		out:  make(chan stepMsg),
	}
}

// Yielder is the handle a Routine body yields through.
type Yielder struct {
	r *routine
}

// Yield suspends the body on v and returns what the scheduler resumes
// it with.
func (y *Yielder) Yield(v any) (any, error) {
	r := y.r
	r.out <- stepMsg{v: v}
	m := <-r.in
	switch m.mode {
	case resumeThrow, resumeReturn:
		return nil, m.err
	}
	return m.v, nil
}

// Returning reports the reason the body was asked to finish, or nil.
func (y *Yielder) Returning() error { return y.r.returning }

// Await yields v and converts the result to T.
// A nil result converts to the zero T.
func Await[T any](y *Yielder, v any) (T, error) {
	var zero T
	res, err := y.Yield(v)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	t, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("saga: %T is not %T", res, zero)
	}
	return t, nil
}

func (r *routine) Next(v any) (any, bool, error) {
	return r.resume(resumeMsg{mode: resumeNext, v: v})
}

func (r *routine) Throw(err error) (any, bool, error) {
	return r.resume(resumeMsg{mode: resumeThrow, err: err})
}

func (r *routine) Return(reason error) (any, bool, error) {
	return r.resume(resumeMsg{mode: resumeReturn, err: reason})
}

func (r *routine) resume(m resumeMsg) (any, bool, error) {
	switch r.state {
	case routineRunning:
		return nil, true, ErrCoroutineRunning
	case routineDone:
		if m.mode == resumeThrow {
			return nil, true, m.err
		}
		return nil, true, nil
	case routineIdle:
		switch m.mode {
		case resumeThrow:
			r.state = routineDone
			return nil, true, m.err
		case resumeReturn:
			r.state = routineDone
			return nil, true, nil
		}
		r.state = routineRunning
		go r.run()
	case routineSuspended:
		if m.mode == resumeReturn {
			r.returning = m.err
		}
		r.state = routineRunning
		r.in <- m
	}
	s := <-r.out
	if s.done {
		r.state = routineDone
	} else {
		r.state = routineSuspended
	}
	if s.panic != nil {
		return nil, true, recovered(s.panic)
	}
	return s.v, s.done, s.err
}

func (r *routine) run() {
	var (
		res any
		err error
	)
	defer func() {
		if p := recover(); p != nil {
			r.out <- stepMsg{done: true, panic: p}
			return
		}
		r.out <- stepMsg{v: res, done: true, err: err}
	}()
	res, err = r.body(&Yielder{r: r})
	if r.returning != nil && (err == nil || errors.Is(err, r.returning)) {
		res, err = nil, nil
	}
}

// oneShot yields a single value and returns what it is resumed with.
type oneShot struct {
	v    any
	step int
}

func (o *oneShot) Next(v any) (any, bool, error) {
	switch o.step {
	case 0:
		o.step = 1
		return o.v, false, nil
	case 1:
		o.step = 2
		return v, true, nil
	}
	return nil, true, nil
}

func (o *oneShot) Throw(err error) (any, bool, error) {
	o.step = 2
	return nil, true, err
}

func (o *oneShot) Return(error) (any, bool, error) {
	o.step = 2
	return nil, true, nil
}

// failed raises err when started.
type failed struct{ err error }

func (f failed) Next(any) (any, bool, error) { return nil, true, f.err }

func (f failed) Throw(err error) (any, bool, error) { return nil, true, err }

func (f failed) Return(error) (any, bool, error) { return nil, true, nil }

// Helper is a coroutine that runs as an implicit fork when yielded.
type Helper struct {
	name string
	co   Coroutine
}

// NewHelper wraps co so that yielding it forks it.
func NewHelper(name string, co Coroutine) *Helper {
	if co == nil {
		usage("NewHelper", "nil coroutine")
	}
	return &Helper{name: name, co: co}
}

// Name returns the process name the helper forks under.
func (h *Helper) Name() string { return h.name }
