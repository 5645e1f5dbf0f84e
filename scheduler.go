// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"github.com/joeycumines/logiface"
)

// Scheduler interprets the effects of its processes inside a single
// cooperative execution domain. Its methods are safe for concurrent use.
type Scheduler struct {
	dom     domain
	serial  serial
	log     *logiface.Logger[logiface.Event]
	monitor Monitor
	onError func(error)
}

// NewScheduler creates a scheduler. It fails with ErrInvalidOption when
// an option is rejected.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		log:     cfg.logger,
		monitor: cfg.monitor,
		onError: cfg.onError,
	}, nil
}

// Run starts fn with args as a root process and returns its Task.
// fn accepts the same forms as Call. A failure to start becomes a
// failed task.
func (s *Scheduler) Run(fn any, args ...any) *Task {
	name, f := bind("Run", fn, args)
	p := s.newProc(nil, name, 0, nil)
	s.dom.post(func() {
		p.co = taskCoroutine(f, args)
		p.start()
	})
	return p.task
}

// Start runs co as a root process named name and returns its Task.
// If the scheduler is idle, co runs on the calling goroutine until it
// first suspends.
func (s *Scheduler) Start(name string, co Coroutine) *Task {
	if co == nil {
		usage("Start", "nil coroutine")
	}
	p := s.newProc(co, name, 0, nil)
	s.dom.post(p.start)
	return p.task
}

// Submit runs fn inside the scheduler's execution domain. Channels used
// by processes must be touched from there. If the scheduler is idle, fn
// runs before Submit returns.
func (s *Scheduler) Submit(fn func()) {
	if fn == nil {
		usage("Submit", "nil function")
	}
	s.dom.post(fn)
}

// PutAsync puts item into ch from any goroutine. An overflow error is
// logged and the item dropped.
func PutAsync[T any](s *Scheduler, ch *Channel[T], item T) {
	if ch == nil {
		usage("PutAsync", "nil channel")
	}
	s.Submit(func() {
		if err := ch.Put(item); err != nil {
			s.log.Warning().Err(err).Log("put dropped")
		}
	})
}

// Idle reports whether the scheduler has no work queued or running.
// Processes suspended on effects do not count as work.
func (s *Scheduler) Idle() bool { return s.dom.idle() }

// taskCoroutine builds the coroutine of a started process from fn.
// Synchronous failures become a coroutine failing on start. A result
// that is not a Coroutine is yielded once, so a Future is awaited.
func taskCoroutine(fn Func, args []any) (co Coroutine) {
	defer func() {
		if r := recover(); r != nil {
			co = failed{err: recovered(r)}
		}
	}()
	res, err := fn(args...)
	if err != nil {
		return failed{err: err}
	}
	if c, ok := res.(Coroutine); ok {
		return c
	}
	return &oneShot{v: res}
}
