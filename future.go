// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"context"
	"sync"
	"time"
)

// Future is an asynchronous result. Yielding a Future suspends the
// process until it settles.
//
// Subscribe registers fn to be called once with the outcome. fn may be
// called on any goroutine, including synchronously.
type Future interface {
	Subscribe(fn func(v any, err error))
}

// Canceler is implemented by futures whose pending work can be aborted.
// Cancel is called when the awaiting process stops waiting.
type Canceler interface {
	Cancel()
}

// Promise is a Future settled by hand. It is safe for concurrent use.
type Promise struct {
	mu      sync.Mutex
	settled bool
	v       any
	err     error
	subs    []func(any, error)
}

// NewPromise creates a pending promise.
func NewPromise() *Promise { return &Promise{} }

// Resolve settles p with v. It reports false if p was already settled.
func (p *Promise) Resolve(v any) bool { return p.settle(v, nil) }

// Reject settles p with err. It reports false if p was already settled.
func (p *Promise) Reject(err error) bool {
	if err == nil {
		usage("Promise.Reject", "nil error")
	}
	return p.settle(nil, err)
}

func (p *Promise) settle(v any, err error) bool {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return false
	}
	p.settled, p.v, p.err = true, v, err
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()
	for _, fn := range subs {
		fn(v, err)
	}
	return true
}

func (p *Promise) Subscribe(fn func(any, error)) {
	p.mu.Lock()
	if !p.settled {
		p.subs = append(p.subs, fn)
		p.mu.Unlock()
		return
	}
	v, err := p.v, p.err
	p.mu.Unlock()
	fn(v, err)
}

// Timer is a Future resolving with a value after a delay.
type Timer struct {
	Promise
	d     time.Duration
	once  sync.Once
	timer *time.Timer
	tmu   sync.Mutex
}

// Delay returns a Future resolving with v after d. The timer starts on
// the first subscription and is stopped by Cancel.
func Delay(d time.Duration, v any) *Timer {
	return &Timer{d: d, Promise: Promise{v: v}}
}

func (t *Timer) Subscribe(fn func(any, error)) {
	t.once.Do(func() {
		t.tmu.Lock()
		defer t.tmu.Unlock()
		v := t.Promise.v
		t.timer = time.AfterFunc(t.d, func() { t.Resolve(v) })
	})
	t.Promise.Subscribe(fn)
}

// Cancel stops a pending timer. The future then never settles.
func (t *Timer) Cancel() {
	t.tmu.Lock()
	defer t.tmu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Job is a Future computed by a function on its own goroutine.
type Job struct {
	Promise
	cancel context.CancelFunc
}

// Async runs fn on a new goroutine and returns its Future.
// Cancel cancels the context passed to fn.
func Async(fn func(ctx context.Context) (any, error)) *Job {
	if fn == nil {
		usage("Async", "nil function")
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{cancel: cancel}
	go func() {
		defer cancel()
		var (
			v   any
			err error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r}
				}
			}()
			v, err = fn(ctx)
		}()
		if err != nil {
			j.Reject(err)
			return
		}
		j.Resolve(v)
	}()
	return j
}

// Cancel cancels the job's context.
func (j *Job) Cancel() { j.cancel() }
