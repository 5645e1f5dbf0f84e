// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/kont"
)

// Signal is a sentinel value exchanged between the scheduler and its
// processes.
type Signal struct{ name string }

func (s *Signal) String() string { return s.name }

var (
	// End is what TakeMaybe and Flush resume with once a channel is
	// closed and drained.
	End = &Signal{name: "END"}

	// TaskCancel is the result of a cancelled task. A process resumed
	// with it, for example by joining a cancelled task, is cancelled.
	TaskCancel = &Signal{name: "TASK_CANCEL"}

	// channelEnd resumes a process whose Take met a closed channel.
	channelEnd = &Signal{name: "CHANNEL_END"}
)

// terminal reports whether v ends a combinator entry without a value.
func terminal(v any) bool {
	return v == End || v == channelEnd || v == TaskCancel
}

// cont is a continuation with a replaceable cancellation hook.
// Effect runners install the hook before the continuation may fire.
type cont struct {
	fn     func(v any, err error)
	cancel func()
}

func newCont(fn func(v any, err error)) *cont {
	return &cont{fn: fn, cancel: noop}
}

func discard(any, error) {}

type joiner struct {
	fn func(v any, err error)
}

// proc drives one coroutine. All fields are confined to the domain.
//
// The main computation of the coroutine and its attached forks form the
// fork queue; the task settles when the queue does, or at once when the
// task is cancelled.
type proc struct {
	s        *Scheduler
	task     *Task
	co       Coroutine
	name     string
	parentID EffectID

	// cont receives the outcome; nil marks an unowned process whose
	// failures are uncaught.
	cont    func(v any, err error)
	joiners []*joiner

	queue      *forkQueue
	settleMain func(v any, err error)
	driver     *cont

	running       bool
	cancelled     bool
	mainRunning   bool
	mainCancelled bool
}

func (s *Scheduler) newProc(co Coroutine, name string, parentID EffectID, owner *cont) *proc {
	if name == "" {
		name = "anonymous"
	}
	p := &proc{
		s:        s,
		co:       co,
		name:     name,
		parentID: parentID,
		running:  true,
	}
	p.task = newTask(s, name)
	p.task.p = p
	p.queue = newForkQueue(p.end)
	p.settleMain = p.queue.add(name, p.cancelMain)
	p.driver = newCont(p.next)
	if owner != nil {
		p.cont = owner.fn
		owner.cancel = p.cancel
	}
	return p
}

func (p *proc) start() {
	if !p.running {
		return
	}
	p.mainRunning = true
	p.next(nil, nil)
}

// next resumes the coroutine with an outcome and interprets what it
// yields next.
func (p *proc) next(arg any, err error) {
	if !p.mainRunning {
		panic(&InternalError{Msg: "resuming finished process " + p.name})
	}
	v, done, cerr := p.step(arg, err)
	if cerr != nil {
		if p.mainCancelled {
			p.s.log.Err().Str("task", p.name).Err(cerr).Log("uncaught at " + p.name)
		}
		p.mainRunning = false
		p.settleMain(nil, cerr)
		return
	}
	if !done {
		p.runEffect(v, p.parentID, "", p.driver)
		return
	}
	p.mainRunning = false
	if p.mainCancelled {
		v = TaskCancel
	}
	p.settleMain(v, nil)
}

func (p *proc) step(arg any, err error) (v any, done bool, cerr error) {
	defer func() {
		if r := recover(); r != nil {
			v, done, cerr = nil, true, recovered(r)
		}
	}()
	switch {
	case err != nil:
		return p.co.Throw(err)
	case arg == TaskCancel:
		p.mainCancelled = true
		p.driver.cancel()
		return p.co.Return(ErrCancelled)
	case arg == channelEnd:
		return p.co.Return(ErrChannelEnd)
	}
	return p.co.Next(arg)
}

// end settles the task with the outcome of its fork queue.
func (p *proc) end(v any, err error) {
	p.running = false
	t := p.task
	switch {
	case err != nil:
		err = annotate(err, p.name)
		if p.cont == nil {
			p.s.log.Err().Str("task", p.name).Str("id", t.id).Err(err).Log("uncaught")
			if p.s.onError != nil {
				p.s.onError(err)
			}
		}
		t.settle(TaskAborted, nil, err)
	case v == TaskCancel:
		p.s.log.Info().Str("task", p.name).Str("id", t.id).Log(p.name + " has been cancelled")
		t.settle(TaskCancelled, v, nil)
	default:
		t.settle(TaskDone, v, nil)
	}
	if p.cont != nil {
		p.cont(v, err)
	}
	joiners := p.joiners
	p.joiners = nil
	for _, j := range joiners {
		j.fn(v, err)
	}
}

// cancelMain resumes the main computation with the cancel signal.
func (p *proc) cancelMain() {
	if p.mainRunning && !p.mainCancelled {
		p.mainCancelled = true
		p.next(TaskCancel, nil)
	}
}

// cancel cancels the main computation and every attached fork, then
// settles the task as cancelled.
func (p *proc) cancel() {
	if p.running && !p.cancelled {
		p.cancelled = true
		p.queue.cancelAll()
		p.end(TaskCancel, nil)
	}
}

func (p *proc) removeJoiner(j *joiner) {
	for i, x := range p.joiners {
		if x == j {
			p.joiners = append(p.joiners[:i], p.joiners[i+1:]...)
			return
		}
	}
}

// runEffect interprets eff and reports its outcome to cb.
// Completion and cancellation are mutually exclusive.
func (p *proc) runEffect(eff any, parentID EffectID, label string, cb *cont) {
	id := p.s.serial.next()
	mon := p.s.monitor
	mon.EffectTriggered(id, parentID, label, eff)

	settled := false
	curr := newCont(nil)
	curr.fn = func(v any, err error) {
		if settled {
			return
		}
		settled = true
		cb.cancel = noop
		if err != nil {
			mon.EffectRejected(id, err)
		} else {
			mon.EffectResolved(id, v)
		}
		cb.fn(v, err)
	}
	cb.cancel = func() {
		if settled {
			return
		}
		settled = true
		if err := guard(curr.cancel); err != nil {
			p.s.log.Err().Str("task", p.name).Err(err).Log("uncaught at " + p.name)
		}
		curr.cancel = noop
		mon.EffectCancelled(id)
	}
	p.dispatch(eff, id, curr)
}

func (p *proc) dispatch(eff any, id EffectID, cb *cont) {
	switch e := eff.(type) {
	case Future:
		p.resolveFuture(e, cb)
	case *Helper:
		p.runFork(e.name, func(...any) (any, error) { return e.co, nil }, nil, false, id, cb)
	case Coroutine:
		p.resolveCoroutine(e, id, p.name, cb)
	case kont.Expr[any]:
		p.resolveCoroutine(FromExpr(e), id, p.name, cb)
	case kont.Eff[any]:
		p.resolveCoroutine(FromEff(e), id, p.name, cb)
	case []any:
		p.runParallel(e, id, cb)
	case []Effect:
		effects := make([]any, len(e))
		for i, x := range e {
			effects[i] = x
		}
		p.runParallel(effects, id, cb)
	case Effect:
		p.runDescriptor(e, id, cb)
	default:
		cb.fn(eff, nil)
	}
}

func (p *proc) runDescriptor(eff Effect, id EffectID, cb *cont) {
	switch e := eff.(type) {
	case takeEffect:
		p.runTake(e, cb)
	case putEffect:
		p.runPut(e, cb)
	case callEffect:
		p.runCall(e, id, cb)
	case cpsEffect:
		p.runCps(e, cb)
	case forkEffect:
		p.runFork(e.name, e.fn, e.args, e.detached, id, cb)
	case joinEffect:
		p.runJoin(e.task, cb)
	case cancelEffect:
		p.runCancel(e.task, cb)
	case cancelledEffect:
		cb.fn(p.mainCancelled, nil)
	case flushEffect:
		p.runFlush(e, cb)
	case raceEffect:
		p.runRace(e, id, cb)
	case parallelEffect:
		p.runParallel(e.effects, id, cb)
	case tryEffect:
		p.runTry(e, id, cb)
	default:
		cb.fn(eff, nil)
	}
}

// guard runs fn, converting a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	fn()
	return nil
}

// invoke calls a user function, converting a panic into an error.
func invoke(fn Func, args []any) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, recovered(r)
		}
	}()
	return fn(args...)
}

func (p *proc) resolveFuture(f Future, cb *cont) {
	if c, ok := f.(Canceler); ok {
		cb.cancel = c.Cancel
	}
	dom := &p.s.dom
	err := guard(func() {
		f.Subscribe(func(v any, err error) {
			dom.post(func() { cb.fn(v, err) })
		})
	})
	if err != nil {
		cb.fn(nil, err)
	}
}

func (p *proc) resolveCoroutine(co Coroutine, id EffectID, name string, cb *cont) {
	p.s.newProc(co, name, id, cb).start()
}

func (p *proc) runTake(e takeEffect, cb *cont) {
	var cancel func()
	err := guard(func() {
		cancel = e.take(func(v any, ok bool) {
			switch {
			case ok:
				cb.fn(v, nil)
			case e.maybe:
				cb.fn(End, nil)
			default:
				cb.fn(channelEnd, nil)
			}
		})
	})
	if err != nil {
		cb.fn(nil, err)
		return
	}
	cb.cancel = cancel
}

func (p *proc) runPut(e putEffect, cb *cont) {
	var perr error
	if err := guard(func() { perr = e.put() }); err != nil {
		perr = err
	}
	cb.fn(nil, perr)
}

func (p *proc) runCall(e callEffect, id EffectID, cb *cont) {
	res, err := invoke(e.fn, e.args)
	if err != nil {
		cb.fn(nil, err)
		return
	}
	switch r := res.(type) {
	case Future:
		p.resolveFuture(r, cb)
	case Coroutine:
		p.resolveCoroutine(r, id, e.name, cb)
	default:
		cb.fn(res, nil)
	}
}

func (p *proc) runCps(e cpsEffect, cb *cont) {
	dom := &p.s.dom
	done := func(v any, err error) {
		dom.post(func() { cb.fn(v, err) })
	}
	var cancel func()
	cb.cancel = func() {
		if cancel != nil {
			cancel()
		}
	}
	if err := guard(func() { cancel = e.fn(done, e.args...) }); err != nil {
		cb.fn(nil, err)
	}
}

// runFork starts a child process. An attached child joins the fork
// queue while running; one that failed while starting aborts it.
// Fork effects are not cancellable.
func (p *proc) runFork(name string, fn Func, args []any, detached bool, id EffectID, cb *cont) {
	co := taskCoroutine(fn, args)
	if detached {
		child := p.s.newProc(co, name, id, nil)
		p.task.addDetached(child.task)
		child.start()
		cb.fn(child.task, nil)
		return
	}
	child := p.s.newProc(co, name, id, newCont(discard))
	child.start()
	switch {
	case child.running:
		settle := p.queue.add(name, child.cancel)
		p.task.addChild(child.task)
		p.s.log.Debug().Str("task", p.name).Any("forks", p.queue.names()).Log("fork attached")
		child.cont = func(v any, err error) {
			p.task.removeChild(child.task)
			settle(v, err)
		}
		cb.fn(child.task, nil)
	case child.task.err != nil:
		p.queue.abort(child.task.err)
	default:
		cb.fn(child.task, nil)
	}
}

func (p *proc) runJoin(t *Task, cb *cont) {
	if t.s != p.s {
		p.joinForeign(t, cb)
		return
	}
	if t.IsRunning() {
		tp := t.p
		j := &joiner{fn: cb.fn}
		cb.cancel = func() { tp.removeJoiner(j) }
		tp.joiners = append(tp.joiners, j)
		return
	}
	if t.IsAborted() {
		cb.fn(nil, t.err)
		return
	}
	cb.fn(t.result, nil)
}

// joinForeign joins a task of another scheduler.
func (p *proc) joinForeign(t *Task, cb *cont) {
	stop := make(chan struct{})
	cb.cancel = func() { close(stop) }
	dom := &p.s.dom
	go func() {
		select {
		case <-t.done:
			dom.post(func() {
				if t.IsAborted() {
					cb.fn(nil, t.err)
					return
				}
				cb.fn(t.result, nil)
			})
		case <-stop:
		}
	}()
}

// runCancel is not cancellable.
func (p *proc) runCancel(t *Task, cb *cont) {
	if t.IsRunning() {
		if t.s == p.s {
			t.p.cancel()
		} else {
			t.Cancel()
		}
	}
	cb.fn(nil, nil)
}

func (p *proc) runFlush(e flushEffect, cb *cont) {
	err := guard(func() {
		e.flush(func(v any, ok bool) {
			if !ok {
				cb.fn(End, nil)
				return
			}
			cb.fn(v, nil)
		})
	})
	if err != nil {
		cb.fn(nil, err)
	}
}

func (p *proc) runTry(e tryEffect, id EffectID, cb *cont) {
	inner := newCont(func(v any, err error) {
		switch {
		case err != nil:
			cb.fn(kont.Left[error, any](err), nil)
		case v == channelEnd || v == TaskCancel:
			cb.fn(v, nil)
		default:
			cb.fn(kont.Right[error, any](v), nil)
		}
	})
	cb.cancel = func() { inner.cancel() }
	p.runEffect(e.eff, id, "try", inner)
}
