// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import "sync"

// Emitter fans items out to its subscribers. It is safe for concurrent use.
// Subscribers receive ok == false once, when End is called.
type Emitter[T any] struct {
	mu    sync.Mutex
	subs  []*subscriber[T]
	ended bool
}

type subscriber[T any] struct {
	fn func(item T, ok bool)
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter[T any]() *Emitter[T] { return &Emitter[T]{} }

// Subscribe registers fn and returns a function removing it.
func (e *Emitter[T]) Subscribe(fn func(item T, ok bool)) (unsubscribe func()) {
	if fn == nil {
		usage("Emitter.Subscribe", "nil subscriber")
	}
	s := &subscriber[T]{fn: fn}
	e.mu.Lock()
	e.subs = append(e.subs, s)
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, x := range e.subs {
			if x == s {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Emitter[T]) snapshot() []*subscriber[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return nil
	}
	return e.subs
}

// Emit passes item to every current subscriber.
func (e *Emitter[T]) Emit(item T) {
	for _, s := range e.snapshot() {
		s.fn(item, true)
	}
}

// End signals the end of the stream to every subscriber. Later calls
// to Emit and End are ignored.
func (e *Emitter[T]) End() {
	subs := e.snapshot()
	e.mu.Lock()
	e.ended = true
	e.mu.Unlock()
	var zero T
	for _, s := range subs {
		s.fn(zero, false)
	}
}

// EventChannel is a channel fed by an external event source.
type EventChannel[T any] struct {
	*Channel[T]
	s           *Scheduler
	unsubscribe func()
}

// NewEventChannel subscribes to an event source and re-emits its items
// into a new channel owned by s. Events may arrive on any goroutine;
// they are delivered inside the scheduler's execution domain. An end
// event closes the channel. A nil buf discards events that arrive while
// no consumer waits. A non-nil match filters events.
func NewEventChannel[T any](
	s *Scheduler,
	subscribe func(emit func(item T, ok bool)) (unsubscribe func()),
	buf Buffer[T],
	match func(T) bool,
) *EventChannel[T] {
	if s == nil {
		usage("NewEventChannel", "nil scheduler")
	}
	if subscribe == nil {
		usage("NewEventChannel", "nil subscribe")
	}
	if buf == nil {
		buf = None[T]()
	}
	ec := &EventChannel[T]{Channel: NewChannel(buf), s: s}
	unsubscribe := subscribe(func(item T, ok bool) {
		s.dom.post(func() {
			if !ok {
				ec.Close()
				return
			}
			if match == nil || match(item) {
				if err := ec.Put(item); err != nil {
					s.log.Warning().Err(err).Log("event dropped")
				}
			}
		})
	})
	if unsubscribe == nil {
		usage("NewEventChannel", "subscribe must return an unsubscribe function")
	}
	ec.unsubscribe = unsubscribe
	return ec
}

// Close closes the channel and unsubscribes from the event source.
func (ec *EventChannel[T]) Close() {
	if ec.Closed() {
		return
	}
	ec.Channel.Close()
	if ec.unsubscribe != nil {
		ec.unsubscribe()
	}
}
