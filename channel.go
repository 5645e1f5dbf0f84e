// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

// taker is a consumer waiting on a channel.
type taker[T any] struct {
	cb    func(item T, ok bool)
	match func(T) bool
}

// Channel is a mailbox pairing a Buffer with a FIFO queue of waiting
// consumers. Consumers are served first-registered-first-matched.
//
// A Channel is not safe for concurrent use. It belongs to the execution
// domain of the scheduler whose processes use it: touch it from effects,
// from process bodies, or through Scheduler.Submit.
//
// Consumers observe the end of a closed channel as ok == false.
type Channel[T any] struct {
	buf    Buffer[T]
	takers []*taker[T]
	closed bool
}

// NewChannel creates a channel. With no argument the channel buffers up
// to DefaultBufferLimit items and rejects overflow.
func NewChannel[T any](buf ...Buffer[T]) *Channel[T] {
	if len(buf) == 0 {
		return &Channel[T]{buf: Fixed[T](DefaultBufferLimit)}
	}
	if len(buf) > 1 {
		usage("NewChannel", "at most one buffer")
	}
	if buf[0] == nil {
		usage("NewChannel", "nil buffer")
	}
	return &Channel[T]{buf: buf[0]}
}

func (c *Channel[T]) check() {
	if c.closed && len(c.takers) > 0 {
		panic(&InternalError{Msg: "closed channel with pending takers"})
	}
	if len(c.takers) > 0 && !c.buf.IsEmpty() {
		panic(&InternalError{Msg: "pending takers with non-empty buffer"})
	}
}

// Put delivers item to the first waiting consumer that accepts it.
// With no consumer waiting, item goes to the buffer and the buffer's
// overflow error is returned. If consumers are waiting but none accepts
// item, it is discarded. Put on a closed channel is a no-op.
func (c *Channel[T]) Put(item T) error {
	c.check()
	if c.closed {
		return nil
	}
	if len(c.takers) == 0 {
		return c.buf.Put(item)
	}
	for i, t := range c.takers {
		if t.match == nil || t.match(item) {
			c.takers = append(c.takers[:i], c.takers[i+1:]...)
			t.cb(item, true)
			return nil
		}
	}
	return nil
}

// Take registers cb for the next item accepted by match; a nil match
// accepts anything. cb runs immediately when the buffer holds an item or
// the channel is closed and drained. The returned cancel removes a
// pending registration and is a no-op otherwise.
func (c *Channel[T]) Take(cb func(item T, ok bool), match func(T) bool) (cancel func()) {
	c.check()
	if cb == nil {
		usage("Channel.Take", "nil callback")
	}
	if c.closed && c.buf.IsEmpty() {
		var zero T
		cb(zero, false)
		return noop
	}
	if item, ok := c.buf.Take(); ok {
		cb(item, true)
		return noop
	}
	t := &taker[T]{cb: cb, match: match}
	c.takers = append(c.takers, t)
	return func() { c.remove(t) }
}

func (c *Channel[T]) remove(t *taker[T]) {
	for i, x := range c.takers {
		if x == t {
			c.takers = append(c.takers[:i], c.takers[i+1:]...)
			return
		}
	}
}

// Flush passes the whole buffer to cb as one batch, or reports the end
// when the channel is closed and drained.
func (c *Channel[T]) Flush(cb func(items []T, ok bool)) {
	c.check()
	if cb == nil {
		usage("Channel.Flush", "nil callback")
	}
	if c.closed && c.buf.IsEmpty() {
		cb(nil, false)
		return
	}
	cb(c.buf.Flush(), true)
}

// Close closes the channel and ends every waiting consumer.
// Closing a closed channel is a no-op.
func (c *Channel[T]) Close() {
	c.check()
	if c.closed {
		return
	}
	c.closed = true
	takers := c.takers
	c.takers = nil
	var zero T
	for _, t := range takers {
		t.cb(zero, false)
	}
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool { return c.closed }

// Waiting returns the number of pending consumers.
func (c *Channel[T]) Waiting() int { return len(c.takers) }

// Buffered returns the number of buffered items.
func (c *Channel[T]) Buffered() int { return c.buf.Len() }

func noop() {}
