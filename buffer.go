// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// DefaultBufferLimit is the capacity used when a non-positive limit is given.
const DefaultBufferLimit = 10

// Buffer stores channel items while no consumer is waiting.
type Buffer[T any] interface {
	IsEmpty() bool
	Len() int
	// Put admits item, applying the overflow policy when full.
	Put(item T) error
	// Take removes the oldest item. ok is false when the buffer is empty.
	Take() (item T, ok bool)
	// Flush removes and returns every buffered item, oldest first.
	Flush() []T
}

// Overflow selects what a full ring buffer does with a new item.
type Overflow uint8

const (
	// OverflowReject fails the put with ErrBufferOverflow.
	OverflowReject Overflow = iota
	// OverflowDrop discards the new item.
	OverflowDrop
	// OverflowSlide evicts the oldest item and admits the new one.
	OverflowSlide
	// OverflowExpand doubles the capacity and admits the new item.
	OverflowExpand
)

func (o Overflow) String() string {
	switch o {
	case OverflowReject:
		return "reject"
	case OverflowDrop:
		return "drop"
	case OverflowSlide:
		return "slide"
	case OverflowExpand:
		return "expand"
	}
	return "unknown"
}

type noneBuffer[T any] struct{}

func (noneBuffer[T]) IsEmpty() bool { return true }

func (noneBuffer[T]) Len() int { return 0 }

func (noneBuffer[T]) Put(T) error { return nil }

func (noneBuffer[T]) Take() (item T, _ bool) { return item, false }

func (noneBuffer[T]) Flush() []T { return []T{} }

// None returns a buffer that never holds anything.
// Items put to a channel with no waiting consumer are discarded.
func None[T any]() Buffer[T] { return noneBuffer[T]{} }

// Fixed returns a ring buffer of limit items that rejects overflow.
func Fixed[T any](limit int) Buffer[T] { return NewRing[T](limit, OverflowReject) }

// Dropping returns a ring buffer of limit items that drops new items on overflow.
func Dropping[T any](limit int) Buffer[T] { return NewRing[T](limit, OverflowDrop) }

// Sliding returns a ring buffer of limit items that evicts the oldest on overflow.
func Sliding[T any](limit int) Buffer[T] { return NewRing[T](limit, OverflowSlide) }

// Expanding returns a ring buffer that starts at limit items and doubles on overflow.
func Expanding[T any](limit int) Buffer[T] { return NewRing[T](limit, OverflowExpand) }

// Ring is a bounded FIFO buffer with an overflow policy.
// Storage is a bounded lfq.SPSC ring; the channel's single owner is
// both producer and consumer.
type Ring[T any] struct {
	q        *lfq.SPSC[T]
	slot     T
	length   int
	limit    int
	overflow Overflow
}

// NewRing creates a ring buffer holding up to limit items.
func NewRing[T any](limit int, overflow Overflow) *Ring[T] {
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	r := &Ring[T]{overflow: overflow}
	r.alloc(limit)
	return r
}

// ringCapacity returns the storage size for limit items: the next power
// of two strictly above limit.
func ringCapacity(limit int) int {
	n := 2
	for n <= limit {
		n <<= 1
	}
	return n
}

func (r *Ring[T]) alloc(limit int) {
	r.q = &lfq.SPSC[T]{}
	r.q.Init(ringCapacity(limit))
	r.limit = limit
	r.length = 0
}

// Cap returns the current capacity.
func (r *Ring[T]) Cap() int { return r.limit }

// Overflow returns the overflow policy.
func (r *Ring[T]) Overflow() Overflow { return r.overflow }

func (r *Ring[T]) IsEmpty() bool { return r.length == 0 }

func (r *Ring[T]) Len() int { return r.length }

func (r *Ring[T]) Put(item T) error {
	if r.length < r.limit {
		r.push(item)
		return nil
	}
	switch r.overflow {
	case OverflowReject:
		return ErrBufferOverflow
	case OverflowSlide:
		r.Take()
		r.push(item)
	case OverflowExpand:
		items := r.Flush()
		r.alloc(2 * r.limit)
		for _, it := range items {
			r.push(it)
		}
		r.push(item)
	}
	return nil
}

func (r *Ring[T]) push(item T) {
	r.slot = item
	if err := r.q.Enqueue(&r.slot); err != nil {
		if iox.IsWouldBlock(err) {
			panic(&InternalError{Msg: "ring storage full below buffer limit"})
		}
		panic(err)
	}
	var zero T
	r.slot = zero
	r.length++
}

func (r *Ring[T]) Take() (item T, ok bool) {
	if r.length == 0 {
		return item, false
	}
	item, err := r.q.Dequeue()
	if err != nil {
		if iox.IsWouldBlock(err) {
			panic(&InternalError{Msg: "ring storage empty with buffered items"})
		}
		panic(err)
	}
	r.length--
	return item, true
}

func (r *Ring[T]) Flush() []T {
	items := make([]T, 0, r.length)
	for r.length > 0 {
		it, _ := r.Take()
		items = append(items, it)
	}
	return items
}
