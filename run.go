// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import "sync"

// domain is the single cooperative scheduling domain of a scheduler.
// Posted work runs one item at a time, in posting order, on whichever
// goroutine holds the drain role. A post made while the domain is
// draining is queued, never run concurrently. Does not spawn goroutines.
type domain struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
}

// post queues fn. If the domain is idle the caller drains it before
// returning.
func (d *domain) post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()
	d.drain()
}

func (d *domain) drain() {
	var batch []func()
	i := 0
	defer func() {
		if r := recover(); r != nil {
			d.mu.Lock()
			if i+1 < len(batch) {
				d.queue = append(batch[i+1:len(batch):len(batch)], d.queue...)
			}
			d.draining = false
			d.mu.Unlock()
			panic(r)
		}
	}()
	for {
		d.mu.Lock()
		batch = d.queue
		d.queue = nil
		if len(batch) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		for i = 0; i < len(batch); i++ {
			batch[i]()
			batch[i] = nil
		}
	}
}

// idle reports whether no work is queued or running.
func (d *domain) idle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.draining && len(d.queue) == 0
}
