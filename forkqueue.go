// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

// member is one computation tracked by a fork queue.
type member struct {
	name   string
	cancel func()
	main   bool
	done   bool
}

// forkQueue aggregates a main computation and its attached forks.
// It completes with the main result once every member completed, or
// fails with the first member failure after cancelling the others.
// cb fires at most once.
type forkQueue struct {
	members   []*member
	result    any
	completed bool
	cb        func(v any, err error)
}

func newForkQueue(cb func(v any, err error)) *forkQueue {
	return &forkQueue{cb: cb}
}

// add tracks a member and returns its completion continuation.
// The first member added is the main computation.
func (q *forkQueue) add(name string, cancel func()) func(v any, err error) {
	m := &member{name: name, cancel: cancel, main: len(q.members) == 0 && !q.completed}
	q.members = append(q.members, m)
	return func(v any, err error) {
		if q.completed || m.done {
			return
		}
		m.done = true
		q.remove(m)
		if err != nil {
			q.abort(err)
			return
		}
		if m.main {
			q.result = v
		}
		if len(q.members) == 0 {
			q.completed = true
			q.cb(q.result, nil)
		}
	}
}

func (q *forkQueue) remove(m *member) {
	for i, x := range q.members {
		if x == m {
			q.members = append(q.members[:i], q.members[i+1:]...)
			return
		}
	}
}

// abort cancels every member and fails the queue with err.
func (q *forkQueue) abort(err error) {
	if q.completed {
		return
	}
	q.cancelAll()
	q.cb(nil, err)
}

// cancelAll cancels every remaining member, main first, and silences
// their continuations.
func (q *forkQueue) cancelAll() {
	if q.completed {
		return
	}
	q.completed = true
	members := q.members
	q.members = nil
	for _, m := range members {
		m.done = true
	}
	for _, m := range members {
		m.cancel()
	}
}

// names lists the tracked members.
func (q *forkQueue) names() []string {
	out := make([]string, len(q.members))
	for i, m := range q.members {
		out[i] = m.name
	}
	return out
}
