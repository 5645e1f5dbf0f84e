// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// TaskState is the lifecycle state of a Task.
type TaskState uint32

const (
	// TaskRunning is the state of a task that has not settled.
	TaskRunning TaskState = iota
	// TaskDone is the state of a task that completed with a value.
	TaskDone
	// TaskCancelled is the state of a task that settled by cancellation.
	TaskCancelled
	// TaskAborted is the state of a task that failed.
	TaskAborted
)

func (s TaskState) String() string {
	switch s {
	case TaskRunning:
		return "running"
	case TaskDone:
		return "done"
	case TaskCancelled:
		return "cancelled"
	case TaskAborted:
		return "aborted"
	}
	return "unknown"
}

// Task is the handle of a process. Its queries are safe for concurrent use.
type Task struct {
	id    string
	name  string
	s     *Scheduler
	p     *proc
	state atomix.Uint32
	done  chan struct{}

	// written once before done is closed
	result any
	err    error

	mu       sync.Mutex
	children []*Task
	detached []*Task
}

func newTask(s *Scheduler, name string) *Task {
	return &Task{
		id:   uuid.NewString(),
		name: name,
		s:    s,
		done: make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Name returns the process name.
func (t *Task) Name() string { return t.name }

// State returns the current state.
func (t *Task) State() TaskState { return TaskState(t.state.Load()) }

// IsRunning reports whether the task has not settled.
func (t *Task) IsRunning() bool { return t.State() == TaskRunning }

// IsCancelled reports whether the task settled by cancellation.
func (t *Task) IsCancelled() bool { return t.State() == TaskCancelled }

// IsAborted reports whether the task failed.
func (t *Task) IsAborted() bool { return t.State() == TaskAborted }

// Done returns a channel closed when the task settles.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the value the task completed with. A cancelled task
// reports TaskCancel. Valid once Done is closed.
func (t *Task) Result() any { return t.result }

// Err returns the failure of an aborted task. Valid once Done is closed.
func (t *Task) Err() error { return t.err }

// Wait blocks until the task settles or ctx is done.
// Cancellation is not a failure: a cancelled task yields TaskCancel and
// a nil error. Wait must not be called from inside a process.
func (t *Task) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel cancels the task and its attached descendants. It is a no-op
// on a settled or already cancelled task and may be called from any
// goroutine.
func (t *Task) Cancel() {
	t.s.dom.post(t.p.cancel)
}

// Children returns the attached forks that have not settled.
func (t *Task) Children() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Task(nil), t.children...)
}

// Detached returns every task spawned by this task.
func (t *Task) Detached() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Task(nil), t.detached...)
}

func (t *Task) addChild(c *Task) {
	t.mu.Lock()
	t.children = append(t.children, c)
	t.mu.Unlock()
}

func (t *Task) removeChild(c *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, x := range t.children {
		if x == c {
			t.children = append(t.children[:i], t.children[i+1:]...)
			return
		}
	}
}

func (t *Task) addDetached(c *Task) {
	t.mu.Lock()
	t.detached = append(t.detached, c)
	t.mu.Unlock()
}

// settle records the outcome. It runs once, inside the domain.
func (t *Task) settle(state TaskState, v any, err error) {
	t.result, t.err = v, err
	t.state.Store(uint32(state))
	close(t.done)
}
