// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockOn returns a routine body that waits on ch and records how it
// ended.
func blockOn(ch *saga.Channel[int], ended *atomic.Value) func(*saga.Yielder) (any, error) {
	return func(y *saga.Yielder) (any, error) {
		v, err := y.Yield(saga.Take(ch))
		if err != nil {
			ended.Store(err)
			return nil, err
		}
		return v, nil
	}
}

func TestRunPlainValue(t *testing.T) {
	s, _ := newScheduler(t)
	task := s.Run(func() (any, error) { return 42, nil })
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, saga.TaskDone, task.State())
	assert.NotEmpty(t, task.ID())
	assert.True(t, s.Idle())
}

func TestRunWithArgs(t *testing.T) {
	s, _ := newScheduler(t)
	sum := func(args ...any) (any, error) { return args[0].(int) + args[1].(int), nil }
	v, err := wait(t, s.Run(sum, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestRunAwaitsFuture(t *testing.T) {
	s, _ := newScheduler(t)
	p := saga.NewPromise()
	task := s.Run(func() (any, error) { return p, nil })
	assert.True(t, task.IsRunning())
	assert.True(t, p.Resolve("late"))
	assert.False(t, p.Resolve("again"))
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestTakeAndPutBetweenProcesses(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[string]()
	consumer := s.Run(func(y *saga.Yielder) (any, error) {
		a, err := saga.Await[string](y, saga.Take(ch))
		if err != nil {
			return nil, err
		}
		b, err := saga.Await[string](y, saga.Take(ch))
		return a + b, err
	})
	producer := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Put(ch, "ping")); err != nil {
			return nil, err
		}
		return y.Yield(saga.Put(ch, "pong"))
	})
	_, err := wait(t, producer)
	require.NoError(t, err)
	v, err := wait(t, consumer)
	require.NoError(t, err)
	assert.Equal(t, "pingpong", v)
}

func TestTakeOnClosedChannelEndsProcess(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	var reason atomic.Value
	task := s.Run(blockOn(ch, &reason))
	s.Submit(ch.Close)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, saga.TaskDone, task.State())
	assert.Equal(t, saga.ErrChannelEnd, reason.Load())
}

func TestTakeMaybeResumesWithEnd(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.TakeMaybe(ch))
	})
	s.Submit(ch.Close)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Same(t, saga.End, v)
}

func TestFlushEffect(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel(saga.Sliding[int](2))
	for i := 1; i <= 3; i++ {
		saga.PutAsync(s, ch, i)
	}
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Flush(ch))
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, v)

	s.Submit(ch.Close)
	v, err = wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Flush(ch))
	}))
	require.NoError(t, err)
	assert.Same(t, saga.End, v)
}

func TestPutOverflowFailsProcess(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel(saga.Fixed[int](1))
	task := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Put(ch, 1)); err != nil {
			return nil, err
		}
		return y.Yield(saga.Put(ch, 2))
	})
	_, err := wait(t, task)
	assert.ErrorIs(t, err, saga.ErrBufferOverflow)
	assert.True(t, task.IsAborted())
}

func TestCallForms(t *testing.T) {
	s, _ := newScheduler(t)
	type counter struct{ n int }
	add := func(recv any, args ...any) (any, error) {
		c := recv.(*counter)
		c.n += args[0].(int)
		return c.n, nil
	}
	c := &counter{n: 1}
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		a, err := saga.Await[int](y, saga.Call(func(args ...any) (any, error) { return args[0], nil }, 10))
		if err != nil {
			return nil, err
		}
		b, err := saga.Await[int](y, saga.Apply(c, add, 5))
		if err != nil {
			return nil, err
		}
		nested, err := saga.Await[int](y, saga.Call(func(y *saga.Yielder) (any, error) {
			return y.Yield(saga.Delay(time.Millisecond, 100))
		}))
		if err != nil {
			return nil, err
		}
		return a + b + nested, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 10+6+100, v)
}

func TestCallErrorIsThrown(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		_, err := y.Yield(saga.Call(func() (any, error) { return nil, boom }))
		if errors.Is(err, boom) {
			return "caught", nil
		}
		return nil, err
	}))
	require.NoError(t, err)
	assert.Equal(t, "caught", v)
}

func TestCallPanicIsThrown(t *testing.T) {
	s, _ := newScheduler(t)
	_, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Call(func() (any, error) { panic("bad") }))
	}))
	var pe *saga.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad", pe.Value)
}

func TestCps(t *testing.T) {
	s, _ := newScheduler(t)
	double := func(done func(any, error), args ...any) func() {
		n := args[0].(int)
		go done(n*2, nil)
		return nil
	}
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Cps(double, 21))
	}))
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCpsSynchronousDone(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	_, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Cps(func(done func(any, error), _ ...any) func() {
			done(nil, boom)
			return nil
		}))
	}))
	assert.ErrorIs(t, err, boom)
}

// TestCpsSynchronousDoneSkipsHook settles a Cps before it returns its
// cancel hook. The hook must not run once the effect has settled.
func TestCpsSynchronousDoneSkipsHook(t *testing.T) {
	s, _ := newScheduler(t)
	var hook atomic.Int32
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.Cps(func(done func(any, error), _ ...any) func() {
				done("now", nil)
				return func() { hook.Add(1) }
			}),
			"b": saga.Delay(time.Minute, "late"),
		}))
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "now"}, v)
	assert.Equal(t, int32(0), hook.Load())
}

func TestCpsCancelRunsHookOnce(t *testing.T) {
	s, _ := newScheduler(t)
	var hook atomic.Int32
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Cps(func(func(any, error), ...any) func() {
			return func() { hook.Add(1) }
		}))
	})
	require.True(t, task.IsRunning())
	task.Cancel()
	_, err := wait(t, task)
	require.NoError(t, err)
	assert.True(t, task.IsCancelled())
	task.Cancel()
	assert.Equal(t, int32(1), hook.Load())
}

func TestForkJoin(t *testing.T) {
	s, _ := newScheduler(t)
	p := saga.NewPromise()
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		child, err := saga.Await[*saga.Task](y, saga.Fork(func() (any, error) { return p, nil }))
		if err != nil {
			return nil, err
		}
		return y.Yield(saga.Join(child))
	})
	children := parent.Children()
	require.Len(t, children, 1)
	assert.True(t, children[0].IsRunning())

	p.Resolve("child")
	v, err := wait(t, parent)
	require.NoError(t, err)
	assert.Equal(t, "child", v)
	assert.Empty(t, parent.Children())
}

func TestParentWaitsForForks(t *testing.T) {
	s, _ := newScheduler(t)
	p := saga.NewPromise()
	var child *saga.Task
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		var err error
		child, err = saga.Await[*saga.Task](y, saga.Fork(func() (any, error) { return p, nil }))
		return "parent", err
	})
	assert.True(t, parent.IsRunning())
	p.Resolve("child")
	v, err := wait(t, parent)
	require.NoError(t, err)
	assert.Equal(t, "parent", v)
	assert.Equal(t, "child", child.Result())
}

func TestForkFailureAbortsParent(t *testing.T) {
	var uncaught []error
	s, logs := newScheduler(t, saga.WithOnError(func(err error) { uncaught = append(uncaught, err) }))
	boom := errors.New("boom")
	p := saga.NewPromise()
	ch := saga.NewChannel[int]()
	var sibling atomic.Value

	parent := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Fork(blockOn(ch, &sibling))); err != nil {
			return nil, err
		}
		if _, err := y.Yield(saga.Fork(func() (any, error) { return p, nil })); err != nil {
			return nil, err
		}
		_, err := y.Yield(saga.Take(ch))
		return "unreachable", err
	})
	p.Reject(boom)

	_, err := wait(t, parent)
	require.ErrorIs(t, err, boom)
	var pe *saga.ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Len(t, pe.Trace, 2)
	assert.True(t, parent.IsAborted())
	assert.Equal(t, saga.ErrCancelled, sibling.Load())
	assert.Equal(t, 0, ch.Waiting())

	require.Len(t, uncaught, 1)
	assert.Same(t, err, uncaught[0])
	assert.Contains(t, logs.String(), "uncaught")
}

func TestForkSetupFailureAbortsParent(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		_, err := y.Yield(saga.Fork(func() (any, error) { return nil, boom }))
		return "unreachable", err
	})
	_, err := wait(t, parent)
	assert.ErrorIs(t, err, boom)
}

func TestSpawnFailureIsIsolated(t *testing.T) {
	var uncaught atomic.Int32
	s, _ := newScheduler(t, saga.WithOnError(func(error) { uncaught.Add(1) }))
	boom := errors.New("boom")
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Spawn(func() (any, error) { return nil, boom })); err != nil {
			return nil, err
		}
		return "parent", nil
	})
	v, err := wait(t, parent)
	require.NoError(t, err)
	assert.Equal(t, "parent", v)
	require.Len(t, parent.Detached(), 1)
	assert.True(t, parent.Detached()[0].IsAborted())
	assert.Equal(t, int32(1), uncaught.Load())
}

func TestSpawnSurvivesParentCancel(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	var ended atomic.Value
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Spawn(blockOn(ch, &ended))); err != nil {
			return nil, err
		}
		return y.Yield(saga.Take(ch))
	})
	parent.Cancel()
	assert.True(t, parent.IsCancelled())
	spawned := parent.Detached()[0]
	assert.True(t, spawned.IsRunning())

	saga.PutAsync(s, ch, 9)
	v, err := wait(t, spawned)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

// TestCancelCascade cancels a parent with two forks: both forks are
// cancelled by the time the parent settles.
func TestCancelCascade(t *testing.T) {
	s, logs := newScheduler(t)
	ch := saga.NewChannel[int]()
	var a, b atomic.Value
	var cleanup atomic.Bool
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(saga.Fork(blockOn(ch, &a))); err != nil {
			return nil, err
		}
		if _, err := y.Yield(saga.Fork(blockOn(ch, &b))); err != nil {
			return nil, err
		}
		_, err := y.Yield(saga.Take(ch))
		if errors.Is(err, saga.ErrCancelled) {
			cancelled, _ := saga.Await[bool](y, saga.Cancelled())
			cleanup.Store(cancelled)
		}
		return nil, err
	})
	children := parent.Children()
	require.Len(t, children, 2)
	assert.Equal(t, 3, ch.Waiting())

	parent.Cancel()
	v, err := wait(t, parent)
	require.NoError(t, err)
	assert.Same(t, saga.TaskCancel, v)
	assert.Equal(t, saga.TaskCancelled, parent.State())
	for _, c := range children {
		assert.True(t, c.IsCancelled(), c.Name())
	}
	assert.Equal(t, saga.ErrCancelled, a.Load())
	assert.Equal(t, saga.ErrCancelled, b.Load())
	assert.True(t, cleanup.Load())
	assert.Equal(t, 0, ch.Waiting())
	assert.Contains(t, logs.String(), "has been cancelled")

	parent.Cancel()
	assert.Equal(t, saga.TaskCancelled, parent.State())
}

func TestCancelSettledTaskIsNoop(t *testing.T) {
	s, _ := newScheduler(t)
	task := s.Run(func() (any, error) { return 1, nil })
	_, err := wait(t, task)
	require.NoError(t, err)
	task.Cancel()
	assert.Equal(t, saga.TaskDone, task.State())
	assert.Equal(t, 1, task.Result())
}

// TestCancelParentStopsBlockedChild covers a fork blocked on an empty
// channel that nobody closes.
func TestCancelParentStopsBlockedChild(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	var ended atomic.Value
	var child *saga.Task
	parent := s.Run(func(y *saga.Yielder) (any, error) {
		var err error
		child, err = saga.Await[*saga.Task](y, saga.Fork(blockOn(ch, &ended)))
		return nil, err
	})
	require.True(t, parent.IsRunning())
	parent.Cancel()
	_, err := wait(t, child)
	require.NoError(t, err)
	assert.True(t, child.IsCancelled())
	assert.Nil(t, child.Err())
	assert.Equal(t, 0, ch.Waiting())
}

func TestCancelEffect(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	var ended atomic.Value
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		child, err := saga.Await[*saga.Task](y, saga.Fork(blockOn(ch, &ended)))
		if err != nil {
			return nil, err
		}
		if _, err := y.Yield(saga.Cancel(child)); err != nil {
			return nil, err
		}
		return child.State(), nil
	}))
	require.NoError(t, err)
	assert.Equal(t, saga.TaskCancelled, v)
}

func TestSelfCancel(t *testing.T) {
	s, _ := newScheduler(t)
	gate := saga.NewPromise()
	var self *saga.Task
	self = s.Run(func(y *saga.Yielder) (any, error) {
		if _, err := y.Yield(gate); err != nil {
			return nil, err
		}
		_, err := y.Yield(saga.Cancel(self))
		return "unreachable", err
	})
	gate.Resolve(nil)
	v, err := wait(t, self)
	require.NoError(t, err)
	assert.Same(t, saga.TaskCancel, v)
}

func TestJoinCancelledTaskCancelsJoiner(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	var ended atomic.Value
	target := s.Run(blockOn(ch, &ended))
	joiner := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Join(target))
	})
	target.Cancel()
	v, err := wait(t, joiner)
	require.NoError(t, err)
	assert.Same(t, saga.TaskCancel, v)
	assert.True(t, joiner.IsCancelled())
}

func TestJoinAbortedTask(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	target := s.Run(func() (any, error) { return nil, boom })
	_, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Join(target))
	}))
	assert.ErrorIs(t, err, boom)
}

func TestJoinAcrossSchedulers(t *testing.T) {
	s1, _ := newScheduler(t)
	s2, _ := newScheduler(t)
	p := saga.NewPromise()
	target := s1.Run(func() (any, error) { return p, nil })
	joiner := s2.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Join(target))
	})
	p.Resolve("remote")
	v, err := wait(t, joiner)
	require.NoError(t, err)
	assert.Equal(t, "remote", v)
}

// TestRaceCancelsLoser checks that the losing entry's cancellation hook
// runs exactly once.
func TestRaceCancelsLoser(t *testing.T) {
	s, _ := newScheduler(t)
	a := saga.NewChannel[int]()
	var hook atomic.Int32
	pending := func(func(any, error), ...any) func() {
		return func() { hook.Add(1) }
	}
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.Take(a),
			"b": saga.Cps(pending),
		}))
	})
	saga.PutAsync(s, a, 7)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 7}, v)
	assert.Equal(t, int32(1), hook.Load())
}

func TestRaceIgnoresEnd(t *testing.T) {
	s, _ := newScheduler(t)
	closed := saga.NewChannel[int]()
	closed.Close()
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.TakeMaybe(closed),
			"b": saga.Delay(5*time.Millisecond, "v"),
		}))
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "v"}, v)
}

// TestRaceEndLosesToLaterValue closes one entry's channel before the
// other entry produces a value.
func TestRaceEndLosesToLaterValue(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	other := saga.NewChannel[int]()
	var hook atomic.Int32
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.TakeMaybe(ch),
			"b": saga.Take(other),
			"c": saga.Cps(func(func(any, error), ...any) func() {
				return func() { hook.Add(1) }
			}),
		}))
	})
	s.Submit(ch.Close)
	assert.True(t, task.IsRunning())
	saga.PutAsync(s, other, 3)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 3}, v)
	assert.Equal(t, int32(1), hook.Load())
}

func TestRaceIgnoresCancelledEntry(t *testing.T) {
	s, _ := newScheduler(t)
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.Cps(func(done func(any, error), _ ...any) func() {
				done(saga.TaskCancel, nil)
				return nil
			}),
			"b": saga.Delay(5*time.Millisecond, "v"),
		}))
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "v"}, v)
}

// TestRaceOfDelays races a slow process against a fast one.
func TestRaceOfDelays(t *testing.T) {
	s, _ := newScheduler(t)
	var slowCancelled atomic.Bool
	slow := func(y *saga.Yielder) (any, error) {
		_, err := y.Yield(saga.Delay(time.Minute, "slow"))
		slowCancelled.Store(errors.Is(err, saga.ErrCancelled))
		return "slow", err
	}
	fast := func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Delay(5*time.Millisecond, "fast"))
	}
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"p1": saga.Call(slow),
			"p2": saga.Call(fast),
		}))
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"p2": "fast"}, v)
	assert.True(t, slowCancelled.Load())
}

func TestRaceErrorPreempts(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	ch := saga.NewChannel[int]()
	_, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.Take(ch),
			"b": saga.Call(func() (any, error) { return nil, boom }),
		}))
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ch.Waiting())
}

func TestParallel(t *testing.T) {
	s, _ := newScheduler(t)
	p := saga.NewPromise()
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Parallel(
			p,
			saga.Call(func() (any, error) { return 2, nil }),
			3,
		))
	})
	assert.True(t, task.IsRunning())
	p.Resolve(1)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, v)
}

func TestParallelSliceAndEmpty(t *testing.T) {
	s, _ := newScheduler(t)
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		a, err := y.Yield([]any{1, 2})
		if err != nil {
			return nil, err
		}
		b, err := y.Yield(saga.Parallel())
		return []any{a, b}, err
	}))
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1, 2}, []any{}}, v)
}

func TestParallelFailureCancelsSiblings(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	ch := saga.NewChannel[int]()
	p := saga.NewPromise()
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Parallel(saga.Take(ch), saga.Take(ch), p))
	})
	assert.Equal(t, 2, ch.Waiting())
	p.Reject(boom)
	_, err := wait(t, task)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ch.Waiting())
}

func TestParallelEndWins(t *testing.T) {
	s, _ := newScheduler(t)
	ch := saga.NewChannel[int]()
	other := saga.NewChannel[int]()
	task := s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Parallel(saga.TakeMaybe(ch), saga.Take(other)))
	})
	s.Submit(ch.Close)
	v, err := wait(t, task)
	require.NoError(t, err)
	assert.Same(t, saga.End, v)
	assert.Equal(t, 0, other.Waiting())
}

func TestTry(t *testing.T) {
	s, _ := newScheduler(t)
	boom := errors.New("boom")
	v, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		bad, err := y.Yield(saga.Try(saga.Call(func() (any, error) { return nil, boom })))
		if err != nil {
			return nil, err
		}
		good, err := y.Yield(saga.Try(saga.Call(func() (any, error) { return 1, nil })))
		return []any{bad, good}, err
	}))
	require.NoError(t, err)
	results := v.([]any)
	require.Len(t, results, 2)

	assertLeft(t, results[0], boom)
	assertRight(t, results[1], 1)
}

func TestMonitorSeesEffects(t *testing.T) {
	type event struct {
		kind   string
		id     saga.EffectID
		parent saga.EffectID
		label  string
	}
	var events []event
	m := saga.MonitorFuncs{
		Triggered: func(id, parentID saga.EffectID, label string, _ any) {
			events = append(events, event{"triggered", id, parentID, label})
		},
		Resolved:  func(id saga.EffectID, _ any) { events = append(events, event{"resolved", id, 0, ""}) },
		Rejected:  func(id saga.EffectID, _ error) { events = append(events, event{"rejected", id, 0, ""}) },
		Cancelled: func(id saga.EffectID) { events = append(events, event{"cancelled", id, 0, ""}) },
	}
	s, _ := newScheduler(t, saga.WithMonitor(m))
	ch := saga.NewChannel[int]()
	_, err := wait(t, s.Run(func(y *saga.Yielder) (any, error) {
		return y.Yield(saga.Race(map[string]any{
			"a": saga.Take(ch),
			"b": 1,
		}))
	}))
	require.NoError(t, err)
	require.Len(t, events, 6)
	r := events[0].id
	assert.Equal(t, []event{
		{"triggered", r, 0, ""},
		{"triggered", r + 1, r, "a"},
		{"triggered", r + 2, r, "b"},
		{"resolved", r + 2, 0, ""},
		{"cancelled", r + 1, 0, ""},
		{"resolved", r, 0, ""},
	}, events)
	assert.Equal(t, 0, ch.Waiting())
}
