// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

// TakeEvery returns a helper that forks worker for every item taken
// from ch. The worker receives args followed by the item. The helper
// ends when ch is closed.
func TakeEvery[T any](ch *Channel[T], worker any, args ...any) *Helper {
	name, fn := bind("TakeEvery", worker, append(args[:len(args):len(args)], nil))
	return NewHelper("takeEvery("+name+")", &takeLoop{
		take: Take(ch),
		fork: forker(name, fn, args),
	})
}

// TakeLatest is TakeEvery that cancels the previous worker if it is
// still running when the next item arrives.
func TakeLatest[T any](ch *Channel[T], worker any, args ...any) *Helper {
	name, fn := bind("TakeLatest", worker, append(args[:len(args):len(args)], nil))
	return NewHelper("takeLatest("+name+")", &takeLoop{
		take:   Take(ch),
		fork:   forker(name, fn, args),
		latest: true,
	})
}

func forker(name string, fn Func, args []any) func(item any) Effect {
	return func(item any) Effect {
		return forkEffect{name: name, fn: fn, args: append(args[:len(args):len(args)], item)}
	}
}

const (
	loopTake = iota
	loopItem
	loopFork
	loopForked
)

// takeLoop is the coroutine behind TakeEvery and TakeLatest.
type takeLoop struct {
	take   Effect
	fork   func(item any) Effect
	latest bool

	state int
	item  any
	last  *Task
}

func (l *takeLoop) Next(v any) (any, bool, error) {
	switch l.state {
	case loopItem:
		l.item = v
		if l.latest && l.last != nil && l.last.IsRunning() {
			l.state = loopFork
			return Cancel(l.last), false, nil
		}
		l.state = loopForked
		return l.fork(v), false, nil
	case loopFork:
		l.state = loopForked
		return l.fork(l.item), false, nil
	case loopForked:
		l.item = nil
		if t, ok := v.(*Task); ok {
			l.last = t
		}
	}
	l.state = loopItem
	return l.take, false, nil
}

func (l *takeLoop) Throw(err error) (any, bool, error) { return nil, true, err }

func (l *takeLoop) Return(error) (any, bool, error) { return nil, true, nil }
