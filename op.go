// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"code.hybscloud.com/kont"
)

// Kind discriminates effect descriptors.
type Kind uint8

const (
	KindTake Kind = iota + 1
	KindPut
	KindCall
	KindApply
	KindCps
	KindFork
	KindSpawn
	KindJoin
	KindCancel
	KindCancelled
	KindFlush
	KindRace
	KindParallel
	KindTry
)

var kindNames = [...]string{
	KindTake:      "take",
	KindPut:       "put",
	KindCall:      "call",
	KindApply:     "apply",
	KindCps:       "cps",
	KindFork:      "fork",
	KindSpawn:     "spawn",
	KindJoin:      "join",
	KindCancel:    "cancel",
	KindCancelled: "cancelled",
	KindFlush:     "flush",
	KindRace:      "race",
	KindParallel:  "parallel",
	KindTry:       "try",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Effect is an immutable instruction yielded by a process and
// interpreted by the scheduler. The set of effects is closed.
type Effect interface {
	Kind() Kind
	effect()
}

// Func is a function invoked by Call, Fork, Spawn and Scheduler.Run.
// It may return a plain value, a Future to await or a Coroutine to run.
type Func func(args ...any) (any, error)

// Method is a function invoked by Apply with an explicit receiver.
type Method func(recv any, args ...any) (any, error)

// CpsFunc is a callback-style function invoked by Cps. It reports its
// outcome by calling done exactly once, from any goroutine, and may
// return a function that aborts the pending operation.
type CpsFunc func(done func(result any, err error), args ...any) (cancel func())

type takeEffect struct {
	ch    any
	take  func(cb func(v any, ok bool)) (cancel func())
	maybe bool
}

func (takeEffect) effect() {}

func (e takeEffect) Kind() Kind { return KindTake }

func (e takeEffect) String() string {
	if e.maybe {
		return "take(maybe)"
	}
	return "take"
}

func takeFrom[T any](op string, ch *Channel[T], match []func(T) bool, maybe bool) Effect {
	if ch == nil {
		usage(op, "nil channel")
	}
	var m func(T) bool
	switch len(match) {
	case 0:
	case 1:
		m = match[0]
	default:
		usage(op, "at most one match function")
	}
	return takeEffect{
		ch: ch,
		take: func(cb func(any, bool)) func() {
			return ch.Take(func(item T, ok bool) { cb(item, ok) }, m)
		},
		maybe: maybe,
	}
}

// Take waits for the next item of ch accepted by the optional match.
// When ch is closed and drained the process ends as if it returned.
func Take[T any](ch *Channel[T], match ...func(T) bool) Effect {
	return takeFrom("Take", ch, match, false)
}

// TakeMaybe is Take that resumes with End instead of ending the process
// when ch is closed and drained.
func TakeMaybe[T any](ch *Channel[T], match ...func(T) bool) Effect {
	return takeFrom("TakeMaybe", ch, match, true)
}

type putEffect struct {
	ch  any
	put func() error
}

func (putEffect) effect() {}

func (putEffect) Kind() Kind { return KindPut }

// Put puts item into ch and resumes with nil, or fails with the buffer's
// overflow error.
func Put[T any](ch *Channel[T], item T) Effect {
	if ch == nil {
		usage("Put", "nil channel")
	}
	return putEffect{ch: ch, put: func() error { return ch.Put(item) }}
}

type callEffect struct {
	kind Kind
	name string
	fn   Func
	args []any
}

func (callEffect) effect() {}

func (e callEffect) Kind() Kind { return e.kind }

func (e callEffect) String() string { return e.kind.String() + "(" + e.name + ")" }

// Call invokes fn with args. A returned Future is awaited and a returned
// Coroutine runs as a child process; any other value resumes at once.
// fn may be a Func, a func() (any, error), a func(*Yielder) (any, error)
// routine body, a kont.Eff[any], a kont.Expr[any] or a Coroutine.
func Call(fn any, args ...any) Effect {
	name, f := bind("Call", fn, args)
	return callEffect{kind: KindCall, name: name, fn: f, args: args}
}

// Apply invokes method with recv as its receiver, like Call.
func Apply(recv any, method Method, args ...any) Effect {
	if method == nil {
		usage("Apply", "nil method")
	}
	f := func(args ...any) (any, error) { return method(recv, args...) }
	return callEffect{kind: KindApply, name: funcName(method), fn: f, args: args}
}

type cpsEffect struct {
	name string
	fn   CpsFunc
	args []any
}

func (cpsEffect) effect() {}

func (cpsEffect) Kind() Kind { return KindCps }

func (e cpsEffect) String() string { return "cps(" + e.name + ")" }

// Cps invokes a callback-style function and resumes with what it reports.
func Cps(fn CpsFunc, args ...any) Effect {
	if fn == nil {
		usage("Cps", "nil function")
	}
	return cpsEffect{name: funcName(fn), fn: fn, args: args}
}

type forkEffect struct {
	name     string
	fn       Func
	args     []any
	detached bool
}

func (forkEffect) effect() {}

func (e forkEffect) Kind() Kind {
	if e.detached {
		return KindSpawn
	}
	return KindFork
}

func (e forkEffect) String() string { return e.Kind().String() + "(" + e.name + ")" }

// Fork starts fn as a child process attached to the current one and
// resumes with its *Task. fn accepts the same forms as Call.
func Fork(fn any, args ...any) Effect {
	name, f := bind("Fork", fn, args)
	return forkEffect{name: name, fn: f, args: args}
}

// Spawn is Fork for a detached process: its failure does not abort the
// current process and cancelling the current process does not cancel it.
func Spawn(fn any, args ...any) Effect {
	name, f := bind("Spawn", fn, args)
	return forkEffect{name: name, fn: f, args: args, detached: true}
}

type joinEffect struct{ task *Task }

func (joinEffect) effect() {}

func (joinEffect) Kind() Kind { return KindJoin }

// Join waits for task to settle and resumes with its result.
// Joining a cancelled task cancels the joining process.
func Join(task *Task) Effect {
	if task == nil {
		usage("Join", "nil task")
	}
	return joinEffect{task: task}
}

type cancelEffect struct{ task *Task }

func (cancelEffect) effect() {}

func (cancelEffect) Kind() Kind { return KindCancel }

// Cancel cancels task if it is running and resumes at once.
func Cancel(task *Task) Effect {
	if task == nil {
		usage("Cancel", "nil task")
	}
	return cancelEffect{task: task}
}

type cancelledEffect struct{}

func (cancelledEffect) effect() {}

func (cancelledEffect) Kind() Kind { return KindCancelled }

// Cancelled resumes with whether the current process has been cancelled.
// It is meant for cleanup code.
func Cancelled() Effect { return cancelledEffect{} }

type flushEffect struct {
	ch    any
	flush func(cb func(v any, ok bool))
}

func (flushEffect) effect() {}

func (flushEffect) Kind() Kind { return KindFlush }

// Flush resumes with every item buffered in ch as a []T, or with End when
// ch is closed and drained.
func Flush[T any](ch *Channel[T]) Effect {
	if ch == nil {
		usage("Flush", "nil channel")
	}
	return flushEffect{
		ch: ch,
		flush: func(cb func(any, bool)) {
			ch.Flush(func(items []T, ok bool) { cb(items, ok) })
		},
	}
}

type raceEffect struct {
	keys    []string
	effects map[string]any
}

func (raceEffect) effect() {}

func (raceEffect) Kind() Kind { return KindRace }

// Race runs every entry concurrently and resumes with a single-entry map
// holding the first genuine result. The others are cancelled. Any error
// fails the race at once. Entries are started in key order.
func Race(effects map[string]any) Effect {
	keys := make([]string, 0, len(effects))
	for k := range effects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := make(map[string]any, len(effects))
	for k, v := range effects {
		m[k] = v
	}
	return raceEffect{keys: keys, effects: m}
}

type parallelEffect struct{ effects []any }

func (parallelEffect) effect() {}

func (parallelEffect) Kind() Kind { return KindParallel }

// Parallel runs every entry concurrently and resumes with their results
// in order once all complete. The first error, End or cancellation
// cancels the rest and becomes the outcome.
func Parallel(effects ...any) Effect {
	return parallelEffect{effects: append([]any(nil), effects...)}
}

type tryEffect struct{ eff any }

func (tryEffect) effect() {}

func (tryEffect) Kind() Kind { return KindTry }

// Try runs eff and resumes with kont.Right(result) on success or
// kont.Left(err) on failure instead of failing the process.
func Try(eff any) Effect { return tryEffect{eff: eff} }

// tryResult is the value a Try effect resumes with.
type tryResult = kont.Either[error, any]

// bind normalizes the function forms accepted by Call and Fork.
func bind(op string, fn any, args []any) (string, Func) {
	noArgs := func() {
		if len(args) > 0 {
			usage(op, fmt.Sprintf("%T takes no arguments", fn))
		}
	}
	switch f := fn.(type) {
	case nil:
		usage(op, "nil function")
	case Func:
		if f == nil {
			usage(op, "nil function")
		}
		return funcName(f), f
	case func(...any) (any, error):
		if f == nil {
			usage(op, "nil function")
		}
		return funcName(f), f
	case func() (any, error):
		noArgs()
		if f == nil {
			usage(op, "nil function")
		}
		return funcName(f), func(...any) (any, error) { return f() }
	case func(*Yielder) (any, error):
		noArgs()
		if f == nil {
			usage(op, "nil function")
		}
		return funcName(f), func(...any) (any, error) { return Routine(f), nil }
	case kont.Eff[any]:
		noArgs()
		return "eff", func(...any) (any, error) { return FromEff(f), nil }
	case kont.Expr[any]:
		noArgs()
		return "expr", func(...any) (any, error) { return FromExpr(f), nil }
	case Coroutine:
		noArgs()
		return fmt.Sprintf("%T", f), func(...any) (any, error) { return f, nil }
	}
	usage(op, fmt.Sprintf("%T is not a function", fn))
	return "", nil
}

// funcName returns the short name of a function value for diagnostics.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "anonymous"
	}
	name := rf.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
