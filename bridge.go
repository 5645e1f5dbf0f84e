// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/kont"
)

// request is implemented by the kont operations that carry a value to
// yield to the scheduler. resume converts the outcome into the value the
// suspended computation is resumed with; kont frames cannot carry a nil
// interface.
type request interface {
	request() any
	resume(v any) any
}

// Yield is the effect operation for yielding a value to the scheduler.
// Performing it suspends the computation until the scheduler resumes it
// with the outcome of Value. A nil outcome resumes it with struct{}{}.
type Yield struct {
	kont.Phantom[any]
	Value any
}

func (o Yield) request() any { return o.Value }

func (o Yield) resume(v any) any {
	if v == nil {
		return struct{}{}
	}
	return v
}

// outcome carries a possibly nil outcome through kont.
type outcome struct{ v any }

func unbox(o outcome) any { return o.v }

// yieldOp is Yield resumed with a boxed outcome, unwrapped by Perform
// and the fused helpers so they observe nil outcomes as nil.
type yieldOp struct {
	kont.Phantom[outcome]
	value any
}

func (o yieldOp) request() any { return o.value }

func (o yieldOp) resume(v any) any { return outcome{v: v} }

// TakeOp is the effect operation for a typed Take.
// It resumes with the item; the end of the channel finishes the process.
// Channels of interface type carrying nil items need TakeBind instead.
type TakeOp[T any] struct {
	kont.Phantom[T]
	Chan *Channel[T]
}

func (o TakeOp[T]) request() any { return Take(o.Chan) }

func (o TakeOp[T]) resume(v any) any { return v }

// Perform yields v from a Cont-world process.
func Perform(v any) kont.Eff[any] {
	return kont.Map[kont.Resumed, outcome, any](kont.Perform(yieldOp{value: v}), unbox)
}

// ExprPerform yields v from an Expr-world process.
// A nil outcome resumes it with struct{}{}.
func ExprPerform(v any) kont.Expr[any] {
	return kont.ExprPerform(Yield{Value: v})
}

// FromEff adapts a Cont-world computation into a Coroutine.
func FromEff(m kont.Eff[any]) Coroutine {
	return FromExpr(kont.Reify(m))
}

// Reflect converts an Expr-world process to Cont-world.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}
