// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive Cont-world process.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// ExprLoop runs a recursive Expr-world process.
// step returns Left(nextState) to continue or Right(result) to finish.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	m := step(initial)
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		if left, ok := m.Value.GetLeft(); ok {
			return ExprLoop(left, step)
		}
		right, _ := m.Value.GetRight()
		return kont.ExprReturn(right)
	}
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, A])
		if left, ok := e.GetLeft(); ok {
			result := ExprLoop(left, step)
			return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
		}
		right, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(right), Frame: kont.ReturnFrame{}}
	}
	bf.Next = kont.ReturnFrame{}
	var zero A
	return kont.Expr[A]{
		Value: zero,
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}

// Fold takes items from ch until it is closed and drained, folding
// each into the state with f, and returns the final state.
func Fold[T, S any](ch *Channel[T], initial S, f func(S, T) S) kont.Eff[S] {
	if ch == nil {
		usage("Fold", "nil channel")
	}
	take := TakeMaybe(ch)
	return Loop(initial, func(s S) kont.Eff[kont.Either[S, S]] {
		return YieldBind(take, func(v any) kont.Eff[kont.Either[S, S]] {
			if v == End {
				return kont.Pure(kont.Right[S, S](s))
			}
			item, _ := v.(T)
			return kont.Pure(kont.Left[S, S](f(s, item)))
		})
	})
}

// ExprFold is Fold for Expr-world processes.
func ExprFold[T, S any](ch *Channel[T], initial S, f func(S, T) S) kont.Expr[S] {
	if ch == nil {
		usage("ExprFold", "nil channel")
	}
	take := TakeMaybe(ch)
	return ExprLoop(initial, func(s S) kont.Expr[kont.Either[S, S]] {
		return ExprYieldBind(take, func(v any) kont.Expr[kont.Either[S, S]] {
			if v == End {
				return kont.ExprReturn(kont.Right[S, S](s))
			}
			item, _ := v.(T)
			return kont.ExprReturn(kont.Left[S, S](f(s, item)))
		})
	})
}
