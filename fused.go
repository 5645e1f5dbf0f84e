// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/kont"
)

// YieldThen yields v, discards the outcome and continues with next.
// Fuses Perform(v) + Then.
func YieldThen[B any](v any, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(yieldOp{value: v}), next)
}

// YieldBind yields v and passes the outcome to f.
// Fuses Perform(v) + Bind.
func YieldBind[B any](v any, f func(any) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(yieldOp{value: v}), func(o outcome) kont.Eff[B] {
		return f(o.v)
	})
}

// TakeBind takes the next item of ch and passes it to f.
// Fuses Perform(Take(ch)) + Bind.
func TakeBind[T, B any](ch *Channel[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	if ch == nil {
		usage("TakeBind", "nil channel")
	}
	return kont.Bind(kont.Perform(yieldOp{value: Take(ch)}), func(o outcome) kont.Eff[B] {
		item, _ := o.v.(T)
		return f(item)
	})
}

// PutThen puts item into ch and continues with next.
// Fuses Perform(Put(ch, item)) + Then.
func PutThen[T, B any](ch *Channel[T], item T, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(yieldOp{value: Put(ch, item)}), next)
}

// TryBranch runs eff and calls onErr or onOK with its outcome.
// Fuses Perform(Try(eff)) + Bind + Either branch.
func TryBranch[A any](eff any, onErr func(error) kont.Eff[A], onOK func(any) kont.Eff[A]) kont.Eff[A] {
	return kont.Bind(kont.Perform(yieldOp{value: Try(eff)}), func(o outcome) kont.Eff[A] {
		v := o.v
		e, ok := v.(tryResult)
		if !ok {
			return onOK(v)
		}
		if err, ok := e.GetLeft(); ok {
			return onErr(err)
		}
		r, _ := e.GetRight()
		return onOK(r)
	})
}

// Done finishes a Cont-world process with a.
func Done(a any) kont.Eff[any] {
	return kont.Pure(a)
}
