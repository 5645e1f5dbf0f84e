// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"code.hybscloud.com/kont"
)

var (
	exprReturnFrame kont.Frame  = kont.ReturnFrame{}
	exprCancelled   kont.Erased = yieldOp{value: cancelledEffect{}}
)

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

func exprThen[B any](op kont.Erased, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

// ExprYieldThen yields v, discards the outcome and continues with next.
// Fuses ExprPerform(v) + ExprThen.
func ExprYieldThen[B any](v any, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(yieldOp{value: v}, next)
}

// ExprPutThen puts item into ch and continues with next.
func ExprPutThen[T, B any](ch *Channel[T], item T, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(yieldOp{value: Put(ch, item)}, next)
}

func yieldBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(any) kont.Expr[B])
	result := f(current.(outcome).v)
	return kont.Erased(result.Value), result.Frame
}

// ExprYieldBind yields v and passes the outcome to f.
// Fuses ExprPerform(v) + ExprBind.
func ExprYieldBind[B any](v any, f func(any) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = yieldBindUnwind[B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = yieldOp{value: v}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func takeBindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(T) kont.Expr[B])
	item, _ := current.(outcome).v.(T)
	result := f(item)
	return kont.Erased(result.Value), result.Frame
}

// ExprTakeBind takes the next item of ch and passes it to f.
// Fuses ExprPerform(Take(ch)) + ExprBind.
func ExprTakeBind[T, B any](ch *Channel[T], f func(T) kont.Expr[B]) kont.Expr[B] {
	if ch == nil {
		usage("ExprTakeBind", "nil channel")
	}
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = takeBindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = yieldOp{value: Take(ch)}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func tryBranchUnwind[A any](data, data2, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	onErr := data.(func(error) kont.Expr[A])
	onOK := data2.(func(any) kont.Expr[A])
	v := current.(outcome).v
	var result kont.Expr[A]
	if e, ok := v.(tryResult); ok {
		if err, isErr := e.GetLeft(); isErr {
			result = onErr(err)
		} else {
			r, _ := e.GetRight()
			result = onOK(r)
		}
	} else {
		result = onOK(v)
	}
	return kont.Erased(result.Value), result.Frame
}

// ExprTryBranch runs eff and calls onErr or onOK with its outcome.
// Fuses ExprPerform(Try(eff)) + ExprBind + Either branch.
func ExprTryBranch[A any](eff any, onErr func(error) kont.Expr[A], onOK func(any) kont.Expr[A]) kont.Expr[A] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = onErr
	bf.Data2 = onOK
	bf.Unwind = tryBranchUnwind[A]
	ef := kont.AcquireEffectFrame()
	ef.Operation = yieldOp{value: Try(eff)}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[A](ef)
}

func cancelledBranchUnwind[A any](data, data2, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	var result kont.Expr[A]
	if current.(outcome).v.(bool) {
		result = data.(func() kont.Expr[A])()
	} else {
		result = data2.(func() kont.Expr[A])()
	}
	return kont.Erased(result.Value), result.Frame
}

// ExprCancelledBranch asks whether the process has been cancelled and
// calls onCancelled or onRunning.
// Fuses ExprPerform(Cancelled()) + ExprBind + branch.
func ExprCancelledBranch[A any](onCancelled func() kont.Expr[A], onRunning func() kont.Expr[A]) kont.Expr[A] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = onCancelled
	bf.Data2 = onRunning
	bf.Unwind = cancelledBranchUnwind[A]
	ef := kont.AcquireEffectFrame()
	ef.Operation = exprCancelled
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[A](ef)
}

// ExprDone finishes an Expr-world process with a.
func ExprDone(a any) kont.Expr[any] {
	return kont.ExprReturn(a)
}
