// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// exprCoroutine steps an Expr-world computation one effect at a time.
// Suspensions are one-shot: each is either resumed or discarded.
type exprCoroutine struct {
	expr    kont.Expr[any]
	susp    *kont.Suspension[any]
	req     request
	started bool
}

// FromExpr adapts an Expr-world computation into a Coroutine.
// The computation yields with Yield operations (Perform, ExprPerform
// and the fused helpers). Errors cannot be thrown into it: a failed
// effect ends it with that error. Use Try to observe failures.
func FromExpr(m kont.Expr[any]) Coroutine {
	final := &kont.UnwindFrame{Unwind: finishUnwind}
	return &exprCoroutine{expr: kont.Expr[any]{Value: m.Value, Frame: kont.ChainFrames(m.Frame, final)}}
}

// finishUnwind boxes the final value, which may be nil.
func finishUnwind(_, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	return outcome{v: current}, exprReturnFrame
}

func (c *exprCoroutine) Next(v any) (any, bool, error) {
	var result any
	switch {
	case !c.started:
		c.started = true
		result, c.susp = kont.StepExpr(c.expr)
		c.expr = kont.Expr[any]{}
	case c.susp == nil:
		return nil, true, nil
	default:
		susp := c.susp
		c.susp = nil
		result, c.susp = susp.Resume(c.req.resume(v))
	}
	return c.yield(result)
}

func (c *exprCoroutine) yield(result any) (any, bool, error) {
	c.req = nil
	if c.susp == nil {
		o, _ := result.(outcome)
		return o.v, true, nil
	}
	req, ok := c.susp.Op().(request)
	if !ok {
		op := c.susp.Op()
		c.discard()
		return nil, true, fmt.Errorf("%w: %T", ErrUnhandledOperation, op)
	}
	c.req = req
	return req.request(), false, nil
}

func (c *exprCoroutine) discard() {
	if c.susp != nil {
		c.susp.Discard()
		c.susp = nil
	}
	c.started = true
	c.expr = kont.Expr[any]{}
}

func (c *exprCoroutine) Throw(err error) (any, bool, error) {
	c.discard()
	return nil, true, err
}

func (c *exprCoroutine) Return(error) (any, bool, error) {
	c.discard()
	return nil, true, nil
}
