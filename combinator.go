// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import "strconv"

// runParallel resolves with the results of every entry in order.
// An error or terminal signal from one entry cancels the rest.
func (p *proc) runParallel(effects []any, id EffectID, cb *cont) {
	if len(effects) == 0 {
		cb.fn([]any{}, nil)
		return
	}
	results := make([]any, len(effects))
	children := make([]*cont, len(effects))
	pending := len(effects)
	completed := false

	cancelAll := func(skip int) {
		for i, c := range children {
			if i != skip && c != nil {
				c.cancel()
			}
		}
	}
	for i := range effects {
		children[i] = newCont(nil)
		children[i].fn = func(v any, err error) {
			if completed {
				return
			}
			if err != nil || terminal(v) {
				completed = true
				cb.cancel = noop
				cancelAll(i)
				cb.fn(v, err)
				return
			}
			results[i] = v
			pending--
			if pending == 0 {
				completed = true
				cb.fn(results, nil)
			}
		}
	}
	cb.cancel = func() {
		if !completed {
			completed = true
			cancelAll(-1)
		}
	}
	for i, eff := range effects {
		if completed {
			return
		}
		p.runEffect(eff, id, strconv.Itoa(i), children[i])
	}
}

// runRace resolves with the first entry to produce a genuine value and
// cancels the others. Entries ending with End or a cancel signal do not
// settle the race. An error from any entry fails the race.
func (p *proc) runRace(e raceEffect, id EffectID, cb *cont) {
	children := make(map[string]*cont, len(e.keys))
	completed := false

	cancelAll := func(skip string) {
		for _, k := range e.keys {
			if c := children[k]; c != nil && k != skip {
				c.cancel()
			}
		}
	}
	for _, key := range e.keys {
		c := newCont(nil)
		c.fn = func(v any, err error) {
			if completed {
				return
			}
			switch {
			case err != nil:
				completed = true
				cb.cancel = noop
				cancelAll(key)
				cb.fn(nil, err)
			case terminal(v):
			default:
				completed = true
				cb.cancel = noop
				cancelAll(key)
				cb.fn(map[string]any{key: v}, nil)
			}
		}
		children[key] = c
	}
	cb.cancel = func() {
		if !completed {
			completed = true
			cancelAll("")
		}
	}
	for _, key := range e.keys {
		if completed {
			return
		}
		p.runEffect(e.effects[key], id, key, children[key])
	}
}
