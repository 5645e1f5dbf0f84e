// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

// Monitor observes the interpretation of effects.
// Methods are called inside the scheduler's execution domain and must
// not block.
type Monitor interface {
	// EffectTriggered is called when an effect starts. label is the race
	// key or parallel index of a combinator entry, otherwise empty.
	EffectTriggered(id, parentID EffectID, label string, effect any)
	EffectResolved(id EffectID, result any)
	EffectRejected(id EffectID, err error)
	EffectCancelled(id EffectID)
}

// MonitorFuncs adapts optional functions into a Monitor.
type MonitorFuncs struct {
	Triggered func(id, parentID EffectID, label string, effect any)
	Resolved  func(id EffectID, result any)
	Rejected  func(id EffectID, err error)
	Cancelled func(id EffectID)
}

func (m MonitorFuncs) EffectTriggered(id, parentID EffectID, label string, effect any) {
	if m.Triggered != nil {
		m.Triggered(id, parentID, label, effect)
	}
}

func (m MonitorFuncs) EffectResolved(id EffectID, result any) {
	if m.Resolved != nil {
		m.Resolved(id, result)
	}
}

func (m MonitorFuncs) EffectRejected(id EffectID, err error) {
	if m.Rejected != nil {
		m.Rejected(id, err)
	}
}

func (m MonitorFuncs) EffectCancelled(id EffectID) {
	if m.Cancelled != nil {
		m.Cancelled(id)
	}
}

type nopMonitor struct{}

func (nopMonitor) EffectTriggered(EffectID, EffectID, string, any) {}

func (nopMonitor) EffectResolved(EffectID, any) {}

func (nopMonitor) EffectRejected(EffectID, error) {}

func (nopMonitor) EffectCancelled(EffectID) {}
