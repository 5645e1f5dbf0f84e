// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import "code.hybscloud.com/atomix"

// EffectID identifies one interpreted effect within a scheduler.
// Zero is the parent of root processes.
type EffectID = uint32

// serial is a monotonically increasing effect identifier source.
// Each scheduler owns one.
type serial struct {
	counter atomix.Uint32
}

// next returns the next monotonically increasing identifier.
func (s *serial) next() EffectID {
	return s.counter.Add(1)
}
