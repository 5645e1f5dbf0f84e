// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	stderrLoggerOnce sync.Once
	stderrLogger     *logiface.Logger[logiface.Event]
)

// newLogger returns a JSON lines logger writing to w.
func newLogger(w io.Writer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(w))).Logger()
}

func defaultLogger() *logiface.Logger[logiface.Event] {
	stderrLoggerOnce.Do(func() {
		stderrLogger = newLogger(os.Stderr)
	})
	return stderrLogger
}
