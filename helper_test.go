// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a log sink safe for use from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newScheduler returns a scheduler logging into the returned buffer.
func newScheduler(t testing.TB, opts ...saga.Option) (*saga.Scheduler, *syncBuffer) {
	t.Helper()
	logs := &syncBuffer{}
	s, err := saga.NewScheduler(append([]saga.Option{saga.WithLogWriter(logs)}, opts...)...)
	require.NoError(t, err)
	return s, logs
}

// wait blocks until task settles, failing the test after a second.
func wait(t testing.TB, task *saga.Task) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "task %s did not settle", task.Name())
	return v, err
}

// takeInts drains the buffer into a slice.
func takeInts(b saga.Buffer[int]) []int {
	out := []int{}
	for {
		v, ok := b.Take()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func assertLeft(t *testing.T, v any, want error) {
	t.Helper()
	e, ok := v.(kont.Either[error, any])
	require.True(t, ok, "%T is not an Either", v)
	err, ok := e.GetLeft()
	require.True(t, ok, "Either is not Left")
	assert.ErrorIs(t, err, want)
}

func assertRight(t *testing.T, v any, want any) {
	t.Helper()
	e, ok := v.(kont.Either[error, any])
	require.True(t, ok, "%T is not an Either", v)
	r, ok := e.GetRight()
	require.True(t, ok, "Either is not Right")
	assert.Equal(t, want, r)
}
