// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"context"
	"errors"

	"code.hybscloud.com/iox"
)

// Exec runs co as the root process of a fresh scheduler and blocks until
// it settles. When ctx is done first the task is cancelled and ctx.Err()
// returned. A task cancelled from within fails with ErrCancelled.
// Exec must not be called from inside a process.
func Exec(ctx context.Context, co Coroutine, opts ...Option) (any, error) {
	s, err := NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	t := s.Start("exec", co)
	select {
	case <-t.Done():
	case <-ctx.Done():
		t.Cancel()
		<-t.Done()
		return nil, ctx.Err()
	}
	if t.IsCancelled() {
		return nil, ErrCancelled
	}
	return t.Result(), t.Err()
}

// PutWait puts item into ch from outside the scheduler, waiting with
// adaptive backoff (iox.Backoff) while the buffer overflows. It gives up
// with ctx.Err() once ctx is done. Other put failures are returned as
// is. PutWait must not be called from inside a process.
func PutWait[T any](ctx context.Context, s *Scheduler, ch *Channel[T], item T) error {
	if ch == nil {
		usage("PutWait", "nil channel")
	}
	var bo iox.Backoff
	res := make(chan error, 1)
	for {
		s.dom.post(func() { res <- ch.Put(item) })
		err := <-res
		if !errors.Is(err, ErrBufferOverflow) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		bo.Wait()
	}
}
