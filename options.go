// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package saga

import (
	"fmt"
	"io"

	"github.com/joeycumines/logiface"
)

type schedulerOptions struct {
	logger  *logiface.Logger[logiface.Event]
	monitor Monitor
	onError func(error)
}

// Option configures a Scheduler.
type Option interface {
	apply(*schedulerOptions) error
}

type optionFunc func(*schedulerOptions) error

func (f optionFunc) apply(o *schedulerOptions) error { return f(o) }

// WithLogger sets the logger for uncaught failures and cancellations.
// The default logs JSON lines to standard error.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(o *schedulerOptions) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidOption)
		}
		o.logger = logger
		return nil
	})
}

// WithLogWriter logs JSON lines to w.
func WithLogWriter(w io.Writer) Option {
	return optionFunc(func(o *schedulerOptions) error {
		if w == nil {
			return fmt.Errorf("%w: nil log writer", ErrInvalidOption)
		}
		o.logger = newLogger(w)
		return nil
	})
}

// WithMonitor sets the effect monitor.
func WithMonitor(m Monitor) Option {
	return optionFunc(func(o *schedulerOptions) error {
		if m == nil {
			return fmt.Errorf("%w: nil monitor", ErrInvalidOption)
		}
		o.monitor = m
		return nil
	})
}

// WithOnError sets the handler called once for each uncaught failure of
// a root or detached process.
func WithOnError(fn func(error)) Option {
	return optionFunc(func(o *schedulerOptions) error {
		if fn == nil {
			return fmt.Errorf("%w: nil error handler", ErrInvalidOption)
		}
		o.onError = fn
		return nil
	})
}

func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{monitor: nopMonitor{}}
	for _, opt := range opts {
		if opt == nil {
			return nil, fmt.Errorf("%w: nil option", ErrInvalidOption)
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	return cfg, nil
}
