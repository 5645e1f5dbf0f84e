// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sagatrace records the effects of a saga scheduler as
// OpenTelemetry spans. Each effect becomes a span parented by the span
// of the effect that started it.
package sagatrace

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/saga"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "code.hybscloud.com/saga"

// Monitor is a saga.Monitor emitting one span per effect.
type Monitor struct {
	tracer trace.Tracer
	root   context.Context

	mu    sync.Mutex
	spans map[saga.EffectID]entry
}

type entry struct {
	ctx  context.Context
	span trace.Span
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Monitor) { m.tracer = tp.Tracer(instrumentation) }
}

// WithContext parents root effects under the span in ctx.
func WithContext(ctx context.Context) Option {
	return func(m *Monitor) { m.root = ctx }
}

// New creates a Monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		root:  context.Background(),
		spans: make(map[saga.EffectID]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(instrumentation)
	}
	return m
}

// SpanName returns the span name of an effect.
func SpanName(effect any) string {
	if e, ok := effect.(saga.Effect); ok {
		return "saga." + e.Kind().String()
	}
	return fmt.Sprintf("saga.%T", effect)
}

// EffectTriggered starts a span for the effect, a child of its parent
// effect's span when one is open.
func (m *Monitor) EffectTriggered(id, parentID saga.EffectID, label string, effect any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx := m.root
	if p, ok := m.spans[parentID]; ok {
		ctx = p.ctx
	}
	attrs := []attribute.KeyValue{
		attribute.Int64("saga.effect_id", int64(id)),
		attribute.Int64("saga.parent_id", int64(parentID)),
	}
	if label != "" {
		attrs = append(attrs, attribute.String("saga.label", label))
	}
	ctx, span := m.tracer.Start(ctx, SpanName(effect), trace.WithAttributes(attrs...))
	m.spans[id] = entry{ctx: ctx, span: span}
}

// EffectResolved ends the effect's span with an Ok status.
func (m *Monitor) EffectResolved(id saga.EffectID, _ any) {
	if span := m.take(id); span != nil {
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}

// EffectRejected records err on the effect's span and ends it.
func (m *Monitor) EffectRejected(id saga.EffectID, err error) {
	if span := m.take(id); span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
	}
}

// EffectCancelled marks the effect's span as cancelled and ends it.
func (m *Monitor) EffectCancelled(id saga.EffectID) {
	if span := m.take(id); span != nil {
		span.SetAttributes(attribute.Bool("saga.cancelled", true))
		span.End()
	}
}

// Pending returns the number of effects not yet settled.
func (m *Monitor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spans)
}

func (m *Monitor) take(id saga.EffectID) trace.Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.spans[id]
	if !ok {
		return nil
	}
	delete(m.spans, id)
	return e.span
}
