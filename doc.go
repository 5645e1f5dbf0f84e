// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package saga provides a structured-concurrency effect runtime.
//
// A process is a [Coroutine] that yields effect descriptors. A [Scheduler]
// interprets each effect and resumes the process with its outcome.
// Processes form a tree: attached forks are joined before their parent
// settles, a failing fork aborts its parent, and cancelling a task
// cancels its attached descendants.
//
// # Architecture
//
//   - Buffers: [Fixed], [Dropping], [Sliding] and [Expanding] queues over a ring backed by [code.hybscloud.com/lfq].
//   - Channels: [Channel] pairs a buffer with waiting takers. [EventChannel] bridges an external [Emitter].
//   - Effects: [Take], [Put], [Call], [Apply], [Cps], [Fork], [Spawn], [Join], [Cancel], [Cancelled], [Flush], [Race], [Parallel] and [Try].
//   - Execution: a [Scheduler] runs every process inside one cooperative domain. Posted work runs one item at a time on whichever goroutine holds the drain role.
//   - Observation: a [Monitor] sees every effect by its [EffectID]. Uncaught failures are logged through [github.com/joeycumines/logiface].
//
// # Processes
//
//   - Goroutine-backed: [Routine] bodies yield through a [Yielder].
//   - Cont-world: [kont.Eff] computations built with [Perform], [YieldThen], [YieldBind], [TakeBind] and [Loop]. Bridge via [FromEff].
//   - Expr-world: [kont.Expr] computations built with [ExprYieldThen], [ExprTakeBind] and [ExprLoop]. Bridge via [FromExpr].
//
// # Integration
//
//   - Blocking: [Exec] runs a process on a fresh scheduler and waits. [Task.Wait] waits for a running task.
//   - Producers: [PutAsync] and [PutWait] feed channels from other goroutines.
//   - Futures: [Promise], [Delay] and [Async] resolve outside the domain and are marshalled back into it.
//
// # Example
//
//	ch := saga.NewChannel[int]()
//	s, _ := saga.NewScheduler()
//	task := s.Run(func(y *saga.Yielder) (any, error) {
//		v, err := saga.Await[int](y, saga.Take(ch))
//		return v, err
//	})
//	saga.PutAsync(s, ch, 42)
//	v, err := task.Wait(context.Background())
package saga
