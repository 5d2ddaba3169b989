package csp

import (
	"sync/atomic"
	"time"
)

// SelectorStats is a snapshot of cumulative [Select] activity, taken
// from [Stats]. Like every other snapshot accessor in this package
// (see Channel.IsEmpty/IsFull/IsClosed), it is advisory: the counters
// are updated with independent atomic adds, not under one lock, so a
// concurrent snapshot can observe them at slightly different points in
// time relative to each other.
type SelectorStats struct {
	// Calls is the number of Select calls made, counted on entry: calls
	// still blocked and calls that timed out are included.
	Calls int64
	// ArmsEvaluated is the cumulative number of ops examined across the
	// non-blocking phase of every Select call (an op that resolves on
	// the first pass stops the scan; later ops in that call are not
	// counted).
	ArmsEvaluated int64
	// Blocking is the number of Select calls that found no op ready
	// without parking and had no default arm, so they entered the
	// registration phase.
	Blocking int64
	// Immediate is the number of Select calls resolved entirely by the
	// non-blocking phase (including a default-arm resolution).
	Immediate int64
}

var (
	selectCalls     atomic.Int64
	selectArms      atomic.Int64
	selectBlocking  atomic.Int64
	selectImmediate atomic.Int64
)

// Stats returns a snapshot of cumulative activity across every [Select]
// call made by this process, mirroring the teacher repo's
// Pool.Stats/Scope.TotalSpawned snapshot-counter pattern.
func Stats() SelectorStats {
	return SelectorStats{
		Calls:         selectCalls.Load(),
		ArmsEvaluated: selectArms.Load(),
		Blocking:      selectBlocking.Load(),
		Immediate:     selectImmediate.Load(),
	}
}

// Op is one arm of a [Select] call: either a send of a fixed value or
// a receive, against a specific channel. Build one with [Send] or
// [Recv].
type Op struct {
	core selCore
	send bool
	val  any
}

// Send builds a send arm for ch carrying value v.
func Send[T any](ch Channel[T], v T) Op {
	core, ok := any(ch).(selCore)
	if !ok {
		panic("csp: channel does not support Select")
	}
	return Op{core: core, send: true, val: v}
}

// Recv builds a receive arm for ch.
func Recv[T any](ch Channel[T]) Op {
	core, ok := any(ch).(selCore)
	if !ok {
		panic("csp: channel does not support Select")
	}
	return Op{core: core, send: false}
}

// Outcome is the result of whichever Op [Select] chose. For a winning
// receive arm, Value holds the received element (the caller type-
// asserts it back to the concrete element type of that arm's
// channel); for a winning send arm, Value is unused. Ok is false iff
// the winning arm's channel was closed.
type Outcome struct {
	Value any
	Ok    bool
}

type selectConfig struct {
	hasDefault bool
	timeout    time.Duration
}

// SelectOption configures a [Select] call, mirroring the functional
// options the rest of this package's constructors use.
type SelectOption func(*selectConfig)

// WithDefault makes Select return immediately with index -1 if no
// operation is ready without blocking, instead of waiting.
func WithDefault() SelectOption {
	return func(c *selectConfig) { c.hasDefault = true }
}

// WithTimeout bounds how long the blocking phase waits once no
// operation is ready immediately. A non-positive duration (the
// default) means wait indefinitely. WithTimeout and WithDefault are
// mutually exclusive; WithDefault takes precedence if both are given.
func WithTimeout(d time.Duration) SelectOption {
	return func(c *selectConfig) { c.timeout = d }
}

// Select picks exactly one ready operation from ops and runs it,
// returning its index and outcome. With no ready operation and no
// [WithDefault], it blocks — optionally bounded by [WithTimeout] —
// until exactly one operation can commit. On timeout it returns index
// -1 with a zero Outcome.
//
// Selection proceeds in two passes, matching how a single goroutine
// can arbitrate several independently-locked channels without locking
// them all at once: a non-blocking pass where each op's own fast path
// is tried in order and the first ready one wins outright, then — if
// none were ready and there's no default — a registration pass where
// a single shared [SyncCell] is offered to each channel in turn. The
// first channel able to satisfy it immediately wins the race to flip
// it from Ready to Pointer; every other channel either never sees the
// cell (because Select stops registering once one op commits) or
// parks it and resolves it later, whenever a matching operation
// arrives on that channel.
func Select(ops []Op, opts ...SelectOption) (int, Outcome) {
	if len(ops) == 0 {
		panic("csp: Select requires at least one operation")
	}
	var cfg selectConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	selectCalls.Add(1)

	for i, op := range ops {
		selectArms.Add(1)
		if op.send {
			resolved, ok := op.core.trySendCore(op.val)
			if resolved {
				selectImmediate.Add(1)
				return i, Outcome{Ok: ok}
			}
			continue
		}
		v, status := op.core.tryRecvCore()
		switch status {
		case RecvFound:
			selectImmediate.Add(1)
			return i, Outcome{Value: v, Ok: true}
		case RecvClosed:
			selectImmediate.Add(1)
			return i, Outcome{Ok: false}
		}
	}

	if cfg.hasDefault {
		selectImmediate.Add(1)
		return -1, Outcome{}
	}

	selectBlocking.Add(1)

	// Allocated directly rather than drawn from defaultCellPool: once
	// more than one op is registered below, every op before the
	// eventual winner is left parked inside some channel's waiter
	// queue (or a detached watcher goroutine) holding a live reference
	// to this exact cell, with no general way for Select to learn when
	// the last such reference has gone away. Pooling and resetting it
	// for reuse would risk a later, genuinely-unrelated obtain() seeing
	// a stale claim land on its cell. See DESIGN.md.
	sel := newSyncCell()
	winner := -1
	for i, op := range ops {
		var committed bool
		if op.send {
			committed = op.core.registerSend(sel, i, op.val)
		} else {
			committed = op.core.registerRecv(sel, i)
		}
		if committed {
			winner = i
			break
		}
	}

	if winner == -1 {
		if !sel.wait(cfg.timeout) {
			sel.setState(cellDone)
			return -1, Outcome{}
		}
	}

	res := sel.pointer().(selResult)
	return res.idx, Outcome{Value: res.val, Ok: res.ok}
}
