package csp

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// cellState is the tagged state carried by a SyncCell. It advances
// monotonically: Ready -> Pointer, or Ready/Pointer -> Done. There is
// no transition back.
type cellState int32

const (
	// cellReady is the initial state: the cell has been obtained from
	// the pool (or freshly allocated) and is not yet claimed.
	cellReady cellState = iota
	// cellPointer means some party has won the Ready->Pointer race and
	// the cell's data slot now holds a valid handoff value.
	cellPointer
	// cellDone is terminal: the cell has been signaled and consumed,
	// or abandoned (timeout/cancel). No further claim can succeed.
	cellDone
)

// SyncCell is a single-use, two-phase semaphore: a count-gated
// wait/signal primitive carrying a small tagged state and an opaque
// data slot. It is the unit of arbitration both for a plain rendezvous
// handoff (one sender, one receiver) and for [Select] (N channels
// racing to satisfy one waiter).
//
// The spec this is modeled on describes the backing wakeup mechanism
// as "a backing OS-level kernel semaphore, lazily created on first
// real wait". The idiomatic Go stand-in for that — and for the
// "aborted system waits are retried internally" / timeout-cancel
// requirement in the same spec — is a mutex guarding the counter plus
// an explicit FIFO of per-waiter notification channels, rather than a
// bare atomic counter racing a single shared wakeup channel: the
// mutex gives wait's timeout path an unambiguous linearization point
// to decide whether it beat a concurrent signal or lost to one.
//
// A SyncCell is obtained from a [SyncCellPool], used for exactly one
// wait/signal exchange, and released back to the pool. It is never
// shared concurrently by two unrelated operations — the channel
// implementations and the Selector are responsible for that
// discipline; SyncCell itself only arbitrates the single exchange it
// is handed.
type SyncCell struct {
	mu      sync.Mutex
	counter int32
	waiters []chan struct{} // FIFO of parked waiters, each buffered cap 1

	// state is advanced via CompareAndSwap (Ready->Pointer) or Store
	// (*->Done), independent of mu: the Selector and every racing
	// channel must be able to attempt the commit CAS without first
	// acquiring this cell's mutex, since they don't otherwise
	// coordinate with each other at all.
	state atomic.Int32

	// data is the opaque payload, valid only once state has observably
	// reached cellPointer. It is written by the party that wins the
	// Ready->Pointer CAS, immediately after that CAS succeeds; a parked
	// sender's offered value travels in its waiterNode, not here. The
	// write is made visible to the
	// other side by the wait/signal handoff, so data itself needs no
	// atomic protection of its own — the same reasoning the Go runtime
	// applies to a sudog's elem field across a channel's lock and the
	// gopark/goready pair.
	data any
}

// newSyncCell returns a SyncCell in its zero (Ready, counter 0, no
// data) state.
func newSyncCell() *SyncCell {
	return &SyncCell{}
}

// reset restores a cell to its pool-ready state. Only [SyncCellPool]
// calls this, and only on a cell it is certain no one else still
// observes (see SyncCellPool's doc comment for that invariant).
func (c *SyncCell) reset() {
	c.counter = 0
	c.waiters = c.waiters[:0]
	c.state.Store(int32(cellReady))
	c.data = nil
}

// wait decrements the counter and returns true immediately if the
// result is non-negative. Otherwise it parks until signaled or until
// timeout elapses (timeout <= 0 means wait forever). On timeout it
// first tries to retire the cell's state via cancelClaim — a CAS race
// against every channel's own Ready->Pointer claim attempt on the same
// word. If that CAS wins, no channel will ever be able to claim the
// cell afterward, so wait restores the counter and reports a genuine
// timeout. If it loses, some channel has already won the claim and is
// now unconditionally committed to its side effect followed by
// signal; wait consumes that forthcoming signal and reports success
// instead, so a reported timeout can never race a side effect that
// already happened.
func (c *SyncCell) wait(timeout time.Duration) bool {
	c.mu.Lock()
	if c.counter == math.MinInt32 {
		c.mu.Unlock()
		panic("csp: SyncCell counter underflow")
	}
	c.counter--
	if c.counter >= 0 {
		c.mu.Unlock()
		return true
	}
	ch := make(chan struct{}, 1)
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	if timeout <= 0 {
		<-ch
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		if !c.cancelClaim() {
			// Some channel already won the Ready->Pointer claim
			// before we could retire the cell; it is now
			// unconditionally committed to its side effect and the
			// signal that follows. Wait for it rather than reporting
			// a timeout a moment after the transfer actually
			// happened.
			<-ch
			return true
		}
		c.mu.Lock()
		for i, w := range c.waiters {
			if w == ch {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				c.counter++
				c.mu.Unlock()
				return false
			}
		}
		c.mu.Unlock()
		// Not found: a signal already popped us from the queue and is
		// sending (or has sent) our notification. Consume it — the
		// buffered channel guarantees this does not block — and
		// report success, since the credit was already committed to
		// us.
		<-ch
		return true
	}
}

// cancelClaim is the timeout path's half of the commit race: a CAS
// from Ready straight to Done, contending for the very same word every
// channel's Ready->Pointer claim contends for. Exactly one of the two
// can ever win a given cell, so this is the single linearization point
// that decides whether a timeout is genuine (no channel had claimed
// the cell yet, and none ever will, since state has now left Ready) or
// stale (a channel already claimed it and is committed to delivering).
func (c *SyncCell) cancelClaim() bool {
	return c.state.CompareAndSwap(int32(cellReady), int32(cellDone))
}

// signal increments the counter; if a waiter was parked, the oldest
// one (FIFO) is released.
func (c *SyncCell) signal() {
	c.mu.Lock()
	c.counter++
	var woken chan struct{}
	if len(c.waiters) > 0 {
		woken = c.waiters[0]
		c.waiters = c.waiters[1:]
	}
	c.mu.Unlock()

	if woken != nil {
		woken <- struct{}{}
	}
}

// setState attempts the requested transition and reports whether it
// took effect:
//   - target cellPointer: only legal from cellReady, via CAS. This is
//     the selection commit point — exactly one contender's CAS wins.
//   - target cellDone: always succeeds, unconditionally, from any
//     state. Used to mark normal completion once a winner is already
//     known. The timeout path does not use this — it needs the
//     conditional Ready->Done race documented on cancelClaim instead.
//   - any other target: rejected.
func (c *SyncCell) setState(target cellState) bool {
	switch target {
	case cellPointer:
		return c.state.CompareAndSwap(int32(cellReady), int32(cellPointer))
	case cellDone:
		c.state.Store(int32(cellDone))
		return true
	default:
		return false
	}
}

// loadState returns the current tagged state.
func (c *SyncCell) loadState() cellState {
	return cellState(c.state.Load())
}

// setData writes the handoff payload. Callers must only call this
// either before the cell is published to another goroutine, or after
// winning the Ready->Pointer CAS in setState — see the data field
// comment for why that ordering is sufficient without extra atomics.
func (c *SyncCell) setData(v any) {
	c.data = v
}

// pointer returns the data slot, valid only when loadState() reports
// cellPointer. Callers that haven't confirmed the state themselves
// must not trust the result.
func (c *SyncCell) pointer() any {
	return c.data
}
