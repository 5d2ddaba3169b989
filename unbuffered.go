package csp

import "sync"

// waiterNode is one parked party in an UnbufferedChannel's send or
// receive queue. cell is whatever SyncCell the waiter is parked on —
// a disposable per-call cell for a plain Send/Recv, or a Selector's
// shared cell for a select arm. payload is only meaningful on the
// sendq: the value a parked sender is offering.
type waiterNode struct {
	cell    *SyncCell
	idx     int
	payload any
	next    *waiterNode
}

// waiterQueue is a singly-linked FIFO of waiterNode, used for both the
// send and receive sides of an UnbufferedChannel.
type waiterQueue struct {
	head, tail *waiterNode
}

func (q *waiterQueue) pushBack(n *waiterNode) {
	n.next = nil
	if q.tail == nil {
		q.head, q.tail = n, n
		return
	}
	q.tail.next = n
	q.tail = n
}

func (q *waiterQueue) popFront() *waiterNode {
	n := q.head
	if n == nil {
		return nil
	}
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	n.next = nil
	return n
}

// UnbufferedChannel is a synchronous rendezvous channel: a send
// completes only once a matching receive has claimed it, and vice
// versa. There is no internal storage — the send and receive queues
// hold only parked waiters, never values in transit.
type UnbufferedChannel[T any] struct {
	mu           sync.Mutex
	sendq, recvq waiterQueue
	closed       bool
}

func newUnbufferedChannel[T any]() *UnbufferedChannel[T] {
	return &UnbufferedChannel[T]{}
}

// Send blocks until a receiver claims v or the channel is closed.
func (c *UnbufferedChannel[T]) Send(v T) bool {
	cell := defaultCellPool.obtain()
	if !c.registerSend(cell, -1, v) {
		cell.wait(0)
	}
	res := cell.pointer().(selResult)
	defaultCellPool.release(cell)
	return res.ok
}

// Recv blocks until a sender offers a value or the channel is closed
// and drained.
func (c *UnbufferedChannel[T]) Recv() (T, bool) {
	cell := defaultCellPool.obtain()
	if !c.registerRecv(cell, -1) {
		cell.wait(0)
	}
	res := cell.pointer().(selResult)
	defaultCellPool.release(cell)
	if !res.ok {
		var zero T
		return zero, false
	}
	return res.val.(T), true
}

// TrySend offers v only if a receiver is already parked; it never
// waits for one to arrive.
func (c *UnbufferedChannel[T]) TrySend(v T) bool {
	resolved, ok := c.trySendCore(v)
	return resolved && ok
}

// TryRecv claims a parked sender's value if one is already waiting; it
// never waits for one to arrive.
func (c *UnbufferedChannel[T]) TryRecv() (T, RecvStatus) {
	v, status := c.tryRecvCore()
	if status != RecvFound {
		var zero T
		return zero, status
	}
	return v.(T), status
}

// Close is idempotent. Every currently parked sender and receiver is
// woken with a failed/empty result; no further send will enqueue.
func (c *UnbufferedChannel[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for {
		w := c.sendq.popFront()
		if w == nil {
			break
		}
		claimAndDeliver(w.cell, selResult{idx: w.idx, isSend: true, ok: false})
	}
	for {
		w := c.recvq.popFront()
		if w == nil {
			break
		}
		claimAndDeliver(w.cell, selResult{idx: w.idx, ok: false})
	}
	c.mu.Unlock()
}

func (c *UnbufferedChannel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// IsEmpty is always true for an UnbufferedChannel: it never holds a
// value at rest, only parked waiters.
func (c *UnbufferedChannel[T]) IsEmpty() bool { return true }

// IsFull reports whether a receiver is parked and waiting — the
// closest analogue an unbuffered channel has to "full", since a send
// can proceed without blocking exactly when this is true.
func (c *UnbufferedChannel[T]) IsFull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvq.head != nil
}

func (c *UnbufferedChannel[T]) isClosed() bool { return c.IsClosed() }

func (c *UnbufferedChannel[T]) trySendCore(v any) (resolved, ok bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return true, false
	}
	for {
		w := c.recvq.popFront()
		if w == nil {
			c.mu.Unlock()
			return false, false
		}
		if !claimAndDeliver(w.cell, selResult{idx: w.idx, val: v, ok: true}) {
			continue
		}
		c.mu.Unlock()
		return true, true
	}
}

func (c *UnbufferedChannel[T]) tryRecvCore() (any, RecvStatus) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, RecvClosed
	}
	for {
		w := c.sendq.popFront()
		if w == nil {
			c.mu.Unlock()
			return nil, RecvEmpty
		}
		if !claimAndDeliver(w.cell, selResult{idx: w.idx, isSend: true, ok: true}) {
			continue
		}
		c.mu.Unlock()
		return w.payload, RecvFound
	}
}

// registerSend is the blocking-phase half of a send: it resolves
// immediately against a parked receiver if one exists, or parks sel in
// the send queue for a future receiver (or Close) to resolve.
//
// When a parked receiver is found, its cell is claimed and delivered
// to first (it is irrevocably committed once that CAS succeeds), and
// only then do we attempt to claim sel for ourselves. If that second
// claim loses — because sel was already won via a different arm of
// the same multi-way select racing concurrently on another channel —
// the exchange above still stands (a real receiver got a real value,
// no channel invariant is broken) but this arm reports no commit. This
// is a deliberate simplification relative to locking every participating
// channel up front (as the Go runtime's selectgo does via sellock); see
// DESIGN.md.
func (c *UnbufferedChannel[T]) registerSend(sel *SyncCell, idx int, v any) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return claimAndDeliver(sel, selResult{idx: idx, isSend: true, ok: false})
	}
	for {
		w := c.recvq.popFront()
		if w == nil {
			break
		}
		if !claimAndDeliver(w.cell, selResult{idx: w.idx, val: v, ok: true}) {
			continue
		}
		c.mu.Unlock()
		if sel.setState(cellPointer) {
			sel.setData(selResult{idx: idx, isSend: true, ok: true})
			return true
		}
		return false
	}
	c.sendq.pushBack(&waiterNode{cell: sel, idx: idx, payload: v})
	c.mu.Unlock()
	return false
}

// registerRecv mirrors registerSend on the receive side.
func (c *UnbufferedChannel[T]) registerRecv(sel *SyncCell, idx int) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return claimAndDeliver(sel, selResult{idx: idx, ok: false})
	}
	for {
		w := c.sendq.popFront()
		if w == nil {
			break
		}
		if !claimAndDeliver(w.cell, selResult{idx: w.idx, isSend: true, ok: true}) {
			continue
		}
		c.mu.Unlock()
		if sel.setState(cellPointer) {
			sel.setData(selResult{idx: idx, val: w.payload, ok: true})
			return true
		}
		return false
	}
	c.recvq.pushBack(&waiterNode{cell: sel, idx: idx})
	c.mu.Unlock()
	return false
}
