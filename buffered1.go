package csp

import "sync/atomic"

// Buffered1Channel is a single-slot buffered channel: a send completes
// as soon as the slot is empty, without requiring a receiver to be
// present, and a receive completes as soon as the slot is filled.
type Buffered1Channel[T any] struct {
	lock   spinlock
	slot   T
	closed atomic.Bool

	empty  *sema // permits = empty slots available to a sender (0 or 1)
	filled *sema // permits = filled slots available to a receiver (0 or 1)
}

func newBuffered1Channel[T any]() *Buffered1Channel[T] {
	return &Buffered1Channel[T]{
		empty:  newSema(1),
		filled: newSema(0),
	}
}

// Send blocks until the slot is empty (and claimed) or the channel is
// closed.
func (c *Buffered1Channel[T]) Send(v T) bool {
	for {
		if !c.empty.acquire() {
			if c.closed.Load() {
				return false
			}
			continue
		}
		if c.closed.Load() {
			c.empty.release()
			return false
		}
		c.lock.Lock()
		c.slot = v
		c.lock.Unlock()
		c.filled.release()
		return true
	}
}

// Recv blocks until the slot holds a value or the channel is closed
// and the slot is empty.
func (c *Buffered1Channel[T]) Recv() (T, bool) {
	for {
		if !c.filled.acquire() {
			if c.closed.Load() {
				var zero T
				return zero, false
			}
			continue
		}
		c.lock.Lock()
		v := c.slot
		var zero T
		c.slot = zero
		c.lock.Unlock()
		c.empty.release()
		return v, true
	}
}

func (c *Buffered1Channel[T]) TrySend(v T) bool {
	resolved, ok := c.trySendCore(v)
	return resolved && ok
}

func (c *Buffered1Channel[T]) TryRecv() (T, RecvStatus) {
	v, status := c.tryRecvCore()
	if status != RecvFound {
		var zero T
		return zero, status
	}
	return v.(T), status
}

// Close is idempotent. Parked senders and receivers with no buffered
// value to drain are woken with a closed result; a value already in
// the slot remains receivable afterward.
func (c *Buffered1Channel[T]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.empty.abandonAll()
	c.filled.abandonAll()
}

func (c *Buffered1Channel[T]) IsClosed() bool { return c.closed.Load() }
func (c *Buffered1Channel[T]) IsEmpty() bool  { return c.filled.available() == 0 }
func (c *Buffered1Channel[T]) IsFull() bool   { return c.empty.available() == 0 }

func (c *Buffered1Channel[T]) isClosed() bool { return c.closed.Load() }

func (c *Buffered1Channel[T]) trySendCore(v any) (resolved, ok bool) {
	if c.closed.Load() {
		return true, false
	}
	if !c.empty.tryAcquire() {
		return false, false
	}
	if c.closed.Load() {
		c.empty.release()
		return true, false
	}
	c.lock.Lock()
	c.slot = v.(T)
	c.lock.Unlock()
	c.filled.release()
	return true, true
}

func (c *Buffered1Channel[T]) tryRecvCore() (any, RecvStatus) {
	if !c.filled.tryAcquire() {
		if c.closed.Load() {
			return nil, RecvClosed
		}
		return nil, RecvEmpty
	}
	c.lock.Lock()
	v := c.slot
	var zero T
	c.slot = zero
	c.lock.Unlock()
	c.empty.release()
	return v, RecvFound
}

func (c *Buffered1Channel[T]) registerSend(sel *SyncCell, idx int, v any) bool {
	if c.closed.Load() {
		return claimAndDeliver(sel, selResult{idx: idx, isSend: true, ok: false})
	}
	if c.empty.tryAcquire() {
		if c.closed.Load() {
			c.empty.release()
			return claimAndDeliver(sel, selResult{idx: idx, isSend: true, ok: false})
		}
		if !sel.setState(cellPointer) {
			c.empty.release()
			return false
		}
		c.lock.Lock()
		c.slot = v.(T)
		c.lock.Unlock()
		c.filled.release()
		sel.setData(selResult{idx: idx, isSend: true, ok: true})
		return true
	}
	go c.sendWatcher(sel, idx, v)
	return false
}

// sendWatcher runs detached, blocking on the empty-slot permit on
// behalf of a select arm that couldn't resolve synchronously. Losing
// the race to claim sel after acquiring the permit just gives the
// permit back — unlike an unbuffered channel's parked partner, a
// semaphore permit is a fungible resource with no observable side
// effect yet attached, so undoing it is exact and free.
func (c *Buffered1Channel[T]) sendWatcher(sel *SyncCell, idx int, v any) {
	defer recoverWatcher()
	for {
		if !c.empty.acquire() {
			if c.closed.Load() {
				claimAndDeliver(sel, selResult{idx: idx, isSend: true, ok: false})
				return
			}
			continue
		}
		if c.closed.Load() {
			c.empty.release()
			claimAndDeliver(sel, selResult{idx: idx, isSend: true, ok: false})
			return
		}
		if !sel.setState(cellPointer) {
			c.empty.release()
			return
		}
		c.lock.Lock()
		c.slot = v.(T)
		c.lock.Unlock()
		c.filled.release()
		sel.setData(selResult{idx: idx, isSend: true, ok: true})
		sel.signal()
		return
	}
}

func (c *Buffered1Channel[T]) registerRecv(sel *SyncCell, idx int) bool {
	if c.filled.tryAcquire() {
		if !sel.setState(cellPointer) {
			c.filled.release()
			return false
		}
		c.lock.Lock()
		v := c.slot
		var zero T
		c.slot = zero
		c.lock.Unlock()
		c.empty.release()
		sel.setData(selResult{idx: idx, val: v, ok: true})
		return true
	}
	if c.closed.Load() {
		return claimAndDeliver(sel, selResult{idx: idx, ok: false})
	}
	go c.recvWatcher(sel, idx)
	return false
}

func (c *Buffered1Channel[T]) recvWatcher(sel *SyncCell, idx int) {
	defer recoverWatcher()
	for {
		if !c.filled.acquire() {
			if c.closed.Load() {
				claimAndDeliver(sel, selResult{idx: idx, ok: false})
				return
			}
			continue
		}
		if !sel.setState(cellPointer) {
			c.filled.release()
			return
		}
		c.lock.Lock()
		v := c.slot
		var zero T
		c.slot = zero
		c.lock.Unlock()
		c.empty.release()
		sel.setData(selResult{idx: idx, val: v, ok: true})
		sel.signal()
		return
	}
}
