package csp

import "sync/atomic"

// BufferedNChannel is a multi-slot buffered channel backed by a
// Michael & Scott two-lock queue of pooled [node] cells: a dedicated
// lock guards the tail (enqueue) and a separate one guards the head
// (dequeue), so a concurrent sender and receiver never contend on the
// same lock. The queue always has at least one node — a dummy
// sentinel at the head — so dequeue never has to distinguish "empty"
// from "about to become empty" while holding only the head lock.
type BufferedNChannel[T any] struct {
	capacity int
	pool     nodePool[T]

	wlock spinlock
	tail  *node[T]

	rlock spinlock
	head  *node[T]

	closed atomic.Bool
	empty  *sema // permits = free slots
	filled *sema // permits = occupied slots
}

func roundUpPow2(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	if p > maxChannelCapacity {
		p = maxChannelCapacity
	}
	return p
}

func newBufferedNChannel[T any](capacity int) *BufferedNChannel[T] {
	cap := roundUpPow2(capacity)
	dummy := new(node[T])
	return &BufferedNChannel[T]{
		capacity: cap,
		head:     dummy,
		tail:     dummy,
		empty:    newSema(cap),
		filled:   newSema(0),
	}
}

// enqueue appends v. The caller must already hold an empty permit.
func (c *BufferedNChannel[T]) enqueue(v T) {
	n := c.pool.get()
	n.val = v
	n.next = nil
	c.wlock.Lock()
	c.tail.next = n
	c.tail = n
	c.wlock.Unlock()
}

// dequeue removes and returns the oldest value. The caller must
// already hold a filled permit, which guarantees head.next is
// non-nil.
func (c *BufferedNChannel[T]) dequeue() T {
	c.rlock.Lock()
	oldHead := c.head
	newHead := oldHead.next
	v := newHead.val
	var zero T
	newHead.val = zero
	c.head = newHead
	c.rlock.Unlock()
	c.pool.put(oldHead)
	return v
}

func (c *BufferedNChannel[T]) Send(v T) bool {
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
		c.enqueue(v)
		c.filled.release()
		return true
	}
}

func (c *BufferedNChannel[T]) Recv() (T, bool) {
	for {
		if !c.filled.acquire() {
			if c.closed.Load() {
				var zero T
				return zero, false
			}
			continue
		}
		v := c.dequeue()
		c.empty.release()
		return v, true
	}
}

func (c *BufferedNChannel[T]) TrySend(v T) bool {
	resolved, ok := c.trySendCore(v)
	return resolved && ok
}

func (c *BufferedNChannel[T]) TryRecv() (T, RecvStatus) {
	v, status := c.tryRecvCore()
	if status != RecvFound {
		var zero T
		return zero, status
	}
	return v.(T), status
}

// Close is idempotent. Parked senders (no room) and receivers (no
// buffered value) are woken with a closed result; values already
// enqueued remain drainable afterward.
func (c *BufferedNChannel[T]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.empty.abandonAll()
	c.filled.abandonAll()
}

func (c *BufferedNChannel[T]) IsClosed() bool { return c.closed.Load() }
func (c *BufferedNChannel[T]) IsEmpty() bool  { return c.filled.available() == 0 }
func (c *BufferedNChannel[T]) IsFull() bool   { return c.empty.available() == 0 }

func (c *BufferedNChannel[T]) isClosed() bool { return c.closed.Load() }

func (c *BufferedNChannel[T]) trySendCore(v any) (resolved, ok bool) {
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
	c.enqueue(v.(T))
	c.filled.release()
	return true, true
}

func (c *BufferedNChannel[T]) tryRecvCore() (any, RecvStatus) {
	if !c.filled.tryAcquire() {
		if c.closed.Load() {
			return nil, RecvClosed
		}
		return nil, RecvEmpty
	}
	v := c.dequeue()
	c.empty.release()
	return v, RecvFound
}

func (c *BufferedNChannel[T]) registerSend(sel *SyncCell, idx int, v any) bool {
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
		c.enqueue(v.(T))
		c.filled.release()
		sel.setData(selResult{idx: idx, isSend: true, ok: true})
		return true
	}
	go c.sendWatcher(sel, idx, v)
	return false
}

func (c *BufferedNChannel[T]) sendWatcher(sel *SyncCell, idx int, v any) {
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
		c.enqueue(v.(T))
		c.filled.release()
		sel.setData(selResult{idx: idx, isSend: true, ok: true})
		sel.signal()
		return
	}
}

func (c *BufferedNChannel[T]) registerRecv(sel *SyncCell, idx int) bool {
	if c.filled.tryAcquire() {
		if !sel.setState(cellPointer) {
			c.filled.release()
			return false
		}
		v := c.dequeue()
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

func (c *BufferedNChannel[T]) recvWatcher(sel *SyncCell, idx int) {
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
		v := c.dequeue()
		c.empty.release()
		sel.setData(selResult{idx: idx, val: v, ok: true})
		sel.signal()
		return
	}
}
