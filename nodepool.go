package csp

import "sync/atomic"

// node is one element of a nodePool's free list and, while parked in a
// [BufferedNChannel]'s ring, one slot of the channel's queue. A node
// is strictly owned by at most one of {pool, ring} at any time: the
// channel's enqueue takes one from the pool (or allocates fresh) and
// links it into the ring; dequeue advances the head past it, clears
// the value it read so a stale reference can't keep an element alive
// past its retrieval, and returns the old head node to the pool.
type node[T any] struct {
	next *node[T]
	val  T
}

// nodePool is a lock-free LIFO (Treiber stack) of free [node] cells,
// used by [BufferedNChannel] to avoid allocating a fresh node on every
// put. Push/pop are both a CAS loop over the head pointer — the safe,
// garbage-collected equivalent of the spec's "lock-free LIFO cache of
// free queue nodes" built on raw atomic stacks.
//
// One nodePool[T] is owned by each BufferedNChannel[T] instance rather
// than shared process-wide across every instantiation of T: Go
// generics have no built-in mechanism for a single global singleton
// keyed by type parameter without reflect-based bookkeeping, and nodes
// never cross between channel instances anyway, so a pool per channel
// gives the same allocation-avoidance benefit without that machinery.
type nodePool[T any] struct {
	head atomic.Pointer[node[T]]
}

// get pops a free node, or allocates a new one if the pool is empty.
// The returned node's val is the zero value of T.
func (p *nodePool[T]) get() *node[T] {
	for {
		old := p.head.Load()
		if old == nil {
			return new(node[T])
		}
		next := old.next
		if p.head.CompareAndSwap(old, next) {
			old.next = nil
			return old
		}
	}
}

// put clears n's value (so the ring no longer keeps a stray reference
// to a type-T value alive through the pool) and pushes it onto the
// free list.
func (p *nodePool[T]) put(n *node[T]) {
	var zero T
	n.val = zero
	for {
		old := p.head.Load()
		n.next = old
		if p.head.CompareAndSwap(old, n) {
			return
		}
	}
}
