package csp

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a CAS-based mutual exclusion lock intended for critical
// sections bounded to O(1) work: a cursor bump, a slot write, a waiter
// dequeue. It never parks a goroutine on a channel or a futex; a
// contended Lock just spins, yielding the P periodically so the holder
// can make progress.
//
// Do not hold a spinlock across anything that can block (a channel
// send/receive, another lock acquisition, an allocation that can
// trigger a stop-the-world pause longer than expected). That defeats
// the whole point and turns a short spin into a long one.
type spinlock struct {
	held atomic.Bool
}

// Lock blocks until the lock is acquired.
func (l *spinlock) Lock() {
	for i := 0; !l.held.CompareAndSwap(false, true); i++ {
		if i > 0 && i%64 == 0 {
			runtime.Gosched()
		}
	}
}

// Unlock releases the lock. Unlock on an unheld lock is a programmer
// error and will corrupt the mutual-exclusion invariant silently, same
// as sync.Mutex.
func (l *spinlock) Unlock() {
	l.held.Store(false)
}

// TryLock attempts to acquire the lock without spinning.
func (l *spinlock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}
