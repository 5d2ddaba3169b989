package csp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaTryAcquireRespectsCount(t *testing.T) {
	s := newSema(1)
	assert.True(t, s.tryAcquire())
	assert.False(t, s.tryAcquire(), "a second tryAcquire with no permits must fail")
	s.release()
	assert.True(t, s.tryAcquire())
}

func TestSemaAcquireBlocksUntilRelease(t *testing.T) {
	s := newSema(0)
	done := make(chan bool, 1)
	go func() { done <- s.acquire() }()

	select {
	case <-done:
		t.Fatal("acquire returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	s.release()
	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("acquire never woke after release")
	}
}

func TestSemaAbandonAllWakesWithoutConsumingPermit(t *testing.T) {
	s := newSema(0)
	results := make(chan bool, 3)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.acquire()
		}()
	}
	time.Sleep(20 * time.Millisecond)
	s.abandonAll()
	wg.Wait()
	close(results)

	for ok := range results {
		assert.False(t, ok, "abandonAll must report false (kicked), not a real permit")
	}
	assert.Equal(t, 0, s.available(), "abandonAll must not fabricate or consume real permits")
}

func TestSemaAcquireAfterAbandonAllReturnsFalseImmediately(t *testing.T) {
	s := newSema(0)
	s.abandonAll()

	done := make(chan bool, 1)
	go func() { done <- s.acquire() }()

	select {
	case ok := <-done:
		assert.False(t, ok, "acquire on an exhausted, sticky-closed sema must fail, not hang")
	case <-time.After(200 * time.Millisecond):
		t.Fatal("acquire issued after abandonAll's one-shot wakeup parked forever")
	}
}

func TestSemaAcquireStillDrainsRemainingPermitsAfterAbandonAll(t *testing.T) {
	s := newSema(2)
	s.abandonAll()

	assert.True(t, s.acquire(), "a real, not-yet-drained permit must still be handed out after close")
	assert.True(t, s.acquire())
	assert.False(t, s.acquire(), "once exhausted, a closed sema must fail instead of parking")
}

func TestSemaTryAcquireAfterAbandonAllRespectsRemainingCount(t *testing.T) {
	s := newSema(1)
	s.abandonAll()

	assert.True(t, s.tryAcquire(), "one real permit should still be drainable")
	assert.False(t, s.tryAcquire())
}

func TestSemaReleaseHandsToOldestWaiterFIFO(t *testing.T) {
	s := newSema(0)
	order := make([]int, 0, 3)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Stagger registration so waiters park in index order.
			time.Sleep(time.Duration(i) * 10 * time.Millisecond)
			s.acquire()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}()
		time.Sleep(15 * time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		s.release()
		// Let the woken waiter record itself before the next handoff.
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2}, order)
}
