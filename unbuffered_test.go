package csp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnbufferedRendezvous(t *testing.T) {
	ch := Make[int](0)
	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = ch.Recv()
	}()

	time.Sleep(50 * time.Millisecond)
	sent := ch.Send(42)
	require.True(t, sent)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("receiver did not complete within 200ms of send")
	}
	assert.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestUnbufferedSendBlocksWithNoReceiver(t *testing.T) {
	ch := Make[int](0)
	done := make(chan bool, 1)
	go func() { done <- ch.Send(1) }()

	select {
	case <-done:
		t.Fatal("send completed with no receiver present")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := ch.Recv()
	assert.Equal(t, 1, v)
	assert.True(t, ok)
	assert.True(t, <-done)
}

func TestUnbufferedIsEmptyAlwaysTrue(t *testing.T) {
	ch := Make[int](0)
	assert.True(t, ch.IsEmpty())
}

func TestUnbufferedCloseWakesBlockedReader(t *testing.T) {
	ch := Make[int](0)
	done := make(chan bool, 1)
	go func() {
		_, ok := ch.Recv()
		done <- ok
	}()

	time.Sleep(50 * time.Millisecond)
	ch.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(50 * time.Millisecond):
		t.Fatal("blocked receiver was not woken within 50ms of close")
	}
}

func TestUnbufferedSendFailsAfterClose(t *testing.T) {
	ch := Make[int](0)
	ch.Close()
	assert.False(t, ch.Send(1))
}

func TestUnbufferedRecvAfterCloseReturnsAbsent(t *testing.T) {
	ch := Make[int](0)
	ch.Close()
	v, ok := ch.Recv()
	assert.Equal(t, 0, v)
	assert.False(t, ok)
}

func TestUnbufferedCloseIdempotent(t *testing.T) {
	ch := Make[int](0)
	ch.Close()
	ch.Close()
	assert.True(t, ch.IsClosed())
}

func TestUnbufferedTrySendTryRecvWouldBlock(t *testing.T) {
	ch := Make[int](0)
	assert.False(t, ch.TrySend(1), "no receiver parked: TrySend must not block or succeed")
	_, status := ch.TryRecv()
	assert.Equal(t, RecvEmpty, status)
}

func TestUnbufferedTryRecvMatchesParkedSender(t *testing.T) {
	ch := Make[int](0)
	done := make(chan bool, 1)
	go func() { done <- ch.Send(7) }()
	time.Sleep(20 * time.Millisecond)

	v, status := ch.TryRecv()
	assert.Equal(t, RecvFound, status)
	assert.Equal(t, 7, v)
	assert.True(t, <-done)
}

func TestUnbufferedExactlyOnceUnderContention(t *testing.T) {
	ch := Make[int](0)
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.Send(i)
		}()
	}

	received := make([]int, 0, n)
	for i := 0; i < n; i++ {
		v, ok := ch.Recv()
		require.True(t, ok)
		received = append(received, v)
	}
	wg.Wait()
	assert.Len(t, received, n)

	seen := map[int]bool{}
	for _, v := range received {
		assert.False(t, seen[v], "no value should be delivered twice")
		seen[v] = true
	}
	assert.Len(t, seen, n, "every sent value should be delivered exactly once")
}
