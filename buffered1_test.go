package csp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffered1SendThenRecv(t *testing.T) {
	ch := Make[int](1)
	require.True(t, ch.Send(5))
	v, ok := ch.Recv()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestBuffered1Overflow(t *testing.T) {
	ch := Make[int](1)
	require.True(t, ch.Send(1), "first send into an empty slot must not block")

	secondDone := make(chan bool, 1)
	go func() { secondDone <- ch.Send(2) }()

	select {
	case <-secondDone:
		t.Fatal("second send completed before the slot was drained")
	case <-time.After(30 * time.Millisecond):
	}

	time.Sleep(20 * time.Millisecond)
	v1, ok := ch.Recv()
	require.True(t, ok)
	assert.Equal(t, 1, v1)

	select {
	case ok := <-secondDone:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("second send never completed after slot was drained")
	}

	v2, ok := ch.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, v2)

	assert.True(t, ch.IsEmpty())
}

func TestBuffered1CloseDrainsBufferedValue(t *testing.T) {
	ch := Make[int](1)
	require.True(t, ch.Send(99))
	ch.Close()

	v, ok := ch.Recv()
	assert.True(t, ok, "a value already in the slot must still be retrievable after close")
	assert.Equal(t, 99, v)

	_, ok = ch.Recv()
	assert.False(t, ok, "once drained, a closed channel's Recv must report absent")
}

func TestBuffered1SendFailsAfterClose(t *testing.T) {
	ch := Make[int](1)
	ch.Close()
	assert.False(t, ch.Send(1))
	assert.True(t, ch.IsEmpty())
}

func TestBuffered1CloseWakesBlockedSender(t *testing.T) {
	ch := Make[int](1)
	require.True(t, ch.Send(1))

	secondDone := make(chan bool, 1)
	go func() { secondDone <- ch.Send(2) }()
	time.Sleep(30 * time.Millisecond)

	ch.Close()
	select {
	case ok := <-secondDone:
		assert.False(t, ok)
	case <-time.After(50 * time.Millisecond):
		t.Fatal("blocked sender was not woken within 50ms of close")
	}
}

func TestBuffered1TrySendTryRecv(t *testing.T) {
	ch := Make[int](1)
	_, status := ch.TryRecv()
	assert.Equal(t, RecvEmpty, status)

	assert.True(t, ch.TrySend(1))
	assert.False(t, ch.TrySend(2), "slot already full: TrySend must report would-block")

	v, status := ch.TryRecv()
	assert.Equal(t, RecvFound, status)
	assert.Equal(t, 1, v)
}

func TestBuffered1IsFullIsEmpty(t *testing.T) {
	ch := Make[int](1)
	assert.True(t, ch.IsEmpty())
	assert.False(t, ch.IsFull())

	ch.Send(1)
	assert.False(t, ch.IsEmpty())
	assert.True(t, ch.IsFull())
}

func TestBuffered1RoundTrip(t *testing.T) {
	ch := Make[string](1)
	require.True(t, ch.Send("v"))
	v, ok := ch.Recv()
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestBuffered1NoLossUnderContention(t *testing.T) {
	ch := Make[int](1)
	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.Send(i)
		}()
	}

	seen := make(map[int]bool, n)
	var mu sync.Mutex
	var rwg sync.WaitGroup
	for i := 0; i < n; i++ {
		rwg.Add(1)
		go func() {
			defer rwg.Done()
			v, ok := ch.Recv()
			require.True(t, ok)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	rwg.Wait()
	assert.Len(t, seen, n)
}
