// Package csp implements typed, in-process communication channels and
// a multi-way selection primitive built from the ground up on
// mutexes, atomics, and goroutines — the synchronization protocols a
// language runtime would normally hide behind `chan` and `select`, as
// a library instead.
//
// # Constructing a channel
//
// [Make] picks the channel's behavior from its capacity:
//
//	rendezvous := csp.Make[int](0)   // *UnbufferedChannel[int]
//	single := csp.Make[int](1)       // *Buffered1Channel[int]
//	queue := csp.Make[int](16)       // *BufferedNChannel[int]
//
// All three satisfy [Channel], whose Send/Recv block and whose
// TrySend/TryRecv never do:
//
//	ch := csp.Make[string](4)
//	go func() { ch.Send("hello") }()
//	v, ok := ch.Recv()
//
// # Closing
//
// [Channel.Close] is idempotent and wakes every blocked sender and
// receiver. Receives continue to drain any value already buffered
// before Close was called; once drained, Recv returns ok == false
// forever after.
//
// # Selecting across channels
//
// [Select] arbitrates a slice of [Op] values built with [Send] and
// [Recv], spanning channels of different element types:
//
//	nums := csp.Make[int](0)
//	strs := csp.Make[string](0)
//	idx, out := csp.Select([]csp.Op{
//	    csp.Recv(nums),
//	    csp.Send(strs, "ping"),
//	}, csp.WithTimeout(time.Second))
//	switch idx {
//	case 0:
//	    n := out.Value.(int)
//	    _ = n
//	case 1:
//	    _ = out.Ok
//	case -1:
//	    // timed out
//	}
//
// Pass [WithDefault] instead of a timeout to make Select return
// immediately (index -1) when nothing is ready, rather than block.
//
// # Internals
//
// [SyncCell] is the two-phase semaphore behind every rendezvous wait
// and every blocking Select (the buffered channels' own Send/Recv
// block on counting semaphores instead): a counting wait/signal pair
// plus a tagged state that advances Ready -> Pointer -> Done, whose
// Ready->Pointer CAS is the single commit point for both an ordinary
// rendezvous and a many-way Select. [SyncCellPool] and the generic
// node pool behind [BufferedNChannel] reuse cells and queue nodes to
// cut per-operation allocation on the hot path.
package csp
