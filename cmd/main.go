package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/baxromumarov/csp"
)

func main() {
	rendezvous()
	pipeline()
	fanInSelect()
}

// rendezvous demonstrates an unbuffered channel: the send only
// returns once a receiver has claimed the value.
func rendezvous() {
	ch := csp.Make[string](0)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, ok := ch.Recv()
		fmt.Println("rendezvous: received", v, ok)
	}()
	ch.Send("hello")
	wg.Wait()
}

// pipeline demonstrates a buffered queue feeding a worker, closed once
// the producer is done so the worker's Recv loop terminates cleanly.
func pipeline() {
	jobs := csp.Make[int](8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		total := 0
		for {
			v, ok := jobs.Recv()
			if !ok {
				break
			}
			total += v
		}
		fmt.Println("pipeline: total", total)
	}()
	for i := 1; i <= 5; i++ {
		jobs.Send(i)
	}
	jobs.Close()
	wg.Wait()
}

// fanInSelect demonstrates Select choosing between two channels, with
// a timeout bounding how long it waits once both producers are done.
func fanInSelect() {
	a := csp.Make[int](1)
	b := csp.Make[int](1)
	go func() { a.Send(1) }()
	go func() { b.Send(2) }()

	seen := 0
	for seen < 2 {
		idx, out := csp.Select([]csp.Op{
			csp.Recv(a),
			csp.Recv(b),
		}, csp.WithTimeout(100*time.Millisecond))
		if idx == -1 {
			fmt.Println("fanInSelect: timed out waiting for an arm")
			break
		}
		fmt.Println("fanInSelect: arm", idx, "got", out.Value)
		seen++
	}
}
