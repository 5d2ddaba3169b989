package csp_test

import (
	"fmt"

	"github.com/baxromumarov/csp"
)

func ExampleMake_rendezvous() {
	ch := csp.Make[string](0)
	done := make(chan struct{})
	go func() {
		v, _ := ch.Recv()
		fmt.Println(v)
		close(done)
	}()
	ch.Send("hello")
	<-done
	// Output: hello
}

func ExampleSelect() {
	a := csp.Make[int](1)
	a.Send(1)
	b := csp.Make[int](1)

	idx, out := csp.Select([]csp.Op{
		csp.Recv(a),
		csp.Recv(b),
	}, csp.WithDefault())
	fmt.Println(idx, out.Value)
	// Output: 0 1
}
