package csp

import (
	"fmt"
	"log"
	"runtime"
)

// PanicError wraps a recovered panic value together with the stack
// trace captured at the moment of recovery, adapted from the teacher
// repo's task-panic capture for use on the detached watcher goroutines
// [Buffered1Channel] and [BufferedNChannel] spawn during the blocking
// phase of [Select].
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("csp: panic in select watcher: %v", e.Value)
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: buf[:n]}
}

// recoverWatcher is deferred at the top of every background watcher
// goroutine a channel spawns to finish a select registration. A
// selection watcher runs detached from the caller that spawned it, so
// an unhandled panic there would otherwise crash the process from a
// goroutine the caller has no way to join or recover from. It is
// logged with its stack and re-panicked on a scratch goroutine so the
// process still observes the failure instead of silently losing it.
func recoverWatcher() {
	if r := recover(); r != nil {
		pe := newPanicError(r)
		log.Printf("%s\n%s", pe.Error(), pe.Stack)
		go func() { panic(pe) }()
	}
}
