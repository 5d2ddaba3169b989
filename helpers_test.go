package csp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustPanic asserts that fn panics with a message containing contains.
func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		require.Contains(t, fmt.Sprint(r), contains)
	}()
	fn()
}
