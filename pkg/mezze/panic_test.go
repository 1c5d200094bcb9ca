package mezze

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	t.Run("passes through a normal return", func(t *testing.T) {
		err := Recover(func() error { return nil })
		require.NoError(t, err)
	})

	t.Run("passes through a normal error return", func(t *testing.T) {
		want := errors.New("boom")
		err := Recover(func() error { return want })
		require.Equal(t, want, err)
	})

	t.Run("converts a string panic", func(t *testing.T) {
		err := Recover(func() error { panic("kaboom") })
		require.Error(t, err)
		require.Equal(t, "kaboom", err.Error())
	})

	t.Run("converts an error panic, preserving its message", func(t *testing.T) {
		cause := errors.New("underlying failure")
		err := Recover(func() error { panic(cause) })
		require.Error(t, err)
		require.Equal(t, "underlying failure", err.Error())
	})

	t.Run("falls back to a generic message for other payloads", func(t *testing.T) {
		err := Recover(func() error { panic(42) })
		require.Error(t, err)
		require.Equal(t, "Panicked", err.Error())
	})

	t.Run("re-panicking a *PanicError is passed through unwrapped", func(t *testing.T) {
		inner := &PanicError{Payload: "already converted"}
		err := Recover(func() error { panic(inner) })
		require.Same(t, inner, err)
	})
}
