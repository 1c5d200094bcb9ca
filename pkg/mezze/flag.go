package mezze

import "sync"

// Flag is a shared one-shot broadcast signal. It starts Unset and moves to
// Set exactly once; every goroutine waiting on it observes the transition.
// The zero value is a valid, Unset Flag.
type Flag struct {
	setOnce  sync.Once
	initOnce sync.Once
	ch       chan struct{}
}

// NewFlag returns an unset Flag ready to use. Equivalent to the zero value;
// provided for symmetry with the rest of the package's constructors.
func NewFlag() *Flag {
	return &Flag{}
}

func (f *Flag) channel() chan struct{} {
	f.initOnce.Do(func() {
		f.ch = make(chan struct{})
	})
	return f.ch
}

// Set marks the flag as Set. Idempotent: subsequent calls are no-ops.
func (f *Flag) Set() {
	ch := f.channel()
	f.setOnce.Do(func() {
		close(ch)
	})
}

// IsSet reports whether the flag has already been set, without blocking.
func (f *Flag) IsSet() bool {
	select {
	case <-f.channel():
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the flag is Set, suitable for
// use in a select alongside other channel operations (mirrors zuke's
// flag.wait() raced against a step dispatch future).
func (f *Flag) Done() <-chan struct{} {
	return f.channel()
}
