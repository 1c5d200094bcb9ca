package mezze

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx *Context, step Step) error { return nil }

func TestOptionsBuilderDefaults(t *testing.T) {
	t.Run("an empty include set matches every name", func(t *testing.T) {
		opts, err := NewOptionsBuilder("t", noopDispatcher{}).Build()
		require.NoError(t, err)
		require.True(t, opts.included("anything", false))
		require.False(t, opts.excluded("anything", false))
	})

	t.Run("Build wires Title, Vocab, Hooks, Flag", func(t *testing.T) {
		opts, err := NewOptionsBuilder("my-suite", noopDispatcher{}).Build()
		require.NoError(t, err)
		require.Equal(t, "my-suite", opts.Title)
		require.NotNil(t, opts.Vocab)
		require.NotNil(t, opts.Hooks)
		require.NotNil(t, opts.Flag)
		require.Equal(t, CancelManual, opts.Cancel)
	})
}

func TestOptionsBuilderFilters(t *testing.T) {
	t.Run("ParseArgs accumulates repeated -n and -e flags", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		require.NoError(t, b.ParseArgs([]string{"-n", "smoke", "-n", "regression", "-e", "slow"}))
		opts, err := b.Build()
		require.NoError(t, err)

		require.True(t, opts.included("smoke test", false))
		require.True(t, opts.included("regression suite", false))
		require.False(t, opts.included("unrelated", false))
		require.True(t, opts.excluded("a slow test", false))
	})

	t.Run("include/exclude matching is case-insensitive", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		require.NoError(t, b.ParseArgs([]string{"-n", "SMOKE"}))
		opts, err := b.Build()
		require.NoError(t, err)
		require.True(t, opts.included("a smoke test", false))
	})

	t.Run("an invalid regex pattern fails Build with an error", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		require.NoError(t, b.ParseArgs([]string{"-n", "("}))
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("parentIncluded/parentExcluded short-circuit regardless of patterns", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		require.NoError(t, b.ParseArgs([]string{"-n", "only-this"}))
		opts, err := b.Build()
		require.NoError(t, err)
		require.True(t, opts.included("unrelated name", true))
		require.True(t, opts.excluded("unrelated name", true))
	})
}

func TestOptionsBuilderCancellation(t *testing.T) {
	t.Run("WithFlag sets CancelShared and wires the given Flag", func(t *testing.T) {
		flag := NewFlag()
		b := NewOptionsBuilder("t", noopDispatcher{}).WithFlag(flag)
		opts, err := b.Build()
		require.NoError(t, err)
		require.Equal(t, CancelShared, opts.Cancel)
		require.Same(t, flag, opts.Flag)
	})

	t.Run("WithCtrlC sets CancelCtrlC", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{}).WithCtrlC()
		opts, err := b.Build()
		require.NoError(t, err)
		require.Equal(t, CancelCtrlC, opts.Cancel)
	})
}

func TestOptionsBuilderExtraFlags(t *testing.T) {
	t.Run("ExtraFlags-registered flags parse alongside the base flag set", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		var code string
		b.ExtraFlags(func(fs *flag.FlagSet) {
			fs.StringVar(&code, "code", "", "feature code")
		})
		require.NoError(t, b.ParseArgs([]string{"-code", "abc123", "-n", "smoke"}))
		require.Equal(t, "abc123", code)
	})
}

func TestOptionsBuilderPreTestHooks(t *testing.T) {
	t.Run("WithPreTestHook appends in call order", func(t *testing.T) {
		b := NewOptionsBuilder("t", noopDispatcher{})
		var order []int
		b.WithPreTestHook(func(*Context) error { order = append(order, 1); return nil })
		b.WithPreTestHook(func(*Context) error { order = append(order, 2); return nil })
		opts, err := b.Build()
		require.NoError(t, err)
		require.Len(t, opts.PreTestHooks, 2)
		for _, h := range opts.PreTestHooks {
			require.NoError(t, h(nil))
		}
		require.Equal(t, []int{1, 2}, order)
	})
}
