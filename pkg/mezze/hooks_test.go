package mezze

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func scenarioCtxWithTags(tags ...string) *Context {
	opts := &Options{}
	global := GlobalComponent(opts)
	gctx := NewGlobalContext(global)
	fc := global.WithFeature(&Feature{Name: "F", Tags: tags})
	fctx := gctx.WithFeature(fc)
	sc := fc.WithScenario(&Scenario{Name: "S"})
	sctx := fctx.WithScenario(sc)
	return sctx
}

func TestHookRunnerOrdering(t *testing.T) {
	t.Run("before-hooks for the same kind run in ascending Order", func(t *testing.T) {
		var order []int
		r := NewHookRunner(
			&BeforeAfterHook{When: BeforeHook, Kind: ScenarioKind, Order: 2, Func: func(*Context) error {
				order = append(order, 2)
				return nil
			}},
			&BeforeAfterHook{When: BeforeHook, Kind: ScenarioKind, Order: 0, Func: func(*Context) error {
				order = append(order, 0)
				return nil
			}},
			&BeforeAfterHook{When: BeforeHook, Kind: ScenarioKind, Order: 1, Func: func(*Context) error {
				order = append(order, 1)
				return nil
			}},
		)

		ctx := scenarioCtxWithTags()
		require.NoError(t, r.Before(ctx))
		require.Equal(t, []int{0, 1, 2}, order)
	})

	t.Run("hooks registered for a different Kind never fire", func(t *testing.T) {
		fired := false
		r := NewHookRunner(&BeforeAfterHook{When: BeforeHook, Kind: FeatureKind, Func: func(*Context) error {
			fired = true
			return nil
		}})

		ctx := scenarioCtxWithTags()
		require.NoError(t, r.Before(ctx))
		require.False(t, fired)
	})
}

func TestHookRunnerTagGating(t *testing.T) {
	t.Run("a hook with a tag expression only fires when it matches", func(t *testing.T) {
		expr, err := ParseTagExpression("@smoke")
		require.NoError(t, err)

		var calls int
		r := NewHookRunner(&BeforeAfterHook{
			When: BeforeHook, Kind: ScenarioKind, Expr: expr,
			Func: func(*Context) error { calls++; return nil },
		})

		require.NoError(t, r.Before(scenarioCtxWithTags()))
		require.Equal(t, 0, calls)

		require.NoError(t, r.Before(scenarioCtxWithTags("@smoke")))
		require.Equal(t, 1, calls)
	})

	t.Run("a nil expression matches unconditionally", func(t *testing.T) {
		var calls int
		r := NewHookRunner(&BeforeAfterHook{
			When: AfterHook, Kind: ScenarioKind,
			Func: func(*Context) error { calls++; return nil },
		})
		require.NoError(t, r.After(scenarioCtxWithTags()))
		require.Equal(t, 1, calls)
	})
}

func TestHookRunnerErrorCollection(t *testing.T) {
	t.Run("errors from multiple hooks are joined, not short-circuited", func(t *testing.T) {
		e1 := errors.New("first")
		e2 := errors.New("second")
		r := NewHookRunner(
			&BeforeAfterHook{When: BeforeHook, Kind: ScenarioKind, Order: 0, Func: func(*Context) error { return e1 }},
			&BeforeAfterHook{When: BeforeHook, Kind: ScenarioKind, Order: 1, Func: func(*Context) error { return e2 }},
		)
		err := r.Before(scenarioCtxWithTags())
		require.Error(t, err)
		require.ErrorIs(t, err, e1)
		require.ErrorIs(t, err, e2)
	})

	t.Run("a panicking hook is converted to an error rather than crashing", func(t *testing.T) {
		r := NewHookRunner(&BeforeAfterHook{
			When: BeforeHook, Kind: ScenarioKind,
			Func: func(*Context) error { panic("boom") },
		})
		err := r.Before(scenarioCtxWithTags())
		require.Error(t, err)
	})

	t.Run("Teardown is a no-op", func(t *testing.T) {
		r := NewHookRunner()
		require.NoError(t, r.Teardown(scenarioCtxWithTags()))
	})
}
