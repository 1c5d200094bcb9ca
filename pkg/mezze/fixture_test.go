package mezze

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type dbFixture struct {
	teardownCount int32
	beforeCount   int32
	afterCount    int32
}

func (f *dbFixture) Teardown(ctx *Context) error {
	atomic.AddInt32(&f.teardownCount, 1)
	return nil
}

func (f *dbFixture) Before(ctx *Context) error {
	atomic.AddInt32(&f.beforeCount, 1)
	return nil
}

func (f *dbFixture) After(ctx *Context) error {
	atomic.AddInt32(&f.afterCount, 1)
	return nil
}

func newContextAt(scope Scope) *Context {
	opts := &Options{}
	global := GlobalComponent(opts)
	gctx := NewGlobalContext(global)
	switch scope {
	case GlobalScope:
		return gctx
	case FeatureScope:
		fc := global.WithFeature(&Feature{Name: "F"})
		return gctx.WithFeature(fc)
	default:
		fc := global.WithFeature(&Feature{Name: "F"})
		fctx := gctx.WithFeature(fc)
		sc := fc.WithScenario(&Scenario{Name: "S"})
		return fctx.WithScenario(sc)
	}
}

func TestFixtureActivateOnce(t *testing.T) {
	t.Run("setup runs exactly once for concurrent Activate calls", func(t *testing.T) {
		ctx := newContextAt(ScenarioScope)
		fixture := &dbFixture{}
		var setups int32

		var wg sync.WaitGroup
		results := make([]*dbFixture, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				f, err := UseFixtureFor[*dbFixture](ctx, ScenarioScope, func(*Context) (*dbFixture, error) {
					atomic.AddInt32(&setups, 1)
					return fixture, nil
				})
				require.NoError(t, err)
				results[i] = f
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), setups)
		for _, f := range results {
			require.Same(t, fixture, f)
		}
	})

	t.Run("a failed setup returns FixtureSetupFailed wrapping the cause", func(t *testing.T) {
		ctx := newContextAt(ScenarioScope)
		setupErr := errors.New("connection refused")

		_, err := UseFixtureFor[*dbFixture](ctx, ScenarioScope, func(*Context) (*dbFixture, error) {
			return nil, setupErr
		})
		require.Error(t, err)
		var failed *FixtureSetupFailed
		require.ErrorAs(t, err, &failed)
		require.Equal(t, setupErr, failed.Cause)
	})
}

func TestFixtureWrongScope(t *testing.T) {
	t.Run("activating a Scenario-declared fixture from Feature scope is an error", func(t *testing.T) {
		ctx := newContextAt(FeatureScope)
		_, err := UseFixtureFor[*dbFixture](ctx, ScenarioScope, func(*Context) (*dbFixture, error) {
			return &dbFixture{}, nil
		})
		require.Error(t, err)
		var wrong *WrongFixtureScope
		require.ErrorAs(t, err, &wrong)
	})
}

func TestFixtureLifecycleOrdering(t *testing.T) {
	t.Run("Before/After run against a fixture activated at global scope", func(t *testing.T) {
		opts := &Options{}
		global := GlobalComponent(opts)
		gctx := NewGlobalContext(global)

		globalFixture := &dbFixture{}
		_, err := UseFixtureFor[*dbFixture](gctx, GlobalScope, func(*Context) (*dbFixture, error) {
			return globalFixture, nil
		})
		require.NoError(t, err)

		fc := global.WithFeature(&Feature{Name: "F"})
		fctx := gctx.WithFeature(fc)
		sc := fc.WithScenario(&Scenario{Name: "S"})
		sctx := fctx.WithScenario(sc)

		sctx.BeforeHooks()
		require.Equal(t, int32(1), globalFixture.beforeCount)

		sctx.AfterHooks()
		require.Equal(t, int32(1), globalFixture.afterCount)
	})

	t.Run("teardown runs exactly once per scope, at Finalize", func(t *testing.T) {
		ctx := newContextAt(ScenarioScope)
		fixture := &dbFixture{}
		_, err := UseFixtureFor[*dbFixture](ctx, ScenarioScope, func(*Context) (*dbFixture, error) {
			return fixture, nil
		})
		require.NoError(t, err)

		ctx.Finalize()
		require.Equal(t, int32(1), fixture.teardownCount)
	})

	t.Run("a still-Pending fixture is skipped by Before", func(t *testing.T) {
		ctx := newContextAt(ScenarioScope)

		started := make(chan struct{})
		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = UseFixtureFor[*dbFixture](ctx, ScenarioScope, func(*Context) (*dbFixture, error) {
				close(started)
				<-release
				return &dbFixture{}, nil
			})
		}()

		<-started
		// The fixture is still mid-setup (Pending): Before must not panic or
		// observe it, since Before() only iterates Ready entries.
		require.NotPanics(t, func() { ctx.BeforeHooks() })
		close(release)
		wg.Wait()
	})
}
