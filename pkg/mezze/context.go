package mezze

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/google/uuid"
)

// T is the test interface used for assertion failures. Satisfied by
// *testing.T and by the internal panicT fallback. Adapted from
// pkg/cacik/context.go.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Helper()
	Failed() bool
}

// Logger is the interface for structured logging within step functions,
// compatible with *slog.Logger. Adapted from pkg/cacik/context.go.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger discards all log messages.
type NoopLogger struct{}

func (NoopLogger) Debug(msg string, args ...any) {}
func (NoopLogger) Info(msg string, args ...any)  {}
func (NoopLogger) Warn(msg string, args ...any)  {}
func (NoopLogger) Error(msg string, args ...any) {}

// Context is the mutable per-execution carrier passed to step functions,
// hooks, and fixture callbacks: the current component, the active fixture
// sets, and the in-progress outcome (zuke/src/context.rs's Context plus
// OpenContext), combined with the logging/assertion/data surface users
// actually touch (pkg/cacik/context.go's Context). The engine-only
// derivation methods (WithFeature, WithScenario, the Activate helper
// behind UseFixtureFor, BeforeHooks, AfterHooks, Finalize) are the "open"
// half described in zuke's design; step functions are expected to use
// only Logger/Assert/Data/Component and UseFixtureFor.
type Context struct {
	id     string
	ctx    context.Context
	t      T
	logger Logger
	assert *Assert
	data   *Data

	component *Component
	outcome   *Outcome

	global   *fixtureSet
	feature  *fixtureSet
	scenario *fixtureSet
}

// ContextOption configures a Context returned by NewContext.
type ContextOption func(*Context)

// WithLogger sets the logger for the context.
func WithLogger(logger Logger) ContextOption {
	return func(c *Context) { c.logger = logger }
}

// WithContext sets the underlying context.Context.
func WithContext(ctx context.Context) ContextOption {
	return func(c *Context) { c.ctx = ctx }
}

// WithData seeds the scenario-scoped data store.
func WithData(data map[string]any) ContextOption {
	return func(c *Context) { c.data.values = data }
}

// NewContext creates a standalone Context, for use outside a Runner (e.g.
// directly in a unit test of a step function). A Runner-driven execution
// instead derives contexts through NewGlobalContext/WithFeature/etc.
func NewContext(opts ...ContextOption) *Context {
	t := &panicT{}
	c := &Context{
		id:     uuid.NewString(),
		ctx:    context.Background(),
		t:      t,
		assert: &Assert{t: t},
		data:   &Data{t: t, values: make(map[string]any)},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return c
}

// ID returns a stable identifier for this context's outcome.
func (c *Context) ID() string {
	if c.outcome != nil {
		return c.outcome.ID()
	}
	return c.id
}

// Context returns the underlying context.Context for library compatibility.
func (c *Context) Context() context.Context { return c.ctx }

// Logger returns the logger instance.
func (c *Context) Logger() Logger { return c.logger }

// Assert returns the assertion helper for making test assertions.
func (c *Context) Assert() *Assert { return c.assert }

// Data returns the scenario-scoped data store.
func (c *Context) Data() *Data { return c.data }

// TestingT returns the T interface used for assertions.
func (c *Context) TestingT() T { return c.t }

// Component returns the current position in the test tree.
func (c *Context) Component() *Component { return c.component }

// Outcome returns the in-progress outcome for the current component.
// Step implementations and fixtures may manipulate it directly, though
// returning an error from the step function is the usual path.
func (c *Context) Outcome() *Outcome { return c.outcome }

// FixtureScope reports the current scope as it pertains to fixtures:
// Global above any feature, Feature within a feature but above any
// scenario, Scenario otherwise.
func (c *Context) FixtureScope() Scope {
	if c.component == nil || c.component.feature == nil {
		return GlobalScope
	}
	if c.component.scenario == nil {
		return FeatureScope
	}
	return ScenarioScope
}

func (c *Context) fixtureSetFor(scope Scope) *fixtureSet {
	switch scope {
	case GlobalScope:
		return c.global
	case FeatureScope:
		return c.feature
	case ScenarioScope:
		return c.scenario
	default:
		return nil
	}
}

// NewGlobalContext derives the root Context for a run, owning a fresh
// global fixture set. Grounded on zuke's OpenContext::new_global.
func NewGlobalContext(component *Component, opts ...ContextOption) *Context {
	t := &panicT{}
	c := &Context{
		id:        uuid.NewString(),
		ctx:       context.Background(),
		t:         t,
		assert:    &Assert{t: t},
		data:      &Data{t: t, values: make(map[string]any)},
		logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)),
		component: component,
		outcome:   UndecidedOutcome(component),
		global:    newFixtureSet(GlobalScope),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithFeature derives a feature-scoped Context from a global Context,
// sharing the global fixture set and owning a fresh feature fixture set.
func (c *Context) WithFeature(component *Component) *Context {
	return c.derive(component, newFixtureSet(FeatureScope), nil)
}

// WithRule derives a rule-scoped Context (no fixture set of its own — rules
// are not a fixture scope per spec.md's three-scope model) from a feature
// Context.
func (c *Context) WithRule(component *Component) *Context {
	return c.derive(component, c.feature, nil)
}

// WithScenario derives a scenario-scoped Context, owning a fresh scenario
// fixture set, from a feature or rule Context.
func (c *Context) WithScenario(component *Component) *Context {
	return c.derive(component, c.feature, newFixtureSet(ScenarioScope))
}

// WithStep derives a step-scoped Context, sharing every fixture set with
// its scenario and only replacing the current component. Steps are not a
// fixture scope: this mirrors zuke's set_component, a pure position update.
func (c *Context) WithStep(component *Component) *Context {
	return &Context{
		id:        uuid.NewString(),
		ctx:       c.ctx,
		t:         c.t,
		logger:    c.logger,
		assert:    c.assert,
		data:      c.data,
		component: component,
		outcome:   WithParent(component, c.outcome),
		global:    c.global,
		feature:   c.feature,
		scenario:  c.scenario,
	}
}

func (c *Context) derive(component *Component, featureSet, scenarioSet *fixtureSet) *Context {
	return &Context{
		id:        uuid.NewString(),
		ctx:       c.ctx,
		t:         c.t,
		logger:    c.logger,
		assert:    c.assert,
		data:      &Data{t: c.t, values: make(map[string]any)},
		component: component,
		outcome:   WithParent(component, c.outcome),
		global:    c.global,
		feature:   featureSet,
		scenario:  scenarioSet,
	}
}

// UseFixtureFor activates (lazily creating if necessary) the fixture of
// type T at declaredScope within c, returning the shared, ready instance.
func UseFixtureFor[T Fixture](c *Context, declaredScope Scope, setup func(*Context) (T, error)) (T, error) {
	var zero T
	fs := c.fixtureSetFor(declaredScope)
	if fs == nil {
		return zero, &WrongFixtureScope{Fixture: reflect.TypeFor[T]().String(), Want: declaredScope, Have: c.FixtureScope()}
	}
	return Activate(c, fs, declaredScope, setup)
}

// BeforeHooks runs before-hooks (fixture Before callbacks) outer-first:
// global, then feature, then scenario.
func (c *Context) BeforeHooks() {
	for _, fs := range []*fixtureSet{c.global, c.feature, c.scenario} {
		if fs == nil {
			continue
		}
		if err := fs.before(c); err != nil {
			c.outcome.SetErr(FailWith(err))
		}
	}
}

// AfterHooks runs after-hooks (fixture After callbacks) inner-first:
// scenario, then feature, then global.
func (c *Context) AfterHooks() {
	for _, fs := range []*fixtureSet{c.scenario, c.feature, c.global} {
		if fs == nil {
			continue
		}
		if err := fs.after(c); err != nil {
			c.outcome.SetErr(FailWith(err))
		}
	}
}

// Finalize tears down the fixture set(s) owned exclusively at this
// Context's level (scenario, then feature, then global — whichever of
// those this Context actually owns) and, if the outcome is still
// Undecided, resolves it via the late-inclusion rule of spec.md §6.
func (c *Context) Finalize() *Outcome {
	switch c.component.Kind() {
	case ScenarioKind:
		if c.scenario != nil {
			if err := c.scenario.teardown(c); err != nil {
				c.outcome.SetErr(err)
			}
		}
	case FeatureKind:
		if c.feature != nil {
			if err := c.feature.teardown(c); err != nil {
				c.outcome.SetErr(err)
			}
		}
	case GlobalKind:
		if c.global != nil {
			if err := c.global.teardown(c); err != nil {
				c.outcome.SetErr(err)
			}
		}
	}

	if c.outcome.Verdict() == Undecided {
		if c.component.Included() {
			c.outcome.SetPassed()
		} else {
			c.outcome.SetExcluded()
		}
	}
	return c.outcome
}

// panicT panics on test failure. Used as fallback when *testing.T is not
// provided.
type panicT struct {
	failed bool
}

func (p *panicT) Errorf(format string, args ...any) {
	p.failed = true
	panic(&StepError{Verdict: Failed, Reason: fmt.Sprintf(format, args...)})
}

func (p *panicT) FailNow() {
	p.failed = true
	panic(&StepError{Verdict: Failed, Reason: "test failed"})
}

func (p *panicT) Helper() {}

func (p *panicT) Failed() bool { return p.failed }
