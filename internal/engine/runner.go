// Package engine implements the concurrent test runner: features run in
// parallel, rules and scenarios run in parallel within a feature, and
// steps within a scenario run strictly sequentially. Grounded on
// zuke/src/runner/standard.rs's StandardRunner.
package engine

import (
	"sync"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

// Runner drives a single execution of a Feature stream to completion,
// broadcasting Started/Finished events and returning the root Outcome.
type Runner struct{}

// NewRunner creates a Runner. It holds no state of its own: every
// invocation of Run is independent.
func NewRunner() *Runner {
	return &Runner{}
}

// contextOptions translates the ambient parts of Config (DisableLog,
// Logger) into the ContextOption the root Context is built with, so every
// derived Context throughout the run inherits the same logger.
func contextOptions(opts *mezze.Options) []mezze.ContextOption {
	if opts.Config == nil {
		return nil
	}
	if opts.Config.DisableLog {
		return []mezze.ContextOption{mezze.WithLogger(mezze.NoopLogger{})}
	}
	if opts.Config.Logger != nil {
		return []mezze.ContextOption{mezze.WithLogger(opts.Config.Logger)}
	}
	return nil
}

// Run consumes features until the channel closes, then finalizes and
// returns the root (Global) Outcome. bus is closed once the final event
// has been published.
func (r *Runner) Run(opts *mezze.Options, features <-chan mezze.Feature, bus *mezze.EventBus) *mezze.Outcome {
	defer bus.Close()

	global := mezze.GlobalComponent(opts)
	gctx := mezze.NewGlobalContext(global, contextOptions(opts)...)

	// The hook runner is itself a global-scoped fixture: activating it
	// here makes Context.BeforeHooks/AfterHooks invoke it like any other
	// fixture, in the same outer-first/inner-first order as everything
	// else at global scope.
	if opts.Hooks != nil {
		_, _ = mezze.UseFixtureFor[*mezze.HookRunner](gctx, mezze.GlobalScope, func(*mezze.Context) (*mezze.HookRunner, error) {
			return opts.Hooks, nil
		})
	}

	bus.Publish(mezze.Event{Kind: mezze.Started, Component: global})

	for _, hook := range opts.PreTestHooks {
		if err := mezze.Recover(func() error { return hook(gctx) }); err != nil {
			gctx.Outcome().SetErr(mezze.FailWith(err))
			break
		}
	}

	gctx.BeforeHooks()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var children []*mezze.Outcome
	collect := func(o *mezze.Outcome) {
		mu.Lock()
		children = append(children, o)
		mu.Unlock()
	}

	for feature := range features {
		feature := feature
		wg.Add(1)
		go func() {
			defer wg.Done()
			collect(r.runFeature(gctx, &feature, bus))
		}()
	}
	wg.Wait()

	gctx.AfterHooks()
	// Children must be absorbed before Finalize: Finalize only applies its
	// Undecided->Passed/Excluded default when the verdict is still
	// Undecided, and absorption is max()-only, so an Excluded/Skipped child
	// folded in afterward could never pull an already-defaulted Passed back
	// down. Grounded on zuke/src/runner/standard.rs:178-182, which add_child
	// every child before finalize.
	for _, c := range children {
		gctx.Outcome().AddChild(c)
	}
	outcome := gctx.Finalize()
	bus.Publish(mezze.Event{Kind: mezze.Finished, Component: global, Outcome: outcome})
	return outcome
}

func (r *Runner) runFeature(parent *mezze.Context, f *mezze.Feature, bus *mezze.EventBus) *mezze.Outcome {
	component := parent.Component().WithFeature(f)
	fctx := parent.WithFeature(component)
	bus.Publish(mezze.Event{Kind: mezze.Started, Component: component})
	fctx.BeforeHooks()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var children []*mezze.Outcome
	collect := func(o *mezze.Outcome) {
		mu.Lock()
		children = append(children, o)
		mu.Unlock()
	}

	for i := range f.Rules {
		rule := &f.Rules[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			collect(r.runRule(fctx, rule, bus))
		}()
	}
	for i := range f.Scenarios {
		sc := &f.Scenarios[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			collect(r.runScenario(fctx, sc, bus))
		}()
	}
	wg.Wait()

	fctx.AfterHooks()
	for _, c := range children {
		fctx.Outcome().AddChild(c)
	}
	outcome := fctx.Finalize()
	bus.Publish(mezze.Event{Kind: mezze.Finished, Component: component, Outcome: outcome})
	return outcome
}

func (r *Runner) runRule(parent *mezze.Context, rule *mezze.Rule, bus *mezze.EventBus) *mezze.Outcome {
	component := parent.Component().WithRule(rule)
	rctx := parent.WithRule(component)
	bus.Publish(mezze.Event{Kind: mezze.Started, Component: component})
	rctx.BeforeHooks()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var children []*mezze.Outcome
	for i := range rule.Scenarios {
		sc := &rule.Scenarios[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := r.runScenario(rctx, sc, bus)
			mu.Lock()
			children = append(children, o)
			mu.Unlock()
		}()
	}
	wg.Wait()

	rctx.AfterHooks()
	for _, c := range children {
		rctx.Outcome().AddChild(c)
	}
	outcome := rctx.Finalize()
	bus.Publish(mezze.Event{Kind: mezze.Finished, Component: component, Outcome: outcome})
	return outcome
}

// runScenario launches the scenario on its own goroutine: this is the one
// place real parallelism matters, since a cooperative stall in user code
// must not starve sibling scenarios. Grounded on standard.rs's
// task::spawn(Self::scenario_worker(...)).
func (r *Runner) runScenario(parent *mezze.Context, sc *mezze.Scenario, bus *mezze.EventBus) *mezze.Outcome {
	component := parent.Component().WithScenario(sc)
	sctx := parent.WithScenario(component)

	// Inclusion is not late-evaluated for scenarios: decide now.
	if !component.Included() {
		sctx.Outcome().SetExcluded()
	}

	bus.Publish(mezze.Event{Kind: mezze.Started, Component: component})

	result := make(chan *mezze.Outcome, 1)
	go func() { result <- r.scenarioWorker(sctx, bus) }()
	outcome := <-result

	opts := component.Options()
	if opts.Config != nil && opts.Config.FailFast && outcome.Failed() && opts.Flag != nil {
		opts.Flag.Set()
	}

	bus.Publish(mezze.Event{Kind: mezze.Finished, Component: component, Outcome: outcome})
	return outcome
}

func (r *Runner) scenarioWorker(sctx *mezze.Context, bus *mezze.EventBus) *mezze.Outcome {
	sctx.BeforeHooks()

	component := sctx.Component()
	for _, step := range component.StepsInOrder() {
		step := step
		stepComponent := component.WithStep(&step)
		stepCtx := sctx.WithStep(stepComponent)
		outcome := r.runStep(sctx, stepCtx, bus)
		sctx.Outcome().AddChild(outcome)
	}

	sctx.AfterHooks()
	return sctx.Finalize()
}

// runStep applies the parent-inheritance rule (spec.md §4.8): a skipped
// scenario inherits the same skip kind, a failed scenario marks the step
// Skipped without dispatching, and otherwise the step is dispatched,
// racing the run's cancellation Flag.
func (r *Runner) runStep(scenarioCtx, stepCtx *mezze.Context, bus *mezze.EventBus) *mezze.Outcome {
	component := stepCtx.Component()
	bus.Publish(mezze.Event{Kind: mezze.Started, Component: component})

	parent := scenarioCtx.Outcome()
	outcome := stepCtx.Outcome()

	switch {
	case parent.Skipped():
		if parent.Verdict() == mezze.Excluded {
			outcome.SetExcluded()
		} else {
			outcome.SetSkip()
		}
	case parent.Failed():
		outcome.SetSkip()
	default:
		outcome.SetResult(r.dispatch(stepCtx, *component.StepValue()))
	}

	bus.Publish(mezze.Event{Kind: mezze.Finished, Component: component, Outcome: outcome})
	return outcome
}

// dispatch runs the step through the run's Vocab, racing the shared
// cancellation Flag the way spec.md §4.9 describes.
func (r *Runner) dispatch(ctx *mezze.Context, step mezze.Step) error {
	opts := ctx.Component().Options()

	if opts.Flag != nil && opts.Flag.IsSet() {
		return mezze.Cancel("execution canceled")
	}

	done := make(chan error, 1)
	go func() { done <- opts.Vocab.Dispatch(ctx, step) }()

	if opts.Flag == nil {
		return <-done
	}

	select {
	case err := <-done:
		return err
	case <-opts.Flag.Done():
		return mezze.Cancel("execution canceled")
	}
}
