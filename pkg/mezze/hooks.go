package mezze

import "sort"

// HookWhen distinguishes a before-hook from an after-hook.
type HookWhen int

const (
	BeforeHook HookWhen = iota
	AfterHook
)

// BeforeAfterHook is one registered hook: a function to run When a
// component of the given Kind begins or ends, gated by an optional tag
// Expr (nil matches unconditionally). Order breaks ties between hooks
// registered for the same (When, Kind) pair, lowest first — adapted from
// pkg/cacik/hooks.go's Hooks.Order, since zuke's inventory::collect! has no
// equivalent explicit ordering need (registration order there is
// link-order, which Go can't rely on).
//
// Grounded on zuke/src/hooks.rs's BeforeAfterHook/Operation/eval_expr.
type BeforeAfterHook struct {
	When  HookWhen
	Kind  Kind
	Func  func(*Context) error
	Expr  *TagExpression
	Order int
}

type hookBin struct {
	before []*BeforeAfterHook
	after  []*BeforeAfterHook
}

// HookRunner dispatches registered hooks by component kind and phase,
// evaluating each hook's tag expression against the current component
// before running it. It is itself a global-scoped Fixture (Teardown is a
// no-op): Context.BeforeHooks/AfterHooks invoke it like any other fixture's
// Before/After once it has been activated into the run's global fixture
// set. Grounded on zuke/src/hooks.rs's HookRunner.
type HookRunner struct {
	bins map[Kind]*hookBin
}

// NewHookRunner bins hooks by (Kind) and sorts each bin by Order, stable on
// registration order for ties.
func NewHookRunner(hooks ...*BeforeAfterHook) *HookRunner {
	r := &HookRunner{bins: make(map[Kind]*hookBin)}
	for _, h := range hooks {
		b, ok := r.bins[h.Kind]
		if !ok {
			b = &hookBin{}
			r.bins[h.Kind] = b
		}
		switch h.When {
		case BeforeHook:
			b.before = append(b.before, h)
		case AfterHook:
			b.after = append(b.after, h)
		}
	}
	for _, b := range r.bins {
		sort.SliceStable(b.before, func(i, j int) bool { return b.before[i].Order < b.before[j].Order })
		sort.SliceStable(b.after, func(i, j int) bool { return b.after[i].Order < b.after[j].Order })
	}
	return r
}

// Teardown is a no-op: a HookRunner owns no resources of its own.
func (r *HookRunner) Teardown(ctx *Context) error { return nil }

// Before runs the registered before-hooks for ctx's current component kind
// whose tag expression matches the component (or has none).
func (r *HookRunner) Before(ctx *Context) error {
	b, ok := r.bins[ctx.Component().Kind()]
	if !ok {
		return nil
	}
	var errs []error
	for _, h := range b.before {
		if h.Expr != nil && !h.Expr.Eval(ctx.Component()) {
			continue
		}
		if err := Recover(func() error { return h.Func(ctx) }); err != nil {
			errs = append(errs, err)
		}
	}
	return MultiError(errs...)
}

// After runs the registered after-hooks for ctx's current component kind
// whose tag expression matches the component (or has none).
func (r *HookRunner) After(ctx *Context) error {
	b, ok := r.bins[ctx.Component().Kind()]
	if !ok {
		return nil
	}
	var errs []error
	for _, h := range b.after {
		if h.Expr != nil && !h.Expr.Eval(ctx.Component()) {
			continue
		}
		if err := Recover(func() error { return h.Func(ctx) }); err != nil {
			errs = append(errs, err)
		}
	}
	return MultiError(errs...)
}
