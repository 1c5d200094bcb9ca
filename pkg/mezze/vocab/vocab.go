// Package vocab is the step registry: it compiles patterns into anchored
// regexes, binds captured groups to Go function parameters via reflection,
// and dispatches a Step to exactly one matching implementation. Grounded on
// pkg/executor/executor.go's StepExecutor, generalized to satisfy
// mezze.Dispatcher instead of driving its own tree walk (the engine package
// now owns traversal).
package vocab

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

// StepImplementation is a user-registered step function. It may accept, in
// any order amongst themselves but each at most once: *mezze.Context,
// *mezze.Table, mezze.DocString, and any number of positional captured
// parameters (primitives, time.Time, *time.Location, or a registered custom
// named type). It returns zero or one error.
type StepImplementation any

type stepEntry struct {
	pattern string
	typ     StepTypeFilter
	re      *regexp.Regexp
	fn      reflect.Value
	source  string
}

// Vocab is the concrete mezze.Dispatcher: a registry of step
// implementations plus custom parameter types. Safe for concurrent
// Dispatch calls once registration is complete; registration itself is not
// safe for concurrent use.
type Vocab struct {
	mu          sync.RWMutex
	steps       []*stepEntry
	patternSet  map[string]bool
	customTypes map[string]*CustomType
	binder      *binder
}

// New creates an empty Vocab.
func New() *Vocab {
	v := &Vocab{
		patternSet:  make(map[string]bool),
		customTypes: make(map[string]*CustomType),
	}
	v.binder = newBinder(v.customTypes)
	return v
}

// RegisterCustomType declares a named parameter type with a closed,
// case-insensitive set of allowed spellings. typeName must match the Go
// type's reflect.Type.Name() exactly (e.g. "Color" for `type Color
// string`). Grounded on pkg/executor/executor.go's RegisterCustomType.
func (v *Vocab) RegisterCustomType(typeName string, allowedValues map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	lowered := make(map[string]string, len(allowedValues))
	for k, val := range allowedValues {
		lowered[strings.ToLower(k)] = val
	}
	v.customTypes[typeName] = &CustomType{Name: typeName, AllowedValues: lowered}
}

// Given registers fn against a Given-only pattern.
func (v *Vocab) Given(pattern string, fn StepImplementation) error {
	return v.register(pattern, GivenOnly, fn)
}

// When registers fn against a When-only pattern.
func (v *Vocab) When(pattern string, fn StepImplementation) error {
	return v.register(pattern, WhenOnly, fn)
}

// Then registers fn against a Then-only pattern.
func (v *Vocab) Then(pattern string, fn StepImplementation) error {
	return v.register(pattern, ThenOnly, fn)
}

// Step registers fn against a pattern that matches Given, When, or Then.
func (v *Vocab) Step(pattern string, fn StepImplementation) error {
	return v.register(pattern, AnyStepType, fn)
}

// GivenRegex registers fn against a Given-only pattern using the Regex
// flavor (spec.md §4.4): pattern is used verbatim as a regex, with no
// escaping of its metacharacters, so top-level alternation and anchors
// work as the caller wrote them. Grounded on zuke-macros/src/step_args.rs's
// PatternType::Regex.
func (v *Vocab) GivenRegex(pattern string, fn StepImplementation) error {
	return v.registerRegex(pattern, GivenOnly, fn)
}

// WhenRegex registers fn against a When-only Regex-flavor pattern.
func (v *Vocab) WhenRegex(pattern string, fn StepImplementation) error {
	return v.registerRegex(pattern, WhenOnly, fn)
}

// ThenRegex registers fn against a Then-only Regex-flavor pattern.
func (v *Vocab) ThenRegex(pattern string, fn StepImplementation) error {
	return v.registerRegex(pattern, ThenOnly, fn)
}

// StepRegex registers fn against a Regex-flavor pattern that matches
// Given, When, or Then.
func (v *Vocab) StepRegex(pattern string, fn StepImplementation) error {
	return v.registerRegex(pattern, AnyStepType, fn)
}

// register compiles pattern (an Expression-flavor pattern, `{name}`/
// `{name:regex}` captures) and adds fn to the registry.
func (v *Vocab) register(pattern string, t StepTypeFilter, fn StepImplementation) error {
	body, err := compileExpression(pattern)
	if err != nil {
		return err
	}
	return v.addEntry(pattern, body, t, fn)
}

// registerRegex adds fn against pattern used verbatim as the regex body —
// the Regex flavor spec.md §4.4 mandates alongside Expression, skipping
// compileExpression's escaping entirely. A leading ^ and trailing $ are
// dropped (the final regex is anchored anyway) and the body is wrapped in
// a non-capturing group, so the keyword prefix applies to every
// alternative.
func (v *Vocab) registerRegex(pattern string, t StepTypeFilter, fn StepImplementation) error {
	body := strings.TrimPrefix(pattern, "^")
	if strings.HasSuffix(body, "$") && !strings.HasSuffix(body, `\$`) {
		body = strings.TrimSuffix(body, "$")
	}
	return v.addEntry(pattern, "(?:"+body+")", t, fn)
}

// addEntry compiles body into the final anchored regex and adds fn to the
// registry, rejecting exact duplicate (pattern, type) pairs the way
// pkg/executor/executor.go's RegisterStep does via its patternSet.
func (v *Vocab) addEntry(pattern, body string, t StepTypeFilter, fn StepImplementation) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := fmt.Sprintf("%d:%s", t, pattern)
	if v.patternSet[key] {
		return fmt.Errorf("duplicate step pattern: %q", pattern)
	}

	re, err := compilePattern(body, t)
	if err != nil {
		return err
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return fmt.Errorf("step implementation for %q is not a function", pattern)
	}

	v.patternSet[key] = true
	v.steps = append(v.steps, &stepEntry{
		pattern: pattern,
		typ:     t,
		re:      re,
		fn:      fnVal,
		source:  pattern,
	})
	return nil
}

// Dispatch implements mezze.Dispatcher: it finds the step implementations
// whose pattern matches the step's normalized text (the keyword of its
// resolved Type, a space, then step.Text), requires exactly one match,
// binds its captures, and invokes it — recovering any panic the way
// mezze.Recover does for fixture callbacks.
func (v *Vocab) Dispatch(ctx *mezze.Context, step mezze.Step) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	text := step.Type.String() + " " + step.Text

	var matched []*stepEntry
	var captures [][]string
	for _, entry := range v.steps {
		groups := entry.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		matched = append(matched, entry)
		captures = append(captures, groups[1:])
	}

	switch len(matched) {
	case 0:
		return &mezze.NoStepMatch{What: text}
	case 1:
		entry := matched[0]
		caps := captures[0]
		return mezze.Recover(func() error {
			return v.binder.call(entry.fn, ctx, step, caps)
		})
	default:
		locs := make([]string, 0, len(matched))
		for _, e := range matched {
			locs = append(locs, e.source)
		}
		sort.Strings(locs)
		return &mezze.MultipleStepMatches{What: text, Locations: locs}
	}
}
