package mezze

import (
	"flag"
	"fmt"
	"regexp"
)

// CancelMethod selects how a Run is wired to cooperative cancellation.
// Grounded on zuke/src/top.rs's CancelMethod enum.
type CancelMethod int

const (
	// CancelManual means the caller owns the Flag and sets it explicitly.
	CancelManual CancelMethod = iota
	// CancelCtrlC installs an os/signal handler that sets the run's Flag
	// the first time SIGINT is received.
	CancelCtrlC
	// CancelShared wires the run to a Flag supplied by the caller, so
	// multiple runs (or a surrounding process) can share one cancellation
	// signal.
	CancelShared
)

// Options is the frozen configuration of a single run: the step registry,
// hook registry, name filters, and cancellation wiring. Grounded on
// zuke/src/options.rs's TestOptions.
type Options struct {
	Title   string
	Vocab   Dispatcher
	Hooks   *HookRunner
	Flag    *Flag
	Cancel  CancelMethod
	Config  *Config

	// PreTestHooks run sequentially, before any before-hooks, against the
	// global Context. They are the usual place to register global
	// fixtures programmatically. Grounded on zuke/src/runner/standard.rs's
	// pre_test_hooks loop (spec.md §4.8).
	PreTestHooks []func(*Context) error

	includePatterns []*regexp.Regexp
	excludePatterns []*regexp.Regexp
}

// Dispatcher matches and executes a single step against user-registered
// step implementations. Satisfied by *vocab.Vocab; declared here (rather
// than imported) so pkg/mezze never depends on pkg/mezze/vocab.
type Dispatcher interface {
	Dispatch(ctx *Context, step Step) error
}

// included reports whether name (or any ancestor name already folded into
// parentIncluded) is matched by an include pattern. An empty include-set
// means "include everything".
func (o *Options) included(name string, parentIncluded bool) bool {
	if parentIncluded {
		return true
	}
	if len(o.includePatterns) == 0 {
		return true
	}
	for _, re := range o.includePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// excluded reports whether name (or any ancestor, via parentExcluded) is
// matched by an exclude pattern.
func (o *Options) excluded(name string, parentExcluded bool) bool {
	if parentExcluded {
		return true
	}
	for _, re := range o.excludePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// OptionsBuilder assembles Options the way zuke's TestOptionsBuilder does:
// incrementally, with repeatable -n/-e filters and optional extra flags.
type OptionsBuilder struct {
	title        string
	vocab        Dispatcher
	hooks        *HookRunner
	flag         *Flag
	cancel       CancelMethod
	config       *Config
	preTestHooks []func(*Context) error
	includes     []string
	excludes     []string
	extra        []func(*flag.FlagSet)
}

// NewOptionsBuilder starts an OptionsBuilder with an empty hook runner and
// an unset cancellation flag.
func NewOptionsBuilder(title string, vocab Dispatcher) *OptionsBuilder {
	return &OptionsBuilder{
		title: title,
		vocab: vocab,
		hooks: NewHookRunner(),
		flag:  NewFlag(),
		config: &Config{},
	}
}

// WithHooks replaces the builder's hook runner.
func (b *OptionsBuilder) WithHooks(h *HookRunner) *OptionsBuilder {
	b.hooks = h
	return b
}

// WithFlag wires the run to a caller-supplied Flag (CancelShared).
func (b *OptionsBuilder) WithFlag(f *Flag) *OptionsBuilder {
	b.flag = f
	b.cancel = CancelShared
	return b
}

// WithCtrlC requests an os/signal-driven SIGINT handler (CancelCtrlC).
func (b *OptionsBuilder) WithCtrlC() *OptionsBuilder {
	b.cancel = CancelCtrlC
	return b
}

// WithConfig sets the run's Config.
func (b *OptionsBuilder) WithConfig(c *Config) *OptionsBuilder {
	b.config = c
	return b
}

// WithPreTestHook appends a function run once, sequentially, against the
// global Context before any before-hooks fire.
func (b *OptionsBuilder) WithPreTestHook(hook func(*Context) error) *OptionsBuilder {
	b.preTestHooks = append(b.preTestHooks, hook)
	return b
}

// ExtraFlags registers additional flag definitions on the builder's base
// FlagSet (mirrors zuke's App-level option extenders).
func (b *OptionsBuilder) ExtraFlags(register func(*flag.FlagSet)) *OptionsBuilder {
	b.extra = append(b.extra, register)
	return b
}

// ParseArgs parses the engine's base CLI surface (-n/--name, -e/--exclude)
// plus any extra flags registered via ExtraFlags, using the standard
// library flag package the way internal/app/application.go parses its
// single -code flag.
func (b *OptionsBuilder) ParseArgs(args []string) error {
	fs := flag.NewFlagSet(b.title, flag.ContinueOnError)
	var includes, excludes multiFlag
	fs.Var(&includes, "n", "include pattern (repeatable)")
	fs.Var(&includes, "name", "include pattern (repeatable)")
	fs.Var(&excludes, "e", "exclude pattern (repeatable)")
	fs.Var(&excludes, "exclude", "exclude pattern (repeatable)")
	for _, register := range b.extra {
		register(fs)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	b.includes = append(b.includes, includes...)
	b.excludes = append(b.excludes, excludes...)
	return nil
}

// Build compiles the include/exclude patterns and returns a frozen Options.
func (b *OptionsBuilder) Build() (*Options, error) {
	opts := &Options{
		Title:        b.title,
		Vocab:        b.vocab,
		Hooks:        b.hooks,
		Flag:         b.flag,
		Cancel:       b.cancel,
		Config:       b.config,
		PreTestHooks: b.preTestHooks,
	}
	for _, p := range b.includes {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		opts.includePatterns = append(opts.includePatterns, re)
	}
	for _, p := range b.excludes {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		opts.excludePatterns = append(opts.excludePatterns, re)
	}
	return opts, nil
}

// multiFlag accumulates repeated -n/-e occurrences into a string slice.
type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return fmt.Sprint([]string(*m))
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
