// Package suite wires the engine's individually-usable pieces — an
// Options builder, the Vocab step registry, the gherkinfeed parser, the
// concurrent Runner, and a set of Reporters — into the single top-level
// type most programs actually want. Grounded on zuke/src/top.rs's Zuke
// and ZukeBuilder, adapted into Go's builder-returns-value idiom instead
// of the Rust original's consuming self; matches cacik's
// pkg/runner.CucumberRunner in spirit (one fluent entry point per
// program) while keeping the event-driven Reporter contract spec.md §6
// actually calls for.
package suite

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mezze-dev/mezze/internal/engine"
	"github.com/mezze-dev/mezze/pkg/mezze"
	"github.com/mezze-dev/mezze/pkg/mezze/gherkinfeed"
	"github.com/mezze-dev/mezze/pkg/mezze/vocab"
)

// Suite is the assembled, ready-to-run test program.
type Suite struct {
	opts            *mezze.Options
	featurePaths    []string
	featureDirs     []string
	reporters       []mezze.Reporter
	eventBufferSize int
}

// Builder assembles a Suite. Call Build once every RegisterStep/
// FeaturePaths/Reporter call has been made.
type Builder struct {
	optsBuilder  *mezze.OptionsBuilder
	vocab        *vocab.Vocab
	featurePaths []string
	featureDirs  []string
	reporters    []mezze.Reporter
	ctrlC        bool
}

// NewBuilder starts a Builder with an empty Vocab and the engine's default
// command-line surface (-n/-e).
func NewBuilder(title string) *Builder {
	v := vocab.New()
	return &Builder{
		optsBuilder: mezze.NewOptionsBuilder(title, v),
		vocab:       v,
		ctrlC:       true,
	}
}

// RegisterStep registers fn against a pattern matching any of
// Given/When/Then. Grounded on pkg/runner/runner.go's
// CucumberRunner.RegisterStep, generalized to Expression-flavor patterns.
func (b *Builder) RegisterStep(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.Step(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

// RegisterGiven, RegisterWhen, and RegisterThen restrict registration to a
// single Gherkin step type.
func (b *Builder) RegisterGiven(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.Given(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) RegisterWhen(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.When(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) RegisterThen(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.Then(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

// RegisterStepRegex, RegisterGivenRegex, RegisterWhenRegex, and
// RegisterThenRegex register against a Regex-flavor pattern: used verbatim
// as a regex rather than compiled via Expression escaping, per spec.md
// §4.4's second pattern flavor.
func (b *Builder) RegisterStepRegex(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.StepRegex(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) RegisterGivenRegex(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.GivenRegex(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) RegisterWhenRegex(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.WhenRegex(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) RegisterThenRegex(pattern string, fn vocab.StepImplementation) *Builder {
	if err := b.vocab.ThenRegex(pattern, fn); err != nil {
		panic(err)
	}
	return b
}

// RegisterCustomType declares a named parameter type with a closed set of
// case-insensitive spellings, e.g. RegisterCustomType("Priority",
// map[string]string{"high": "high", "h": "high"}).
func (b *Builder) RegisterCustomType(typeName string, allowedValues map[string]string) *Builder {
	b.vocab.RegisterCustomType(typeName, allowedValues)
	return b
}

// WithHooks replaces the builder's hook registry.
func (b *Builder) WithHooks(h *mezze.HookRunner) *Builder {
	b.optsBuilder.WithHooks(h)
	return b
}

// WithPreTestHook appends a pre-test hook (spec.md §4.8).
func (b *Builder) WithPreTestHook(hook func(*mezze.Context) error) *Builder {
	b.optsBuilder.WithPreTestHook(hook)
	return b
}

// WithConfig sets the run's Config.
func (b *Builder) WithConfig(c *mezze.Config) *Builder {
	b.optsBuilder.WithConfig(c)
	return b
}

// WithFlag shares a cancellation Flag with something else, disabling the
// default Ctrl+C handler.
func (b *Builder) WithFlag(f *mezze.Flag) *Builder {
	b.optsBuilder.WithFlag(f)
	b.ctrlC = false
	return b
}

// WithoutCtrlC disables the default SIGINT handler, leaving cancellation
// to CancelManual.
func (b *Builder) WithoutCtrlC() *Builder {
	b.ctrlC = false
	return b
}

// FeaturePaths adds individual .feature file paths.
func (b *Builder) FeaturePaths(paths ...string) *Builder {
	b.featurePaths = append(b.featurePaths, paths...)
	return b
}

// FeatureDirectories adds directories to be walked recursively for
// .feature files (pkg/gherkin_parser.SearchFeatureFilesIn's behavior).
func (b *Builder) FeatureDirectories(dirs ...string) *Builder {
	b.featureDirs = append(b.featureDirs, dirs...)
	return b
}

// Reporter adds r to the set of reporters that receive every event.
func (b *Builder) Reporter(r mezze.Reporter) *Builder {
	b.reporters = append(b.reporters, r)
	return b
}

// ParseArgs parses -n/-e command-line filters.
func (b *Builder) ParseArgs(args []string) error {
	return b.optsBuilder.ParseArgs(args)
}

// Build resolves feature sources, installs a default ConsoleReporter if
// none was registered, and freezes the Suite.
func (b *Builder) Build() (*Suite, error) {
	if b.ctrlC {
		b.optsBuilder.WithCtrlC()
	}
	opts, err := b.optsBuilder.Build()
	if err != nil {
		return nil, err
	}

	reporters := b.reporters
	disableReporter := opts.Config != nil && opts.Config.DisableReporter
	if len(reporters) == 0 && !disableReporter {
		noColor := opts.Config != nil && opts.Config.NoColor
		reporters = []mezze.Reporter{mezze.NewConsoleReporter(!noColor)}
	}

	bufSize := 256
	if opts.Config != nil && opts.Config.EventBufferSize > 0 {
		bufSize = opts.Config.EventBufferSize
	}

	if len(b.featurePaths) == 0 && len(b.featureDirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		b.featureDirs = append(b.featureDirs, cwd)
	}

	return &Suite{
		opts:            opts,
		featurePaths:    b.featurePaths,
		featureDirs:     b.featureDirs,
		reporters:       reporters,
		eventBufferSize: bufSize,
	}, nil
}

// Run parses every feature source, drives the engine's Runner to
// completion, fans out events to every reporter, and returns the
// flattened RunResult plus an error iff any reporter reports failure or
// feature discovery/parsing failed. Grounded on zuke/src/top.rs's
// Zuke::run, replacing its futures::join! fan-in with a drain loop over a
// single done channel that every reporter goroutine signals.
func (s *Suite) Run(ctx context.Context) (mezze.RunResult, error) {
	if s.opts.Cancel == mezze.CancelCtrlC && s.opts.Flag != nil {
		notify := make(chan os.Signal, 1)
		signal.Notify(notify, os.Interrupt)
		go func() {
			select {
			case <-notify:
				s.opts.Flag.Set()
			case <-ctx.Done():
			}
		}()
	}

	paths := append([]string(nil), s.featurePaths...)
	discovered, err := gherkinfeed.FindFeatureFiles(s.featureDirs)
	if err != nil {
		return mezze.RunResult{}, fmt.Errorf("discovering feature files: %w", err)
	}
	paths = append(paths, discovered...)

	features, parseErrs := gherkinfeed.Feed(paths)
	bus := mezze.NewEventBus(s.eventBufferSize)

	subs := make([]<-chan mezze.Event, len(s.reporters))
	for i := range s.reporters {
		subs[i] = bus.Subscribe()
	}

	done := make(chan struct{}, len(s.reporters))
	for i, r := range s.reporters {
		r := r
		i := i
		go func() {
			_ = r.Run(ctx, subs[i])
			done <- struct{}{}
		}()
	}

	runner := engine.NewRunner()
	root := runner.Run(s.opts, features, bus)

	for range s.reporters {
		<-done
	}

	if parseErr := drainErr(parseErrs); parseErr != nil {
		return mezze.NewRunResult(root), parseErr
	}

	for _, r := range s.reporters {
		if !r.Success() {
			return mezze.NewRunResult(root), fmt.Errorf("one or more scenarios failed")
		}
	}
	return mezze.NewRunResult(root), nil
}

func drainErr(errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
