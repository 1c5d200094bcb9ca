package mezze

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Reporter consumes a run's Event stream and renders or collects it. Run
// must drain events until the channel closes (the terminal element is
// always the root's Finished event). Success determines the process exit
// contract (spec.md §6): the run as a whole succeeds iff every reporter's
// Success() is true. Grounded on zuke/src/reporter/mod.rs's Reporter trait.
type Reporter interface {
	Run(ctx context.Context, events <-chan Event) error
	Success() bool
}

// ANSI color codes, matching pkg/cacik/reporter.go's palette.
const (
	colorReset    = "\033[0m"
	colorGreen    = "\033[32m"
	colorRed      = "\033[31m"
	colorYellow   = "\033[33m"
	colorCyan     = "\033[36m"
	colorBold     = "\033[1m"
	colorStepText = "\033[38;2;187;181;41m"
	colorMatchGrp = "\033[38;2;104;151;187m"
)

const (
	symbolPass = "✓"
	symbolFail = "✗"
	symbolSkip = "-"
)

// ReporterSummary tracks aggregate pass/fail/skip counts across a run.
type ReporterSummary struct {
	ScenariosTotal  int
	ScenariosPassed int
	ScenariosFailed int
	StepsTotal      int
	StepsPassed     int
	StepsFailed     int
	StepsSkipped    int
}

// ConsoleReporter prints a colored, human-readable rendering of the event
// stream to standard output, and tracks a ReporterSummary.
// Adapted from pkg/cacik/reporter.go's ConsoleReporter: that type was
// driven imperatively, one call per printed line, by an executor walking
// the tree; this one is driven by Started/Finished events instead, so
// headers print on Started and results print on Finished.
type ConsoleReporter struct {
	useColors bool
	out       *os.File

	mu      sync.Mutex
	summary ReporterSummary
	failed  bool
}

// NewConsoleReporter creates a reporter that prints directly to stdout.
func NewConsoleReporter(useColors bool) *ConsoleReporter {
	return &ConsoleReporter{useColors: useColors, out: os.Stdout}
}

func (r *ConsoleReporter) color(c, s string) string {
	if r.useColors {
		return c + s + colorReset
	}
	return s
}

func (r *ConsoleReporter) writeln(s string) {
	fmt.Fprintln(r.out, s)
}

// Run renders events until the channel closes.
func (r *ConsoleReporter) Run(ctx context.Context, events <-chan Event) error {
	for e := range events {
		switch e.Kind {
		case Started:
			r.onStarted(e.Component)
		case Finished:
			r.onFinished(e.Outcome)
		}
	}
	r.printSummary()
	return nil
}

// Success reports whether the run, as observed by this reporter, passed.
func (r *ConsoleReporter) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.failed
}

func (r *ConsoleReporter) onStarted(c *Component) {
	switch c.Kind() {
	case FeatureKind:
		r.writeln("")
		r.writeln(r.color(colorCyan, "Feature:") + " " + r.color(colorBold, c.Name()))
	case RuleKind:
		r.writeln("")
		r.writeln("  " + r.color(colorCyan, "Rule:") + " " + r.color(colorBold, c.Name()))
	case ScenarioKind:
		r.writeln("")
		r.writeln("  " + r.color(colorCyan, "Scenario:") + " " + r.color(colorBold, c.Name()))
	}
}

func (r *ConsoleReporter) onFinished(o *Outcome) {
	c := o.Component()
	switch c.Kind() {
	case GlobalKind:
		r.mu.Lock()
		r.failed = o.Failed()
		r.mu.Unlock()
	case ScenarioKind:
		r.recordScenario(o.Passed())
	case StepKind:
		r.recordStep(o)
	}
}

func (r *ConsoleReporter) formatStep(step *Step) string {
	return fmt.Sprintf("    %s%s", r.color(colorCyan, step.Keyword), r.color(colorStepText, step.Text))
}

func (r *ConsoleReporter) recordStep(o *Outcome) {
	step := o.Component().StepValue()
	line := r.formatStep(step)
	switch {
	case o.Passed():
		r.writeln(fmt.Sprintf("%-60s %s", line, r.color(colorGreen, symbolPass)))
	case o.Skipped():
		r.writeln(fmt.Sprintf("%-60s %s", line, r.color(colorYellow, symbolSkip)))
	default:
		r.writeln(fmt.Sprintf("%-60s %s", line, r.color(colorRed, symbolFail)))
		if reason := o.Reason(); reason != nil {
			for _, ln := range strings.Split(reason.Error(), "\n") {
				r.writeln(r.color(colorRed, "      "+ln))
			}
		}
	}

	r.mu.Lock()
	r.summary.StepsTotal++
	switch {
	case o.Passed():
		r.summary.StepsPassed++
	case o.Skipped():
		r.summary.StepsSkipped++
	default:
		r.summary.StepsFailed++
	}
	r.mu.Unlock()
}

func (r *ConsoleReporter) recordScenario(passed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.ScenariosTotal++
	if passed {
		r.summary.ScenariosPassed++
	} else {
		r.summary.ScenariosFailed++
	}
}

func (r *ConsoleReporter) printSummary() {
	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()

	r.writeln("")

	scenarioLine := fmt.Sprintf("%d scenario(s)", summary.ScenariosTotal)
	if parts := r.countParts(summary.ScenariosPassed, summary.ScenariosFailed, 0); len(parts) > 0 {
		scenarioLine += " (" + strings.Join(parts, ", ") + ")"
	}
	r.writeln(scenarioLine)

	stepLine := fmt.Sprintf("%d step(s)", summary.StepsTotal)
	if parts := r.countParts(summary.StepsPassed, summary.StepsFailed, summary.StepsSkipped); len(parts) > 0 {
		stepLine += " (" + strings.Join(parts, ", ") + ")"
	}
	r.writeln(stepLine)
}

func (r *ConsoleReporter) countParts(passed, failed, skipped int) []string {
	var parts []string
	if passed > 0 {
		parts = append(parts, r.color(colorGreen, fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		parts = append(parts, r.color(colorRed, fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		parts = append(parts, r.color(colorYellow, fmt.Sprintf("%d skipped", skipped)))
	}
	return parts
}

// CollectReporter gathers the root outcome and nothing else — useful for
// tests or programmatic callers that want the tree without any rendering.
// Grounded on zuke/src/reporter/collect.rs's Collect.
type CollectReporter struct {
	mu      sync.Mutex
	root    *Outcome
	waiters []chan *Outcome
}

// NewCollectReporter creates an empty CollectReporter.
func NewCollectReporter() *CollectReporter {
	return &CollectReporter{}
}

// Run watches for the Global component's Finished event and stores it.
func (r *CollectReporter) Run(ctx context.Context, events <-chan Event) error {
	for e := range events {
		if e.Kind == Finished && e.Outcome.Component().Kind() == GlobalKind {
			r.mu.Lock()
			r.root = e.Outcome
			waiters := r.waiters
			r.waiters = nil
			r.mu.Unlock()
			for _, w := range waiters {
				w <- e.Outcome
				close(w)
			}
		}
	}
	return nil
}

// Success reports whether the collected root outcome passed.
func (r *CollectReporter) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root != nil && !r.root.Failed()
}

// Outcome returns the collected root Outcome, or nil if the run has not
// finished yet.
func (r *CollectReporter) Outcome() *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root
}

// noopReporter discards all events and always reports success.
type noopReporter struct{}

// NewNoopReporter creates a Reporter that discards all output.
func NewNoopReporter() Reporter { return &noopReporter{} }

func (r *noopReporter) Run(ctx context.Context, events <-chan Event) error {
	for range events {
	}
	return nil
}

func (r *noopReporter) Success() bool { return true }
