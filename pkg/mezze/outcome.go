package mezze

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is a Component plus a Verdict, an optional reason, timestamps,
// and children. Mutated only through the transitions below. Grounded on
// zuke/src/outcome.rs. Unlike the Rust original (where structured
// concurrency gives each Outcome a single owning task until it is handed
// back to its parent), Go's goroutines mutate a feature/rule/scenario's
// Outcome from concurrently running children, so every mutation here is
// guarded by a mutex.
type Outcome struct {
	mu sync.Mutex

	id        string
	component *Component
	verdict   Verdict
	reason    error
	started   time.Time
	ended     time.Time
	children  []*Outcome
}

// ID returns a stable identifier for this outcome, used by reporters to
// correlate Started/Finished events without relying on pointer identity.
func (o *Outcome) ID() string {
	return o.id
}

// Component returns the component this outcome describes.
func (o *Outcome) Component() *Component {
	return o.component
}

// Verdict returns the current verdict under lock.
func (o *Outcome) Verdict() Verdict {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.verdict
}

// Reason returns the wrapped error attached to this outcome, if any.
func (o *Outcome) Reason() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// Started returns the time this outcome was created.
func (o *Outcome) Started() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

// Ended returns the time of the last mutation to this outcome.
func (o *Outcome) Ended() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ended
}

// Children returns a snapshot of this outcome's children.
func (o *Outcome) Children() []*Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Outcome, len(o.children))
	copy(out, o.children)
	return out
}

// Passed reports whether the verdict belongs to the passing set.
func (o *Outcome) Passed() bool { return o.Verdict().IsPassed() }

// Skipped reports whether the verdict belongs to the skipped set.
func (o *Outcome) Skipped() bool { return o.Verdict().IsSkipped() }

// Failed reports whether the verdict belongs to the failing set.
func (o *Outcome) Failed() bool { return o.Verdict().IsFailed() }

// UndecidedOutcome creates a fresh Undecided outcome for c.
func UndecidedOutcome(c *Component) *Outcome {
	now := time.Now()
	return &Outcome{
		id:        uuid.NewString(),
		component: c,
		verdict:   Undecided,
		started:   now,
		ended:     now,
	}
}

// WithParent creates c's outcome given its parent's current outcome,
// applying spec.md §4.2's inheritance rule: an excluded component starts
// Excluded; if the parent is still Undecided or Excluded, the child
// inherits that same starting verdict; otherwise the parent has already
// settled (passed or failed) and the child starts Skipped.
func WithParent(c *Component, parent *Outcome) *Outcome {
	o := UndecidedOutcome(c)
	if c.Excluded() {
		o.verdict = Excluded
		return o
	}
	pv := parent.Verdict()
	switch pv {
	case Undecided, Excluded:
		o.verdict = pv
	default:
		o.verdict = Skipped
	}
	return o
}

func (o *Outcome) touch() {
	o.ended = time.Now()
}

// SetPassed transitions the outcome to Passed.
func (o *Outcome) SetPassed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verdict = maxVerdict(o.verdict, Passed)
	o.touch()
}

// SetExcluded transitions the outcome to Excluded.
func (o *Outcome) SetExcluded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verdict = maxVerdict(o.verdict, Excluded)
	o.touch()
}

// SetSkip transitions the outcome to Skipped.
func (o *Outcome) SetSkip() {
	o.SetSkipWithReason(nil)
}

// SetSkipWithReason transitions the outcome to Skipped, attaching reason.
func (o *Outcome) SetSkipWithReason(reason error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verdict = maxVerdict(o.verdict, Skipped)
	if reason != nil {
		o.reason = reason
	}
	o.touch()
}

// SetErr attaches err as the outcome's reason and promotes the verdict.
// If err carries a *StepError (directly or wrapped), its declared verdict
// is honored; any other error promotes to Failed. Grounded on
// zuke/src/outcome.rs's set_err downcast logic.
func (o *Outcome) SetErr(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reason = err
	var se *StepError
	if errors.As(err, &se) {
		o.verdict = maxVerdict(o.verdict, se.Verdict)
	} else {
		o.verdict = maxVerdict(o.verdict, Failed)
	}
	o.touch()
}

// SetResult is the Ok/Err convenience form: nil sets Passed, non-nil
// routes through SetErr.
func (o *Outcome) SetResult(err error) {
	if err == nil {
		o.SetPassed()
		return
	}
	o.SetErr(err)
}

// AddChild appends a completed child outcome and absorbs its verdict via
// max(), per spec.md's monotonicity invariant.
func (o *Outcome) AddChild(child *Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.children = append(o.children, child)
	o.verdict = maxVerdict(o.verdict, child.Verdict())
	o.touch()
}

// Stat summarizes the verdict counts of a subtree's Scenario-kind outcomes.
type Stat struct {
	Total  int
	Passed int
	Failed int
	Skipped int
}

// Stats walks the outcome tree and tallies scenario-kind leaves.
func (o *Outcome) Stats() Stat {
	var s Stat
	o.walk(func(n *Outcome) {
		if n.component.Kind() != ScenarioKind {
			return
		}
		s.Total++
		switch {
		case n.Passed():
			s.Passed++
		case n.Skipped():
			s.Skipped++
		default:
			s.Failed++
		}
	})
	return s
}

// FindByName returns the first descendant (including o itself) whose
// Component.Name() matches name, or nil.
func (o *Outcome) FindByName(name string) *Outcome {
	var found *Outcome
	o.walk(func(n *Outcome) {
		if found == nil && n.component.Name() == name {
			found = n
		}
	})
	return found
}

// IterComponents returns every Component in this outcome's subtree,
// pre-order.
func (o *Outcome) IterComponents() []*Component {
	var out []*Component
	o.walk(func(n *Outcome) {
		out = append(out, n.component)
	})
	return out
}

func (o *Outcome) walk(fn func(*Outcome)) {
	fn(o)
	for _, c := range o.Children() {
		c.walk(fn)
	}
}

// MultiError collapses several teardown/hook errors into one, via
// errors.Join (stdlib) as decided in DESIGN.md's Open Questions section.
func MultiError(errs ...error) error {
	return errors.Join(errs...)
}
