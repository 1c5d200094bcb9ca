package mezze

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithParentInheritance(t *testing.T) {
	opts := &Options{}

	t.Run("excluded component starts Excluded regardless of parent", func(t *testing.T) {
		root := GlobalComponent(opts)
		parent := UndecidedOutcome(root)
		parent.SetPassed()

		excluded := &Component{parent: root, excluded: true, opts: opts}
		child := WithParent(excluded, parent)
		require.Equal(t, Excluded, child.Verdict())
	})

	t.Run("undecided parent propagates Undecided", func(t *testing.T) {
		root := GlobalComponent(opts)
		parent := UndecidedOutcome(root)
		child := WithParent(&Component{parent: root, opts: opts}, parent)
		require.Equal(t, Undecided, child.Verdict())
	})

	t.Run("settled parent (passed) yields a Skipped child", func(t *testing.T) {
		root := GlobalComponent(opts)
		parent := UndecidedOutcome(root)
		parent.SetPassed()
		child := WithParent(&Component{parent: root, opts: opts}, parent)
		require.Equal(t, Skipped, child.Verdict())
	})

	t.Run("settled parent (failed) yields a Skipped child", func(t *testing.T) {
		root := GlobalComponent(opts)
		parent := UndecidedOutcome(root)
		parent.SetErr(Fail("boom"))
		child := WithParent(&Component{parent: root, opts: opts}, parent)
		require.Equal(t, Skipped, child.Verdict())
	})
}

func TestOutcomeTransitions(t *testing.T) {
	t.Run("SetErr honors a StepError's verdict", func(t *testing.T) {
		o := UndecidedOutcome(GlobalComponent(&Options{}))
		o.SetErr(Skip("not applicable"))
		require.Equal(t, Skipped, o.Verdict())
		require.EqualError(t, o.Reason(), "not applicable")
	})

	t.Run("SetErr with a plain error promotes to Failed", func(t *testing.T) {
		o := UndecidedOutcome(GlobalComponent(&Options{}))
		o.SetErr(errNoVerdict{})
		require.Equal(t, Failed, o.Verdict())
	})

	t.Run("SetResult(nil) passes, SetResult(err) fails", func(t *testing.T) {
		o := UndecidedOutcome(GlobalComponent(&Options{}))
		o.SetResult(nil)
		require.Equal(t, Passed, o.Verdict())

		o2 := UndecidedOutcome(GlobalComponent(&Options{}))
		o2.SetResult(Fail("nope"))
		require.Equal(t, Failed, o2.Verdict())
	})

	t.Run("verdict transitions never move backward (monotonic absorption)", func(t *testing.T) {
		o := UndecidedOutcome(GlobalComponent(&Options{}))
		o.SetPassed()
		o.SetSkip()
		require.Equal(t, Passed, o.Verdict(), "Skipped must not downgrade an already-Passed outcome")
	})

	t.Run("AddChild absorbs the worse verdict", func(t *testing.T) {
		parent := UndecidedOutcome(GlobalComponent(&Options{}))
		parent.SetPassed()

		child := UndecidedOutcome(GlobalComponent(&Options{}))
		child.SetErr(Fail("child failed"))

		parent.AddChild(child)
		require.Equal(t, Failed, parent.Verdict())
		require.Len(t, parent.Children(), 1)
	})
}

func TestOutcomeStats(t *testing.T) {
	t.Run("tallies only Scenario-kind descendants", func(t *testing.T) {
		opts := &Options{}
		root := GlobalComponent(opts)
		feature := root.WithFeature(&Feature{Name: "F"})

		fOutcome := UndecidedOutcome(feature)

		passing := feature.WithScenario(&Scenario{Name: "ok"})
		passingOutcome := UndecidedOutcome(passing)
		passingOutcome.SetPassed()

		failing := feature.WithScenario(&Scenario{Name: "bad"})
		failingOutcome := UndecidedOutcome(failing)
		failingOutcome.SetErr(Fail("boom"))

		fOutcome.AddChild(passingOutcome)
		fOutcome.AddChild(failingOutcome)

		stats := fOutcome.Stats()
		require.Equal(t, 2, stats.Total)
		require.Equal(t, 1, stats.Passed)
		require.Equal(t, 1, stats.Failed)
	})
}

type errNoVerdict struct{}

func (errNoVerdict) Error() string { return "plain error" }
