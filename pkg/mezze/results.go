package mezze

import "time"

// StepResult is a flattened, read-only view of one Step-kind Outcome,
// convenient for reporters that want a plain value instead of walking the
// Outcome tree themselves. Grounded on pkg/cacik/results.go's StepResult,
// generalized from its three-state StepStatus to the full Verdict lattice.
type StepResult struct {
	Keyword string
	Text    string
	Verdict Verdict
	Reason  string
	Started time.Time
	Ended   time.Time
}

// ScenarioResult is a flattened view of one Scenario-kind Outcome,
// separating background steps from the scenario's own steps the way
// pkg/cacik/results.go's ScenarioResult does.
type ScenarioResult struct {
	FeatureName string
	RuleName    string
	Name        string
	Tags        []string
	Verdict     Verdict
	Reason      string
	Started     time.Time
	Ended       time.Time

	FeatureBgSteps []StepResult
	RuleBgSteps    []StepResult
	Steps          []StepResult
}

// Duration is Ended minus Started.
func (r ScenarioResult) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// Duration is Ended minus Started.
func (r StepResult) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// RunResult is the complete, flattened result of one run, built from the
// root Outcome returned by internal/engine.Runner.Run. Grounded on
// pkg/cacik/results.go's RunResult.
type RunResult struct {
	Scenarios []ScenarioResult
	Summary   Stat
	Started   time.Time
	Ended     time.Time
}

// Duration is Ended minus Started.
func (r RunResult) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// NewRunResult flattens root (the Global outcome) into a RunResult.
func NewRunResult(root *Outcome) RunResult {
	result := RunResult{
		Summary: root.Stats(),
		Started: root.Started(),
		Ended:   root.Ended(),
	}
	collectScenarios(root, "", "", &result.Scenarios)
	return result
}

func collectScenarios(o *Outcome, featureName, ruleName string, out *[]ScenarioResult) {
	switch o.Component().Kind() {
	case FeatureKind:
		featureName = o.Component().Name()
	case RuleKind:
		ruleName = o.Component().Name()
	case ScenarioKind:
		*out = append(*out, scenarioResult(o, featureName, ruleName))
		return
	}
	for _, child := range o.Children() {
		collectScenarios(child, featureName, ruleName, out)
	}
}

func scenarioResult(o *Outcome, featureName, ruleName string) ScenarioResult {
	c := o.Component()
	result := ScenarioResult{
		FeatureName: featureName,
		RuleName:    ruleName,
		Name:        c.Name(),
		Tags:        c.Tags(),
		Verdict:     o.Verdict(),
		Started:     o.Started(),
		Ended:       o.Ended(),
	}
	if reason := o.Reason(); reason != nil {
		result.Reason = reason.Error()
	}

	feature := c.Feature()
	bgLen := 0
	if feature != nil && feature.Background != nil {
		bgLen = len(feature.Background.Steps)
	}
	ruleBgLen := 0
	if rule := c.Rule(); rule != nil && rule.Background != nil {
		ruleBgLen = len(rule.Background.Steps)
	}

	for i, child := range o.Children() {
		sr := stepResult(child)
		switch {
		case i < bgLen:
			result.FeatureBgSteps = append(result.FeatureBgSteps, sr)
		case i < bgLen+ruleBgLen:
			result.RuleBgSteps = append(result.RuleBgSteps, sr)
		default:
			result.Steps = append(result.Steps, sr)
		}
	}
	return result
}

func stepResult(o *Outcome) StepResult {
	step := o.Component().StepValue()
	sr := StepResult{
		Verdict: o.Verdict(),
		Started: o.Started(),
		Ended:   o.Ended(),
	}
	if step != nil {
		sr.Keyword = step.Keyword
		sr.Text = step.Text
	}
	if reason := o.Reason(); reason != nil {
		sr.Reason = reason.Error()
	}
	return sr
}
