package mezze

// Kind identifies which level of the test tree a Component sits at. It is
// always derived from the deepest non-empty back-pointer, never stored
// directly.
type Kind int

const (
	GlobalKind Kind = iota
	FeatureKind
	RuleKind
	ScenarioKind
	StepKind
)

func (k Kind) String() string {
	switch k {
	case GlobalKind:
		return "Global"
	case FeatureKind:
		return "Feature"
	case RuleKind:
		return "Rule"
	case ScenarioKind:
		return "Scenario"
	case StepKind:
		return "Step"
	default:
		return "Unknown"
	}
}

// StepType is the normalized Gherkin step type used for Vocab dispatch
// prefixes. Unlike Keyword (which preserves "And"/"But" as written), Type
// always resolves to the type of the most recent Given/When/Then.
type StepType int

const (
	StepGiven StepType = iota
	StepWhen
	StepThen
)

func (t StepType) String() string {
	switch t {
	case StepGiven:
		return "Given"
	case StepWhen:
		return "When"
	case StepThen:
		return "Then"
	default:
		return "Given"
	}
}

// DocString is the marker type a step implementation's parameter declares
// to receive a step's docstring (empty if the step carries none). Using a
// named type rather than a plain string lets the Vocab's argument binder
// distinguish it, unambiguously, from a captured parameter.
type DocString string

// Step is one line of a scenario or background, already normalized by the
// feature source (example-outline substitution, keyword resolution) before
// it reaches the engine. Grounded on spec.md §6's feature input contract.
type Step struct {
	Keyword   string // as written: "Given ", "When ", "Then ", "And ", "But "
	Type      StepType
	Text      string
	DocString *string
	Table     *Table
	Line      int64
}

// Background is a sequence of steps prepended to every scenario in its
// owning Feature or Rule.
type Background struct {
	Steps []Step
}

// Scenario is a single executable unit: a name, its own tags, and a
// sequence of steps. Scenario Outline expansion has already happened
// upstream (spec.md's explicit non-goal).
type Scenario struct {
	Name string
	Tags []string
	Line int64
	Steps []Step
}

// Rule groups a Background and Scenarios beneath a Feature.
type Rule struct {
	Name       string
	Tags       []string
	Background *Background
	Scenarios  []Scenario
}

// Feature is the top-level unit fed to the engine by the external parser.
// Scenarios listed directly under Feature do not belong to any Rule;
// scenarios nested under a Rule belong to that Rule only.
type Feature struct {
	Name       string
	Path       string
	Keyword    string
	Tags       []string
	Background *Background
	Rules      []Rule
	Scenarios  []Scenario
}

// Component is an immutable value describing "where we are" in the test
// tree, plus the inclusion/exclusion decision computed for that position.
// Grounded on zuke/src/component.rs. Go has no need for the Rust original's
// raw-pointer-into-arena trick (§9 design note): a Component simply holds a
// pointer into its owning Feature, which is never mutated after
// construction and is kept alive by ordinary garbage collection for as
// long as any descendant Component references it.
type Component struct {
	parent   *Component
	feature  *Feature
	rule     *Rule
	scenario *Scenario
	step     *Step

	included bool
	excluded bool

	opts *Options
}

// GlobalComponent seeds the root of the tree. It has no feature and is
// never excluded by name filtering (global inclusion is resolved lazily at
// finalize, per spec.md §6).
func GlobalComponent(opts *Options) *Component {
	return &Component{opts: opts}
}

// Kind returns the deepest non-empty level this Component represents.
func (c *Component) Kind() Kind {
	switch {
	case c.step != nil:
		return StepKind
	case c.scenario != nil:
		return ScenarioKind
	case c.rule != nil:
		return RuleKind
	case c.feature != nil:
		return FeatureKind
	default:
		return GlobalKind
	}
}

// Name returns the name used for filtering at this component's level
// ("" at Global).
func (c *Component) Name() string {
	switch {
	case c.step != nil:
		return c.step.Text
	case c.scenario != nil:
		return c.scenario.Name
	case c.rule != nil:
		return c.rule.Name
	case c.feature != nil:
		return c.feature.Name
	default:
		return ""
	}
}

// Included reports whether this component (or an ancestor) matched an
// include pattern, per the OR-inherited-downward rule of spec.md §3.
func (c *Component) Included() bool { return c.included }

// Excluded reports whether this component (or an ancestor) matched an
// exclude pattern.
func (c *Component) Excluded() bool { return c.excluded }

// Options returns the global run options this component was derived under.
func (c *Component) Options() *Options { return c.opts }

// Feature returns the owning Feature, or nil at Global.
func (c *Component) Feature() *Feature { return c.feature }

// Rule returns the owning Rule, or nil if this component is not within one.
func (c *Component) Rule() *Rule { return c.rule }

// Scenario returns the owning Scenario, or nil above Scenario kind.
func (c *Component) Scenario() *Scenario { return c.scenario }

// StepValue returns the Step this component represents, or nil above Step
// kind. Named StepValue (not Step) to avoid colliding with the Step type.
func (c *Component) StepValue() *Step { return c.step }

func (c *Component) derive(name string) (included, excluded bool) {
	included = c.opts.included(name, c.included)
	excluded = c.opts.excluded(name, c.excluded)
	return
}

// WithFeature derives a Feature-kind child, matching f.Name against the
// include/exclude filters.
func (c *Component) WithFeature(f *Feature) *Component {
	child := &Component{parent: c, feature: f, opts: c.opts}
	child.included, child.excluded = c.derive(f.Name)
	return child
}

// WithRule derives a Rule-kind child of a Feature-kind component.
func (c *Component) WithRule(r *Rule) *Component {
	child := &Component{parent: c, feature: c.feature, rule: r, opts: c.opts}
	child.included, child.excluded = c.derive(r.Name)
	return child
}

// WithScenario derives a Scenario-kind child. Valid from a Feature-kind
// component (a direct scenario) or a Rule-kind component (a scenario that
// belongs to that rule); with_scenarios at the feature level must never be
// called for a scenario that actually lives under a rule (enforced by the
// caller, which walks Feature.Scenarios and Rule.Scenarios separately).
func (c *Component) WithScenario(s *Scenario) *Component {
	child := &Component{parent: c, feature: c.feature, rule: c.rule, scenario: s, opts: c.opts}
	child.included, child.excluded = c.derive(s.Name)
	return child
}

// WithStep derives a Step-kind child of a Scenario-kind component. Used for
// both background steps and the scenario's own steps; the caller threads
// them through in the required concatenated order (feature background,
// then rule background, then scenario steps).
func (c *Component) WithStep(s *Step) *Component {
	child := &Component{
		parent:   c,
		feature:  c.feature,
		rule:     c.rule,
		scenario: c.scenario,
		step:     s,
		opts:     c.opts,
	}
	child.included, child.excluded = c.derive(s.Text)
	return child
}

// StepsInOrder returns the full, ordered step sequence for a Scenario-kind
// component: the owning feature's background steps, then (if this scenario
// belongs to a rule) the rule's background steps, then the scenario's own
// steps. Grounded on spec.md §4.1's "Background steps (feature-level plus
// optionally rule-level) are executed before the scenario's own steps, in
// that concatenated order."
func (c *Component) StepsInOrder() []Step {
	var steps []Step
	if c.feature != nil && c.feature.Background != nil {
		steps = append(steps, c.feature.Background.Steps...)
	}
	if c.rule != nil && c.rule.Background != nil {
		steps = append(steps, c.rule.Background.Steps...)
	}
	if c.scenario != nil {
		steps = append(steps, c.scenario.Steps...)
	}
	return steps
}

// Tags returns feature.tags ++ rule.tags ++ scenario.tags, ancestors first,
// each in file order, per spec.md §4.1. Step components carry no tags.
func (c *Component) Tags() []string {
	if c.step != nil {
		return nil
	}
	var tags []string
	if c.feature != nil {
		tags = append(tags, c.feature.Tags...)
	}
	if c.rule != nil {
		tags = append(tags, c.rule.Tags...)
	}
	if c.scenario != nil {
		tags = append(tags, c.scenario.Tags...)
	}
	return tags
}

// TagsUninherited returns only the tags declared directly on the deepest
// non-step component. Step kind always returns nil by fiat (spec.md §9
// open question, resolved as "ignore any step-level tags").
func (c *Component) TagsUninherited() []string {
	switch {
	case c.step != nil:
		return nil
	case c.scenario != nil:
		return append([]string(nil), c.scenario.Tags...)
	case c.rule != nil:
		return append([]string(nil), c.rule.Tags...)
	case c.feature != nil:
		return append([]string(nil), c.feature.Tags...)
	default:
		return nil
	}
}
