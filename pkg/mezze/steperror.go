package mezze

// StepError is the engine's typed error carrying an explicit Verdict and
// an optional human-readable reason. When one is found in an error chain
// by SetErr (via errors.As), its Verdict is honored instead of the default
// promotion to Failed. Grounded on zuke/src/step.rs's StepError and its
// fail/skip/warn/cancel constructor family.
type StepError struct {
	Verdict Verdict
	Reason  string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Verdict.String()
}

// Unwrap exposes the wrapped cause, if any, so errors.Is/errors.As keep
// working through a StepError.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// Fail builds a StepError with verdict Failed.
func Fail(reason string) *StepError {
	return &StepError{Verdict: Failed, Reason: reason}
}

// FailWith builds a StepError with verdict Failed wrapping cause.
func FailWith(cause error) *StepError {
	return &StepError{Verdict: Failed, Cause: cause}
}

// Skip builds a StepError with verdict Skipped.
func Skip(reason string) *StepError {
	return &StepError{Verdict: Skipped, Reason: reason}
}

// Warn builds a StepError with verdict PassedWithWarnings: the step is
// recorded as an error but the overall verdict still counts as passed.
func Warn(reason string) *StepError {
	return &StepError{Verdict: PassedWithWarnings, Reason: reason}
}

// Cancel builds a StepError with verdict Canceled.
func Cancel(reason string) *StepError {
	return &StepError{Verdict: Canceled, Reason: reason}
}

// NoStepMatch is returned by the Vocab when a step text matches no
// registered pattern.
type NoStepMatch struct {
	What string
}

func (e *NoStepMatch) Error() string {
	return "No implementation found for " + e.What
}

// MultipleStepMatches is returned by the Vocab when a step text matches
// more than one registered pattern.
type MultipleStepMatches struct {
	What      string
	Locations []string
}

func (e *MultipleStepMatches) Error() string {
	msg := "Multiple implementations found for " + e.What
	for _, loc := range e.Locations {
		msg += "\n  - " + loc
	}
	return msg
}

// BadParameters is returned by the Vocab when a matched pattern's captures
// could not be bound to the step implementation's parameters.
type BadParameters struct {
	Cause error
}

func (e *BadParameters) Error() string {
	return "Wiring error: bad parameters: " + e.Cause.Error()
}

func (e *BadParameters) Unwrap() error { return e.Cause }

// WrongFixtureScope is returned when a fixture is activated at a scope
// broader than its declared Scope (spec.md §4.6).
type WrongFixtureScope struct {
	Fixture string
	Want    Scope
	Have    Scope
}

func (e *WrongFixtureScope) Error() string {
	return "fixture " + e.Fixture + " is scoped to " + e.Want.String() + ", cannot be used at " + e.Have.String()
}

// FixtureSetupFailed wraps an error raised by a fixture's Setup callback.
type FixtureSetupFailed struct {
	Fixture string
	Cause   error
}

func (e *FixtureSetupFailed) Error() string {
	return "fixture " + e.Fixture + " setup failed: " + e.Cause.Error()
}

func (e *FixtureSetupFailed) Unwrap() error { return e.Cause }
