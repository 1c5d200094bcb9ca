package mezze

// Config holds ambient runtime settings layered over the CORE engine.
// Adapted from pkg/cacik/config.go. It is supplied programmatically; the
// -n/-e command-line flags parsed by OptionsBuilder set no Config field.
type Config struct {
	// FailFast sets the shared cancellation Flag as soon as any scenario
	// fails, so subsequently dispatched steps resolve to Canceled.
	FailFast bool

	// NoColor disables ANSI color codes in ConsoleReporter output.
	NoColor bool

	// DisableLog injects NoopLogger into every derived Context instead of
	// the default slog logger.
	DisableLog bool

	// DisableReporter stops suite.Builder from installing its default
	// ConsoleReporter when no reporter was registered; reporters that were
	// registered explicitly still run.
	DisableReporter bool

	// Logger overrides the default slog-backed logger. Ignored when
	// DisableLog is set.
	Logger Logger

	// EventBufferSize sets each reporter's subscription channel depth on
	// the run's EventBus. Zero means suite.Builder's default of 256.
	EventBufferSize int
}

// MergeConfigs combines multiple configs into one. Booleans are OR-ed
// across the configs, so a true is never turned back to false; a later
// non-nil Logger and a later positive EventBufferSize replace earlier ones.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.FailFast {
			result.FailFast = true
		}
		if cfg.NoColor {
			result.NoColor = true
		}
		if cfg.DisableLog {
			result.DisableLog = true
		}
		if cfg.DisableReporter {
			result.DisableReporter = true
		}
		if cfg.Logger != nil {
			result.Logger = cfg.Logger
		}
		if cfg.EventBufferSize > 0 {
			result.EventBufferSize = cfg.EventBufferSize
		}
	}
	return result
}
