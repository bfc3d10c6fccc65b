// Package config defines the orchestrator configuration and loads it from
// feeders.
package config

// Start failure policies. They decide what happens to a module whose
// prerequisite did not reach the started state during a start-all.
const (
	// PolicySkipDependents leaves dependents of a failed prerequisite stopped.
	PolicySkipDependents = "skip-dependents"
	// PolicyAttemptDependents starts dependents regardless.
	PolicyAttemptDependents = "attempt-dependents"
)

// Log levels understood by the CLI logger.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config is the orchestrator configuration.
type Config struct {
	StartFailurePolicy string            `yaml:"start_failure_policy" toml:"start_failure_policy" json:"start_failure_policy" env:"START_FAILURE_POLICY"`
	EmitEvents         bool              `yaml:"emit_events" toml:"emit_events" json:"emit_events" env:"EMIT_EVENTS"`
	EventSource        string            `yaml:"event_source" toml:"event_source" json:"event_source" env:"EVENT_SOURCE"`
	LogLevel           string            `yaml:"log_level" toml:"log_level" json:"log_level" env:"LOG_LEVEL"`
	Diagnostics        DiagnosticsConfig `yaml:"diagnostics" toml:"diagnostics" json:"diagnostics"`
}

// DiagnosticsConfig configures the HTTP diagnostics surface and the periodic
// state snapshot.
type DiagnosticsConfig struct {
	Enabled          bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"DIAGNOSTICS_ENABLED"`
	Addr             string `yaml:"addr" toml:"addr" json:"addr" env:"DIAGNOSTICS_ADDR"`
	SnapshotSchedule string `yaml:"snapshot_schedule" toml:"snapshot_schedule" json:"snapshot_schedule" env:"SNAPSHOT_SCHEDULE"`
}

// Default returns the configuration used when no source overrides a value.
func Default() *Config {
	return &Config{
		StartFailurePolicy: PolicySkipDependents,
		EmitEvents:         true,
		EventSource:        "modactivator",
		LogLevel:           LogLevelInfo,
		Diagnostics: DiagnosticsConfig{
			Enabled:          true,
			Addr:             "127.0.0.1:8089",
			SnapshotSchedule: "@every 30s",
		},
	}
}
