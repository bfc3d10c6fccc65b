package modactivator

// Logger defines the interface for orchestrator logging.
// Logging is structured with key-value pairs:
//
//	logger.Info("Starting module", "module", "database")
//
// The method set matches *slog.Logger, so a slog logger can be passed
// directly.
type Logger interface {
	// Info logs normal lifecycle events like module start and stop.
	Info(msg string, args ...any)

	// Error logs hook failures and other errors that do not abort the
	// orchestrator.
	Error(msg string, args ...any)

	// Warn logs unusual conditions, e.g. a module skipped because a
	// prerequisite failed.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information such as computed orders.
	Debug(msg string, args ...any)
}

// nopLogger discards everything. It is the default when no logger is set.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
