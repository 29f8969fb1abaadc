package domain

// Logger records engine activity to the log files.
// featureID scopes an entry to one feature's log; pass "" for
// engine-level entries.
type Logger interface {
	// Debug logs a debug message.
	Debug(featureID, category, msg string)

	// Info logs an info message.
	Info(featureID, category, msg string)

	// Warn logs a warning message.
	Warn(featureID, category, msg string)

	// Error logs an error message.
	Error(featureID, category, msg string)
}

// NopLogger discards all log entries.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(featureID, category, msg string) {}

// Info implements Logger.
func (NopLogger) Info(featureID, category, msg string) {}

// Warn implements Logger.
func (NopLogger) Warn(featureID, category, msg string) {}

// Error implements Logger.
func (NopLogger) Error(featureID, category, msg string) {}
