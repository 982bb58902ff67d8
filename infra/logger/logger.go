package logger

import corelogger "github.com/kilianp07/battsim/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format follows
// Configure, or the APP_ENV variable when Configure was never called.
func New(component string) Logger {
	return NewZerologLogger(component)
}
