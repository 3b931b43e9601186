package logger

import (
	"go.uber.org/zap/zapcore"
)

// Verbosity levels controlled by repeated -v flags
const (
	VerbosityQuiet = 0 // Default: warnings and errors only
	VerbosityInfo  = 1 // -v: informational messages
	VerbosityDebug = 2 // -vv: debug messages
)

// VerbosityToLevel converts a -v count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelName returns a human-readable name for a verbosity count.
func LevelName(verbosity int) string {
	switch {
	case verbosity <= VerbosityQuiet:
		return "quiet"
	case verbosity == VerbosityInfo:
		return "info"
	default:
		return "debug"
	}
}
