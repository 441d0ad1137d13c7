package logging

import "go.uber.org/zap/zapcore"

// Logger is the logging interface used throughout arview. It mirrors the sugared zap API but
// routes entries through a set of Appenders so tests can capture them.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Fatal logs at error level and exits the process.
	Fatal(args ...interface{})

	// Sublogger returns a child logger whose name is "<parent>.<subname>". The child starts at
	// the parent's level and shares its appenders.
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
	GetLevel() Level
	Sync() error

	// Level satisfies zapcore.LevelEnabler style checks.
	Level() zapcore.Level
}
