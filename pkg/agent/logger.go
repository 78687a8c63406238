package agent

import (
	"fmt"
	"log"
	"os"
)

// Logger provides leveled logging for agents and services.
// This abstraction allows swapping logging implementations.
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})
}

// defaultLogger implements Logger using Go's standard log package.
type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
}

// NewDefaultLogger creates a logger whose lines carry the owning agent's
// name, e.g. "[INFO] (damage-assessor) ...".
func NewDefaultLogger(name string) Logger {
	tag := ""
	if name != "" {
		tag = "(" + name + ") "
	}
	return &defaultLogger{
		errorLogger: log.New(os.Stderr, "[ERROR] "+tag, log.LstdFlags),
		warnLogger:  log.New(os.Stderr, "[WARN] "+tag, log.LstdFlags),
		infoLogger:  log.New(os.Stdout, "[INFO] "+tag, log.LstdFlags),
		debugLogger: log.New(os.Stdout, "[DEBUG] "+tag, log.LstdFlags),
	}
}

func (l *defaultLogger) Error(args ...interface{}) {
	l.errorLogger.Print(fmt.Sprint(args...))
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.errorLogger.Print(fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Warn(args ...interface{}) {
	l.warnLogger.Print(fmt.Sprint(args...))
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.warnLogger.Print(fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Info(args ...interface{}) {
	l.infoLogger.Print(fmt.Sprint(args...))
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.infoLogger.Print(fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Debug(args ...interface{}) {
	l.debugLogger.Print(fmt.Sprint(args...))
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.debugLogger.Print(fmt.Sprintf(format, args...))
}
