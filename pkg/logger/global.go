package logger

import (
	"io"
	"sync"
)

var (
	appLogger *Logger
	mu        sync.Mutex
)

// Init initializes the application logger with the specified log file path.
func Init(logPath string, level Level) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if appLogger != nil {
		appLogger.Close()
	}

	l, err := New(logPath, level)
	if err != nil {
		return err
	}
	appLogger = l
	return nil
}

// Close closes the application log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if appLogger != nil {
		appLogger.Close()
		appLogger = nil
	}
}

// App returns the application logger; nil (discarding) before Init.
func App() *Logger {
	mu.Lock()
	defer mu.Unlock()
	return appLogger
}

// Info logs an info message to the application log.
func Info(format string, v ...interface{}) { App().Info(format, v...) }

// Debug logs a debug message to the application log.
func Debug(format string, v ...interface{}) { App().Debug(format, v...) }

// Error logs an error message to the application log.
func Error(format string, v ...interface{}) { App().Error(format, v...) }

// Warn logs a warning message to the application log.
func Warn(format string, v ...interface{}) { App().Warn(format, v...) }

// GetWriter returns the application log writer for use by drivers.
func GetWriter() io.Writer {
	return App().Writer()
}
