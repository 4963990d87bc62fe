// Package obslog provides a zerolog-based logger for the attack driver and CLI.
//
// The daemon this package is adapted from backs its logger with a SQLite
// sink because it runs indefinitely and needs queryable history. A
// cryptanalysis run is a short batch job, so the sink here is just stdout.
package obslog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu        sync.RWMutex
	pkgLogger = newConsoleLogger()
)

func newConsoleLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	return &l
}

// SetStd switches to a human-readable console logger writing to stdout.
func SetStd() {
	mu.Lock()
	defer mu.Unlock()
	pkgLogger = newConsoleLogger()
}

// SetJSON switches to a structured, one-JSON-object-per-line logger.
func SetJSON() {
	mu.Lock()
	defer mu.Unlock()
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	pkgLogger = &l
}

func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return pkgLogger
}

func Debug() *zerolog.Event { return logger().Debug() }
func Info() *zerolog.Event  { return logger().Info() }
func Warn() *zerolog.Event  { return logger().Warn() }
func Error() *zerolog.Event { return logger().Error() }
func Fatal() *zerolog.Event { return logger().Fatal() }
func Log() *zerolog.Event   { return logger().Log() }

// Print sends a log event at info level, fmt.Print style.
func Print(v ...interface{}) {
	logger().Info().CallerSkipFrame(1).Msg(fmt.Sprint(v...))
}

// Printf sends a log event at info level, fmt.Printf style.
func Printf(format string, v ...interface{}) {
	logger().Info().CallerSkipFrame(1).Msgf(format, v...)
}

// Fatalf logs at fatal level and terminates the process.
func Fatalf(format string, v ...interface{}) {
	logger().Fatal().Msgf(format, v...)
}
