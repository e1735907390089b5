// Package logging holds the process logger shared by the renderer packages.
//
// By default nothing is logged. main wires a real handler with SetLogger and
// flips Debug for verbose output.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Debug enables DebugLog output (set from the DEBUG env var in main).
var Debug = false

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs l for all packages. nil restores the silent default.
// Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger { return loggerPtr.Load() }

// DebugLog prints a formatted debug line when Debug is set.
func DebugLog(format string, args ...any) {
	if !Debug {
		return
	}
	Logger().Debug(fmt.Sprintf(format, args...))
}

var once sync.Once

// DebugLogOnce is DebugLog that fires at most once per process.
func DebugLogOnce(format string, args ...any) {
	if !Debug {
		return
	}
	once.Do(func() {
		Logger().Debug(fmt.Sprintf(format, args...))
	})
}
