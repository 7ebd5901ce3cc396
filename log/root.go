// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger bound to the given context key/value pairs.
// Packages use it to declare their own logger:
//
//	var logger = log.WithContext("pkg", "staking")
//
// The root logger is resolved at call time, so package-level loggers pick
// up handlers installed after package init.
func WithContext(ctx ...any) Logger {
	return &ctxLogger{ctx: ctx}
}

type ctxLogger struct {
	ctx []any
}

func (c *ctxLogger) merged(attrs []any) []any {
	return append(append([]any{}, c.ctx...), attrs...)
}

func (c *ctxLogger) With(ctx ...any) Logger {
	return &ctxLogger{ctx: c.merged(ctx)}
}

func (c *ctxLogger) New(ctx ...any) Logger { return c.With(ctx...) }

func (c *ctxLogger) Write(level slog.Level, msg string, attrs ...any) {
	Root().Write(level, msg, c.merged(attrs)...)
}

func (c *ctxLogger) Log(level slog.Level, msg string, ctx ...any) { c.Write(level, msg, ctx...) }

func (c *ctxLogger) Trace(msg string, ctx ...any) { c.Write(LevelTrace, msg, ctx...) }
func (c *ctxLogger) Debug(msg string, ctx ...any) { c.Write(slog.LevelDebug, msg, ctx...) }
func (c *ctxLogger) Info(msg string, ctx ...any)  { c.Write(slog.LevelInfo, msg, ctx...) }
func (c *ctxLogger) Warn(msg string, ctx ...any)  { c.Write(slog.LevelWarn, msg, ctx...) }
func (c *ctxLogger) Error(msg string, ctx ...any) { c.Write(slog.LevelError, msg, ctx...) }

func (c *ctxLogger) Crit(msg string, ctx ...any) {
	Root().Crit(msg, c.merged(ctx)...)
}

func (c *ctxLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Enabled(ctx, level)
}

func (c *ctxLogger) Handler() slog.Handler {
	return Root().Handler()
}

// The following functions bypass the exported logger methods (logger.Debug,
// etc.) to keep the call depth the same for all paths to logger.Write so
// runtime.Caller(2) always refers to the call site in client code.

// Trace is a convenient alias for Root().Trace.
func Trace(msg string, ctx ...any) {
	Root().Write(LevelTrace, msg, ctx...)
}

// Debug is a convenient alias for Root().Debug.
func Debug(msg string, ctx ...any) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info is a convenient alias for Root().Info.
func Info(msg string, ctx ...any) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn is a convenient alias for Root().Warn.
func Warn(msg string, ctx ...any) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}

// Error is a convenient alias for Root().Error.
func Error(msg string, ctx ...any) {
	Root().Write(slog.LevelError, msg, ctx...)
}

// Crit is a convenient alias for Root().Crit.
func Crit(msg string, ctx ...any) {
	Root().Crit(msg, ctx...)
}
