// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Level is a logging severity, ordered from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger is the minimal structured-logging seam a decode pass writes
// through. Implementations are free to fan keyvals out to whatever backend
// they like; NewStdLogger adapts log/slog.
type Logger interface {
	Log(level Level, keyvals ...any) error
}

// Helper wraps a Logger with printf-style convenience methods and an
// optional level filter, mirroring the Logger/Helper/Filter split this
// lineage's own internal logging package uses.
type Helper struct {
	logger Logger
	min    Level
}

// NewHelper returns a Helper that writes through logger.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger, min: LevelDebug}
}

// NewFilter returns a Helper that drops records below min.
func NewFilter(logger Logger, min Level) *Helper {
	return &Helper{logger: logger, min: min}
}

func (h *Helper) log(level Level, format string, args ...any) {
	if h == nil || h.logger == nil || level < h.min {
		return
	}
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

// Debugf logs at LevelDebug.
func (h *Helper) Debugf(format string, args ...any) { h.log(LevelDebug, format, args...) }

// Infof logs at LevelInfo.
func (h *Helper) Infof(format string, args ...any) { h.log(LevelInfo, format, args...) }

// Warnf logs at LevelWarn.
func (h *Helper) Warnf(format string, args ...any) { h.log(LevelWarn, format, args...) }

// Errorf logs at LevelError.
func (h *Helper) Errorf(format string, args ...any) { h.log(LevelError, format, args...) }

// stdLogger adapts a Logger onto log/slog.
type stdLogger struct {
	slog *slog.Logger
}

// NewStdLogger returns a Logger that writes structured records to w via
// log/slog. It is used only when passed as Options.Logger; a nil
// Options.Logger discards diagnostics.
func NewStdLogger(w *os.File) Logger {
	return &stdLogger{slog: slog.New(slog.NewTextHandler(w, nil))}
}

func (l *stdLogger) Log(level Level, keyvals ...any) error {
	var sl slog.Level
	switch level {
	case LevelDebug:
		sl = slog.LevelDebug
	case LevelInfo:
		sl = slog.LevelInfo
	case LevelWarn:
		sl = slog.LevelWarn
	case LevelError:
		sl = slog.LevelError
	}
	l.slog.Log(context.Background(), sl, "rjvm", keyvals...)
	return nil
}

// discardLogger drops every record at every level; NewDiscardLogger returns
// it. A nil Options.Logger is silent without it, since Helper skips a nil
// Logger.
type discardLogger struct{}

func (discardLogger) Log(Level, ...any) error { return nil }

// NewDiscardLogger returns a Logger that drops everything.
func NewDiscardLogger() Logger { return discardLogger{} }
