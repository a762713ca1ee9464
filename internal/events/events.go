// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events carries log and progress events from the search and
// acquisition stages to whoever drives them (CLI, batch runner, or an
// external front-end). Sinks may be called from many goroutines at once.
package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level classifies an event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Sink receives events. A Sink is allowed to fail (panic); the Emitter
// recovers and falls back to console output.
type Sink func(level Level, message string)

// ProgressFunc reports transfer progress at chunk granularity. total is -1
// when the server did not report a size.
type ProgressFunc func(transferred, total int64)

// Emitter fans events out to a Sink. The zero value and a nil *Emitter both
// write to stdout.
type Emitter struct {
	mu       sync.Mutex
	sink     Sink
	fallback io.Writer
}

// NewEmitter returns an Emitter forwarding to sink. A nil sink writes to stdout.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

// WithFallback sets the writer used when the sink is nil or fails.
func (e *Emitter) WithFallback(w io.Writer) *Emitter {
	e.fallback = w
	return e
}

// Emit delivers one event. It never panics.
func (e *Emitter) Emit(level Level, message string) {
	if e == nil {
		fmt.Fprintln(os.Stdout, message)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sink != nil && e.deliver(level, message) {
		return
	}
	w := e.fallback
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, message)
}

func (e *Emitter) deliver(level Level, message string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	e.sink(level, message)
	return true
}

// Infof emits an info event.
func (e *Emitter) Infof(format string, args ...any) { e.Emit(LevelInfo, fmt.Sprintf(format, args...)) }

// Warnf emits a warning event.
func (e *Emitter) Warnf(format string, args ...any) {
	e.Emit(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf emits an error event.
func (e *Emitter) Errorf(format string, args ...any) {
	e.Emit(LevelError, fmt.Sprintf(format, args...))
}

// Successf emits a success event.
func (e *Emitter) Successf(format string, args ...any) {
	e.Emit(LevelSuccess, fmt.Sprintf(format, args...))
}

// SlogSink forwards events to a structured logger. Success maps to Info with
// an outcome attribute.
func SlogSink(logger *slog.Logger) Sink {
	return func(level Level, message string) {
		ctx := context.Background()
		switch level {
		case LevelWarning:
			logger.Log(ctx, slog.LevelWarn, message)
		case LevelError:
			logger.Log(ctx, slog.LevelError, message)
		case LevelSuccess:
			logger.Log(ctx, slog.LevelInfo, message, slog.String("outcome", "success"))
		default:
			logger.Log(ctx, slog.LevelInfo, message)
		}
	}
}

// WriterSink writes "[level] message" lines to w.
func WriterSink(w io.Writer) Sink {
	return func(level Level, message string) {
		fmt.Fprintf(w, "[%s] %s\n", level, message)
	}
}
