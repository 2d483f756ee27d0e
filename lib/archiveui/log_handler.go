// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears a log record from the status bar. Sequence
// identifies the record it was scheduled for, so a newer record is
// not cleared by an older record's timer.
type logRecordFadeMsg struct {
	Sequence uint64
}

// logRecordFadeDelay is how long a record stays in the status bar
// before the help line returns.
const logRecordFadeDelay = 5 * time.Second

// TUILogHandler is a slog.Handler that routes records into the
// bubbletea program as status bar messages. Records below the level
// are dropped, as are records that arrive before SetProgram.
//
// Handlers derived via WithAttrs and WithGroup share the program
// link, so one SetProgram call reaches all of them.
type TUILogHandler struct {
	level  slog.Level
	link   *programLink
	attrs  []string
	prefix string
}

// NewTUILogHandler returns a handler for records at or above level.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level: level,
		link:  &programLink{},
	}
}

// SetProgram binds the handler to program. Safe to call from any
// goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.link.bind(program.Send)
}

func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats the record as "message (key=value, ...)" and sends
// it to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	parts := slices.Clone(handler.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, handler.format(attr))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	handler.link.deliver(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

func (handler *TUILogHandler) format(attr slog.Attr) string {
	return fmt.Sprintf("%s%s=%s", handler.prefix, attr.Key, attr.Value.Resolve())
}

func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = slices.Clone(handler.attrs)
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, handler.format(attr))
	}
	return &derived
}

func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	derived.attrs = slices.Clone(handler.attrs)
	derived.prefix = handler.prefix + name + "."
	return &derived
}
