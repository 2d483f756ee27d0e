// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// programLink is a late-bound route into a running bubbletea program.
// Collaborators that need to send messages are built before the
// program exists; binding happens once it does. Messages sent before
// binding are dropped.
type programLink struct {
	send atomic.Pointer[func(tea.Msg)]
}

func (link *programLink) bind(send func(tea.Msg)) {
	link.send.Store(&send)
}

func (link *programLink) deliver(message tea.Msg) bool {
	send := link.send.Load()
	if send == nil {
		return false
	}
	(*send)(message)
	return true
}

// dispatchMsg carries a callback onto the event loop.
type dispatchMsg struct {
	run func()
}

// Dispatcher moves callbacks from timer and engine goroutines onto
// the bubbletea event loop. Its Dispatch method is the
// [mapview.Dispatcher] handed to the browser.
type Dispatcher struct {
	link programLink
}

// NewDispatcher returns an unbound dispatcher. Call SetProgram once
// the tea.Program is created.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// SetProgram binds the dispatcher to program. Safe to call from any
// goroutine.
func (dispatcher *Dispatcher) SetProgram(program *tea.Program) {
	dispatcher.link.bind(program.Send)
}

// Dispatch queues run for execution inside Update. Before SetProgram
// the callback is dropped; the browser's generation checks make a
// lost callback equivalent to a superseded one.
func (dispatcher *Dispatcher) Dispatch(run func()) {
	dispatcher.link.deliver(dispatchMsg{run: run})
}
