// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the archive browser.
type KeyMap struct {
	// Movement. In the carousel Left/Right step through events; in the
	// grid and the venue panel Up/Down move the cursor; in the modal
	// Left/Right step through the gallery and Up/Down scroll the
	// description.
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Open  key.Binding // Open the focused event, or full-screen media in the modal.
	Back  key.Binding // Close the innermost overlay or panel.
	Focus key.Binding // Move focus between the event pane and the venue panel.

	// Sections.
	NextSection    key.Binding
	SectionArchive key.Binding
	SectionStats   key.Binding
	SectionAbout   key.Binding

	// View.
	ToggleMode       key.Binding // Carousel or grid.
	ToggleAutoScroll key.Binding
	ShowOnMap        key.Binding // Fly to the focused event's venue.
	Poster           key.Binding // Show the open event's poster full-screen.

	// Filters.
	PrevYear        key.Binding
	NextYear        key.Binding
	FilterMonth     key.Binding
	FilterPerformer key.Binding
	FilterVenue     key.Binding
	ClearFilters    key.Binding

	RetryMap key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set: vim-style movement
// alongside the arrow keys, single letters for filters.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "previous"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Focus: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "focus venue"),
	),
	NextSection: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "section"),
	),
	SectionArchive: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "archive"),
	),
	SectionStats: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "stats"),
	),
	SectionAbout: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "about"),
	),
	ToggleMode: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "grid/carousel"),
	),
	ToggleAutoScroll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "auto-scroll"),
	),
	ShowOnMap: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "show on map"),
	),
	Poster: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "poster"),
	),
	PrevYear: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "newer year"),
	),
	NextYear: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "older year"),
	),
	FilterMonth: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "month"),
	),
	FilterPerformer: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "performer"),
	),
	FilterVenue: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "venue"),
	),
	ClearFilters: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear filters"),
	),
	RetryMap: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry map"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
