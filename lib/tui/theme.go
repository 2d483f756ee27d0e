// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette of the archive browser. Colors are
// hex values; lipgloss degrades them to the terminal's profile.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Accent is the brand color: active filters, the current card,
	// the focused scrollbar thumb.
	Accent lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Map pane status line.
	StatusLoading lipgloss.Color
	StatusReady   lipgloss.Color
	StatusError   lipgloss.Color

	// Fuzzy match highlighting in dropdowns.
	MatchForeground lipgloss.Color

	// Links in rendered descriptions.
	LinkForeground lipgloss.Color

	// Dropdowns, the venue panel and the event modal.
	PanelForeground lipgloss.Color
	PanelBackground lipgloss.Color

	// Backdrop is the dim color the view behind an open modal is
	// repainted in.
	Backdrop lipgloss.Color
}

// StatusColor returns the color for a map status name ("loading",
// "ready", "error"). Anything else is FaintText.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch status {
	case "loading":
		return theme.StatusLoading
	case "ready":
		return theme.StatusReady
	case "error":
		return theme.StatusError
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark scheme: warm grays on black with
// the collective's red as accent.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("#D8C8C0"),
	FaintText:  lipgloss.Color("#8A7A74"),

	Accent: lipgloss.Color("#ED2800"),

	SelectedBackground: lipgloss.Color("#3A2520"),
	SelectedForeground: lipgloss.Color("#FFFFFF"),

	HeaderForeground: lipgloss.Color("#FFFFFF"),
	BorderColor:      lipgloss.Color("#4A3A34"),
	HelpText:         lipgloss.Color("#6E605A"),

	StatusLoading: lipgloss.Color("#E0A030"),
	StatusReady:   lipgloss.Color("#7FB069"),
	StatusError:   lipgloss.Color("#ED2800"),

	MatchForeground: lipgloss.Color("#FF8A66"),

	LinkForeground: lipgloss.Color("#66A8FF"),

	PanelForeground: lipgloss.Color("#D8C8C0"),
	PanelBackground: lipgloss.Color("#241815"),

	Backdrop: lipgloss.Color("#4A3A34"),
}
