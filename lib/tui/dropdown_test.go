// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func venueDropdown(current string) *DropdownOverlay {
	return NewDropdown("Venue", "venue", []DropdownOption{
		{Label: "All venues", Value: ""},
		{Label: "Miro Club", Value: "Miro Club"},
		{Label: "Zoona", Value: "Zoona"},
		{Label: "Goethe Haus", Value: "Goethe Haus"},
		{Label: "Castel Roncolo", Value: "Castel Roncolo"},
		{Label: "Astra Brixen", Value: "Astra Brixen"},
	}, current)
}

func TestDropdownStartsOnCurrentValue(t *testing.T) {
	dropdown := venueDropdown("Goethe Haus")
	selected, ok := dropdown.Selected()
	if !ok || selected.Value != "Goethe Haus" {
		t.Fatalf("selected = %+v, want Goethe Haus", selected)
	}
}

func TestDropdownCursorWraps(t *testing.T) {
	dropdown := venueDropdown("")
	dropdown.MoveUp()
	if selected, _ := dropdown.Selected(); selected.Value != "Astra Brixen" {
		t.Fatalf("MoveUp from the top selected %q, want the last option", selected.Value)
	}
	dropdown.MoveDown()
	if selected, _ := dropdown.Selected(); selected.Value != "" {
		t.Fatalf("MoveDown from the bottom selected %q, want the first option", selected.Value)
	}
}

func TestDropdownTypingFilters(t *testing.T) {
	dropdown := venueDropdown("")
	dropdown.Type([]rune("zoo")...)

	visible := dropdown.Visible()
	if len(visible) != 1 || visible[0].Value != "Zoona" {
		t.Fatalf("visible = %+v, want only Zoona", visible)
	}
	if dropdown.Cursor() != 0 {
		t.Fatalf("cursor = %d after refilter, want 0", dropdown.Cursor())
	}

	dropdown.Type('x')
	if _, ok := dropdown.Selected(); ok {
		t.Fatal("Selected reported an option when nothing matches")
	}
	dropdown.MoveDown()

	for dropdown.Backspace() {
	}
	if dropdown.Query() != "" {
		t.Fatalf("query = %q after clearing", dropdown.Query())
	}
	if len(dropdown.Visible()) != 6 {
		t.Fatalf("expected all 6 options back, got %d", len(dropdown.Visible()))
	}
}

func TestDropdownScrollsToCursor(t *testing.T) {
	dropdown := venueDropdown("")
	dropdown.MaxVisible = 3
	dropdown.AnchorY = 10

	for range 4 {
		dropdown.MoveDown()
	}
	// Cursor on index 4; the window shows 2..4 below the title row.
	if got := dropdown.OptionAtY(13); got != 4 {
		t.Fatalf("OptionAtY(13) = %d, want 4", got)
	}
	if got := dropdown.OptionAtY(10); got != -1 {
		t.Fatalf("title row resolved to option %d", got)
	}
	if got := dropdown.OptionAtY(14); got != -1 {
		t.Fatalf("row below the window resolved to option %d", got)
	}
	if dropdown.Height() != 4 {
		t.Fatalf("height = %d, want 4", dropdown.Height())
	}
}

func TestDropdownRender(t *testing.T) {
	dropdown := venueDropdown("Zoona")
	dropdown.AnchorX = 5

	lines := dropdown.Render(DefaultTheme)
	if len(lines) != dropdown.Height() {
		t.Fatalf("rendered %d lines, want %d", len(lines), dropdown.Height())
	}
	for index, line := range lines {
		if width := ansi.StringWidth(line); width != dropdown.Width() {
			t.Errorf("line %d width = %d, want %d", index, width, dropdown.Width())
		}
	}
	if !strings.Contains(ansi.Strip(lines[0]), "Venue:") {
		t.Errorf("title line = %q", ansi.Strip(lines[0]))
	}
	if !strings.Contains(ansi.Strip(strings.Join(lines, "\n")), "✓ Zoona") {
		t.Error("current value is not checked")
	}
	if !dropdown.Contains(5, 0) || dropdown.Contains(4, 0) || dropdown.Contains(5+dropdown.Width(), 0) {
		t.Error("Contains disagrees with the rendered box")
	}

	dropdown.Type([]rune("qqq")...)
	lines = dropdown.Render(DefaultTheme)
	if len(lines) != 2 || !strings.Contains(ansi.Strip(lines[1]), "no matches") {
		t.Errorf("empty result rendered as %q", ansi.Strip(strings.Join(lines, "\n")))
	}
}

func TestDropdownRenderHighlightsMatches(t *testing.T) {
	dropdown := venueDropdown("")
	dropdown.Type([]rune("brx")...)

	lines := dropdown.Render(DefaultTheme)
	if len(lines) != 2 {
		t.Fatalf("rendered %d lines, want the title and one match", len(lines))
	}
	if got := ansi.Strip(lines[1]); !strings.Contains(got, "Astra Brixen") {
		t.Errorf("match line = %q, want Astra Brixen", got)
	}
	if width := ansi.StringWidth(lines[1]); width != dropdown.Width() {
		t.Errorf("match line width = %d, want %d", width, dropdown.Width())
	}
}
