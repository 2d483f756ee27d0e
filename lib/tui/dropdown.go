// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"
)

// DefaultDropdownRows is the number of options shown at once when
// MaxVisible is zero.
const DefaultDropdownRows = 8

// DropdownOption is a single selectable item in a dropdown overlay.
type DropdownOption struct {
	Label string // Display text shown in the dropdown.
	Value string // Value applied on selection; empty means "all".
}

// visibleOption is an option that survived the query, with the rune
// positions the query matched.
type visibleOption struct {
	option    DropdownOption
	positions []int
}

// DropdownOverlay is a floating menu with type-to-filter. The first
// line is a title showing the field and the query; options follow,
// scrolled so the cursor stays visible. The model owns the dropdown
// and routes input to it while it is open.
type DropdownOverlay struct {
	Title   string // Header label, e.g. "Year".
	Field   string // What the selection applies to, e.g. "year".
	Current string // The value currently in effect, marked with a check.
	AnchorX int    // Screen X of the top-left corner.
	AnchorY int    // Screen Y of the top-left corner.

	// MaxVisible caps the option rows; zero means DefaultDropdownRows.
	MaxVisible int

	options []DropdownOption
	query   []rune
	visible []visibleOption
	cursor  int
	offset  int
	slab    *util.Slab
}

// NewDropdown returns a dropdown over options with the cursor on the
// option whose value is current.
func NewDropdown(title, field string, options []DropdownOption, current string) *DropdownOverlay {
	dropdown := &DropdownOverlay{
		Title:   title,
		Field:   field,
		Current: current,
		options: slices.Clone(options),
		slab:    NewSlab(),
	}
	dropdown.refilter()
	for index, entry := range dropdown.visible {
		if entry.option.Value == current {
			dropdown.cursor = index
			break
		}
	}
	dropdown.scrollToCursor()
	return dropdown
}

// Query returns the filter text typed so far.
func (dropdown *DropdownOverlay) Query() string {
	return string(dropdown.query)
}

// Type appends runes to the query and refilters.
func (dropdown *DropdownOverlay) Type(runes ...rune) {
	dropdown.query = append(dropdown.query, runes...)
	dropdown.refilter()
}

// Backspace removes the last query rune. Reports false when the query
// was already empty.
func (dropdown *DropdownOverlay) Backspace() bool {
	if len(dropdown.query) == 0 {
		return false
	}
	dropdown.query = dropdown.query[:len(dropdown.query)-1]
	dropdown.refilter()
	return true
}

// refilter recomputes the visible options: all of them in original
// order for an empty query, otherwise the matches by descending score
// with ties kept in original order. The cursor returns to the top.
func (dropdown *DropdownOverlay) refilter() {
	dropdown.visible = dropdown.visible[:0]
	type scored struct {
		visibleOption
		score int
	}
	var matches []scored
	for _, option := range dropdown.options {
		result := FuzzyMatch(option.Label, dropdown.query, dropdown.slab)
		if !result.Matched() {
			continue
		}
		matches = append(matches, scored{visibleOption{option, result.Positions}, result.Score})
	}
	if len(dropdown.query) > 0 {
		slices.SortStableFunc(matches, func(a, b scored) int { return b.score - a.score })
	}
	for _, match := range matches {
		dropdown.visible = append(dropdown.visible, match.visibleOption)
	}
	dropdown.cursor = 0
	dropdown.offset = 0
}

// Visible returns the options matching the current query, in display
// order.
func (dropdown *DropdownOverlay) Visible() []DropdownOption {
	result := make([]DropdownOption, len(dropdown.visible))
	for index, entry := range dropdown.visible {
		result[index] = entry.option
	}
	return result
}

// Cursor returns the index of the highlighted option within Visible.
func (dropdown *DropdownOverlay) Cursor() int {
	return dropdown.cursor
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (dropdown *DropdownOverlay) MoveUp() {
	if len(dropdown.visible) == 0 {
		return
	}
	dropdown.cursor--
	if dropdown.cursor < 0 {
		dropdown.cursor = len(dropdown.visible) - 1
	}
	dropdown.scrollToCursor()
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (dropdown *DropdownOverlay) MoveDown() {
	if len(dropdown.visible) == 0 {
		return
	}
	dropdown.cursor++
	if dropdown.cursor >= len(dropdown.visible) {
		dropdown.cursor = 0
	}
	dropdown.scrollToCursor()
}

// Selected returns the highlighted option. False when the query
// matches nothing.
func (dropdown *DropdownOverlay) Selected() (DropdownOption, bool) {
	if len(dropdown.visible) == 0 {
		return DropdownOption{}, false
	}
	return dropdown.visible[dropdown.cursor].option, true
}

func (dropdown *DropdownOverlay) rows() int {
	rows := dropdown.MaxVisible
	if rows <= 0 {
		rows = DefaultDropdownRows
	}
	return min(rows, len(dropdown.visible))
}

func (dropdown *DropdownOverlay) scrollToCursor() {
	rows := dropdown.rows()
	if dropdown.cursor < dropdown.offset {
		dropdown.offset = dropdown.cursor
	}
	if dropdown.cursor >= dropdown.offset+rows {
		dropdown.offset = dropdown.cursor - rows + 1
	}
}

// Height is the number of rendered lines: the title plus at least one
// option row ("no matches" when the query matches nothing).
func (dropdown *DropdownOverlay) Height() int {
	return 1 + max(1, dropdown.rows())
}

// Width returns the visible width of every rendered line: the widest
// of the title and all options, matching or not, so the box only
// grows when the query outgrows it.
func (dropdown *DropdownOverlay) Width() int {
	widest := ansi.StringWidth(dropdown.titleText())
	for _, option := range dropdown.options {
		widest = max(widest, ansi.StringWidth(option.Label)+2)
	}
	// One column of padding on each side plus the marker column.
	return widest + 3
}

func (dropdown *DropdownOverlay) titleText() string {
	return dropdown.Title + ": " + string(dropdown.query) + "▏"
}

// Contains reports whether screen coordinate (x, y) falls within the
// dropdown.
func (dropdown *DropdownOverlay) Contains(x, y int) bool {
	if y < dropdown.AnchorY || y >= dropdown.AnchorY+dropdown.Height() {
		return false
	}
	return x >= dropdown.AnchorX && x < dropdown.AnchorX+dropdown.Width()
}

// OptionAtY returns the index within Visible of the option rendered
// at screen row y, or -1 for the title row and anything outside.
func (dropdown *DropdownOverlay) OptionAtY(y int) int {
	row := y - dropdown.AnchorY - 1
	if row < 0 || row >= dropdown.rows() {
		return -1
	}
	return dropdown.offset + row
}

// SetCursor moves the cursor to index within Visible, ignoring out of
// range values. Used for mouse hover.
func (dropdown *DropdownOverlay) SetCursor(index int) {
	if index < 0 || index >= len(dropdown.visible) {
		return
	}
	dropdown.cursor = index
	dropdown.scrollToCursor()
}

// Render produces the dropdown lines for [SpliceOverlay]. Every line
// has the same visible width. Matched query characters are drawn in
// the theme's match color.
func (dropdown *DropdownOverlay) Render(theme Theme) []string {
	totalWidth := dropdown.Width()
	innerWidth := totalWidth - 2

	panel := lipgloss.NewStyle().Background(theme.PanelBackground).Foreground(theme.PanelForeground)
	title := panel.Foreground(theme.HeaderForeground).Bold(true)
	selected := lipgloss.NewStyle().Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)

	lines := []string{PadOverlayLine(title.Render(dropdown.titleText()), innerWidth, totalWidth, panel)}

	if len(dropdown.visible) == 0 {
		faint := panel.Foreground(theme.FaintText).Italic(true)
		return append(lines, PadOverlayLine(faint.Render("  no matches"), innerWidth, totalWidth, panel))
	}

	for row := range dropdown.rows() {
		index := dropdown.offset + row
		entry := dropdown.visible[index]

		style := panel
		if index == dropdown.cursor {
			style = selected
		}
		match := style.Foreground(theme.MatchForeground).Bold(true)

		marker := "  "
		if entry.option.Value == dropdown.Current {
			marker = "✓ "
		}
		label := HighlightMatches(entry.option.Label, entry.positions,
			func(text string) string { return style.Render(text) },
			func(text string) string { return match.Render(text) })
		lines = append(lines, PadOverlayLine(style.Render(marker)+label, innerWidth, totalWidth, style))
	}
	return lines
}
