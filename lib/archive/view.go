// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import "fmt"

// ViewMode selects how the filtered events are laid out.
type ViewMode int

const (
	// ModeCarousel shows one event at a time and may auto-advance.
	ModeCarousel ViewMode = iota
	// ModeGrid shows every filtered event at once. It has no current
	// index, so auto-advance is gated off.
	ModeGrid
)

func (mode ViewMode) String() string {
	switch mode {
	case ModeCarousel:
		return "carousel"
	case ModeGrid:
		return "grid"
	default:
		return fmt.Sprintf("mode(%d)", int(mode))
	}
}

// ParseViewMode resolves "carousel" or "grid".
func ParseViewMode(name string) (ViewMode, error) {
	switch name {
	case "carousel":
		return ModeCarousel, nil
	case "grid":
		return ModeGrid, nil
	default:
		return 0, fmt.Errorf("unknown view mode %q (want carousel or grid)", name)
	}
}

// ViewState is the carousel position and layout. The element count is
// passed into each operation rather than stored, so the state can
// never disagree with the filtered set it indexes.
type ViewState struct {
	mode       ViewMode
	index      int
	autoScroll bool
}

// NewViewState returns a view at index 0.
func NewViewState(mode ViewMode, autoScroll bool) ViewState {
	return ViewState{mode: mode, autoScroll: autoScroll}
}

func (view ViewState) Mode() ViewMode   { return view.mode }
func (view ViewState) Index() int       { return view.index }
func (view ViewState) AutoScroll() bool { return view.autoScroll }

// SetMode switches layout. The auto-scroll preference is kept, so
// returning to the carousel resumes auto-advance only if it was on.
func (view *ViewState) SetMode(mode ViewMode) {
	view.mode = mode
}

// ToggleAutoScroll flips the auto-scroll preference. It has no effect
// in grid mode. Returns whether the state changed.
func (view *ViewState) ToggleAutoScroll() bool {
	if view.mode != ModeCarousel {
		return false
	}
	view.autoScroll = !view.autoScroll
	return true
}

// Advance moves the index by delta modulo count, wrapping in both
// directions. No-op when count is zero.
func (view *ViewState) Advance(delta, count int) {
	if count <= 0 {
		return
	}
	view.index = ((view.index+delta)%count + count) % count
}

// Jump sets the index directly, clamped to [0, count).
func (view *ViewState) Jump(index, count int) {
	switch {
	case count <= 0 || index < 0:
		view.index = 0
	case index >= count:
		view.index = count - 1
	default:
		view.index = index
	}
}

// ResetIndex returns to the first element. Every filter change calls
// it so the index never points past the new filtered set.
func (view *ViewState) ResetIndex() {
	view.index = 0
}

// AutoAdvancing reports whether the auto-advance timer should run for
// a filtered set of count events.
func (view ViewState) AutoAdvancing(count int) bool {
	return view.mode == ModeCarousel && view.autoScroll && count > 0
}
