// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/takeone-collective/archive/lib/archive"
	"github.com/takeone-collective/archive/lib/mapview"
	"github.com/takeone-collective/archive/lib/tui"
)

// Fixed chrome rows of the archive section. The status bar is the
// last row.
const (
	sectionBarY = 0
	yearBarY    = 1
	filterBarY  = 2
	contentTop  = 3
	chromeRows  = 4
)

const sectionTitle = " TAKEONE ARCHIVE "

// paneLayout is the geometry of the archive section's content area.
// The right column stacks a one-row map header, the map body and,
// when a venue is selected, the venue panel (a header row plus
// event rows).
type paneLayout struct {
	contentHeight int
	leftWidth     int
	rightX        int
	rightWidth    int
	mapTop        int
	mapHeight     int
	panelTop      int
	panelHeight   int
}

func (layout paneLayout) panelRows() int {
	return max(0, layout.panelHeight-1)
}

func (model Model) layout() paneLayout {
	contentHeight := max(0, model.height-chromeRows)
	leftWidth := model.width * 11 / 20
	rightX := leftWidth + 1

	panelHeight := 0
	if _, events, open := model.browser.VenuePanel(); open {
		panelHeight = min(len(events)+1, contentHeight/2)
	}
	mapHeight := max(0, contentHeight-panelHeight-1)

	return paneLayout{
		contentHeight: contentHeight,
		leftWidth:     leftWidth,
		rightX:        rightX,
		rightWidth:    max(0, model.width-rightX),
		mapTop:        contentTop + 1,
		mapHeight:     mapHeight,
		panelTop:      contentTop + 1 + mapHeight,
		panelHeight:   panelHeight,
	}
}

// modalGeometry is the screen rectangle of an overlay box.
type modalGeometry struct {
	x, y          int
	width, height int
}

func (box modalGeometry) contains(x, y int) bool {
	return x >= box.x && x < box.x+box.width && y >= box.y && y < box.y+box.height
}

// descriptionHeight is the viewport height left after the modal's
// fixed rows: title, meta, poster, performers, genres, a blank line,
// then a blank line, the gallery caption, the thumbnail strip and the
// hint line.
func (box modalGeometry) descriptionHeight() int {
	return max(1, box.height-10)
}

func (box modalGeometry) stripY() int {
	return box.y + box.height - 2
}

func (model Model) modalBox() modalGeometry {
	width := clamp(model.width-4, 24, 84)
	height := clamp(model.height-2, 12, 32)
	x, y := tui.CenterAnchor(model.width, model.height, width, height)
	return modalGeometry{x: x, y: y, width: width, height: height}
}

func (model Model) fullScreenBox() modalGeometry {
	width := clamp(model.width-8, 24, 72)
	height := 7
	x, y := tui.CenterAnchor(model.width, model.height, width, height)
	return modalGeometry{x: x, y: y, width: width, height: height}
}

// segmentKind says what clicking a bar segment does.
type segmentKind int

const (
	segmentSection segmentKind = iota
	segmentYear
	segmentFacet
	segmentMode
	segmentAutoScroll
	segmentClear
	segmentPrevious
	segmentNext
	segmentThumbnail
)

// segment is a clickable span of a one-line bar. Rendering and hit
// testing share the same segments so they cannot disagree.
type segment struct {
	start, end int // Columns, end exclusive.
	label      string
	kind       segmentKind
	active     bool

	section Section
	facet   archive.Facet
	value   string
	index   int
}

func (segment segment) hit(x int) bool {
	return x >= segment.start && x < segment.end
}

// placeSegments lays segments out left to right from x with gap
// columns between them.
func placeSegments(x, gap int, segments []segment) []segment {
	for index := range segments {
		segments[index].start = x
		x += ansi.StringWidth(segments[index].label)
		segments[index].end = x
		x += gap
	}
	return segments
}

func (model Model) sectionSegments() []segment {
	var segments []segment
	for section := range sectionCount {
		segments = append(segments, segment{
			label:   " " + section.String() + " ",
			kind:    segmentSection,
			section: section,
			active:  section == model.section,
		})
	}
	return placeSegments(ansi.StringWidth(sectionTitle)+1, 1, segments)
}

const yearBarPrefix = " Year  "

func (model Model) yearSegments() []segment {
	current := model.browser.Filter().Year
	var segments []segment
	for _, value := range model.yearOptions() {
		label := value
		if value == "" {
			label = allLabel(archive.FacetYear)
		}
		segments = append(segments, segment{
			label:  label,
			kind:   segmentYear,
			value:  value,
			active: value == current,
		})
	}
	return placeSegments(ansi.StringWidth(yearBarPrefix), 2, segments)
}

func (model Model) filterBarSegments() []segment {
	filter := model.browser.Filter()
	var segments []segment
	for _, facet := range []archive.Facet{archive.FacetMonth, archive.FacetPerformer, archive.FacetVenue} {
		value := filter.Value(facet)
		shown := value
		if shown == "" {
			shown = "all"
		}
		segments = append(segments, segment{
			label:  fmt.Sprintf("%s: %s ▾", facetTitle(facet), shown),
			kind:   segmentFacet,
			facet:  facet,
			active: value != "",
		})
	}

	view := model.browser.View()
	segments = append(segments, segment{label: "[" + view.Mode().String() + "]", kind: segmentMode})
	if view.Mode() == archive.ModeCarousel {
		state := "off"
		if view.AutoScroll() {
			state = "on"
		}
		segments = append(segments, segment{
			label:  "auto " + state,
			kind:   segmentAutoScroll,
			active: model.browser.AutoAdvancing(),
		})
	}
	if filter.Active() > 0 {
		segments = append(segments, segment{label: "✕ clear", kind: segmentClear})
	}
	return placeSegments(1, 3, segments)
}

// carouselSegments are the previous and next arrows of the carousel
// header, around the position counter.
func (model Model) carouselSegments() []segment {
	count := len(model.browser.Filtered())
	position := fmt.Sprintf("%d / %d", model.browser.View().Index()+1, count)
	segments := placeSegments(1, 1, []segment{
		{label: "◀", kind: segmentPrevious},
		{label: position},
		{label: "▶", kind: segmentNext},
	})
	return segments
}

// gallerySegments are the modal's thumbnail strip, starting at x.
func (model Model) gallerySegments(x, count, selected int) []segment {
	segments := make([]segment, count)
	for index := range segments {
		segments[index] = segment{
			label:  fmt.Sprintf("[%d]", index+1),
			kind:   segmentThumbnail,
			index:  index,
			active: index == selected,
		}
	}
	return placeSegments(x, 1, segments)
}

// dotsFit reports whether a pagination dot per event fits in width.
func dotsFit(count, width int) bool {
	return count > 1 && 2*count+1 <= width
}

func (model *Model) handleMouse(message tea.MouseMsg) {
	if !model.ready {
		return
	}
	switch {
	case message.Button == tea.MouseButtonWheelUp:
		model.handleWheel(-1, message.X, message.Y)
	case message.Button == tea.MouseButtonWheelDown:
		model.handleWheel(1, message.X, message.Y)
	case message.Action == tea.MouseActionMotion:
		model.handleMotion(message.X, message.Y)
	case message.Action == tea.MouseActionPress && message.Button == tea.MouseButtonLeft:
		model.handleClick(message.X, message.Y)
	}
}

func (model *Model) handleClick(x, y int) {
	if model.section != SectionArchive || (y == sectionBarY && model.dropdown == nil &&
		model.browser.Selection().Modal == archive.ModalClosed) {
		if y == sectionBarY {
			for _, segment := range model.sectionSegments() {
				if segment.hit(x) {
					model.setSection(segment.section)
				}
			}
		}
		return
	}

	if model.dropdown != nil {
		if model.dropdown.Contains(x, y) {
			if index := model.dropdown.OptionAtY(y); index >= 0 {
				model.dropdown.SetCursor(index)
				model.applyDropdown()
			}
			return
		}
		model.dismissDropdown()
		return
	}

	if modal := model.browser.Modal(); modal.State() != archive.ModalClosed {
		model.clickModal(modal, x, y)
		return
	}

	layout := model.layout()
	switch {
	case y == yearBarY:
		for _, segment := range model.yearSegments() {
			if segment.hit(x) {
				model.browser.SetFilter(archive.FacetYear, segment.value)
			}
		}

	case y == filterBarY:
		for _, segment := range model.filterBarSegments() {
			if segment.hit(x) {
				model.activateFilterSegment(segment)
			}
		}

	case y < contentTop || y >= contentTop+layout.contentHeight:
		// Status bar.

	case x < layout.leftWidth:
		model.clickEvents(x, y-contentTop, layout)

	case x >= layout.rightX:
		model.clickRightColumn(x-layout.rightX, y, layout)
	}
}

func (model *Model) activateFilterSegment(segment segment) {
	switch segment.kind {
	case segmentFacet:
		model.openDropdown(segment.facet)
	case segmentMode:
		if model.browser.View().Mode() == archive.ModeGrid {
			model.browser.SetMode(archive.ModeCarousel)
		} else {
			model.browser.SetMode(archive.ModeGrid)
		}
	case segmentAutoScroll:
		model.browser.ToggleAutoScroll()
	case segmentClear:
		model.browser.ClearFilters()
	}
}

// clickModal routes a click while the modal is open. Clicks outside
// the box reach the backdrop; clicks inside are consumed, after
// acting on the thumbnail strip or the close button.
func (model *Model) clickModal(modal archive.Modal, x, y int) {
	if modal.State() == archive.ModalFullScreen {
		if model.fullScreenBox().contains(x, y) {
			model.browser.ClickModal(archive.TargetContent)
		} else {
			model.browser.ClickModal(archive.TargetBackdrop)
		}
		return
	}

	box := model.modalBox()
	if !box.contains(x, y) {
		model.browser.ClickModal(archive.TargetBackdrop)
		return
	}
	if y == box.y && x >= box.x+box.width-closeButtonWidth {
		model.browser.CloseModal()
		return
	}
	if event, ok := modal.Event(); ok && y == box.stripY() {
		for _, segment := range model.gallerySegments(box.x+1, len(event.Gallery), modal.GalleryIndex()) {
			if segment.hit(x) {
				model.browser.GalleryJump(segment.index)
				return
			}
		}
	}
	model.browser.ClickModal(archive.TargetContent)
}

// clickEvents handles a click in the event pane at row of the
// content area.
func (model *Model) clickEvents(x, row int, layout paneLayout) {
	model.focusEvents()
	filtered := model.browser.Filtered()
	if len(filtered) == 0 {
		return
	}

	if model.browser.View().Mode() == archive.ModeGrid {
		index := model.gridOffset + row
		if index < len(filtered) {
			model.gridCursor = index
			model.browser.OpenEvent(filtered[index].ID)
		}
		return
	}

	switch row {
	case 0:
		for _, segment := range model.carouselSegments() {
			if !segment.hit(x) {
				continue
			}
			switch segment.kind {
			case segmentPrevious:
				model.browser.Advance(-1)
			case segmentNext:
				model.browser.Advance(1)
			}
		}
	case layout.contentHeight - 1:
		if dotsFit(len(filtered), layout.leftWidth) && x >= 1 && (x-1)%2 == 0 {
			if index := (x - 1) / 2; index < len(filtered) {
				model.browser.Jump(index)
			}
		}
	default:
		model.browser.OpenCurrent()
	}
}

// clickRightColumn handles a click in the map column; x is relative
// to the column.
func (model *Model) clickRightColumn(x, y int, layout paneLayout) {
	switch {
	case y < layout.mapTop:
		if model.browser.MapStatus() == mapview.StatusError {
			model.browser.RetryMap()
		}

	case y < layout.mapTop+layout.mapHeight:
		if model.browser.MapStatus() == mapview.StatusError {
			model.browser.RetryMap()
			return
		}
		model.browser.ClickMap(x, y-layout.mapTop)

	case y == layout.panelTop:
		if x >= layout.rightWidth-closeButtonWidth {
			model.browser.CloseVenuePanel()
			return
		}
		model.focus = FocusVenuePanel

	case y < layout.panelTop+layout.panelHeight:
		_, events, open := model.browser.VenuePanel()
		index := model.venueOffset + y - layout.panelTop - 1
		if !open || index >= len(events) {
			return
		}
		model.focus = FocusVenuePanel
		model.venueCursor = index
		model.browser.OpenEvent(events[index].ID)
	}
}

// handleMotion hovers the event under the pointer in the grid or the
// venue panel, so its marker lights up on the map.
func (model *Model) handleMotion(x, y int) {
	if model.section != SectionArchive || model.dropdown != nil ||
		model.browser.Selection().Modal != archive.ModalClosed {
		return
	}
	model.browser.HoverEvent(model.eventAt(x, y))
}

// eventAt returns the id of the event listed at (x, y), or "".
func (model *Model) eventAt(x, y int) string {
	layout := model.layout()
	if y < contentTop || y >= contentTop+layout.contentHeight {
		return ""
	}
	if x < layout.leftWidth && model.browser.View().Mode() == archive.ModeGrid {
		filtered := model.browser.Filtered()
		if index := model.gridOffset + y - contentTop; index < len(filtered) {
			return filtered[index].ID
		}
		return ""
	}
	if x >= layout.rightX && y > layout.panelTop && y < layout.panelTop+layout.panelHeight {
		_, events, _ := model.browser.VenuePanel()
		if index := model.venueOffset + y - layout.panelTop - 1; index < len(events) {
			return events[index].ID
		}
	}
	return ""
}

func (model *Model) handleWheel(delta, x, y int) {
	if model.section != SectionArchive || model.dropdown != nil {
		return
	}
	if model.browser.Selection().Modal == archive.ModalEvent {
		if delta < 0 {
			model.description.LineUp(1)
		} else {
			model.description.LineDown(1)
		}
		return
	}
	if model.browser.Selection().Modal != archive.ModalClosed {
		return
	}

	layout := model.layout()
	switch {
	case x < layout.leftWidth && model.browser.View().Mode() == archive.ModeGrid:
		if filtered := model.browser.Filtered(); len(filtered) > 0 {
			model.moveGridCursor(delta, filtered)
		}
	case x < layout.leftWidth:
		model.browser.Advance(delta)
	case y >= layout.panelTop && layout.panelHeight > 0:
		_, events, _ := model.browser.VenuePanel()
		if len(events) > 0 {
			model.venueCursor = clamp(model.venueCursor+delta, 0, len(events)-1)
			model.venueOffset = scrollTo(model.venueCursor, model.venueOffset, layout.panelRows())
		}
	}
}
