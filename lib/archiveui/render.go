// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/takeone-collective/archive/lib/archive"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/mapview"
	"github.com/takeone-collective/archive/lib/tui"
)

// closeButtonWidth is the " ✕ " at the right end of panel and modal
// title rows.
const closeButtonWidth = 3

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading archive..."
	}

	bodyHeight := max(0, model.height-2)
	lines := []string{model.renderSectionBar()}
	switch model.section {
	case SectionArchive:
		lines = append(lines, model.renderArchive(bodyHeight)...)
	case SectionStats:
		lines = append(lines, fitBlock(model.statsLines(), model.width, bodyHeight)...)
	case SectionAbout:
		lines = append(lines, fitBlock(model.aboutLines(), model.width, bodyHeight)...)
	}
	lines = append(lines, model.renderStatusBar())
	output := strings.Join(lines, "\n")

	if model.section != SectionArchive {
		return output
	}

	output = model.overlayHover(output)

	if model.dropdown != nil {
		output = tui.SpliceOverlay(output, model.dropdown.Render(model.theme),
			model.dropdown.AnchorX, model.dropdown.AnchorY)
	}

	modal := model.browser.Modal()
	if modal.State() == archive.ModalClosed {
		return output
	}
	box := model.modalBox()
	output = tui.SpliceOverlay(tui.Backdrop(output, model.theme.Backdrop),
		model.renderModal(modal, box), box.x, box.y)

	if media := modal.FullScreenMedia(); media != "" {
		full := model.fullScreenBox()
		output = tui.SpliceOverlay(tui.Backdrop(output, model.theme.Backdrop),
			model.renderFullScreen(media, full), full.x, full.y)
	}
	return output
}

func fitLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	lineWidth := ansi.StringWidth(line)
	if lineWidth > width {
		return ansi.Truncate(line, width, "…")
	}
	return line + strings.Repeat(" ", width-lineWidth)
}

// fitBlock pads or cuts lines to exactly height rows of width columns.
func fitBlock(lines []string, width, height int) []string {
	result := make([]string, height)
	for index := range result {
		line := ""
		if index < len(lines) {
			line = lines[index]
		}
		result[index] = fitLine(line, width)
	}
	return result
}

func (model Model) segmentStyle(segment segment) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	switch {
	case segment.kind == segmentSection && segment.active:
		return style.Background(model.theme.Accent).Foreground(model.theme.HeaderForeground).Bold(true)
	case segment.kind == segmentThumbnail && segment.active:
		return style.Background(model.theme.SelectedBackground).Foreground(model.theme.Accent).Bold(true)
	case segment.kind == segmentPrevious || segment.kind == segmentNext:
		return style.Foreground(model.theme.Accent)
	case segment.active:
		return style.Foreground(model.theme.Accent).Bold(true)
	case segment.kind == segmentClear || segment.kind == segmentSection:
		return style.Foreground(model.theme.FaintText)
	default:
		return style
	}
}

// renderSegments draws segments at their columns after prefix.
func (model Model) renderSegments(prefix string, segments []segment, width int) string {
	var builder strings.Builder
	builder.WriteString(prefix)
	column := ansi.StringWidth(prefix)
	for _, segment := range segments {
		if segment.start > column {
			builder.WriteString(strings.Repeat(" ", segment.start-column))
		}
		builder.WriteString(model.segmentStyle(segment).Render(segment.label))
		column = segment.end
	}
	return fitLine(builder.String(), width)
}

func (model Model) renderSectionBar() string {
	title := lipgloss.NewStyle().Foreground(model.theme.Accent).Bold(true).Render(sectionTitle)
	return model.renderSegments(title+" ", model.sectionSegments(), model.width)
}

// renderArchive renders the archive section below the section bar:
// the year navigator, the filter bar and the content panes.
func (model Model) renderArchive(height int) []string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	lines := []string{
		model.renderSegments(faint.Render(yearBarPrefix), model.yearSegments(), model.width),
		model.renderSegments(" ", model.filterBarSegments(), model.width),
	}

	layout := model.layout()
	var left []string
	if model.browser.View().Mode() == archive.ModeGrid {
		left = model.gridLines(layout.leftWidth, layout.contentHeight)
	} else {
		left = model.carouselLines(layout.leftWidth, layout.contentHeight)
	}
	left = fitBlock(left, layout.leftWidth, layout.contentHeight)
	right := fitBlock(model.mapColumnLines(layout), layout.rightWidth, layout.contentHeight)

	divider := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render("│")
	for row := range layout.contentHeight {
		lines = append(lines, left[row]+divider+right[row])
	}
	return fitBlock(lines, model.width, height)
}

func (model Model) emptyLines() []string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	return []string{
		"",
		" No events match these filters.",
		faint.Render(" Press x to clear them."),
	}
}

// eventMeta is the date, venue and set count line of a card.
func eventMeta(event catalog.EventRecord) string {
	date := event.Date
	if date == "" {
		date = fmt.Sprintf("%s %d", event.Month, event.Year)
	}
	meta := date + " · " + event.Venue
	if event.Sets > 0 {
		meta += fmt.Sprintf(" · %d sets", event.Sets)
	}
	return meta
}

func posterLabel(poster string) string {
	if catalog.IsVideo(poster) {
		return "▶ video  " + poster
	}
	return "▣ " + poster
}

func listOrDash(values []string) string {
	if len(values) == 0 {
		return "—"
	}
	return strings.Join(values, ", ")
}

// carouselLines renders the carousel: a header with arrows and the
// position, one event card, and a row of pagination dots.
func (model Model) carouselLines(width, height int) []string {
	filtered := model.browser.Filtered()
	event, ok := model.browser.Current()
	if !ok {
		return model.emptyLines()
	}

	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	title := lipgloss.NewStyle().Foreground(model.theme.Accent).Bold(true)
	label := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground)

	lines := []string{
		model.renderSegments("", model.carouselSegments(), width),
		"",
		" " + title.Render(event.Title),
		" " + eventMeta(event),
		" " + faint.Render(event.VenueAddress),
		" " + posterLabel(event.Poster),
		" " + label.Render("Performers ") + listOrDash(event.Performers),
		" " + label.Render("Genres ") + listOrDash(event.Genres),
		"",
	}
	for _, excerpt := range tui.ExtractExcerpt(event.Description, max(1, width-2), max(0, height-len(lines)-2)) {
		lines = append(lines, " "+excerpt)
	}

	lines = fitBlock(lines, width, max(0, height-1))
	return append(lines, model.dotsLine(len(filtered), width))
}

// dotsLine draws one dot per event with the current one highlighted,
// or the position alone when the dots do not fit.
func (model Model) dotsLine(count, width int) string {
	index := model.browser.View().Index()
	if !dotsFit(count, width) {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(fmt.Sprintf(" %d of %d", index+1, count))
	}
	current := lipgloss.NewStyle().Foreground(model.theme.Accent)
	other := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	dots := make([]string, count)
	for position := range dots {
		if position == index {
			dots[position] = current.Render("●")
		} else {
			dots[position] = other.Render("○")
		}
	}
	return " " + strings.Join(dots, " ")
}

// gridLines renders the filtered events one per row, with the cursor
// row highlighted and a scrollbar in the last column.
func (model Model) gridLines(width, height int) []string {
	filtered := model.browser.Filtered()
	if len(filtered) == 0 {
		return model.emptyLines()
	}

	rowWidth := max(0, width-1)
	cursor := lipgloss.NewStyle().Background(model.theme.SelectedBackground).Foreground(model.theme.SelectedForeground)
	if model.focus != FocusEvents {
		cursor = cursor.Background(model.theme.BorderColor)
	}
	scrollbar := strings.Split(tui.RenderScrollbar(model.theme, height, len(filtered), height,
		model.gridOffset, model.focus == FocusEvents), "\n")

	lines := make([]string, height)
	for row := range height {
		index := model.gridOffset + row
		text := ""
		if index < len(filtered) {
			text = gridRow(filtered[index])
		}
		text = fitLine(text, rowWidth)
		if index == model.gridCursor {
			text = cursor.Render(text)
		}
		bar := ""
		if row < len(scrollbar) {
			bar = scrollbar[row]
		}
		lines[row] = text + bar
	}
	return lines
}

func gridRow(event catalog.EventRecord) string {
	month := event.Month
	if len(month) > 3 {
		month = month[:3]
	}
	row := fmt.Sprintf(" %d %-3s  %s · %s", event.Year, month, event.Title, event.Venue)
	if catalog.IsVideo(event.Poster) {
		row += " ▶"
	}
	return row
}

// mapColumnLines renders the right column: the map header, the map
// body and the venue panel.
func (model Model) mapColumnLines(layout paneLayout) []string {
	width := layout.rightWidth
	status := model.browser.MapStatus()
	statusStyle := lipgloss.NewStyle().Foreground(model.theme.StatusColor(status.String()))
	venues := len(mapview.VenuePins(model.browser.Catalog(), model.browser.Filtered()))

	header := fmt.Sprintf(" Map · %s · %d venues", statusStyle.Render(status.String()), venues)
	if status == mapview.StatusError {
		header = fmt.Sprintf(" Map · %s · click or press r to retry", statusStyle.Render(status.String()))
	}
	lines := []string{header}

	var body []string
	switch status {
	case mapview.StatusReady:
		body = strings.Split(model.browser.MapView(width, layout.mapHeight), "\n")
	case mapview.StatusError:
		body = []string{
			"",
			" Map unavailable.",
			" " + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(fmt.Sprint(model.browser.MapErr())),
			" Press r to retry.",
		}
	default:
		body = make([]string, layout.mapHeight/2)
		body = append(body, fitLine("", max(0, (width-12)/2))+"Loading map…")
	}
	lines = append(lines, fitBlock(body, width, layout.mapHeight)...)

	if layout.panelHeight > 0 {
		lines = append(lines, model.venuePanelLines(layout)...)
	}
	return lines
}

// venuePanelLines renders the selected venue and the events it
// hosted.
func (model Model) venuePanelLines(layout paneLayout) []string {
	venue, events, open := model.browser.VenuePanel()
	if !open {
		return nil
	}
	width := layout.rightWidth

	header := lipgloss.NewStyle().Background(model.theme.PanelBackground).Foreground(model.theme.HeaderForeground).Bold(true)
	title := fitLine(fmt.Sprintf(" ◉ %s · %d events · %s", venue.Name, len(events), venue.Address),
		max(0, width-closeButtonWidth))
	lines := []string{header.Render(title + " ✕ ")}

	cursor := lipgloss.NewStyle().Background(model.theme.SelectedBackground).Foreground(model.theme.SelectedForeground)
	for row := range layout.panelRows() {
		index := model.venueOffset + row
		if index >= len(events) {
			break
		}
		text := fitLine(gridRow(events[index]), width)
		if model.focus == FocusVenuePanel && index == model.venueCursor {
			text = cursor.Render(text)
		}
		lines = append(lines, text)
	}
	return lines
}

// overlayHover emboldens the row of the hovered event in the grid or
// the venue panel.
func (model Model) overlayHover(output string) string {
	hovered := model.browser.Selection().HoveredEventID
	if hovered == "" {
		return output
	}
	layout := model.layout()

	if model.browser.View().Mode() == archive.ModeGrid {
		for index, event := range model.browser.Filtered() {
			row := index - model.gridOffset
			if event.ID == hovered && row >= 0 && row < layout.contentHeight {
				output = tui.OverlayBold(output, contentTop+row, 0, layout.leftWidth-1)
			}
		}
	}

	if _, events, open := model.browser.VenuePanel(); open {
		for index, event := range events {
			row := index - model.venueOffset
			if event.ID == hovered && row >= 0 && row < layout.panelRows() {
				output = tui.OverlayBold(output, layout.panelTop+1+row, layout.rightX, model.width)
			}
		}
	}
	return output
}

// renderModal draws the event detail box.
func (model Model) renderModal(modal archive.Modal, box modalGeometry) []string {
	event, _ := modal.Event()
	innerWidth := box.width - 2

	panel := lipgloss.NewStyle().Background(model.theme.PanelBackground).Foreground(model.theme.PanelForeground)
	label := panel.Foreground(model.theme.HeaderForeground).Bold(true)
	faint := panel.Foreground(model.theme.FaintText)
	titleBar := lipgloss.NewStyle().Background(model.theme.Accent).Foreground(model.theme.HeaderForeground).Bold(true)

	pad := func(content string) string {
		return tui.PadOverlayLine(fitLine(content, innerWidth), innerWidth, box.width, panel)
	}

	lines := []string{
		titleBar.Render(fitLine(" "+event.Title, box.width-closeButtonWidth) + " ✕ "),
		pad(faint.Render(eventMeta(event) + " · " + event.VenueAddress)),
		pad(label.Render("Poster ") + panel.Render(posterLabel(event.Poster)+"  (o to view)")),
		pad(label.Render("Performers ") + panel.Render(listOrDash(event.Performers))),
		pad(label.Render("Genres ") + panel.Render(listOrDash(event.Genres))),
		pad(""),
	}

	description := strings.Split(model.description.View(), "\n")
	for _, line := range fitBlock(description, innerWidth, box.descriptionHeight()) {
		lines = append(lines, pad(line))
	}
	lines = append(lines, pad(""))

	if image, ok := modal.CurrentImage(); ok {
		caption := fmt.Sprintf("Gallery %d/%d  ", modal.GalleryIndex()+1, len(event.Gallery))
		lines = append(lines, pad(label.Render(caption)+panel.Render(image)))
		strip := model.renderSegments("", model.gallerySegments(0, len(event.Gallery), modal.GalleryIndex()), innerWidth)
		lines = append(lines, pad(strip))
	} else {
		lines = append(lines, pad(faint.Render("No gallery images.")), pad(""))
	}

	lines = append(lines, pad(faint.Render("←/→ gallery · ↑/↓ scroll · enter full screen · o poster · esc close")))
	return lines
}

// renderFullScreen draws the full-screen media box.
func (model Model) renderFullScreen(media string, box modalGeometry) []string {
	innerWidth := box.width - 2
	panel := lipgloss.NewStyle().Background(model.theme.PanelBackground).Foreground(model.theme.PanelForeground)
	faint := panel.Foreground(model.theme.FaintText)
	titleBar := lipgloss.NewStyle().Background(model.theme.Accent).Foreground(model.theme.HeaderForeground).Bold(true)
	pad := func(content string) string {
		return tui.PadOverlayLine(fitLine(content, innerWidth), innerWidth, box.width, panel)
	}

	kind := "▣ image"
	if catalog.IsVideo(media) {
		kind = "▶ video"
	}
	return []string{
		titleBar.Render(fitLine(" Full screen", box.width-closeButtonWidth) + " ✕ "),
		pad(""),
		pad(panel.Bold(true).Render(kind)),
		pad(panel.Render(media)),
		pad(""),
		pad(""),
		pad(faint.Render("esc or click outside to return")),
	}
}

func (model Model) renderStatusBar() string {
	if model.statusRecord != "" {
		color := model.theme.StatusLoading
		if model.statusLevel >= slog.LevelError {
			color = model.theme.StatusError
		}
		return fitLine(lipgloss.NewStyle().Foreground(color).Render(" "+model.statusRecord), model.width)
	}
	help := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	return fitLine(help.Render(" "+strings.Join(model.helpEntries(), "  ")), model.width)
}

func helpEntry(binding key.Binding) string {
	return binding.Help().Key + " " + binding.Help().Desc
}

// helpEntries lists the bindings that apply in the current context.
func (model Model) helpEntries() []string {
	keys := model.keys
	if model.focus == FocusDropdown {
		return []string{"type to narrow", "↑/↓ move", "enter select", "esc close"}
	}
	if model.section != SectionArchive {
		return []string{helpEntry(keys.NextSection), helpEntry(keys.Quit)}
	}

	switch model.browser.Selection().Modal {
	case archive.ModalFullScreen:
		return []string{helpEntry(keys.Back)}
	case archive.ModalEvent:
		return []string{
			"←/→ gallery", "↑/↓ scroll", "enter full screen",
			helpEntry(keys.Poster), helpEntry(keys.Back),
		}
	}

	var entries []string
	switch {
	case model.focus == FocusVenuePanel:
		entries = append(entries, "↑/↓ events", helpEntry(keys.Open), "f back to events")
	case model.browser.View().Mode() == archive.ModeGrid:
		entries = append(entries, "↑/↓ move", helpEntry(keys.Open), helpEntry(keys.ShowOnMap))
	default:
		entries = append(entries, "←/→ browse", helpEntry(keys.Open), helpEntry(keys.ShowOnMap))
	}
	entries = append(entries,
		"[/] year",
		helpEntry(keys.FilterMonth),
		helpEntry(keys.FilterPerformer),
		helpEntry(keys.FilterVenue),
		helpEntry(keys.ClearFilters),
		helpEntry(keys.ToggleMode),
	)
	if _, _, open := model.browser.VenuePanel(); open && model.focus != FocusVenuePanel {
		entries = append(entries, helpEntry(keys.Focus))
	}
	if model.browser.MapStatus() == mapview.StatusError {
		entries = append(entries, helpEntry(keys.RetryMap))
	}
	return append(entries, helpEntry(keys.NextSection), helpEntry(keys.Quit))
}
