// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/takeone-collective/archive/lib/archive"
	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/mapengine"
	"github.com/takeone-collective/archive/lib/mapview"
	"github.com/takeone-collective/archive/lib/tui"
)

// Section is a top-level page of the browser.
type Section int

const (
	SectionArchive Section = iota
	SectionStats
	SectionAbout
	sectionCount
)

func (section Section) String() string {
	switch section {
	case SectionArchive:
		return "archive"
	case SectionStats:
		return "stats"
	case SectionAbout:
		return "about"
	default:
		return "section(" + strconv.Itoa(int(section)) + ")"
	}
}

// FocusRegion identifies which part of the archive section receives
// keyboard input.
type FocusRegion int

const (
	// FocusEvents routes keys to the carousel or grid.
	FocusEvents FocusRegion = iota

	// FocusVenuePanel routes keys to the venue panel's event list.
	FocusVenuePanel

	// FocusDropdown routes all input to the open filter dropdown.
	FocusDropdown
)

// frameInterval paces redraws while the map camera is moving.
const frameInterval = time.Second / 30

// mountMsg mounts the browser from inside the event loop.
type mountMsg struct{}

// frameMsg redraws the map during a camera transition.
type frameMsg struct{}

// Options configure a [Model].
type Options struct {
	// Profile is the terminal color profile used for description
	// markdown. Zero is termenv.Ascii.
	Profile termenv.Profile

	// ArchiveSection is the name published for the archive section.
	// It must match the reset coordinator's section name.
	ArchiveSection string

	// Sections receives the active section name on every switch.
	Sections *broadcast.Broadcaster[string]
	// Visibility receives terminal focus changes. Nil ignores them.
	Visibility *broadcast.Broadcaster[bool]
	// Resize receives the map pane's size whenever the layout
	// changes. It should be the broadcaster the browser's map
	// manager listens to.
	Resize *broadcast.Broadcaster[mapengine.Container]

	Logger *slog.Logger
}

// Model is the bubbletea model for the archive browser. Update and
// View use value receivers as bubbletea expects; mutating helpers take
// a pointer to the local copy inside Update. All copies share the same
// browser, which is only touched from the event loop.
type Model struct {
	browser *archive.Browser
	theme   tui.Theme
	keys    KeyMap
	profile termenv.Profile
	logger  *slog.Logger

	archiveSection string
	sections       *broadcast.Broadcaster[string]
	visibility     *broadcast.Broadcaster[bool]
	resize         *broadcast.Broadcaster[mapengine.Container]

	width  int
	height int
	ready  bool

	section    Section
	focus      FocusRegion
	priorFocus FocusRegion // Restored when a dropdown closes.

	dropdown      *tui.DropdownOverlay
	dropdownFacet archive.Facet

	// Grid and venue panel cursors. filterKey and venueKey detect
	// changes that invalidate them.
	gridCursor  int
	gridOffset  int
	filterKey   string
	venueCursor int
	venueOffset int
	venueKey    string

	// Event modal description, rendered once per event and width.
	description      viewport.Model
	descriptionEvent string
	descriptionWidth int

	// container is the last map pane size published on resize.
	container mapengine.Container

	frameRunning bool

	// Status bar log record.
	statusRecord   string
	statusLevel    slog.Level
	statusSequence uint64
}

// NewModel returns a model over browser. The browser is mounted when
// the program starts. Marker clicks narrow the venue filter so the
// filter bar follows the map.
func NewModel(browser *archive.Browser, options Options) Model {
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.ArchiveSection == "" {
		options.ArchiveSection = archive.DefaultArchiveSection
	}

	browser.OnVenueSelected(func(name string) {
		browser.SetFilter(archive.FacetVenue, name)
	})

	return Model{
		browser:        browser,
		theme:          tui.DefaultTheme,
		keys:           DefaultKeyMap,
		profile:        options.Profile,
		logger:         options.Logger,
		archiveSection: options.ArchiveSection,
		sections:       options.Sections,
		visibility:     options.Visibility,
		resize:         options.Resize,
		filterKey:      browser.Filter().String(),
	}
}

// Browser returns the browser the model renders.
func (model Model) Browser() *archive.Browser {
	return model.browser
}

// Section returns the active section.
func (model Model) Section() Section {
	return model.section
}

// Focus returns the focused region of the archive section.
func (model Model) Focus() FocusRegion {
	return model.focus
}

// Init implements tea.Model. Mounting happens inside Update so that
// the timers and engine callbacks it starts find the program running.
func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return mountMsg{} }
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var command tea.Cmd

	switch message := message.(type) {
	case mountMsg:
		model.browser.Mount()
		model.publishSection()

	case dispatchMsg:
		message.run()

	case tea.KeyMsg:
		command = model.handleKey(message)

	case tea.MouseMsg:
		model.handleMouse(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true

	case tea.FocusMsg:
		if model.visibility != nil {
			model.visibility.Publish(true)
		}

	case tea.BlurMsg:
		if model.visibility != nil {
			model.visibility.Publish(false)
		}

	case frameMsg:
		model.frameRunning = false

	case logRecordMsg:
		model.statusSequence++
		model.statusRecord = message.Summary
		model.statusLevel = message.Level
		sequence := model.statusSequence
		command = tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{Sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.Sequence == model.statusSequence {
			model.statusRecord = ""
		}
	}

	model.reconcile()
	frame := model.scheduleFrame()
	return model, tea.Batch(command, frame)
}

// reconcile brings view-local state back in line with the browser
// after any message: cursors, focus, the modal description and the
// map pane size.
func (model *Model) reconcile() {
	filtered := model.browser.Filtered()
	if filterKey := model.browser.Filter().String(); filterKey != model.filterKey {
		model.filterKey = filterKey
		model.gridCursor = 0
		model.gridOffset = 0
	}
	model.gridCursor = clamp(model.gridCursor, 0, len(filtered)-1)

	venue, events, open := model.browser.VenuePanel()
	if !open {
		model.venueKey = ""
		if model.focus == FocusVenuePanel {
			model.focus = FocusEvents
		}
	} else if venue.Name != model.venueKey {
		model.venueKey = venue.Name
		model.venueCursor = 0
		model.venueOffset = 0
	}
	model.venueCursor = clamp(model.venueCursor, 0, len(events)-1)

	if model.focus == FocusDropdown && model.dropdown == nil {
		model.focus = model.priorFocus
	}

	model.syncDescription()

	if model.ready {
		layout := model.layout()
		container := mapengine.Container{Width: layout.rightWidth, Height: layout.mapHeight}
		if container != model.container {
			model.container = container
			if model.resize != nil {
				model.resize.Publish(container)
			}
		}
	}
}

// syncDescription renders the open event's description into the
// modal viewport when the event or the modal width changes.
func (model *Model) syncDescription() {
	modal := model.browser.Modal()
	event, open := modal.Event()
	if !open {
		model.descriptionEvent = ""
		return
	}
	box := model.modalBox()
	width := box.width - 2
	if event.ID == model.descriptionEvent && width == model.descriptionWidth &&
		model.description.Height == box.descriptionHeight() {
		return
	}
	model.descriptionEvent = event.ID
	model.descriptionWidth = width
	model.description = viewport.New(width, box.descriptionHeight())
	description := event.Description
	if description == "" {
		description = "_No description._"
	}
	model.description.SetContent(tui.RenderMarkdown(description, model.theme, width, model.profile))
}

// scheduleFrame starts the redraw tick while the map animates.
func (model *Model) scheduleFrame() tea.Cmd {
	if model.frameRunning || !model.browser.MapAnimating() {
		return nil
	}
	model.frameRunning = true
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

// setSection switches the visible section and publishes the change.
// Leaving the archive closes any open dropdown.
func (model *Model) setSection(section Section) {
	if section == model.section {
		return
	}
	model.section = section
	model.dismissDropdown()
	model.publishSection()
}

func (model *Model) publishSection() {
	if model.sections == nil {
		return
	}
	name := model.section.String()
	if model.section == SectionArchive {
		name = model.archiveSection
	}
	model.sections.Publish(name)
}

// handleKey routes keyboard input by overlay, section and focus.
func (model *Model) handleKey(message tea.KeyMsg) tea.Cmd {
	if message.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if model.focus == FocusDropdown {
		model.handleDropdownKey(message)
		return nil
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return tea.Quit
	case key.Matches(message, model.keys.NextSection):
		model.setSection((model.section + 1) % sectionCount)
		return nil
	case key.Matches(message, model.keys.SectionArchive):
		model.setSection(SectionArchive)
		return nil
	case key.Matches(message, model.keys.SectionStats):
		model.setSection(SectionStats)
		return nil
	case key.Matches(message, model.keys.SectionAbout):
		model.setSection(SectionAbout)
		return nil
	}

	if model.section != SectionArchive {
		return nil
	}
	if model.browser.Selection().Modal != archive.ModalClosed {
		model.handleModalKey(message)
		return nil
	}

	switch {
	case key.Matches(message, model.keys.Back):
		model.browser.CloseVenuePanel()

	case key.Matches(message, model.keys.Focus):
		model.toggleFocus()

	case key.Matches(message, model.keys.ToggleMode):
		if model.browser.View().Mode() == archive.ModeGrid {
			model.browser.SetMode(archive.ModeCarousel)
		} else {
			model.browser.SetMode(archive.ModeGrid)
		}

	case key.Matches(message, model.keys.ToggleAutoScroll):
		model.browser.ToggleAutoScroll()

	case key.Matches(message, model.keys.PrevYear):
		model.stepYear(-1)

	case key.Matches(message, model.keys.NextYear):
		model.stepYear(1)

	case key.Matches(message, model.keys.FilterMonth):
		model.openDropdown(archive.FacetMonth)

	case key.Matches(message, model.keys.FilterPerformer):
		model.openDropdown(archive.FacetPerformer)

	case key.Matches(message, model.keys.FilterVenue):
		model.openDropdown(archive.FacetVenue)

	case key.Matches(message, model.keys.ClearFilters):
		model.browser.ClearFilters()

	case key.Matches(message, model.keys.RetryMap):
		if model.browser.MapStatus() == mapview.StatusError {
			model.browser.RetryMap()
		}

	default:
		if model.focus == FocusVenuePanel {
			model.handleVenuePanelKey(message)
		} else {
			model.handleEventsKey(message)
		}
	}
	return nil
}

// toggleFocus moves focus between the event pane and the venue panel.
// Returning to the carousel closes the venue panel.
func (model *Model) toggleFocus() {
	if model.focus == FocusVenuePanel {
		model.focusEvents()
		return
	}
	if _, _, open := model.browser.VenuePanel(); open {
		model.focus = FocusVenuePanel
	}
}

func (model *Model) focusEvents() {
	model.focus = FocusEvents
	if model.browser.View().Mode() == archive.ModeCarousel {
		model.browser.CloseVenuePanel()
	}
}

func (model *Model) handleEventsKey(message tea.KeyMsg) {
	filtered := model.browser.Filtered()

	if model.browser.View().Mode() == archive.ModeCarousel {
		switch {
		case key.Matches(message, model.keys.Left):
			model.browser.Advance(-1)
		case key.Matches(message, model.keys.Right):
			model.browser.Advance(1)
		case key.Matches(message, model.keys.Open):
			model.browser.OpenCurrent()
		case key.Matches(message, model.keys.ShowOnMap):
			if event, ok := model.browser.Current(); ok {
				model.browser.SelectEvent(event.ID)
			}
		}
		return
	}

	if len(filtered) == 0 {
		return
	}
	page := max(1, model.layout().contentHeight-1)
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveGridCursor(-1, filtered)
	case key.Matches(message, model.keys.Down):
		model.moveGridCursor(1, filtered)
	case key.Matches(message, model.keys.PageUp):
		model.moveGridCursor(-page, filtered)
	case key.Matches(message, model.keys.PageDown):
		model.moveGridCursor(page, filtered)
	case key.Matches(message, model.keys.Open):
		model.browser.OpenEvent(filtered[model.gridCursor].ID)
	case key.Matches(message, model.keys.ShowOnMap):
		model.browser.SelectEvent(filtered[model.gridCursor].ID)
	}
}

// moveGridCursor moves the grid cursor and hovers the event under it
// so its venue marker lights up.
func (model *Model) moveGridCursor(delta int, filtered []catalog.EventRecord) {
	model.gridCursor = clamp(model.gridCursor+delta, 0, len(filtered)-1)
	model.gridOffset = scrollTo(model.gridCursor, model.gridOffset, model.layout().contentHeight)
	model.browser.HoverEvent(filtered[model.gridCursor].ID)
}

func (model *Model) handleVenuePanelKey(message tea.KeyMsg) {
	_, events, open := model.browser.VenuePanel()
	if !open || len(events) == 0 {
		return
	}
	rows := model.layout().panelRows()
	switch {
	case key.Matches(message, model.keys.Up):
		model.venueCursor = clamp(model.venueCursor-1, 0, len(events)-1)
	case key.Matches(message, model.keys.Down):
		model.venueCursor = clamp(model.venueCursor+1, 0, len(events)-1)
	case key.Matches(message, model.keys.Open):
		model.browser.OpenEvent(events[model.venueCursor].ID)
		return
	default:
		return
	}
	model.venueOffset = scrollTo(model.venueCursor, model.venueOffset, rows)
	model.browser.HoverEvent(events[model.venueCursor].ID)
}

func (model *Model) handleModalKey(message tea.KeyMsg) {
	modal := model.browser.Modal()
	if modal.State() == archive.ModalFullScreen {
		if key.Matches(message, model.keys.Back) {
			model.browser.CloseFullScreen()
		}
		return
	}

	switch {
	case key.Matches(message, model.keys.Back):
		model.browser.CloseModal()
	case key.Matches(message, model.keys.Left):
		model.browser.GalleryPrev()
	case key.Matches(message, model.keys.Right):
		model.browser.GalleryNext()
	case key.Matches(message, model.keys.Up):
		model.description.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.description.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.description.LineUp(max(1, model.description.Height-1))
	case key.Matches(message, model.keys.PageDown):
		model.description.LineDown(max(1, model.description.Height-1))
	case key.Matches(message, model.keys.Open):
		if image, ok := modal.CurrentImage(); ok {
			model.browser.OpenFullScreen(image)
		}
	case key.Matches(message, model.keys.Poster):
		if event, ok := modal.Event(); ok {
			model.browser.OpenFullScreen(event.Poster)
		}
	}
}

// yearOptions returns the year navigator's values: "" for all years,
// then every year newest first.
func (model *Model) yearOptions() []string {
	years := model.browser.Catalog().DistinctYears()
	options := make([]string, 0, len(years)+1)
	options = append(options, "")
	for _, year := range years {
		options = append(options, strconv.Itoa(year))
	}
	return options
}

// stepYear moves the year navigator, stopping at either end.
func (model *Model) stepYear(delta int) {
	options := model.yearOptions()
	current := 0
	for index, option := range options {
		if option == model.browser.Filter().Year {
			current = index
		}
	}
	next := clamp(current+delta, 0, len(options)-1)
	if next != current {
		model.browser.SetFilter(archive.FacetYear, options[next])
	}
}

// facetOptions lists the dropdown options for facet, led by the
// unconstrained choice.
func (model *Model) facetOptions(facet archive.Facet) []tui.DropdownOption {
	archiveCatalog := model.browser.Catalog()
	var values []string
	switch facet {
	case archive.FacetYear:
		values = model.yearOptions()[1:]
	case archive.FacetMonth:
		values = archiveCatalog.DistinctMonths()
	case archive.FacetPerformer:
		values = archiveCatalog.DistinctPerformers()
	case archive.FacetVenue:
		values = archiveCatalog.DistinctVenues()
	}
	options := make([]tui.DropdownOption, 0, len(values)+1)
	options = append(options, tui.DropdownOption{Label: allLabel(facet), Value: ""})
	for _, value := range values {
		options = append(options, tui.DropdownOption{Label: value, Value: value})
	}
	return options
}

// openDropdown shows the filter dropdown for facet under its filter
// bar segment.
func (model *Model) openDropdown(facet archive.Facet) {
	dropdown := tui.NewDropdown(facetTitle(facet), facet.String(),
		model.facetOptions(facet), model.browser.Filter().Value(facet))
	dropdown.AnchorY = filterBarY + 1
	for _, segment := range model.filterBarSegments() {
		if segment.facet == facet && segment.kind == segmentFacet {
			dropdown.AnchorX = segment.start
		}
	}
	if model.width > 0 {
		dropdown.AnchorX = clamp(dropdown.AnchorX, 0, max(0, model.width-dropdown.Width()))
	}
	if model.height > 0 {
		dropdown.MaxVisible = clamp(model.height-dropdown.AnchorY-2, 1, tui.DefaultDropdownRows)
	}

	if model.focus != FocusDropdown {
		model.priorFocus = model.focus
	}
	model.dropdown = dropdown
	model.dropdownFacet = facet
	model.focus = FocusDropdown
}

func (model *Model) dismissDropdown() {
	if model.dropdown == nil {
		return
	}
	model.dropdown = nil
	model.focus = model.priorFocus
}

// applyDropdown applies the dropdown's selected option and closes it.
func (model *Model) applyDropdown() {
	option, ok := model.dropdown.Selected()
	facet := model.dropdownFacet
	model.dismissDropdown()
	if ok {
		model.browser.SetFilter(facet, option.Value)
	}
}

// handleDropdownKey routes input to the open dropdown. Printable keys
// narrow the options, so only non-printing keys navigate.
func (model *Model) handleDropdownKey(message tea.KeyMsg) {
	switch message.Type {
	case tea.KeyEsc:
		model.dismissDropdown()
	case tea.KeyEnter:
		model.applyDropdown()
	case tea.KeyUp, tea.KeyShiftTab:
		model.dropdown.MoveUp()
	case tea.KeyDown, tea.KeyTab:
		model.dropdown.MoveDown()
	case tea.KeyBackspace:
		model.dropdown.Backspace()
	case tea.KeySpace:
		model.dropdown.Type(' ')
	case tea.KeyRunes:
		model.dropdown.Type(message.Runes...)
	}
}

func facetTitle(facet archive.Facet) string {
	switch facet {
	case archive.FacetYear:
		return "Year"
	case archive.FacetMonth:
		return "Month"
	case archive.FacetPerformer:
		return "Performer"
	case archive.FacetVenue:
		return "Venue"
	default:
		return facet.String()
	}
}

func allLabel(facet archive.Facet) string {
	switch facet {
	case archive.FacetYear:
		return "All years"
	case archive.FacetMonth:
		return "All months"
	case archive.FacetPerformer:
		return "All performers"
	case archive.FacetVenue:
		return "All venues"
	default:
		return "All"
	}
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return max(low, min(value, high))
}

// scrollTo returns the scroll offset that keeps cursor within a
// window of rows starting at offset.
func scrollTo(cursor, offset, rows int) int {
	if rows <= 0 {
		return 0
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+rows {
		return cursor - rows + 1
	}
	return offset
}
