// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"log/slog"
	"slices"
	"time"

	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapview"
)

// Options configure a [Browser].
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger

	// Dispatch runs a function on the owner's event loop. Timer ticks
	// and map engine callbacks go through it. Nil runs inline, which
	// is only correct with a fake clock and engine.
	Dispatch mapview.Dispatcher

	// AutoAdvancePeriod defaults to DefaultAutoAdvancePeriod.
	AutoAdvancePeriod time.Duration
	// Mode and AutoScroll are the initial view.
	Mode       ViewMode
	AutoScroll bool

	// Map configures the map manager. Clock, Dispatch, Logger and
	// Listener are filled in by NewBrowser.
	Map mapview.Options
}

// Selection is a snapshot of what the user has singled out.
type Selection struct {
	// EventID is the active event, set by external selection or by
	// opening the modal.
	EventID string
	// VenueName is the venue whose panel is open.
	VenueName string
	// HoveredEventID is the event under the pointer in an event list.
	HoveredEventID string

	Modal           ModalState
	ModalEventID    string
	GalleryIndex    int
	FullScreenMedia string
}

// Browser composes the filter, view, scheduler, modal and map into
// one state machine. It is owned by a single event loop: every method
// must be called from it, and asynchronous inputs (timer ticks, map
// engine callbacks) re-enter through Options.Dispatch.
type Browser struct {
	catalog  *catalog.Catalog
	logger   *slog.Logger
	dispatch mapview.Dispatcher

	filter    FilterState
	filtered  []catalog.EventRecord
	view      ViewState
	scheduler *Scheduler
	modal     Modal
	mapView   *mapview.Manager
	mounted   bool

	activeEvent  string
	activeVenue  string
	hoveredEvent string

	venueSelected []func(name string)
	changed       []func()
}

// NewBrowser returns an unmounted browser over the whole catalog.
func NewBrowser(archive *catalog.Catalog, options Options) *Browser {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.Dispatch == nil {
		options.Dispatch = func(f func()) { f() }
	}

	browser := &Browser{
		catalog:  archive,
		logger:   options.Logger,
		dispatch: options.Dispatch,
		view:     NewViewState(options.Mode, options.AutoScroll),
	}
	browser.filtered = browser.filter.Apply(archive.Events())
	browser.scheduler = NewScheduler(options.Clock, options.AutoAdvancePeriod, browser.deliverTick)

	mapOptions := options.Map
	mapOptions.Clock = options.Clock
	mapOptions.Dispatch = options.Dispatch
	mapOptions.Logger = options.Logger.With("component", "map")
	mapOptions.Listener = browser
	browser.mapView = mapview.New(mapOptions)
	browser.mapView.Reconcile(mapview.VenuePins(archive, browser.filtered))

	return browser
}

// deliverTick runs on the timer's goroutine.
func (browser *Browser) deliverTick(generation uint64) {
	browser.dispatch(func() { browser.HandleTick(generation) })
}

// Mount starts the auto-advance timer (when gated on) and the map.
func (browser *Browser) Mount() {
	if browser.mounted {
		return
	}
	browser.mounted = true
	browser.syncScheduler()
	browser.mapView.Mount()
}

// Unmount stops the timer and releases the map engine.
func (browser *Browser) Unmount() {
	browser.mounted = false
	browser.scheduler.Stop()
	browser.mapView.Unmount()
}

// OnChange registers fn to run after every state change.
func (browser *Browser) OnChange(fn func()) {
	browser.changed = append(browser.changed, fn)
}

// OnVenueSelected registers fn to run when a venue marker is clicked,
// so sibling filter controls can follow the map.
func (browser *Browser) OnVenueSelected(fn func(name string)) {
	browser.venueSelected = append(browser.venueSelected, fn)
}

func (browser *Browser) notify() {
	for _, fn := range browser.changed {
		fn()
	}
}

// Catalog returns the underlying catalog.
func (browser *Browser) Catalog() *catalog.Catalog { return browser.catalog }

// Filter returns the active filter.
func (browser *Browser) Filter() FilterState { return browser.filter }

// Filtered returns the events matching the active filter, in catalog
// order.
func (browser *Browser) Filtered() []catalog.EventRecord {
	return slices.Clone(browser.filtered)
}

// View returns the view state.
func (browser *Browser) View() ViewState { return browser.view }

// Current returns the carousel's current event.
func (browser *Browser) Current() (catalog.EventRecord, bool) {
	if len(browser.filtered) == 0 {
		return catalog.EventRecord{}, false
	}
	return browser.filtered[browser.view.Index()], true
}

// AutoAdvancing reports whether the auto-advance timer is armed.
func (browser *Browser) AutoAdvancing() bool {
	return browser.scheduler.Live()
}

// Selection returns a snapshot of the selection state.
func (browser *Browser) Selection() Selection {
	selection := Selection{
		EventID:         browser.activeEvent,
		VenueName:       browser.activeVenue,
		HoveredEventID:  browser.hoveredEvent,
		Modal:           browser.modal.State(),
		GalleryIndex:    browser.modal.GalleryIndex(),
		FullScreenMedia: browser.modal.FullScreenMedia(),
	}
	if event, open := browser.modal.Event(); open {
		selection.ModalEventID = event.ID
	}
	return selection
}

// Modal returns a copy of the modal controller for rendering.
func (browser *Browser) Modal() Modal { return browser.modal }

// VenuePanel returns the venue whose panel is open and the events it
// hosted.
func (browser *Browser) VenuePanel() (catalog.Venue, []catalog.EventRecord, bool) {
	if browser.activeVenue == "" {
		return catalog.Venue{}, nil, false
	}
	venue, exists := browser.catalog.Venue(browser.activeVenue)
	if !exists {
		return catalog.Venue{}, nil, false
	}
	return venue, browser.catalog.EventsAt(venue.Name), true
}

// SetFilter constrains facet to value ("" to unconstrain).
func (browser *Browser) SetFilter(facet Facet, value string) {
	next := browser.filter.With(facet, value)
	browser.logger.Debug("filter changed", "facet", facet.String(), "value", value)
	browser.applyFilter(next)
}

// ClearFilters removes every constraint in one step.
func (browser *Browser) ClearFilters() {
	browser.applyFilter(browser.filter.Clear())
}

// applyFilter recomputes the filtered set synchronously, resets the
// carousel to the first event and drops selections that no longer
// refer to a visible event or venue.
func (browser *Browser) applyFilter(filter FilterState) {
	browser.filter = filter
	browser.filtered = filter.Apply(browser.catalog.Events())
	browser.view.ResetIndex()

	if browser.activeEvent != "" && !browser.visible(browser.activeEvent) {
		browser.activeEvent = ""
	}
	if browser.hoveredEvent != "" && !browser.visible(browser.hoveredEvent) {
		browser.setHovered("")
	}
	if browser.activeVenue != "" && !browser.venueVisible(browser.activeVenue) {
		browser.closeVenuePanel()
	}

	browser.syncScheduler()
	browser.mapView.Reconcile(mapview.VenuePins(browser.catalog, browser.filtered))
	browser.notify()
}

func (browser *Browser) visible(eventID string) bool {
	_, found := browser.lookupFiltered(eventID)
	return found
}

func (browser *Browser) lookupFiltered(eventID string) (catalog.EventRecord, bool) {
	for _, event := range browser.filtered {
		if event.ID == eventID {
			return event, true
		}
	}
	return catalog.EventRecord{}, false
}

func (browser *Browser) venueVisible(name string) bool {
	for _, event := range browser.filtered {
		if event.Venue == name {
			return true
		}
	}
	return false
}

func (browser *Browser) syncScheduler() {
	browser.scheduler.Sync(browser.mounted && browser.view.AutoAdvancing(len(browser.filtered)))
}

// SetMode switches between carousel and grid.
func (browser *Browser) SetMode(mode ViewMode) {
	browser.view.SetMode(mode)
	browser.syncScheduler()
	browser.notify()
}

// ToggleAutoScroll flips auto-scroll. No effect in grid mode.
func (browser *Browser) ToggleAutoScroll() {
	if !browser.view.ToggleAutoScroll() {
		return
	}
	browser.syncScheduler()
	browser.notify()
}

// Advance moves the carousel by delta, wrapping.
func (browser *Browser) Advance(delta int) {
	browser.view.Advance(delta, len(browser.filtered))
	browser.notify()
}

// Jump moves the carousel to index, clamped.
func (browser *Browser) Jump(index int) {
	browser.view.Jump(index, len(browser.filtered))
	browser.notify()
}

// HandleTick applies an auto-advance tick. Ticks from superseded
// timers are dropped. Returns whether the tick advanced the carousel.
func (browser *Browser) HandleTick(generation uint64) bool {
	if !browser.scheduler.Accept(generation) {
		return false
	}
	browser.view.Advance(1, len(browser.filtered))
	browser.notify()
	return true
}

// SelectEvent selects a visible event from outside the map (a
// dropdown or the event list): the map flies to its venue and the
// venue panel opens. Unknown or filtered-out ids clear the selection.
func (browser *Browser) SelectEvent(eventID string) {
	event, found := browser.lookupFiltered(eventID)
	if !found {
		browser.logger.Debug("selected event not visible", "event", eventID)
		browser.clearSelection()
		browser.notify()
		return
	}
	venue, _ := browser.catalog.VenueOf(event)
	browser.activeEvent = event.ID
	browser.openVenuePanel(venue)
	browser.notify()
}

// SelectVenue opens the venue panel and flies to the venue. Unknown
// names clear the selection.
func (browser *Browser) SelectVenue(name string) {
	venue, exists := browser.catalog.Venue(name)
	if !exists {
		browser.clearSelection()
		browser.notify()
		return
	}
	if event, found := browser.catalog.Event(browser.activeEvent); found && event.Venue != name {
		browser.activeEvent = ""
	}
	browser.openVenuePanel(venue)
	browser.notify()
}

func (browser *Browser) openVenuePanel(venue catalog.Venue) {
	browser.activeVenue = venue.Name
	browser.mapView.SetSelected(venue.Name)
	browser.mapView.FlyTo(venue.Position)
}

// CloseVenuePanel closes the venue panel and deselects its marker.
func (browser *Browser) CloseVenuePanel() {
	if browser.activeVenue == "" {
		return
	}
	browser.closeVenuePanel()
	browser.notify()
}

func (browser *Browser) closeVenuePanel() {
	browser.activeVenue = ""
	browser.mapView.SetSelected("")
}

func (browser *Browser) clearSelection() {
	browser.activeEvent = ""
	browser.closeVenuePanel()
}

// HoverEvent highlights the marker of the event's venue. An empty or
// unknown id clears the hover.
func (browser *Browser) HoverEvent(eventID string) {
	if eventID == browser.hoveredEvent {
		return
	}
	browser.setHovered(eventID)
	browser.notify()
}

func (browser *Browser) setHovered(eventID string) {
	event, found := browser.lookupFiltered(eventID)
	if !found {
		browser.hoveredEvent = ""
		browser.mapView.SetHovered("")
		return
	}
	browser.hoveredEvent = event.ID
	browser.mapView.SetHovered(event.Venue)
}

// MarkerClicked implements [mapview.Listener].
func (browser *Browser) MarkerClicked(pin mapview.Pin) {
	browser.SelectVenue(pin.Key)
	for _, fn := range browser.venueSelected {
		fn(pin.Key)
	}
}

// MapStatusChanged implements [mapview.Listener].
func (browser *Browser) MapStatusChanged(status mapview.Status) {
	browser.logger.Debug("map status changed", "status", status.String())
	browser.notify()
}

// OpenEvent opens the detail modal. Unknown ids are ignored.
func (browser *Browser) OpenEvent(eventID string) {
	event, exists := browser.catalog.Event(eventID)
	if !exists {
		browser.logger.Debug("open of unknown event ignored", "event", eventID)
		return
	}
	browser.activeEvent = event.ID
	browser.modal.Open(event)
	browser.notify()
}

// OpenCurrent opens the modal for the carousel's current event.
func (browser *Browser) OpenCurrent() {
	if event, ok := browser.Current(); ok {
		browser.OpenEvent(event.ID)
	}
}

// CloseModal closes the modal from any state.
func (browser *Browser) CloseModal() {
	browser.modal.Close()
	browser.notify()
}

func (browser *Browser) GalleryNext() {
	browser.modal.Next()
	browser.notify()
}

func (browser *Browser) GalleryPrev() {
	browser.modal.Prev()
	browser.notify()
}

func (browser *Browser) GalleryJump(index int) {
	browser.modal.Jump(index)
	browser.notify()
}

// OpenFullScreen shows media full-screen. Only valid while an event
// is open.
func (browser *Browser) OpenFullScreen(media string) {
	if browser.modal.OpenFullScreen(media) {
		browser.notify()
	}
}

func (browser *Browser) CloseFullScreen() {
	browser.modal.CloseFullScreen()
	browser.notify()
}

// ClickModal routes a pointer click on the modal overlay.
func (browser *Browser) ClickModal(target ClickTarget) {
	if browser.modal.Click(target) {
		browser.notify()
	}
}

// ResetView clears filters, carousel position, selection, modal and
// venue panel, and returns to the carousel. The auto-scroll
// preference and the map engine survive.
func (browser *Browser) ResetView() {
	browser.modal.Close()
	browser.clearSelection()
	browser.setHovered("")
	browser.view.SetMode(ModeCarousel)
	browser.applyFilter(FilterState{})
}

// MapStatus returns the map lifecycle state.
func (browser *Browser) MapStatus() mapview.Status { return browser.mapView.Status() }

// MapErr returns the fatal map error, if any.
func (browser *Browser) MapErr() error { return browser.mapView.Err() }

// RetryMap rebuilds the map after a fatal error.
func (browser *Browser) RetryMap() { browser.mapView.Retry() }

// MapView renders the map pane.
func (browser *Browser) MapView(width, height int) string {
	return browser.mapView.View(width, height)
}

// ClickMap forwards a click inside the map pane.
func (browser *Browser) ClickMap(x, y int) bool { return browser.mapView.Click(x, y) }

// MapAnimating reports whether the map camera is moving.
func (browser *Browser) MapAnimating() bool { return browser.mapView.Animating() }

var _ mapview.Listener = (*Browser)(nil)
var _ Resetter = (*Browser)(nil)
