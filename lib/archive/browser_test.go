// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"slices"
	"testing"

	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapengine"
	"github.com/takeone-collective/archive/lib/mapengine/mapenginetest"
	"github.com/takeone-collective/archive/lib/mapview"
)

type browserHarness struct {
	browser *Browser
	clock   *clock.FakeClock
	engine  *mapenginetest.Engine
	changes int
}

func newBrowserHarness(t *testing.T) *browserHarness {
	t.Helper()
	h := &browserHarness{
		clock:  clock.Fake(epoch),
		engine: mapenginetest.New(),
	}
	h.browser = NewBrowser(catalog.Default(), Options{
		Clock:      h.clock,
		AutoScroll: true,
		Map: mapview.Options{
			Engine: h.engine,
			Style:  mapengine.Style{Center: catalog.Coordinate{Latitude: 46.5, Longitude: 11.35}, Zoom: 9},
		},
	})
	h.browser.OnChange(func() { h.changes++ })
	return h
}

// mount mounts the browser and brings the map to ready.
func (h *browserHarness) mount(t *testing.T) *mapenginetest.Instance {
	t.Helper()
	h.browser.Mount()
	h.clock.Advance(mapview.DefaultGraceDelay)
	instance := h.engine.Last()
	if instance == nil {
		t.Fatal("map not constructed")
	}
	instance.Load()
	if h.browser.MapStatus() != mapview.StatusReady {
		t.Fatalf("map status = %v, want ready", h.browser.MapStatus())
	}
	return instance
}

func TestFilterChangeResetsIndex(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)

	changes := []struct {
		facet Facet
		value string
	}{
		{FacetYear, "2025"},
		{FacetVenue, "Zoona"},
		{FacetVenue, ""},
		{FacetPerformer, "Loned"},
		{FacetMonth, "September"},
		{FacetYear, "1999"},
	}
	for _, change := range changes {
		h.browser.Jump(len(h.browser.Filtered()) - 1)
		h.browser.SetFilter(change.facet, change.value)
		count := len(h.browser.Filtered())
		index := h.browser.View().Index()
		if index != 0 {
			t.Fatalf("after %v=%q index = %d, want 0", change.facet, change.value, index)
		}
		if count > 0 && index >= count {
			t.Fatalf("index %d outside %d events", index, count)
		}
	}

	if len(h.browser.Filtered()) != 0 {
		t.Fatalf("year 1999 should match nothing, got %v", eventIDs(h.browser.Filtered()))
	}
	if _, ok := h.browser.Current(); ok {
		t.Fatal("empty result has no current event")
	}
	if h.browser.AutoAdvancing() {
		t.Fatal("auto-advance must stop with nothing to show")
	}

	h.browser.ClearFilters()
	if !h.browser.Filter().IsZero() || len(h.browser.Filtered()) != 9 {
		t.Fatalf("ClearFilters left %v with %d events", h.browser.Filter(), len(h.browser.Filtered()))
	}
	if !h.browser.AutoAdvancing() {
		t.Fatal("auto-advance should resume once events match again")
	}
}

func TestAutoAdvanceTicks(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)
	h.browser.SetFilter(FacetYear, "2025")
	count := len(h.browser.Filtered())
	h.browser.Jump(2)

	const ticks = 8
	h.clock.Advance(ticks * DefaultAutoAdvancePeriod)

	if want := (2 + ticks) % count; h.browser.View().Index() != want {
		t.Fatalf("index = %d, want %d", h.browser.View().Index(), want)
	}

	h.browser.ToggleAutoScroll()
	before := h.browser.View().Index()
	h.clock.Advance(10 * DefaultAutoAdvancePeriod)
	if h.browser.View().Index() != before {
		t.Fatal("index advanced with auto-scroll off")
	}
	if h.clock.PendingCount() != 0 {
		t.Fatalf("expected no armed timer, got %d", h.clock.PendingCount())
	}
}

func TestExactlyOneTimerAcrossToggles(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)

	h.browser.SetMode(ModeGrid)
	h.browser.SetMode(ModeCarousel)
	h.browser.ToggleAutoScroll()
	h.browser.ToggleAutoScroll()
	h.browser.SetFilter(FacetVenue, "Zoona")
	h.browser.SetFilter(FacetVenue, "Miro Club")
	h.browser.SetMode(ModeCarousel)
	h.browser.ClearFilters()

	if h.clock.PendingCount() != 1 {
		t.Fatalf("expected exactly 1 armed timer, got %d", h.clock.PendingCount())
	}

	h.browser.SetMode(ModeGrid)
	if h.clock.PendingCount() != 0 || h.browser.AutoAdvancing() {
		t.Fatal("grid mode left the timer armed")
	}
	if !h.browser.View().AutoScroll() {
		t.Fatal("grid mode should keep the auto-scroll preference")
	}
	h.browser.SetMode(ModeCarousel)
	if h.clock.PendingCount() != 1 {
		t.Fatalf("expected the timer re-armed, got %d", h.clock.PendingCount())
	}
}

func TestStaleTickIsDropped(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)
	stale := h.browser.scheduler.Generation()

	h.browser.SetFilter(FacetYear, "2024")
	if h.browser.HandleTick(stale) {
		t.Fatal("tick from the superseded timer advanced the carousel")
	}
	if h.browser.View().Index() != 0 {
		t.Fatalf("index = %d, want 0", h.browser.View().Index())
	}
}

func TestTimerStopsOnUnmount(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)

	h.browser.Unmount()
	if h.clock.PendingCount() != 0 {
		t.Fatalf("unmount left %d timers", h.clock.PendingCount())
	}
	if !instance.Disposed() {
		t.Fatal("unmount did not dispose the map")
	}
	if h.browser.MapStatus() != mapview.StatusUninitialized {
		t.Fatalf("map status = %v", h.browser.MapStatus())
	}
}

func TestMarkerCountFollowsFilteredVenues(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)

	if instance.MarkerCount() != 5 {
		t.Fatalf("expected 5 venue markers, got %d", instance.MarkerCount())
	}
	steps := []struct {
		facet   Facet
		value   string
		markers int
	}{
		{FacetYear, "2025", 4},
		{FacetVenue, "Zoona", 1},
		{FacetYear, "2024", 1},
		{FacetVenue, "", 3},
		{FacetYear, "1999", 0},
		{FacetYear, "", 5},
		{FacetPerformer, "Young XTO", 1},
		{FacetPerformer, "", 5},
	}
	for _, step := range steps {
		h.browser.SetFilter(step.facet, step.value)
		if instance.MarkerCount() != step.markers {
			t.Fatalf("after %v=%q: %d markers, want %d", step.facet, step.value, instance.MarkerCount(), step.markers)
		}
	}
}

func TestSelectEventFliesToVenueOnce(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)

	h.browser.SelectEvent("7")

	flyTos := instance.FlyTos()
	if len(flyTos) != 1 {
		t.Fatalf("expected exactly 1 flyTo, got %d", len(flyTos))
	}
	zoona, _ := catalog.Default().Venue("Zoona")
	if flyTos[0].Target != zoona.Position {
		t.Fatalf("flyTo target = %+v, want %+v", flyTos[0].Target, zoona.Position)
	}

	selection := h.browser.Selection()
	if selection.EventID != "7" || selection.VenueName != "Zoona" {
		t.Fatalf("selection = %+v", selection)
	}
	if selection.Modal != ModalClosed {
		t.Fatalf("modal = %v, want closed", selection.Modal)
	}
	venue, events, open := h.browser.VenuePanel()
	if !open || venue.Name != "Zoona" || !slices.Equal(eventIDs(events), []string{"2", "6", "7"}) {
		t.Fatalf("venue panel = %v %v %v", venue.Name, eventIDs(events), open)
	}
	if state := instance.Marker("Zoona").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("Zoona marker = %v, want selected", state)
	}
}

func TestSelectUnknownEventClearsSelection(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)
	h.browser.SelectEvent("7")

	h.browser.SelectEvent("42")

	selection := h.browser.Selection()
	if selection.EventID != "" || selection.VenueName != "" {
		t.Fatalf("selection = %+v, want cleared", selection)
	}
	if len(instance.FlyTos()) != 1 {
		t.Fatal("unknown event triggered a flyTo")
	}
	if state := instance.Marker("Zoona").Element().State; state != mapengine.MarkerNormal {
		t.Fatalf("Zoona marker = %v, want normal", state)
	}
}

func TestFilterDropsStaleSelection(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)
	h.browser.SelectEvent("7")

	h.browser.SetFilter(FacetYear, "2024")

	selection := h.browser.Selection()
	if selection.EventID != "" {
		t.Fatalf("event 7 (2025) still selected under year 2024")
	}
	if selection.VenueName != "Zoona" {
		t.Fatalf("Zoona still hosts a 2024 event; venue panel = %q", selection.VenueName)
	}

	h.browser.SetFilter(FacetVenue, "Goethe Haus")
	if h.browser.Selection().VenueName != "" {
		t.Fatal("venue panel stayed open for a venue without visible events")
	}
}

func TestMarkerClickSelectsVenueAndNotifies(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)
	var selected []string
	h.browser.OnVenueSelected(func(name string) {
		selected = append(selected, name)
		h.browser.SetFilter(FacetVenue, name)
	})

	if !instance.ClickMarker("Castel Roncolo") {
		t.Fatal("marker not found")
	}

	if !slices.Equal(selected, []string{"Castel Roncolo"}) {
		t.Fatalf("venue callbacks = %v", selected)
	}
	if h.browser.Selection().VenueName != "Castel Roncolo" {
		t.Fatalf("venue panel = %q", h.browser.Selection().VenueName)
	}
	if got := eventIDs(h.browser.Filtered()); !slices.Equal(got, []string{"4"}) {
		t.Fatalf("filtered = %v, want [4]", got)
	}
	if len(instance.FlyTos()) != 1 {
		t.Fatalf("expected 1 flyTo, got %d", len(instance.FlyTos()))
	}
	if state := instance.Marker("Castel Roncolo").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("marker = %v, want selected after rebuild", state)
	}
}

func TestHoverEventHighlightsVenue(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)

	h.browser.HoverEvent("9")
	if state := instance.Marker("Astra Brixen").Element().State; state != mapengine.MarkerHovered {
		t.Fatalf("Astra Brixen = %v, want hovered", state)
	}
	h.browser.SelectVenue("Astra Brixen")
	if state := instance.Marker("Astra Brixen").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("Astra Brixen = %v, want selected", state)
	}
	h.browser.HoverEvent("")
	h.browser.CloseVenuePanel()
	if state := instance.Marker("Astra Brixen").Element().State; state != mapengine.MarkerNormal {
		t.Fatalf("Astra Brixen = %v, want normal", state)
	}
}

func TestModalThroughBrowser(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)

	h.browser.OpenEvent("7")
	h.browser.GalleryPrev()
	selection := h.browser.Selection()
	if selection.Modal != ModalEvent || selection.ModalEventID != "7" || selection.GalleryIndex != 13 {
		t.Fatalf("selection = %+v", selection)
	}

	h.browser.OpenEvent("1")
	if h.browser.Selection().GalleryIndex != 0 {
		t.Fatal("opening another event kept the gallery index")
	}

	h.browser.OpenFullScreen("/images/events/event-miro-2/gallery-1.webp")
	h.browser.ClickModal(TargetContent)
	if h.browser.Selection().Modal != ModalFullScreen {
		t.Fatal("content click dismissed full-screen")
	}
	h.browser.ClickModal(TargetBackdrop)
	if h.browser.Selection().Modal != ModalEvent {
		t.Fatal("backdrop click should return to the event")
	}
	h.browser.ClickModal(TargetBackdrop)
	if h.browser.Selection().Modal != ModalClosed {
		t.Fatal("backdrop click should close the modal")
	}

	h.browser.OpenEvent("nope")
	if h.browser.Selection().Modal != ModalClosed {
		t.Fatal("unknown event opened the modal")
	}
}

func TestLeavingSectionResetsButKeepsMap(t *testing.T) {
	h := newBrowserHarness(t)
	instance := h.mount(t)
	sections := broadcast.New[string]()
	coordinator := NewResetCoordinator(DefaultArchiveSection, h.browser, nil)
	coordinator.Attach(Signals{Sections: sections})
	defer coordinator.Close()

	h.browser.SetFilter(FacetYear, "2025")
	h.browser.SetFilter(FacetVenue, "Zoona")
	h.browser.Jump(1)
	h.browser.SelectEvent("7")
	h.browser.OpenEvent("7")
	h.browser.GalleryNext()
	h.browser.SetMode(ModeGrid)

	sections.Publish("stats")

	if !h.browser.Filter().IsZero() {
		t.Fatalf("filter = %v, want unconstrained", h.browser.Filter())
	}
	if h.browser.View().Index() != 0 {
		t.Fatalf("index = %d, want 0", h.browser.View().Index())
	}
	if h.browser.View().Mode() != ModeCarousel {
		t.Fatalf("mode = %v, want carousel", h.browser.View().Mode())
	}
	selection := h.browser.Selection()
	if selection != (Selection{}) {
		t.Fatalf("selection = %+v, want cleared", selection)
	}
	if h.browser.MapStatus() != mapview.StatusReady {
		t.Fatalf("map status = %v, want ready", h.browser.MapStatus())
	}
	if instance.Disposed() || len(h.engine.Instances()) != 1 {
		t.Fatal("reset disposed or rebuilt the map engine")
	}
	if instance.MarkerCount() != 5 {
		t.Fatalf("expected markers for all 5 venues, got %d", instance.MarkerCount())
	}
}

func TestVenueSelectionFromMapBeforeReady(t *testing.T) {
	h := newBrowserHarness(t)
	h.browser.Mount()
	h.browser.SelectEvent("2")
	if h.browser.Selection().VenueName != "Zoona" {
		t.Fatal("selection should work while the map is loading")
	}
	h.clock.Advance(mapview.DefaultGraceDelay)
	instance := h.engine.Last()
	instance.Load()
	flights := instance.FlyTos()
	zoona, _ := h.browser.Catalog().Venue("Zoona")
	if len(flights) != 1 || flights[0].Target != zoona.Position {
		t.Fatalf("flyTos after load = %+v, want one to Zoona", flights)
	}
	if state := instance.Marker("Zoona").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("Zoona = %v, want selected once markers are built", state)
	}
}

func TestChangesAreNotified(t *testing.T) {
	h := newBrowserHarness(t)
	h.mount(t)
	before := h.changes
	h.browser.Advance(1)
	h.browser.SetFilter(FacetMonth, "May")
	h.browser.OpenEvent("2")
	if h.changes-before != 3 {
		t.Fatalf("expected 3 notifications, got %d", h.changes-before)
	}
}
