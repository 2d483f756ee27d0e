// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/takeone-collective/archive/lib/archive"
	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/config"
	"github.com/takeone-collective/archive/lib/mapengine"
	"github.com/takeone-collective/archive/lib/mapengine/mapenginetest"
	"github.com/takeone-collective/archive/lib/mapview"
)

var epoch = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

// The harness terminal is 120x40: the event pane is 66 columns, the
// map column starts at 67 and is 53 wide, and the content area spans
// rows 3 through 38.
const (
	testWidth  = 120
	testHeight = 40
)

type uiHarness struct {
	model      Model
	browser    *archive.Browser
	clock      *clock.FakeClock
	engine     *mapenginetest.Engine
	sections   *broadcast.Broadcaster[string]
	visibility *broadcast.Broadcaster[bool]
	resize     *broadcast.Broadcaster[mapengine.Container]
}

// newHarness builds a sized but unmounted model over the default
// catalog. Browser callbacks run inline.
func newHarness(t *testing.T) *uiHarness {
	t.Helper()
	h := &uiHarness{
		clock:      clock.Fake(epoch),
		engine:     mapenginetest.New(),
		sections:   broadcast.New[string](),
		visibility: broadcast.New[bool](),
		resize:     broadcast.New[mapengine.Container](),
	}
	h.browser = archive.NewBrowser(catalog.Default(), archive.Options{
		Clock:      h.clock,
		AutoScroll: true,
		Map: mapview.Options{
			Engine: h.engine,
			Style:  mapengine.Style{Center: catalog.Coordinate{Latitude: 46.5, Longitude: 11.35}, Zoom: 9},
			Resize: h.resize,
		},
	})

	coordinator := archive.NewResetCoordinator("", h.browser, nil)
	coordinator.Attach(archive.Signals{Sections: h.sections, Visibility: h.visibility})
	t.Cleanup(coordinator.Close)

	h.model = NewModel(h.browser, Options{
		Sections:   h.sections,
		Visibility: h.visibility,
		Resize:     h.resize,
	})
	h.send(tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return h
}

// mount runs the program's init message and brings the map to ready.
func (h *uiHarness) mount(t *testing.T) *mapenginetest.Instance {
	t.Helper()
	h.send(mountMsg{})
	h.clock.Advance(mapview.DefaultGraceDelay)
	instance := h.engine.Last()
	if instance == nil {
		t.Fatal("map not constructed after the grace delay")
	}
	h.send(dispatchMsg{run: instance.Load})
	if status := h.browser.MapStatus(); status != mapview.StatusReady {
		t.Fatalf("map status = %v, want ready", status)
	}
	return instance
}

func (h *uiHarness) send(message tea.Msg) tea.Cmd {
	updated, command := h.model.Update(message)
	h.model = updated.(Model)
	return command
}

func (h *uiHarness) press(keys ...string) {
	for _, name := range keys {
		h.send(keyMessage(name))
	}
}

func keyMessage(name string) tea.KeyMsg {
	switch name {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}

func (h *uiHarness) click(x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func (h *uiHarness) hover(x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
}

func (h *uiHarness) view() string {
	return ansi.Strip(h.model.View())
}

func (h *uiHarness) selection() archive.Selection {
	return h.browser.Selection()
}

func TestMapConstructedAtPaneSize(t *testing.T) {
	h := newHarness(t)
	instance := h.mount(t)

	want := mapengine.Container{Width: 53, Height: 35}
	if got := instance.Container(); got != want {
		t.Fatalf("map constructed at %v, want %v", got, want)
	}
	if view := h.view(); !strings.Contains(view, "Map · ready · 5 venues") {
		t.Errorf("map header missing from view:\n%s", view)
	}

	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	want = mapengine.Container{Width: 35, Height: 25}
	resizes := instance.Resizes()
	if len(resizes) == 0 || resizes[len(resizes)-1] != want {
		t.Fatalf("resizes = %v, want last %v", resizes, want)
	}
}

func TestViewFitsTerminal(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	for _, keys := range [][]string{nil, {"g"}, {"enter"}, {"2"}, {"3"}} {
		h.press(keys...)
		lines := strings.Split(h.model.View(), "\n")
		if len(lines) != testHeight {
			t.Fatalf("after %v view has %d lines, want %d", keys, len(lines), testHeight)
		}
		for index, line := range lines {
			if width := ansi.StringWidth(line); width > testWidth {
				t.Fatalf("after %v line %d is %d wide", keys, index, width)
			}
		}
	}
}

func TestCarouselNavigation(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	if view := h.view(); !strings.Contains(view, "◀ 1 / 9 ▶") || !strings.Contains(view, "Mirò Club - R Room") {
		t.Fatalf("first card not shown:\n%s", view)
	}

	h.press("right")
	if index := h.browser.View().Index(); index != 1 {
		t.Fatalf("index after right = %d, want 1", index)
	}
	h.press("left", "left")
	if index := h.browser.View().Index(); index != 8 {
		t.Fatalf("index after wrapping left = %d, want 8", index)
	}

	// Arrow segments of the carousel header: ◀ at column 1, ▶ after
	// the "9 / 9" counter.
	h.click(1, contentTop)
	if index := h.browser.View().Index(); index != 7 {
		t.Fatalf("index after clicking ◀ = %d, want 7", index)
	}
	h.click(9, contentTop)
	if index := h.browser.View().Index(); index != 8 {
		t.Fatalf("index after clicking ▶ = %d, want 8", index)
	}

	// Pagination dots sit on the last content row at odd columns.
	h.click(5, contentTop+35)
	if index := h.browser.View().Index(); index != 2 {
		t.Fatalf("index after clicking the third dot = %d, want 2", index)
	}
}

func TestAutoAdvanceThroughProgram(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.clock.Advance(archive.DefaultAutoAdvancePeriod)
	if index := h.browser.View().Index(); index != 1 {
		t.Fatalf("index after one period = %d, want 1", index)
	}

	h.press("a")
	if h.browser.AutoAdvancing() {
		t.Fatal("auto-advance should stop when toggled off")
	}
	h.clock.Advance(2 * archive.DefaultAutoAdvancePeriod)
	if index := h.browser.View().Index(); index != 1 {
		t.Fatalf("index moved to %d with auto-scroll off", index)
	}
	if view := h.view(); !strings.Contains(view, "auto off") {
		t.Errorf("filter bar does not show auto-scroll off:\n%s", view)
	}
}

func TestYearNavigator(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	steps := []struct {
		key  string
		want string
	}{
		{"]", "2025"},
		{"]", "2024"},
		{"]", "2024"},
		{"[", "2025"},
	}
	for _, step := range steps {
		h.press(step.key)
		if year := h.browser.Filter().Year; year != step.want {
			t.Fatalf("after %q year = %q, want %q", step.key, year, step.want)
		}
	}

	// " Year  " prefix, then "All years" at columns 7-15, "2025" at
	// 18-21 and "2024" at 24-27.
	h.click(25, yearBarY)
	if year := h.browser.Filter().Year; year != "2024" {
		t.Fatalf("clicking 2024 set year %q", year)
	}
	h.click(8, yearBarY)
	if year := h.browser.Filter().Year; year != "" {
		t.Fatalf("clicking All years set year %q", year)
	}
}

func TestPerformerDropdownNarrows(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("p")
	if h.model.Focus() != FocusDropdown {
		t.Fatalf("focus = %v, want dropdown", h.model.Focus())
	}

	// Typed letters go to the dropdown, including ones bound elsewhere.
	h.press("m", "i", "r", "k", "o")
	var labels []string
	for _, option := range h.model.dropdown.Visible() {
		labels = append(labels, option.Label)
	}
	if want := []string{"Mirko Ventura"}; !slices.Equal(labels, want) {
		t.Fatalf("visible options = %v, want %v", labels, want)
	}
	if !strings.Contains(h.view(), "Performer: mirko") {
		t.Errorf("dropdown title does not show the query:\n%s", h.view())
	}

	h.press("enter")
	if performer := h.browser.Filter().Performer; performer != "Mirko Ventura" {
		t.Fatalf("performer filter = %q", performer)
	}
	if h.model.Focus() != FocusEvents {
		t.Fatalf("focus after selection = %v, want events", h.model.Focus())
	}
	if filtered := h.browser.Filtered(); len(filtered) != 1 || filtered[0].ID != "3" {
		t.Fatalf("filtered = %v, want event 3", filtered)
	}
	if view := h.view(); !strings.Contains(view, "Performer: Mirko Ventura ▾") || !strings.Contains(view, "✕ clear") {
		t.Errorf("filter bar does not reflect the filter:\n%s", view)
	}

	h.press("x")
	if !h.browser.Filter().IsZero() {
		t.Fatalf("x left filter %v", h.browser.Filter())
	}
}

func TestDropdownMouse(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	// The month segment starts at column 1 of the filter bar.
	h.click(3, filterBarY)
	if h.model.Focus() != FocusDropdown || h.model.dropdownFacet != archive.FacetMonth {
		t.Fatalf("clicking the month segment did not open its dropdown")
	}
	// Title row, "All months", then January, March, April, May.
	h.click(h.model.dropdown.AnchorX+2, h.model.dropdown.AnchorY+4)
	if month := h.browser.Filter().Month; month != "April" {
		t.Fatalf("clicked option set month %q, want April", month)
	}

	h.press("m")
	h.click(testWidth-1, testHeight-2)
	if h.model.dropdown != nil || h.model.Focus() != FocusEvents {
		t.Fatal("clicking outside should dismiss the dropdown")
	}
	if month := h.browser.Filter().Month; month != "April" {
		t.Fatalf("dismissing changed the month to %q", month)
	}

	h.press("v", "esc")
	if h.model.dropdown != nil {
		t.Fatal("esc should close the dropdown")
	}
}

func TestModalKeys(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("enter")
	selection := h.selection()
	if selection.Modal != archive.ModalEvent || selection.ModalEventID != "1" {
		t.Fatalf("enter opened %+v, want event 1", selection)
	}
	if view := h.view(); !strings.Contains(view, "Gallery 1/10") {
		t.Fatalf("gallery caption missing:\n%s", view)
	}

	h.press("right")
	if index := h.selection().GalleryIndex; index != 1 {
		t.Fatalf("gallery index = %d, want 1", index)
	}
	event, _ := h.browser.Catalog().Event("1")

	h.press("enter")
	if media := h.selection().FullScreenMedia; media != event.Gallery[1] {
		t.Fatalf("full screen media = %q, want %q", media, event.Gallery[1])
	}
	if !strings.Contains(h.view(), "Full screen") {
		t.Error("full screen overlay not drawn")
	}
	h.press("right")
	if index := h.selection().GalleryIndex; index != 1 {
		t.Fatal("gallery moved while full screen")
	}

	h.press("esc")
	if h.selection().Modal != archive.ModalEvent {
		t.Fatalf("esc from full screen = %v, want event", h.selection().Modal)
	}
	h.press("o")
	if media := h.selection().FullScreenMedia; media != event.Poster {
		t.Fatalf("o showed %q, want the poster", media)
	}
	h.press("esc", "esc")
	if h.selection().Modal != archive.ModalClosed {
		t.Fatalf("second esc left modal %v", h.selection().Modal)
	}
}

func TestModalMouse(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	// The modal is 84x32 at (18, 4); the thumbnail strip is row 34,
	// starting at column 19 with "[1]" then "[2]" at 23.
	h.press("enter")
	h.click(24, 34)
	if index := h.selection().GalleryIndex; index != 1 {
		t.Fatalf("thumbnail click selected %d, want 1", index)
	}
	h.click(40, 12)
	if h.selection().Modal != archive.ModalEvent {
		t.Fatal("content click closed the modal")
	}
	h.click(100, 4)
	if h.selection().Modal != archive.ModalClosed {
		t.Fatal("close button did not close the modal")
	}

	h.press("enter", "enter")
	h.click(0, 0)
	if h.selection().Modal != archive.ModalEvent {
		t.Fatalf("backdrop click from full screen = %v, want event", h.selection().Modal)
	}
	h.click(0, 0)
	if h.selection().Modal != archive.ModalClosed {
		t.Fatalf("backdrop click from event = %v, want closed", h.selection().Modal)
	}
	if h.model.Section() != SectionArchive {
		t.Fatal("backdrop click on the section bar switched sections")
	}
}

func TestGridHoverHighlightsMarker(t *testing.T) {
	h := newHarness(t)
	instance := h.mount(t)

	h.press("g")
	if h.browser.View().Mode() != archive.ModeGrid {
		t.Fatal("g did not switch to the grid")
	}
	if view := h.view(); !strings.Contains(view, "2025 Sep  TakeONE X Unstructured · Zoona ▶") {
		t.Fatalf("grid row with video badge missing:\n%s", view)
	}

	h.press("j")
	if hovered := h.selection().HoveredEventID; hovered != "2" {
		t.Fatalf("hovered = %q, want 2", hovered)
	}
	if state := instance.Marker("Zoona").Element().State; state != mapengine.MarkerHovered {
		t.Fatalf("Zoona marker state = %v, want hovered", state)
	}

	h.hover(3, contentTop+2)
	if hovered := h.selection().HoveredEventID; hovered != "3" {
		t.Fatalf("pointer hover = %q, want 3", hovered)
	}
	h.hover(3, testHeight-1)
	if hovered := h.selection().HoveredEventID; hovered != "" {
		t.Fatalf("hover outside the list left %q", hovered)
	}

	h.click(3, contentTop)
	if id := h.selection().ModalEventID; id != "1" {
		t.Fatalf("clicking the first row opened %q", id)
	}
}

func TestMarkerClickOpensVenuePanel(t *testing.T) {
	h := newHarness(t)
	instance := h.mount(t)

	h.send(dispatchMsg{run: func() { instance.ClickMarker("Zoona") }})
	if venue := h.browser.Filter().Venue; venue != "Zoona" {
		t.Fatalf("marker click set venue filter %q, want Zoona", venue)
	}
	venue, events, open := h.browser.VenuePanel()
	if !open || venue.Name != "Zoona" || len(events) != 3 {
		t.Fatalf("venue panel = %v %d open=%v", venue.Name, len(events), open)
	}
	if state := instance.Marker("Zoona").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("Zoona marker state = %v, want selected", state)
	}
	if last, _ := h.resize.Last(); last != (mapengine.Container{Width: 53, Height: 31}) {
		t.Fatalf("map pane resized to %v with the panel open", last)
	}

	h.press("f")
	if h.model.Focus() != FocusVenuePanel {
		t.Fatalf("focus = %v, want venue panel", h.model.Focus())
	}
	h.press("j")
	if hovered := h.selection().HoveredEventID; hovered != "6" {
		t.Fatalf("venue cursor hovered %q, want 6", hovered)
	}
	h.press("enter")
	if id := h.selection().ModalEventID; id != "6" {
		t.Fatalf("enter in the venue panel opened %q, want 6", id)
	}
	h.press("esc")

	h.press("f")
	if _, _, open := h.browser.VenuePanel(); open {
		t.Fatal("returning focus to the carousel should close the venue panel")
	}
	if h.model.Focus() != FocusEvents {
		t.Fatalf("focus = %v, want events", h.model.Focus())
	}
}

func TestShowOnMapFliesToVenue(t *testing.T) {
	h := newHarness(t)
	instance := h.mount(t)

	h.press("s")
	flights := instance.FlyTos()
	if len(flights) != 1 {
		t.Fatalf("recorded %d flights, want 1", len(flights))
	}
	venue, _ := h.browser.Catalog().Venue("Miro Club")
	if flights[0].Target != venue.Position {
		t.Fatalf("flew to %v, want %v", flights[0].Target, venue.Position)
	}
	if name := h.selection().VenueName; name != "Miro Club" {
		t.Fatalf("venue panel = %q, want Miro Club", name)
	}
	if !strings.Contains(h.view(), "◉ Miro Club · 3 events") {
		t.Errorf("venue panel header missing:\n%s", h.view())
	}
}

func TestSectionSwitchResetsArchive(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	if name, _ := h.sections.Last(); name != archive.DefaultArchiveSection {
		t.Fatalf("mount published section %q", name)
	}

	h.press("]", "enter")
	h.press("2")
	if name, _ := h.sections.Last(); name != "stats" {
		t.Fatalf("published section %q, want stats", name)
	}
	if !h.browser.Filter().IsZero() || h.selection().Modal != archive.ModalClosed {
		t.Fatalf("leaving the archive kept filter %v, modal %v", h.browser.Filter(), h.selection().Modal)
	}
	if h.browser.MapStatus() != mapview.StatusReady {
		t.Fatal("reset tore down the map")
	}

	view := h.view()
	for _, want := range []string{"Archive statistics", "66  sets", "10  artists", "Events per venue", "Astra Brixen"} {
		if !strings.Contains(view, want) {
			t.Errorf("stats view missing %q", want)
		}
	}

	h.press("tab")
	if h.model.Section() != SectionAbout || !strings.Contains(h.view(), "TakeONE archive") {
		t.Fatalf("tab from stats = %v", h.model.Section())
	}
	h.press("1")
	if name, _ := h.sections.Last(); name != archive.DefaultArchiveSection {
		t.Fatalf("published section %q, want archive", name)
	}
}

func TestBlurResetsArchive(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("]")
	h.send(tea.FocusMsg{})
	if h.browser.Filter().Year != "2025" {
		t.Fatal("focus gain reset the archive")
	}
	h.send(tea.BlurMsg{})
	if !h.browser.Filter().IsZero() {
		t.Fatalf("blur kept filter %v", h.browser.Filter())
	}
}

func TestRetryAfterFatalMapError(t *testing.T) {
	h := newHarness(t)
	h.engine.SetConstructError(mapengine.ErrUnsupportedContext)
	h.send(mountMsg{})
	h.clock.Advance(mapview.DefaultGraceDelay)
	h.send(nil)

	if h.browser.MapStatus() != mapview.StatusError {
		t.Fatalf("map status = %v, want error", h.browser.MapStatus())
	}
	if view := h.view(); !strings.Contains(view, "Map unavailable.") || !strings.Contains(view, "Press r to retry.") {
		t.Fatalf("error panel or retry hint missing:\n%s", view)
	}

	h.engine.SetConstructError(nil)
	h.press("r")
	if h.browser.MapStatus() != mapview.StatusUninitialized {
		t.Fatalf("after retry status = %v, want uninitialized", h.browser.MapStatus())
	}
	h.clock.Advance(mapview.DefaultGraceDelay)
	h.send(dispatchMsg{run: h.engine.Last().Load})
	if h.browser.MapStatus() != mapview.StatusReady {
		t.Fatalf("map status after retry = %v, want ready", h.browser.MapStatus())
	}
}

func TestDispatcherDeliversOntoLoop(t *testing.T) {
	dispatcher := NewDispatcher()
	dispatcher.Dispatch(func() { t.Fatal("callback ran without a program") })

	var delivered []tea.Msg
	dispatcher.link.bind(func(message tea.Msg) { delivered = append(delivered, message) })

	ran := false
	dispatcher.Dispatch(func() { ran = true })
	if len(delivered) != 1 || ran {
		t.Fatalf("delivered %d messages, ran=%v; want 1 queued message", len(delivered), ran)
	}

	h := newHarness(t)
	h.send(delivered[0])
	if !ran {
		t.Fatal("Update did not run the dispatched callback")
	}
}

func TestLogRecordsReachStatusBar(t *testing.T) {
	handler := NewTUILogHandler(slog.LevelWarn)
	var delivered []tea.Msg
	handler.link.bind(func(message tea.Msg) { delivered = append(delivered, message) })

	logger := slog.New(handler).With("component", "map").WithGroup("style")
	logger.Info("style loaded")
	logger.Warn("fetch failed", "attempt", 2)
	if len(delivered) != 1 {
		t.Fatalf("delivered %d records, want 1", len(delivered))
	}
	record := delivered[0].(logRecordMsg)
	if want := "fetch failed (component=map, style.attempt=2)"; record.Summary != want {
		t.Fatalf("summary = %q, want %q", record.Summary, want)
	}
	if !handler.Enabled(context.Background(), slog.LevelError) || handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled does not follow the handler level")
	}

	h := newHarness(t)
	if command := h.send(record); command == nil {
		t.Fatal("log record should schedule its fade")
	}
	if !strings.Contains(h.view(), "fetch failed") {
		t.Fatal("status bar does not show the record")
	}
	h.send(logRecordFadeMsg{Sequence: 0})
	if !strings.Contains(h.view(), "fetch failed") {
		t.Fatal("stale fade cleared a newer record")
	}
	h.send(logRecordFadeMsg{Sequence: 1})
	if strings.Contains(h.view(), "fetch failed") || !strings.Contains(h.view(), "←/→ browse") {
		t.Fatal("fade did not restore the help line")
	}
}

func TestQuitKeys(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("p")
	if quits(h.send(keyMessage("q"))) {
		t.Fatal("q inside a dropdown should narrow, not quit")
	}
	if !quits(h.send(keyMessage("ctrl+c"))) {
		t.Fatal("ctrl+c should quit from a dropdown")
	}
}

// quits runs command, following batches, and reports whether it
// produced tea.QuitMsg.
func quits(command tea.Cmd) bool {
	if command == nil {
		return false
	}
	switch message := command().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, inner := range message {
			if quits(inner) {
				return true
			}
		}
	}
	return false
}

func TestOtherSectionNamesAreReserved(t *testing.T) {
	var names []string
	for section := range sectionCount {
		if section != SectionArchive {
			names = append(names, section.String())
		}
	}
	if !slices.Equal(names, config.ReservedSections) {
		t.Fatalf("section names = %v, config reserves %v", names, config.ReservedSections)
	}
}
