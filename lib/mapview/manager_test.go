// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapview

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapengine"
	"github.com/takeone-collective/archive/lib/mapengine/mapenginetest"
)

var epoch = time.Date(2025, 9, 19, 22, 0, 0, 0, time.UTC)

type recorder struct {
	clicks   []Pin
	statuses []Status
}

func (r *recorder) MarkerClicked(pin Pin)          { r.clicks = append(r.clicks, pin) }
func (r *recorder) MapStatusChanged(status Status) { r.statuses = append(r.statuses, status) }

type harness struct {
	manager  *Manager
	engine   *mapenginetest.Engine
	clock    *clock.FakeClock
	listener *recorder
	resize   *broadcast.Broadcaster[mapengine.Container]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		engine:   mapenginetest.New(),
		clock:    clock.Fake(epoch),
		listener: &recorder{},
		resize:   broadcast.New[mapengine.Container](),
	}
	h.manager = New(Options{
		Engine:    h.engine,
		Container: mapengine.Container{Width: 40, Height: 12},
		Clock:     h.clock,
		Listener:  h.listener,
		Resize:    h.resize,
	})
	return h
}

// ready mounts, waits out the grace delay and fires load.
func (h *harness) ready(t *testing.T) *mapenginetest.Instance {
	t.Helper()
	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	instance := h.engine.Last()
	if instance == nil {
		t.Fatal("no instance constructed after grace delay")
	}
	instance.Load()
	if h.manager.Status() != StatusReady {
		t.Fatalf("status = %v, want ready", h.manager.Status())
	}
	return instance
}

func pins(keys ...string) []Pin {
	result := make([]Pin, len(keys))
	for index, key := range keys {
		result[index] = Pin{
			Key:      key,
			Label:    key,
			Position: catalog.Coordinate{Latitude: 46 + float64(index)/10, Longitude: 11},
		}
	}
	return result
}

func TestMountDefersConstructionByGraceDelay(t *testing.T) {
	h := newHarness(t)
	h.manager.Mount()

	if h.engine.Last() != nil {
		t.Fatal("engine constructed before the grace delay")
	}
	h.clock.Advance(DefaultGraceDelay - time.Millisecond)
	if h.engine.Last() != nil {
		t.Fatal("engine constructed before the grace delay elapsed")
	}
	if h.manager.Status() != StatusUninitialized {
		t.Fatalf("status = %v, want uninitialized", h.manager.Status())
	}

	h.clock.Advance(time.Millisecond)
	if h.engine.Last() == nil {
		t.Fatal("engine not constructed after the grace delay")
	}
	if h.manager.Status() != StatusLoading {
		t.Fatalf("status = %v, want loading", h.manager.Status())
	}

	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	if count := len(h.engine.Instances()); count != 1 {
		t.Fatalf("second Mount constructed again: %d instances", count)
	}
}

func TestReconcileWaitsForReady(t *testing.T) {
	h := newHarness(t)
	h.manager.Reconcile(pins("a", "b", "c"))
	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	instance := h.engine.Last()

	if instance.MarkerCount() != 0 {
		t.Fatalf("markers added before load: %d", instance.MarkerCount())
	}

	instance.Load()
	if instance.MarkerCount() != 3 {
		t.Fatalf("expected 3 markers after load, got %d", instance.MarkerCount())
	}
	want := []Status{StatusLoading, StatusReady}
	if fmt.Sprint(h.listener.statuses) != fmt.Sprint(want) {
		t.Errorf("statuses = %v, want %v", h.listener.statuses, want)
	}
}

func TestRepeatedReconcileLeavesNoOrphans(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)

	inputs := [][]Pin{
		pins("a", "b", "c", "d", "e"),
		pins("a"),
		nil,
		pins("b", "c"),
		pins("b", "c"),
		pins("a", "b", "c"),
	}
	for _, input := range inputs {
		h.manager.Reconcile(input)
		if instance.MarkerCount() != len(input) {
			t.Fatalf("after reconciling %d pins the engine has %d markers", len(input), instance.MarkerCount())
		}
		if h.manager.MarkerCount() != len(input) {
			t.Fatalf("after reconciling %d pins the manager tracks %d markers", len(input), h.manager.MarkerCount())
		}
	}
}

func TestMarkerFailuresAreSwallowed(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	instance.FailMarkers(func(element mapengine.MarkerElement) error {
		if element.Key == "b" {
			return errors.New("bad marker")
		}
		return nil
	})

	h.manager.Reconcile(pins("a", "b", "c"))

	if instance.MarkerCount() != 2 || h.manager.MarkerCount() != 2 {
		t.Fatalf("expected 2 markers, engine has %d and manager tracks %d",
			instance.MarkerCount(), h.manager.MarkerCount())
	}
	if h.manager.Status() != StatusReady {
		t.Fatalf("status = %v, want ready", h.manager.Status())
	}
}

func TestUnsupportedContextIsFatal(t *testing.T) {
	h := newHarness(t)
	h.engine.SetConstructError(fmt.Errorf("terminal: %w", mapengine.ErrUnsupportedContext))

	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)

	if h.manager.Status() != StatusError {
		t.Fatalf("status = %v, want error", h.manager.Status())
	}
	if !errors.Is(h.manager.Err(), mapengine.ErrUnsupportedContext) {
		t.Fatalf("Err = %v, want ErrUnsupportedContext", h.manager.Err())
	}
	h.clock.Advance(time.Minute)
	if h.clock.PendingCount() != 0 {
		t.Fatal("fatal construction error should not schedule another attempt")
	}
}

func TestRecoverableConstructionErrorIsRetried(t *testing.T) {
	h := newHarness(t)
	h.engine.SetConstructError(errors.New("no size yet"))

	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	if h.manager.Status() != StatusLoading {
		t.Fatalf("status = %v, want loading", h.manager.Status())
	}
	if h.engine.Last() != nil {
		t.Fatal("unexpected instance")
	}

	h.engine.SetConstructError(nil)
	h.clock.Advance(minimumConstructRetry)
	if h.engine.Last() == nil {
		t.Fatal("construction was not retried")
	}
}

func TestRecoverableEngineErrorKeepsMapReady(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)

	instance.Fail(errors.New("style fetch: 401 Unauthorized"))

	if h.manager.Status() != StatusReady {
		t.Fatalf("status = %v, want ready", h.manager.Status())
	}
	if h.manager.Err() != nil {
		t.Fatalf("Err = %v, want nil", h.manager.Err())
	}
}

func TestRetryBuildsFreshInstance(t *testing.T) {
	h := newHarness(t)
	first := h.ready(t)
	h.manager.Reconcile(pins("a", "b"))

	first.Fail(fmt.Errorf("lost context: %w", mapengine.ErrUnsupportedContext))
	if h.manager.Status() != StatusError {
		t.Fatalf("status = %v, want error", h.manager.Status())
	}

	h.manager.Retry()
	if !first.Disposed() {
		t.Fatal("retry did not dispose the failed instance")
	}
	if first.MarkerCount() != 0 {
		t.Fatalf("retry left %d markers on the failed instance", first.MarkerCount())
	}
	if h.manager.Status() != StatusUninitialized {
		t.Fatalf("status = %v, want uninitialized", h.manager.Status())
	}

	h.clock.Advance(DefaultGraceDelay)
	second := h.engine.Last()
	if second == first {
		t.Fatal("retry reused the failed instance")
	}
	second.Load()
	if second.MarkerCount() != 2 {
		t.Fatalf("expected markers rebuilt on the new instance, got %d", second.MarkerCount())
	}
}

func TestRetryIgnoredUnlessFailed(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	h.manager.Retry()
	if instance.Disposed() || h.manager.Status() != StatusReady {
		t.Fatal("Retry from ready should be a no-op")
	}
}

func TestFlyTo(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	target := catalog.Coordinate{Latitude: 46.4848, Longitude: 11.3371}
	other := catalog.Coordinate{Latitude: 46.71, Longitude: 11.65}

	h.manager.FlyTo(other)
	if !h.manager.FlyTo(target) {
		t.Fatal("FlyTo not forwarded while ready")
	}

	calls := instance.FlyTos()
	if len(calls) != 2 {
		t.Fatalf("expected 2 flyTo calls, got %d", len(calls))
	}
	last := calls[len(calls)-1]
	if last.Target != target || last.Zoom != DefaultFlyToZoom || last.Duration != DefaultFlyToDuration {
		t.Errorf("last flyTo = %+v", last)
	}
}

func TestFlyToBeforeReadyAppliedOnLoad(t *testing.T) {
	h := newHarness(t)
	target := catalog.Coordinate{Latitude: 46.4848, Longitude: 11.3371}
	stale := catalog.Coordinate{Latitude: 46.71, Longitude: 11.65}

	h.manager.Mount()
	if h.manager.FlyTo(stale) {
		t.Fatal("FlyTo forwarded before construction")
	}
	h.clock.Advance(DefaultGraceDelay)
	instance := h.engine.Last()
	h.manager.FlyTo(target)
	if calls := instance.FlyTos(); len(calls) != 0 {
		t.Fatalf("flew %d times while loading", len(calls))
	}

	instance.Load()
	calls := instance.FlyTos()
	if len(calls) != 1 || calls[0].Target != target {
		t.Fatalf("flyTos after load = %+v, want one to %v", calls, target)
	}

	h.manager.Resize(mapengine.Container{Width: 50, Height: 20})
	if calls := instance.FlyTos(); len(calls) != 1 {
		t.Fatalf("pending flight replayed again: %d calls", len(calls))
	}
}

func TestTeardownDropsPendingFlyTo(t *testing.T) {
	h := newHarness(t)
	h.engine.SetConstructError(mapengine.ErrUnsupportedContext)
	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	if h.manager.Status() != StatusError {
		t.Fatalf("status = %v, want error", h.manager.Status())
	}
	h.manager.FlyTo(catalog.Coordinate{Latitude: 46.5, Longitude: 11.3})

	h.engine.SetConstructError(nil)
	h.manager.Retry()
	instance := h.ready(t)
	if calls := instance.FlyTos(); len(calls) != 0 {
		t.Fatalf("flight requested before retry was replayed: %+v", calls)
	}
}

func TestSelectedTakesPrecedenceOverHovered(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	h.manager.Reconcile(pins("a", "b"))

	h.manager.SetHovered("a")
	if state := instance.Marker("a").Element().State; state != mapengine.MarkerHovered {
		t.Fatalf("a = %v, want hovered", state)
	}
	h.manager.SetSelected("a")
	if state := instance.Marker("a").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("a = %v, want selected", state)
	}
	h.manager.SetSelected("")
	if state := instance.Marker("a").Element().State; state != mapengine.MarkerHovered {
		t.Fatalf("a = %v, want hovered after deselect", state)
	}
	if state := instance.Marker("b").Element().State; state != mapengine.MarkerNormal {
		t.Fatalf("b = %v, want normal", state)
	}
	if added := instance.MarkersAdded(); added != 2 {
		t.Fatalf("restyling added markers: %d total adds", added)
	}
}

func TestSelectionSurvivesRebuild(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	h.manager.SetSelected("b")
	h.manager.Reconcile(pins("a", "b"))
	if state := instance.Marker("b").Element().State; state != mapengine.MarkerSelected {
		t.Fatalf("b = %v, want selected", state)
	}
}

func TestClickHandlerResolvesCurrentPin(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	h.manager.Reconcile([]Pin{{Key: "Zoona", Label: "Zoona (3)"}})
	staleClick := instance.Marker("Zoona").Element().OnClick

	h.manager.Reconcile([]Pin{{Key: "Zoona", Label: "Zoona (1)"}})
	staleClick()

	if len(h.listener.clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(h.listener.clicks))
	}
	if label := h.listener.clicks[0].Label; label != "Zoona (1)" {
		t.Fatalf("click delivered pin %q, want the current one", label)
	}

	h.manager.Reconcile(nil)
	staleClick()
	if len(h.listener.clicks) != 1 {
		t.Fatal("click on a removed pin reached the listener")
	}
}

func TestResizeForwardedOnlyWhenReady(t *testing.T) {
	h := newHarness(t)
	h.resize.Publish(mapengine.Container{Width: 60, Height: 20})
	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	instance := h.engine.Last()
	if got := instance.Container(); got.Width != 60 || got.Height != 20 {
		t.Fatalf("constructed with %v, want the last published size", got)
	}

	h.resize.Publish(mapengine.Container{Width: 80, Height: 24})
	if len(instance.Resizes()) != 0 {
		t.Fatal("resize forwarded while loading")
	}

	instance.Load()
	if resizes := instance.Resizes(); len(resizes) != 1 || resizes[0].Width != 80 {
		t.Fatalf("resize published while loading not applied on load: %v", resizes)
	}
	h.resize.Publish(mapengine.Container{Width: 100, Height: 30})
	if resizes := instance.Resizes(); len(resizes) != 2 || resizes[1].Width != 100 {
		t.Fatalf("resizes = %v", resizes)
	}

	h.manager.Unmount()
	if h.resize.Len() != 0 {
		t.Fatalf("unmount left %d resize subscriptions", h.resize.Len())
	}
}

func TestUnmountCancelsPendingConstruction(t *testing.T) {
	h := newHarness(t)
	h.manager.Mount()
	h.manager.Unmount()
	h.clock.Advance(time.Second)
	if h.engine.Last() != nil {
		t.Fatal("construction ran after unmount")
	}
}

func TestUnmountReleasesEverything(t *testing.T) {
	h := newHarness(t)
	instance := h.ready(t)
	h.manager.Reconcile(pins("a", "b", "c"))

	h.manager.Unmount()
	h.manager.Unmount()

	if !instance.Disposed() {
		t.Fatal("instance not disposed")
	}
	if instance.MarkerCount() != 0 {
		t.Fatalf("%d markers left after unmount", instance.MarkerCount())
	}
	if h.manager.Status() != StatusUninitialized {
		t.Fatalf("status = %v, want uninitialized", h.manager.Status())
	}

	h.manager.Mount()
	h.clock.Advance(DefaultGraceDelay)
	remounted := h.engine.Last()
	if remounted == instance {
		t.Fatal("remount reused the disposed instance")
	}
	remounted.Load()
	if remounted.MarkerCount() != 3 {
		t.Fatalf("remount should rebuild from the stored pins, got %d markers", remounted.MarkerCount())
	}
}

func TestViewAndClickDelegation(t *testing.T) {
	h := newHarness(t)
	if h.manager.View(40, 10) != "" {
		t.Fatal("View rendered before ready")
	}
	h.ready(t)
	h.manager.Reconcile(pins("Miro Club", "Zoona"))

	view := h.manager.View(40, 10)
	if !strings.Contains(view, "Zoona") {
		t.Fatalf("View = %q, want it to mention Zoona", view)
	}
	if !h.manager.Click(0, 1) {
		t.Fatal("Click missed the second marker")
	}
	if len(h.listener.clicks) != 1 || h.listener.clicks[0].Key != "Zoona" {
		t.Fatalf("clicks = %+v", h.listener.clicks)
	}
}

func TestVenuePins(t *testing.T) {
	archive := catalog.Default()
	var year2025 []catalog.EventRecord
	for _, event := range archive.Events() {
		if event.Year == 2025 {
			year2025 = append(year2025, event)
		}
	}

	result := VenuePins(archive, year2025)
	var keys []string
	for _, pin := range result {
		keys = append(keys, pin.Key)
	}
	want := "Miro Club,Zoona,Castel Roncolo,Astra Brixen"
	if strings.Join(keys, ",") != want {
		t.Fatalf("keys = %v, want %s", keys, want)
	}
	if result[1].Label != "Zoona (2)" {
		t.Errorf("Zoona label = %q, want %q", result[1].Label, "Zoona (2)")
	}
	if len(VenuePins(archive, nil)) != 0 {
		t.Error("no events should produce no pins")
	}
}
