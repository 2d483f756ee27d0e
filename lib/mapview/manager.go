// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapview

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/takeone-collective/archive/lib/broadcast"
	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapengine"
)

// Defaults for [Options] fields left zero.
const (
	DefaultGraceDelay    = 100 * time.Millisecond
	DefaultFlyToZoom     = 15
	DefaultFlyToDuration = time.Second

	// minimumConstructRetry bounds how quickly a failed construction
	// is re-attempted.
	minimumConstructRetry = 250 * time.Millisecond
)

// Status is the map lifecycle state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (status Status) String() string {
	switch status {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(status))
	}
}

// Dispatcher runs a function on the owner's event loop. It may be
// called from any goroutine and must not block.
type Dispatcher func(func())

// Listener receives the manager's outputs. Calls happen on the event
// loop.
type Listener interface {
	// MarkerClicked reports a click on the marker for pin.
	MarkerClicked(pin Pin)
	// MapStatusChanged reports a lifecycle transition.
	MapStatusChanged(status Status)
}

// Options configure a [Manager].
type Options struct {
	Engine    mapengine.Engine
	Style     mapengine.Style
	Container mapengine.Container

	Clock clock.Clock
	// Dispatch defaults to running functions inline, which is only
	// correct when every callback already arrives on the event loop
	// (tests with a fake clock and engine).
	Dispatch Dispatcher
	Listener Listener
	Logger   *slog.Logger

	// Resize, when set, is subscribed to once the map is ready and
	// detached on teardown.
	Resize *broadcast.Broadcaster[mapengine.Container]

	// GraceDelay defers construction after Mount. Zero selects
	// DefaultGraceDelay; a negative value constructs immediately.
	GraceDelay    time.Duration
	FlyToZoom     float64
	FlyToDuration time.Duration
}

// Manager owns at most one engine instance. See the package
// documentation for the lifecycle and threading model.
type Manager struct {
	engine        mapengine.Engine
	style         mapengine.Style
	container     mapengine.Container
	clock         clock.Clock
	dispatch      Dispatcher
	listener      Listener
	logger        *slog.Logger
	resize        *broadcast.Broadcaster[mapengine.Container]
	graceDelay    time.Duration
	flyToZoom     float64
	flyToDuration time.Duration

	status     Status
	err        error
	mounted    bool
	generation uint64
	graceTimer *clock.Timer
	instance   mapengine.Instance

	cancelResize func()

	pins     []Pin
	pinIndex map[string]Pin
	markers  map[string]mapengine.Marker
	handlers map[string]*markerHandler
	selected string
	hovered  string

	// pendingFlight is the latest FlyTo requested before ready.
	pendingFlight *catalog.Coordinate
}

// New returns an unmounted manager.
func New(options Options) *Manager {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Dispatch == nil {
		options.Dispatch = func(f func()) { f() }
	}
	if options.Listener == nil {
		options.Listener = nopListener{}
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.GraceDelay < 0 {
		options.GraceDelay = 0
	} else if options.GraceDelay == 0 {
		options.GraceDelay = DefaultGraceDelay
	}
	if options.FlyToZoom <= 0 {
		options.FlyToZoom = DefaultFlyToZoom
	}
	if options.FlyToDuration <= 0 {
		options.FlyToDuration = DefaultFlyToDuration
	}
	return &Manager{
		engine:        options.Engine,
		style:         options.Style,
		container:     options.Container,
		clock:         options.Clock,
		dispatch:      options.Dispatch,
		listener:      options.Listener,
		logger:        options.Logger,
		resize:        options.Resize,
		graceDelay:    options.GraceDelay,
		flyToZoom:     options.FlyToZoom,
		flyToDuration: options.FlyToDuration,
		pinIndex:      make(map[string]Pin),
		markers:       make(map[string]mapengine.Marker),
		handlers:      make(map[string]*markerHandler),
	}
}

// Status returns the lifecycle state.
func (manager *Manager) Status() Status { return manager.status }

// Err returns the fatal error behind [StatusError], or nil.
func (manager *Manager) Err() error { return manager.err }

// MarkerCount returns the number of live markers.
func (manager *Manager) MarkerCount() int { return len(manager.markers) }

// Selected returns the key of the selected marker, or "".
func (manager *Manager) Selected() string { return manager.selected }

// Hovered returns the key of the hovered marker, or "".
func (manager *Manager) Hovered() string { return manager.hovered }

// Mount schedules construction after the grace delay. No-op while
// already mounted or in the error state (use Retry).
func (manager *Manager) Mount() {
	if manager.mounted || manager.status == StatusError {
		return
	}
	manager.mounted = true
	manager.generation++
	manager.scheduleConstruct(manager.generation, manager.graceDelay)
}

func (manager *Manager) scheduleConstruct(generation uint64, delay time.Duration) {
	dispatch := manager.dispatch
	manager.graceTimer = manager.clock.AfterFunc(delay, func() {
		dispatch(func() { manager.construct(generation) })
	})
}

// construct runs on the event loop once the grace delay has elapsed.
func (manager *Manager) construct(generation uint64) {
	if generation != manager.generation || !manager.mounted || manager.instance != nil {
		return
	}
	manager.graceTimer = nil
	manager.setStatus(StatusLoading)
	if container, ok := manager.latestContainer(); ok {
		manager.container = container
	}

	instance, err := manager.engine.Construct(manager.container, manager.style)
	if err != nil {
		if errors.Is(err, mapengine.ErrUnsupportedContext) {
			manager.fail(err)
			return
		}
		delay := max(manager.graceDelay, minimumConstructRetry)
		manager.logger.Warn("map construction failed, retrying",
			"error", err,
			"delay", delay,
		)
		manager.scheduleConstruct(generation, delay)
		return
	}

	manager.instance = instance
	dispatch := manager.dispatch
	instance.On(mapengine.EventLoad, func(error) {
		dispatch(func() { manager.handleLoad(generation) })
	})
	instance.On(mapengine.EventError, func(err error) {
		dispatch(func() { manager.handleError(generation, err) })
	})
}

func (manager *Manager) handleLoad(generation uint64) {
	if generation != manager.generation || manager.status != StatusLoading {
		return
	}
	if manager.resize != nil && manager.cancelResize == nil {
		manager.cancelResize = manager.resize.Subscribe(manager.Resize)
	}
	manager.setStatus(StatusReady)
	if container, ok := manager.latestContainer(); ok && container != manager.container {
		manager.Resize(container)
	}
	manager.rebuild()
	if target := manager.pendingFlight; target != nil {
		manager.pendingFlight = nil
		manager.instance.FlyTo(*target, manager.flyToZoom, manager.flyToDuration)
	}
	manager.logger.Debug("map ready", "markers", len(manager.markers))
}

func (manager *Manager) handleError(generation uint64, err error) {
	if generation != manager.generation {
		return
	}
	if errors.Is(err, mapengine.ErrUnsupportedContext) {
		manager.fail(err)
		return
	}
	manager.logger.Warn("map engine error", "error", err, "status", manager.status.String())
}

func (manager *Manager) fail(err error) {
	manager.err = err
	manager.logger.Error("map unavailable", "error", err)
	manager.setStatus(StatusError)
}

func (manager *Manager) setStatus(status Status) {
	if manager.status == status {
		return
	}
	manager.status = status
	manager.listener.MapStatusChanged(status)
}

// Reconcile replaces the marker input set. When the map is ready the
// markers are rebuilt immediately; otherwise on reaching ready.
func (manager *Manager) Reconcile(pins []Pin) {
	manager.pins = append(manager.pins[:0:0], pins...)
	clear(manager.pinIndex)
	for _, pin := range manager.pins {
		manager.pinIndex[pin.Key] = pin
	}
	if manager.status == StatusReady {
		manager.rebuild()
	}
}

// rebuild removes every live marker, then adds one per pin. Failures
// on individual markers are logged and skipped.
func (manager *Manager) rebuild() {
	manager.removeMarkers()
	for _, pin := range manager.pins {
		if _, duplicate := manager.markers[pin.Key]; duplicate {
			manager.logger.Warn("duplicate marker key skipped", "key", pin.Key)
			continue
		}
		marker, err := manager.instance.AddMarker(pin.Position, manager.element(pin))
		if err != nil {
			manager.logger.Warn("adding marker failed", "key", pin.Key, "error", err)
			continue
		}
		manager.markers[pin.Key] = marker
	}
}

func (manager *Manager) removeMarkers() {
	for key, marker := range manager.markers {
		if err := marker.Remove(); err != nil {
			manager.logger.Warn("removing marker failed", "key", key, "error", err)
		}
	}
	clear(manager.markers)
}

func (manager *Manager) element(pin Pin) mapengine.MarkerElement {
	return mapengine.MarkerElement{
		Key:     pin.Key,
		Label:   pin.Label,
		State:   mapengine.ResolveMarkerState(pin.Key == manager.selected, pin.Key == manager.hovered),
		OnClick: manager.handler(pin.Key).click,
	}
}

// markerHandler is the click target for one pin key. It survives
// rebuilds and resolves the pin at click time.
type markerHandler struct {
	manager *Manager
	key     string
}

func (handler *markerHandler) click() {
	pin, exists := handler.manager.pinIndex[handler.key]
	if !exists || handler.manager.status != StatusReady {
		return
	}
	handler.manager.listener.MarkerClicked(pin)
}

func (manager *Manager) handler(key string) *markerHandler {
	handler, exists := manager.handlers[key]
	if !exists {
		handler = &markerHandler{manager: manager, key: key}
		manager.handlers[key] = handler
	}
	return handler
}

// SetSelected marks key as the selected marker ("" for none).
func (manager *Manager) SetSelected(key string) {
	previous := manager.selected
	manager.selected = key
	manager.restyle(previous, key)
}

// SetHovered marks key as the hovered marker ("" for none).
func (manager *Manager) SetHovered(key string) {
	previous := manager.hovered
	manager.hovered = key
	manager.restyle(previous, key)
}

func (manager *Manager) restyle(keys ...string) {
	if manager.status != StatusReady {
		return
	}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		marker, exists := manager.markers[key]
		pin, pinned := manager.pinIndex[key]
		if !exists || !pinned {
			continue
		}
		if err := marker.SetElement(manager.element(pin)); err != nil {
			manager.logger.Warn("restyling marker failed", "key", key, "error", err)
		}
	}
}

// FlyTo moves the camera to target at the configured zoom and
// duration. Before ready the latest target is kept and flown to on
// load. Returns whether the request was forwarded now.
func (manager *Manager) FlyTo(target catalog.Coordinate) bool {
	if manager.status != StatusReady {
		manager.pendingFlight = &target
		return false
	}
	manager.instance.FlyTo(target, manager.flyToZoom, manager.flyToDuration)
	return true
}

// Retry disposes the failed instance and mounts a fresh one. Only
// valid from [StatusError].
func (manager *Manager) Retry() {
	if manager.status != StatusError {
		return
	}
	manager.logger.Info("retrying map construction")
	manager.teardown()
	manager.setStatus(StatusUninitialized)
	manager.Mount()
}

// Unmount releases the instance, markers, pending timer and resize
// subscription. Idempotent.
func (manager *Manager) Unmount() {
	manager.teardown()
	manager.setStatus(StatusUninitialized)
}

func (manager *Manager) teardown() {
	manager.generation++
	manager.mounted = false
	manager.err = nil
	manager.pendingFlight = nil
	if manager.graceTimer != nil {
		manager.graceTimer.Stop()
		manager.graceTimer = nil
	}
	if manager.cancelResize != nil {
		manager.cancelResize()
		manager.cancelResize = nil
	}
	manager.removeMarkers()
	if manager.instance != nil {
		manager.instance.Dispose()
		manager.instance = nil
	}
}

// latestContainer is the last size published on the resize
// broadcaster, which the manager only follows while ready.
func (manager *Manager) latestContainer() (mapengine.Container, bool) {
	if manager.resize == nil {
		return mapengine.Container{}, false
	}
	return manager.resize.Last()
}

// Resize records the new container and forwards it to the engine when
// ready.
func (manager *Manager) Resize(container mapengine.Container) {
	manager.container = container
	if manager.status == StatusReady {
		manager.instance.Resize(container)
	}
}

// View renders the map when ready and the engine can draw as text.
func (manager *Manager) View(width, height int) string {
	if manager.status != StatusReady {
		return ""
	}
	renderer, ok := manager.instance.(mapengine.Renderer)
	if !ok {
		return ""
	}
	return renderer.View(width, height)
}

// Click forwards a pointer click to the engine's hit testing.
func (manager *Manager) Click(x, y int) bool {
	if manager.status != StatusReady {
		return false
	}
	tester, ok := manager.instance.(mapengine.HitTester)
	if !ok {
		return false
	}
	return tester.Click(x, y)
}

// Animating reports whether a camera transition is in progress.
func (manager *Manager) Animating() bool {
	if manager.status != StatusReady {
		return false
	}
	animator, ok := manager.instance.(mapengine.Animator)
	return ok && animator.Animating()
}

type nopListener struct{}

func (nopListener) MarkerClicked(Pin)       {}
func (nopListener) MapStatusChanged(Status) {}
