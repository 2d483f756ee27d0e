// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapenginetest provides a recording [mapengine.Engine] for
// tests. Instances never load on their own: tests drive lifecycle
// events explicitly with [Instance.Load] and [Instance.Fail], and
// inspect every call the code under test made.
package mapenginetest

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/mapengine"
)

// Engine records every construction.
type Engine struct {
	mutex        sync.Mutex
	constructErr error
	instances    []*Instance
}

// New returns an engine whose constructions succeed.
func New() *Engine {
	return &Engine{}
}

// SetConstructError makes every following Construct fail with err
// until cleared with nil.
func (engine *Engine) SetConstructError(err error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.constructErr = err
}

// Construct implements [mapengine.Engine].
func (engine *Engine) Construct(container mapengine.Container, style mapengine.Style) (mapengine.Instance, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if engine.constructErr != nil {
		return nil, engine.constructErr
	}
	instance := &Instance{
		container: container,
		style:     style,
		callbacks: make(map[mapengine.EventKind][]func(error)),
	}
	engine.instances = append(engine.instances, instance)
	return instance, nil
}

// Instances returns every successfully constructed instance, oldest
// first.
func (engine *Engine) Instances() []*Instance {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return append([]*Instance(nil), engine.instances...)
}

// Last returns the most recent instance, or nil.
func (engine *Engine) Last() *Instance {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if len(engine.instances) == 0 {
		return nil
	}
	return engine.instances[len(engine.instances)-1]
}

// FlyToCall is one recorded FlyTo.
type FlyToCall struct {
	Target   catalog.Coordinate
	Zoom     float64
	Duration time.Duration
}

// Instance records calls made against it.
type Instance struct {
	mutex     sync.Mutex
	container mapengine.Container
	style     mapengine.Style
	callbacks map[mapengine.EventKind][]func(error)
	markers   []*Marker
	added     int
	flyTos    []FlyToCall
	resizes   []mapengine.Container
	disposed  bool
	failAdd   func(mapengine.MarkerElement) error
}

// On implements [mapengine.Instance].
func (instance *Instance) On(kind mapengine.EventKind, callback func(error)) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.callbacks[kind] = append(instance.callbacks[kind], callback)
}

// Load fires the load callbacks, unless the instance is disposed.
func (instance *Instance) Load() {
	instance.emit(mapengine.EventLoad, nil)
}

// Fail fires the error callbacks with err, unless the instance is
// disposed.
func (instance *Instance) Fail(err error) {
	instance.emit(mapengine.EventError, err)
}

func (instance *Instance) emit(kind mapengine.EventKind, err error) {
	instance.mutex.Lock()
	if instance.disposed {
		instance.mutex.Unlock()
		return
	}
	callbacks := slices.Clone(instance.callbacks[kind])
	instance.mutex.Unlock()
	for _, callback := range callbacks {
		callback(err)
	}
}

// FlyTo implements [mapengine.Instance].
func (instance *Instance) FlyTo(target catalog.Coordinate, zoom float64, duration time.Duration) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.flyTos = append(instance.flyTos, FlyToCall{Target: target, Zoom: zoom, Duration: duration})
}

// FailMarkers makes AddMarker return the error fail returns for an
// element. Pass nil to stop failing.
func (instance *Instance) FailMarkers(fail func(mapengine.MarkerElement) error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.failAdd = fail
}

// AddMarker implements [mapengine.Instance].
func (instance *Instance) AddMarker(position catalog.Coordinate, element mapengine.MarkerElement) (mapengine.Marker, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	if instance.disposed {
		return nil, fmt.Errorf("add marker %q: instance disposed", element.Key)
	}
	if instance.failAdd != nil {
		if err := instance.failAdd(element); err != nil {
			return nil, err
		}
	}
	marker := &Marker{instance: instance, position: position, element: element}
	instance.markers = append(instance.markers, marker)
	instance.added++
	return marker, nil
}

// Resize implements [mapengine.Instance].
func (instance *Instance) Resize(container mapengine.Container) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.container = container
	instance.resizes = append(instance.resizes, container)
}

// Dispose implements [mapengine.Instance].
func (instance *Instance) Dispose() {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.disposed = true
}

// View implements [mapengine.Renderer]: one line per live marker.
func (instance *Instance) View(width, height int) string {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	lines := make([]string, 0, len(instance.markers))
	for _, marker := range instance.markers {
		lines = append(lines, fmt.Sprintf("%s [%s]", marker.element.Label, marker.element.State))
	}
	return strings.Join(lines, "\n")
}

// Click implements [mapengine.HitTester]: row y of View is the hit
// marker.
func (instance *Instance) Click(x, y int) bool {
	instance.mutex.Lock()
	if y < 0 || y >= len(instance.markers) {
		instance.mutex.Unlock()
		return false
	}
	onClick := instance.markers[y].element.OnClick
	instance.mutex.Unlock()
	if onClick != nil {
		onClick()
	}
	return true
}

// ClickMarker activates the live marker with key.
func (instance *Instance) ClickMarker(key string) bool {
	marker := instance.Marker(key)
	if marker == nil {
		return false
	}
	onClick := marker.Element().OnClick
	if onClick != nil {
		onClick()
	}
	return true
}

// Style returns the style the instance was constructed with.
func (instance *Instance) Style() mapengine.Style {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.style
}

// Container returns the latest container size.
func (instance *Instance) Container() mapengine.Container {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.container
}

// FlyTos returns every recorded FlyTo.
func (instance *Instance) FlyTos() []FlyToCall {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return append([]FlyToCall(nil), instance.flyTos...)
}

// Resizes returns every recorded Resize.
func (instance *Instance) Resizes() []mapengine.Container {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return append([]mapengine.Container(nil), instance.resizes...)
}

// Disposed reports whether Dispose was called.
func (instance *Instance) Disposed() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.disposed
}

// Markers returns the live markers in insertion order.
func (instance *Instance) Markers() []*Marker {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return append([]*Marker(nil), instance.markers...)
}

// MarkerCount returns the number of live markers.
func (instance *Instance) MarkerCount() int {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return len(instance.markers)
}

// MarkersAdded returns the total number of successful AddMarker
// calls over the instance's life.
func (instance *Instance) MarkersAdded() int {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.added
}

// Marker returns the live marker with key, or nil.
func (instance *Instance) Marker(key string) *Marker {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	for _, marker := range instance.markers {
		if marker.element.Key == key {
			return marker
		}
	}
	return nil
}

// Marker is a recorded marker.
type Marker struct {
	instance *Instance
	position catalog.Coordinate
	element  mapengine.MarkerElement
	updates  int
}

// SetElement implements [mapengine.Marker].
func (marker *Marker) SetElement(element mapengine.MarkerElement) error {
	marker.instance.mutex.Lock()
	defer marker.instance.mutex.Unlock()
	marker.element = element
	marker.updates++
	return nil
}

// Remove implements [mapengine.Marker].
func (marker *Marker) Remove() error {
	marker.instance.mutex.Lock()
	defer marker.instance.mutex.Unlock()
	for index, live := range marker.instance.markers {
		if live == marker {
			marker.instance.markers = append(marker.instance.markers[:index], marker.instance.markers[index+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove marker %q: not on the map", marker.element.Key)
}

// Element returns the marker's current element.
func (marker *Marker) Element() mapengine.MarkerElement {
	marker.instance.mutex.Lock()
	defer marker.instance.mutex.Unlock()
	return marker.element
}

// Position returns where the marker was placed.
func (marker *Marker) Position() catalog.Coordinate {
	return marker.position
}

// Updates returns how many times SetElement was called.
func (marker *Marker) Updates() int {
	marker.instance.mutex.Lock()
	defer marker.instance.mutex.Unlock()
	return marker.updates
}

var (
	_ mapengine.Engine    = (*Engine)(nil)
	_ mapengine.Instance  = (*Instance)(nil)
	_ mapengine.Renderer  = (*Instance)(nil)
	_ mapengine.HitTester = (*Instance)(nil)
	_ mapengine.Marker    = (*Marker)(nil)
)
