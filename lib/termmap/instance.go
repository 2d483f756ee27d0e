// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termmap

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/takeone-collective/archive/lib/catalog"
	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapengine"
)

// Graticule spacing in world cells.
const (
	graticuleColumns = 6
	graticuleRows    = 3
)

var errDisposed = errors.New("map instance disposed")

// Instance is one terminal map. Safe for concurrent use: the style
// goroutine and the UI share it.
type Instance struct {
	clock    clock.Clock
	logger   *slog.Logger
	renderer *lipgloss.Renderer
	cancel   context.CancelFunc

	mutex      sync.Mutex
	container  mapengine.Container
	camera     camera
	flight     *flight
	document   StyleDocument
	loaded     bool
	disposed   bool
	markers    []*marker
	callbacks  map[mapengine.EventKind][]func(error)
	viewWidth  int
	viewHeight int
}

// flight is a camera transition started at start.
type flight struct {
	from, to camera
	start    time.Time
	duration time.Duration
}

// On implements [mapengine.Instance]. A load callback registered after
// the instance has loaded runs immediately, so registration can never
// race the style goroutine.
func (instance *Instance) On(kind mapengine.EventKind, callback func(error)) {
	instance.mutex.Lock()
	if instance.disposed {
		instance.mutex.Unlock()
		return
	}
	instance.callbacks[kind] = append(instance.callbacks[kind], callback)
	replay := kind == mapengine.EventLoad && instance.loaded
	instance.mutex.Unlock()

	if replay {
		callback(nil)
	}
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

func (instance *Instance) load(document StyleDocument) {
	instance.mutex.Lock()
	if instance.disposed {
		instance.mutex.Unlock()
		return
	}
	instance.document = document
	instance.loaded = true
	instance.mutex.Unlock()

	instance.logger.Debug("map style loaded", "style", document.Name)
	instance.emit(mapengine.EventLoad, nil)
}

// Loaded reports whether the style has been resolved.
func (instance *Instance) Loaded() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.loaded
}

// StyleName returns the name of the resolved style.
func (instance *Instance) StyleName() string {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.document.Name
}

// FlyTo implements [mapengine.Instance]. The transition starts from
// wherever the camera is now, including mid-flight.
func (instance *Instance) FlyTo(target catalog.Coordinate, zoom float64, duration time.Duration) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	now := instance.clock.Now()
	from := instance.cameraAt(now)
	to := camera{Center: target, Zoom: zoom}
	if duration <= 0 {
		instance.camera = to
		instance.flight = nil
		return
	}
	instance.camera = from
	instance.flight = &flight{from: from, to: to, start: now, duration: duration}
}

// cameraAt returns the camera at now, settling a finished flight.
// Caller holds the mutex.
func (instance *Instance) cameraAt(now time.Time) camera {
	if instance.flight == nil {
		return instance.camera
	}
	elapsed := now.Sub(instance.flight.start)
	if elapsed >= instance.flight.duration {
		instance.camera = instance.flight.to
		instance.flight = nil
		return instance.camera
	}
	return interpolate(instance.flight.from, instance.flight.to, float64(elapsed)/float64(instance.flight.duration))
}

// Camera returns the current center and zoom.
func (instance *Instance) Camera() (catalog.Coordinate, float64) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	view := instance.cameraAt(instance.clock.Now())
	return view.Center, view.Zoom
}

// Animating implements [mapengine.Animator].
func (instance *Instance) Animating() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.cameraAt(instance.clock.Now())
	return instance.flight != nil
}

// AddMarker implements [mapengine.Instance].
func (instance *Instance) AddMarker(position catalog.Coordinate, element mapengine.MarkerElement) (mapengine.Marker, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	if instance.disposed {
		return nil, errDisposed
	}
	created := &marker{instance: instance, position: position, element: element}
	instance.markers = append(instance.markers, created)
	return created, nil
}

// Resize implements [mapengine.Instance].
func (instance *Instance) Resize(container mapengine.Container) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.container = container
}

// Dispose implements [mapengine.Instance]. Cancels a style fetch in
// progress; no callbacks fire afterwards.
func (instance *Instance) Dispose() {
	instance.cancel()
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.disposed = true
	instance.markers = nil
	instance.callbacks = nil
}

// size returns the view size to lay out against. Caller holds the
// mutex.
func (instance *Instance) size(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return instance.container.Width, instance.container.Height
	}
	return width, height
}

// View implements [mapengine.Renderer]. Returns exactly height lines
// of width cells.
func (instance *Instance) View(width, height int) string {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	width, height = instance.size(width, height)
	if width <= 0 || height <= 0 {
		return ""
	}
	instance.viewWidth, instance.viewHeight = width, height
	view := instance.cameraAt(instance.clock.Now())

	grid := newCanvas(width, height)
	if instance.document.GraticuleGlyph != "" {
		for row := range height {
			for column := range width {
				worldColumn, worldRow := view.worldCell(column, row, width, height)
				if worldColumn%graticuleColumns == 0 && worldRow%graticuleRows == 0 {
					grid.set(column, row, instance.document.GraticuleGlyph, layerGraticule)
				}
			}
		}
	}

	// Draw in state order so the selected marker is never hidden.
	ordered := slices.Clone(instance.markers)
	slices.SortStableFunc(ordered, func(a, b *marker) int {
		return int(a.element.State) - int(b.element.State)
	})
	for _, placed := range ordered {
		column, row := view.cellOf(placed.position, width, height)
		grid.set(column, row, instance.document.Marker(placed.element.State).Glyph, markerLayer(placed.element.State))
		if placed.element.State != mapengine.MarkerNormal {
			grid.write(column+2, row, placed.element.Label, layerLabel)
		}
	}

	return grid.render(instance.styles())
}

// Click implements [mapengine.HitTester]: the nearest marker within
// one cell of (x, y) in the last rendered view is activated.
func (instance *Instance) Click(x, y int) bool {
	instance.mutex.Lock()
	width, height := instance.viewWidth, instance.viewHeight
	if width == 0 || height == 0 {
		width, height = instance.container.Width, instance.container.Height
	}
	view := instance.cameraAt(instance.clock.Now())

	var hit *marker
	best := 3
	for _, placed := range instance.markers {
		column, row := view.cellOf(placed.position, width, height)
		if row != y || abs(column-x) > 1 {
			continue
		}
		if distance := abs(column - x); distance < best {
			hit, best = placed, distance
		}
	}
	var onClick func()
	if hit != nil {
		onClick = hit.element.OnClick
	}
	instance.mutex.Unlock()

	if hit == nil {
		return false
	}
	if onClick != nil {
		onClick()
	}
	return true
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}

// marker is a placed marker.
type marker struct {
	instance *Instance
	position catalog.Coordinate
	element  mapengine.MarkerElement
	removed  bool
}

// SetElement implements [mapengine.Marker].
func (placed *marker) SetElement(element mapengine.MarkerElement) error {
	placed.instance.mutex.Lock()
	defer placed.instance.mutex.Unlock()
	if placed.removed {
		return errors.New("marker already removed")
	}
	placed.element = element
	return nil
}

// Remove implements [mapengine.Marker].
func (placed *marker) Remove() error {
	placed.instance.mutex.Lock()
	defer placed.instance.mutex.Unlock()
	if placed.removed {
		return errors.New("marker already removed")
	}
	placed.removed = true
	placed.instance.markers = slices.DeleteFunc(placed.instance.markers, func(candidate *marker) bool {
		return candidate == placed
	})
	return nil
}

// Layers, lowest first. A cell keeps the highest layer written to it.
type layer int

const (
	layerEmpty layer = iota
	layerGraticule
	layerLabel
	layerMarkerNormal
	layerMarkerHovered
	layerMarkerSelected
)

func markerLayer(state mapengine.MarkerState) layer {
	switch state {
	case mapengine.MarkerSelected:
		return layerMarkerSelected
	case mapengine.MarkerHovered:
		return layerMarkerHovered
	default:
		return layerMarkerNormal
	}
}

type cell struct {
	glyph string
	layer layer
}

type canvas struct {
	width, height int
	cells         []cell
}

func newCanvas(width, height int) *canvas {
	return &canvas{width: width, height: height, cells: make([]cell, width*height)}
}

func (grid *canvas) set(column, row int, glyph string, level layer) {
	if column < 0 || column >= grid.width || row < 0 || row >= grid.height {
		return
	}
	target := &grid.cells[row*grid.width+column]
	if level >= target.layer {
		*target = cell{glyph: glyph, layer: level}
	}
}

// write places text starting at (column, row), one grapheme per
// cell, clipped to the canvas.
func (grid *canvas) write(column, row int, text string, level layer) {
	for _, character := range text {
		glyph := string(character)
		width := ansi.StringWidth(glyph)
		if width != 1 {
			continue
		}
		grid.set(column, row, glyph, level)
		column++
	}
}

// render joins rows, styling runs of cells on the same layer.
func (grid *canvas) render(styles map[layer]lipgloss.Style) string {
	lines := make([]string, grid.height)
	for row := range grid.height {
		var line strings.Builder
		runStart := 0
		for column := 1; column <= grid.width; column++ {
			if column < grid.width && grid.cells[row*grid.width+column].layer == grid.cells[row*grid.width+runStart].layer {
				continue
			}
			var run strings.Builder
			for _, current := range grid.cells[row*grid.width+runStart : row*grid.width+column] {
				if current.glyph == "" {
					run.WriteByte(' ')
				} else {
					run.WriteString(current.glyph)
				}
			}
			level := grid.cells[row*grid.width+runStart].layer
			if style, styled := styles[level]; styled {
				line.WriteString(style.Render(run.String()))
			} else {
				line.WriteString(run.String())
			}
			runStart = column
		}
		lines[row] = line.String()
	}
	return strings.Join(lines, "\n")
}

// styles builds the lipgloss styles for the resolved document.
// Caller holds the mutex.
func (instance *Instance) styles() map[layer]lipgloss.Style {
	document := instance.document
	styleFor := func(color string) lipgloss.Style {
		style := instance.renderer.NewStyle()
		if color != "" {
			style = style.Foreground(lipgloss.Color(color))
		}
		return style
	}
	return map[layer]lipgloss.Style{
		layerGraticule:      styleFor(document.Graticule),
		layerLabel:          styleFor(document.Label),
		layerMarkerNormal:   styleFor(document.Markers.Normal.Color),
		layerMarkerHovered:  styleFor(document.Markers.Hovered.Color).Bold(true),
		layerMarkerSelected: styleFor(document.Markers.Selected.Color).Bold(true),
	}
}

var (
	_ mapengine.Instance  = (*Instance)(nil)
	_ mapengine.Renderer  = (*Instance)(nil)
	_ mapengine.HitTester = (*Instance)(nil)
	_ mapengine.Animator  = (*Instance)(nil)
	_ mapengine.Marker    = (*marker)(nil)
)
