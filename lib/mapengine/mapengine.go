// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapengine defines the capability interface between the
// archive browser and whatever draws the map. The browser never
// depends on a concrete engine: [lib/termmap] is the terminal
// implementation and [lib/mapengine/mapenginetest] a recording fake.
//
// Engines resolve styles asynchronously and report back through
// [Instance.On]. Callbacks may arrive on any goroutine; consumers
// marshal them onto their own event loop.
package mapengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/takeone-collective/archive/lib/catalog"
)

// ErrUnsupportedContext reports that the host cannot render a map at
// all. It is the only fatal engine error: everything else (style
// fetch failures, marker manipulation errors) is recoverable.
var ErrUnsupportedContext = errors.New("unsupported rendering context")

// Container is the area the map is drawn into, in cells.
type Container struct {
	Width  int
	Height int
}

// Style describes where an engine finds its map style.
type Style struct {
	// URL is a style document location: empty for the engine's
	// built-in style, a file path or file:// URL, or http(s)://.
	URL string
	// APIKey, when set, is appended to remote style requests as the
	// api_key query parameter.
	APIKey string
	// Center and Zoom are the initial camera.
	Center catalog.Coordinate
	Zoom   float64
}

// EventKind names an instance lifecycle event.
type EventKind int

const (
	// EventLoad fires once the style is resolved and the instance can
	// take markers. The callback's error is nil.
	EventLoad EventKind = iota
	// EventError fires for every engine error. Errors wrapping
	// ErrUnsupportedContext are fatal; the rest are informational.
	EventError
)

func (kind EventKind) String() string {
	switch kind {
	case EventLoad:
		return "load"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(kind))
	}
}

// Engine constructs map instances.
type Engine interface {
	// Construct creates an instance bound to container. An error
	// wrapping ErrUnsupportedContext means no instance can ever be
	// created in this environment.
	Construct(container Container, style Style) (Instance, error)
}

// Instance is one live map.
type Instance interface {
	// On registers callback for kind. A load callback registered after
	// the instance has loaded runs immediately; error callbacks are
	// never replayed.
	On(kind EventKind, callback func(error))
	// FlyTo animates the camera to target. A new call pre-empts any
	// transition in progress.
	FlyTo(target catalog.Coordinate, zoom float64, duration time.Duration)
	// AddMarker places a marker at position.
	AddMarker(position catalog.Coordinate, element MarkerElement) (Marker, error)
	// Resize tells the instance its container changed.
	Resize(container Container)
	// Dispose releases the instance. No callbacks fire afterwards.
	Dispose()
}

// Marker is a live marker handle.
type Marker interface {
	// SetElement replaces the marker's presentation in place.
	SetElement(element MarkerElement) error
	// Remove takes the marker off the map.
	Remove() error
}

// MarkerState is a marker's visual state. Exactly one applies.
type MarkerState int

const (
	MarkerNormal MarkerState = iota
	MarkerHovered
	MarkerSelected
)

func (state MarkerState) String() string {
	switch state {
	case MarkerNormal:
		return "normal"
	case MarkerHovered:
		return "hovered"
	case MarkerSelected:
		return "selected"
	default:
		return fmt.Sprintf("marker(%d)", int(state))
	}
}

// ResolveMarkerState picks the visual state for a marker; selection
// wins over hover.
func ResolveMarkerState(selected, hovered bool) MarkerState {
	switch {
	case selected:
		return MarkerSelected
	case hovered:
		return MarkerHovered
	default:
		return MarkerNormal
	}
}

// MarkerElement is a marker's presentation and behavior.
type MarkerElement struct {
	Key   string
	Label string
	State MarkerState
	// OnClick runs when the marker is activated. Engines call it on
	// the goroutine that delivered the click.
	OnClick func()
}

// Renderer is implemented by instances that can draw themselves as
// text.
type Renderer interface {
	View(width, height int) string
}

// HitTester is implemented by instances that map a pointer position
// (relative to the view) to a marker and activate it. Returns whether
// a marker was hit.
type HitTester interface {
	Click(x, y int) bool
}

// Animator is implemented by instances whose camera moves over time.
type Animator interface {
	Animating() bool
}
