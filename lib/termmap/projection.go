// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termmap

import (
	"math"

	"github.com/takeone-collective/archive/lib/catalog"
)

// Web Mercator with 256-pixel tiles. A terminal cell covers
// cellWidthPixels by cellHeightPixels world pixels; cells are about
// twice as tall as they are wide, so the vertical span is doubled to
// keep the map's aspect ratio.
const (
	tileSize         = 256
	cellWidthPixels  = 16
	cellHeightPixels = 32
	maxLatitude      = 85.05112878
)

// project returns the world pixel position of coordinate at zoom.
func project(coordinate catalog.Coordinate, zoom float64) (x, y float64) {
	scale := tileSize * math.Pow(2, zoom)
	latitude := math.Max(-maxLatitude, math.Min(maxLatitude, coordinate.Latitude))
	sine := math.Sin(latitude * math.Pi / 180)
	x = (coordinate.Longitude + 180) / 360 * scale
	y = (0.5 - math.Log((1+sine)/(1-sine))/(4*math.Pi)) * scale
	return x, y
}

// camera is the map viewpoint.
type camera struct {
	Center catalog.Coordinate
	Zoom   float64
}

// cellOf returns the view cell a coordinate falls in for a view of
// width by height cells centered on the camera.
func (view camera) cellOf(coordinate catalog.Coordinate, width, height int) (column, row int) {
	pointX, pointY := project(coordinate, view.Zoom)
	centerX, centerY := project(view.Center, view.Zoom)
	column = width/2 + int(math.Round((pointX-centerX)/cellWidthPixels))
	row = height/2 + int(math.Round((pointY-centerY)/cellHeightPixels))
	return column, row
}

// worldCell returns the absolute cell index of view cell (column,
// row), used to pin the graticule to the world rather than the view.
func (view camera) worldCell(column, row, width, height int) (int, int) {
	centerX, centerY := project(view.Center, view.Zoom)
	worldX := centerX + float64(column-width/2)*cellWidthPixels
	worldY := centerY + float64(row-height/2)*cellHeightPixels
	return int(math.Floor(worldX / cellWidthPixels)), int(math.Floor(worldY / cellHeightPixels))
}

// interpolate returns the camera at progress in [0, 1] along an
// ease-out cubic curve.
func interpolate(from, to camera, progress float64) camera {
	progress = math.Max(0, math.Min(1, progress))
	eased := 1 - math.Pow(1-progress, 3)
	return camera{
		Center: catalog.Coordinate{
			Latitude:  from.Center.Latitude + (to.Center.Latitude-from.Center.Latitude)*eased,
			Longitude: from.Center.Longitude + (to.Center.Longitude-from.Center.Longitude)*eased,
		},
		Zoom: from.Zoom + (to.Zoom-from.Zoom)*eased,
	}
}
