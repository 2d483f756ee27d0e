// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapview

import (
	"fmt"

	"github.com/takeone-collective/archive/lib/catalog"
)

// Pin is one marker's input: a key unique within a reconciliation,
// a label, and a position.
type Pin struct {
	Key      string
	Label    string
	Position catalog.Coordinate
}

// VenuePins returns one pin per venue that hosts at least one of
// events, keyed by venue name, in catalog venue order. The label
// carries the number of matching events at that venue.
func VenuePins(archive *catalog.Catalog, events []catalog.EventRecord) []Pin {
	counts := make(map[string]int)
	for _, event := range events {
		counts[event.Venue]++
	}
	var pins []Pin
	for _, venue := range archive.Venues() {
		count := counts[venue.Name]
		if count == 0 {
			continue
		}
		pins = append(pins, Pin{
			Key:      venue.Name,
			Label:    fmt.Sprintf("%s (%d)", venue.Name, count),
			Position: venue.Position,
		})
	}
	return pins
}
