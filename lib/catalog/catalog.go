// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Validation failures returned by New, wrapped with the offending
// identifier.
var (
	ErrDuplicateEvent = errors.New("duplicate event id")
	ErrDuplicateVenue = errors.New("duplicate venue name")
	ErrUnknownVenue   = errors.New("event references unknown venue")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (coordinate Coordinate) Valid() bool {
	return coordinate.Latitude >= -90 && coordinate.Latitude <= 90 &&
		coordinate.Longitude >= -180 && coordinate.Longitude <= 180
}

// EventRecord is one past event.
type EventRecord struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Month is the English month name ("April"). Year and Date are
	// kept separately because the display date is free text.
	Month string `json:"month" yaml:"month"`
	Year  int    `json:"year" yaml:"year"`
	Date  string `json:"date" yaml:"date"`

	// Sets is the number of DJ sets played, used for statistics.
	Sets int `json:"sets,omitempty" yaml:"sets,omitempty"`

	// Poster is an image or video URI. Gallery is ordered.
	Poster  string   `json:"poster" yaml:"poster"`
	Gallery []string `json:"gallery,omitempty" yaml:"gallery,omitempty"`

	// Venue is the name of the hosting venue. VenueAddress is copied
	// from the venue record during construction.
	Venue        string `json:"venue" yaml:"venue"`
	VenueAddress string `json:"venue_address,omitempty" yaml:"venue_address,omitempty"`

	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Performers  []string `json:"performers,omitempty" yaml:"performers,omitempty"`
	Genres      []string `json:"genres,omitempty" yaml:"genres,omitempty"`
}

// clone returns a copy that shares no slices with the receiver.
func (event EventRecord) clone() EventRecord {
	event.Gallery = slices.Clone(event.Gallery)
	event.Performers = slices.Clone(event.Performers)
	event.Genres = slices.Clone(event.Genres)
	return event
}

// HasPerformer reports whether name is one of the event's normalized
// performers. Comparison is exact.
func (event EventRecord) HasPerformer(name string) bool {
	return slices.Contains(event.Performers, name)
}

// Venue is a location that hosted at least zero events.
type Venue struct {
	Name     string     `json:"name" yaml:"name"`
	Address  string     `json:"address" yaml:"address"`
	Position Coordinate `json:"position" yaml:"position"`

	// EventIDs lists the hosted events in catalog order. Derived by
	// New; any value present in the source document is ignored.
	EventIDs []string `json:"-" yaml:"-"`
}

// EventCount is the number of events hosted at the venue.
func (venue Venue) EventCount() int {
	return len(venue.EventIDs)
}

func (venue Venue) clone() Venue {
	venue.EventIDs = slices.Clone(venue.EventIDs)
	return venue
}

// Catalog is the immutable event and venue collection.
type Catalog struct {
	events     []EventRecord
	venues     []Venue
	eventIndex map[string]int
	venueIndex map[string]int
	years      []int
	months     []string
	performers []string
	venueNames []string
	stats      Stats
	digest     string
}

// New validates the records and builds a Catalog. Events keep the
// given order, which is the order every filtered view preserves.
func New(events []EventRecord, venues []Venue) (*Catalog, error) {
	catalog := &Catalog{
		eventIndex: make(map[string]int, len(events)),
		venueIndex: make(map[string]int, len(venues)),
	}

	for _, venue := range venues {
		if venue.Name == "" {
			return nil, fmt.Errorf("%w: venue with empty name", ErrInvalidRecord)
		}
		if _, exists := catalog.venueIndex[venue.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateVenue, venue.Name)
		}
		if !venue.Position.Valid() {
			return nil, fmt.Errorf("%w: venue %q has position %v outside WGS84 bounds",
				ErrInvalidRecord, venue.Name, venue.Position)
		}
		venue = venue.clone()
		venue.EventIDs = nil
		catalog.venueIndex[venue.Name] = len(catalog.venues)
		catalog.venues = append(catalog.venues, venue)
	}

	for _, event := range events {
		if event.ID == "" {
			return nil, fmt.Errorf("%w: event %q has empty id", ErrInvalidRecord, event.Title)
		}
		if _, exists := catalog.eventIndex[event.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEvent, event.ID)
		}
		month, ok := monthNumber(event.Month)
		if !ok {
			return nil, fmt.Errorf("%w: event %q has unknown month %q", ErrInvalidRecord, event.ID, event.Month)
		}
		if event.Year <= 0 {
			return nil, fmt.Errorf("%w: event %q has year %d", ErrInvalidRecord, event.ID, event.Year)
		}
		venueOffset, exists := catalog.venueIndex[event.Venue]
		if !exists {
			return nil, fmt.Errorf("%w: event %q venue %q", ErrUnknownVenue, event.ID, event.Venue)
		}

		event = event.clone()
		event.Month = month.String()
		event.Performers = NormalizePerformers(event.Performers)
		event.VenueAddress = catalog.venues[venueOffset].Address

		catalog.eventIndex[event.ID] = len(catalog.events)
		catalog.events = append(catalog.events, event)
		catalog.venues[venueOffset].EventIDs = append(catalog.venues[venueOffset].EventIDs, event.ID)
	}

	catalog.deriveFacets()
	catalog.stats = computeStats(catalog.events, catalog.venues, catalog.performers)
	digest, err := documentDigest(catalog.Document())
	if err != nil {
		return nil, fmt.Errorf("computing catalog digest: %w", err)
	}
	catalog.digest = digest

	return catalog, nil
}

// deriveFacets computes the distinct facet values from every event.
func (catalog *Catalog) deriveFacets() {
	seenYears := make(map[int]bool)
	seenMonths := make(map[time.Month]bool)
	seenPerformers := make(map[string]bool)

	for _, event := range catalog.events {
		if !seenYears[event.Year] {
			seenYears[event.Year] = true
			catalog.years = append(catalog.years, event.Year)
		}
		month, _ := monthNumber(event.Month)
		seenMonths[month] = true
		for _, performer := range event.Performers {
			if !seenPerformers[performer] {
				seenPerformers[performer] = true
				catalog.performers = append(catalog.performers, performer)
			}
		}
	}

	slices.SortFunc(catalog.years, func(a, b int) int { return b - a })

	for month := time.January; month <= time.December; month++ {
		if seenMonths[month] {
			catalog.months = append(catalog.months, month.String())
		}
	}

	slices.SortStableFunc(catalog.performers, func(a, b string) int {
		if order := strings.Compare(strings.ToLower(a), strings.ToLower(b)); order != 0 {
			return order
		}
		return strings.Compare(a, b)
	})

	for _, venue := range catalog.venues {
		catalog.venueNames = append(catalog.venueNames, venue.Name)
	}
}

// Events returns every event in catalog order.
func (catalog *Catalog) Events() []EventRecord {
	result := make([]EventRecord, len(catalog.events))
	for index, event := range catalog.events {
		result[index] = event.clone()
	}
	return result
}

// Venues returns every venue in catalog order.
func (catalog *Catalog) Venues() []Venue {
	result := make([]Venue, len(catalog.venues))
	for index, venue := range catalog.venues {
		result[index] = venue.clone()
	}
	return result
}

// Len is the number of events.
func (catalog *Catalog) Len() int {
	return len(catalog.events)
}

// Event looks up an event by id.
func (catalog *Catalog) Event(id string) (EventRecord, bool) {
	offset, exists := catalog.eventIndex[id]
	if !exists {
		return EventRecord{}, false
	}
	return catalog.events[offset].clone(), true
}

// Venue looks up a venue by name.
func (catalog *Catalog) Venue(name string) (Venue, bool) {
	offset, exists := catalog.venueIndex[name]
	if !exists {
		return Venue{}, false
	}
	return catalog.venues[offset].clone(), true
}

// VenueOf returns the venue hosting the event. Always succeeds for
// events obtained from this catalog.
func (catalog *Catalog) VenueOf(event EventRecord) (Venue, bool) {
	return catalog.Venue(event.Venue)
}

// EventsAt returns the events hosted at the named venue, in catalog
// order.
func (catalog *Catalog) EventsAt(venueName string) []EventRecord {
	offset, exists := catalog.venueIndex[venueName]
	if !exists {
		return nil
	}
	var result []EventRecord
	for _, id := range catalog.venues[offset].EventIDs {
		result = append(result, catalog.events[catalog.eventIndex[id]].clone())
	}
	return result
}

// DistinctYears returns the years with at least one event, newest
// first.
func (catalog *Catalog) DistinctYears() []int {
	return slices.Clone(catalog.years)
}

// DistinctMonths returns the month names with at least one event, in
// calendar order.
func (catalog *Catalog) DistinctMonths() []string {
	return slices.Clone(catalog.months)
}

// DistinctPerformers returns every normalized performer name, sorted
// case-insensitively.
func (catalog *Catalog) DistinctPerformers() []string {
	return slices.Clone(catalog.performers)
}

// DistinctVenues returns venue names in catalog order.
func (catalog *Catalog) DistinctVenues() []string {
	return slices.Clone(catalog.venueNames)
}

// Stats returns the archive totals.
func (catalog *Catalog) Stats() Stats {
	return catalog.stats
}

// Digest is the hex BLAKE3 digest of the catalog's deterministic
// CBOR encoding. Equal catalogs have equal digests.
func (catalog *Catalog) Digest() string {
	return catalog.digest
}

// Document returns the catalog in its serializable form.
func (catalog *Catalog) Document() Document {
	return Document{Events: catalog.Events(), Venues: catalog.Venues()}
}

// monthNumber resolves an English month name, case-insensitively.
func monthNumber(name string) (time.Month, bool) {
	for month := time.January; month <= time.December; month++ {
		if strings.EqualFold(month.String(), name) {
			return month, true
		}
	}
	return 0, false
}

// IsVideo reports whether a media URI refers to a video by its
// extension.
func IsVideo(uri string) bool {
	lower := strings.ToLower(uri)
	if cut := strings.IndexAny(lower, "?#"); cut >= 0 {
		lower = lower[:cut]
	}
	for _, extension := range []string{".mp4", ".webm", ".mov"} {
		if strings.HasSuffix(lower, extension) {
			return true
		}
	}
	return false
}
