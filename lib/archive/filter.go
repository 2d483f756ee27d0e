// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/takeone-collective/archive/lib/catalog"
)

// Facet is one filterable dimension of the catalog.
type Facet int

const (
	FacetYear Facet = iota
	FacetMonth
	FacetPerformer
	FacetVenue
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetYear, FacetMonth, FacetPerformer, FacetVenue}

func (facet Facet) String() string {
	switch facet {
	case FacetYear:
		return "year"
	case FacetMonth:
		return "month"
	case FacetPerformer:
		return "performer"
	case FacetVenue:
		return "venue"
	default:
		return fmt.Sprintf("facet(%d)", int(facet))
	}
}

// ParseFacet resolves a facet name as printed by [Facet.String].
func ParseFacet(name string) (Facet, error) {
	for _, facet := range Facets {
		if strings.EqualFold(facet.String(), name) {
			return facet, nil
		}
	}
	return 0, fmt.Errorf("unknown facet %q", name)
}

// FilterState holds one optional exact value per facet. The empty
// string means unconstrained. The zero value matches every event.
type FilterState struct {
	Year      string
	Month     string
	Performer string
	Venue     string
}

// Value returns the constraint for facet, or "" when unconstrained.
func (filter FilterState) Value(facet Facet) string {
	switch facet {
	case FacetYear:
		return filter.Year
	case FacetMonth:
		return filter.Month
	case FacetPerformer:
		return filter.Performer
	case FacetVenue:
		return filter.Venue
	default:
		return ""
	}
}

// With returns a copy of the filter with facet constrained to value.
// An empty value removes the constraint.
func (filter FilterState) With(facet Facet, value string) FilterState {
	switch facet {
	case FacetYear:
		filter.Year = value
	case FacetMonth:
		filter.Month = value
	case FacetPerformer:
		filter.Performer = value
	case FacetVenue:
		filter.Venue = value
	}
	return filter
}

// Clear returns the unconstrained filter.
func (filter FilterState) Clear() FilterState {
	return FilterState{}
}

// IsZero reports whether no facet is constrained.
func (filter FilterState) IsZero() bool {
	return filter == FilterState{}
}

// Active returns the number of constrained facets.
func (filter FilterState) Active() int {
	count := 0
	for _, facet := range Facets {
		if filter.Value(facet) != "" {
			count++
		}
	}
	return count
}

// Matches reports whether event satisfies every constrained facet.
func (filter FilterState) Matches(event catalog.EventRecord) bool {
	if filter.Year != "" && strconv.Itoa(event.Year) != filter.Year {
		return false
	}
	if filter.Month != "" && event.Month != filter.Month {
		return false
	}
	if filter.Performer != "" && !event.HasPerformer(filter.Performer) {
		return false
	}
	if filter.Venue != "" && event.Venue != filter.Venue {
		return false
	}
	return true
}

// Apply returns the events that match, in their original order. The
// result is never nil, so an empty match is distinguishable from an
// unset slice in callers that care.
func (filter FilterState) Apply(events []catalog.EventRecord) []catalog.EventRecord {
	result := make([]catalog.EventRecord, 0, len(events))
	for _, event := range events {
		if filter.Matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// String renders the active constraints for the status bar
// ("year=2025 venue=Zoona"), or "all events".
func (filter FilterState) String() string {
	var parts []string
	for _, facet := range Facets {
		if value := filter.Value(facet); value != "" {
			parts = append(parts, facet.String()+"="+value)
		}
	}
	if len(parts) == 0 {
		return "all events"
	}
	return strings.Join(parts, " ")
}
