// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

// Stats are the archive-wide totals shown on the statistics panel.
type Stats struct {
	Events     int
	Sets       int
	Venues     int // Venues hosting at least one event.
	Performers int // Distinct normalized performer names.
}

func computeStats(events []EventRecord, venues []Venue, performers []string) Stats {
	stats := Stats{
		Events:     len(events),
		Performers: len(performers),
	}
	for _, event := range events {
		stats.Sets += event.Sets
	}
	for _, venue := range venues {
		if venue.EventCount() > 0 {
			stats.Venues++
		}
	}
	return stats
}
