// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archiveui

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/takeone-collective/archive/lib/tui"
)

//go:embed about.md
var aboutText string

// barWidth is the longest bar in the stats histograms.
const barWidth = 24

// statsLines renders the stats section: archive totals, then events
// per year and per venue.
func (model Model) statsLines() []string {
	archiveCatalog := model.browser.Catalog()
	stats := archiveCatalog.Stats()

	heading := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true)
	number := lipgloss.NewStyle().Foreground(model.theme.Accent).Bold(true)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	lines := []string{"", " " + heading.Render("Archive statistics"), ""}
	for _, total := range []struct {
		count int
		label string
	}{
		{stats.Events, "events"},
		{stats.Sets, "sets"},
		{stats.Venues, "venues"},
		{stats.Performers, "artists"},
	} {
		lines = append(lines, fmt.Sprintf("   %s  %s", number.Render(fmt.Sprintf("%4d", total.count)), total.label))
	}

	perYear := make(map[string]int)
	perVenue := make(map[string]int)
	for _, event := range archiveCatalog.Events() {
		perYear[strconv.Itoa(event.Year)]++
		perVenue[event.Venue]++
	}

	var years []string
	for _, year := range archiveCatalog.DistinctYears() {
		years = append(years, strconv.Itoa(year))
	}

	lines = append(lines, "", " "+heading.Render("Events per year"))
	lines = append(lines, model.histogram(years, perYear)...)
	lines = append(lines, "", " "+heading.Render("Events per venue"))
	lines = append(lines, model.histogram(archiveCatalog.DistinctVenues(), perVenue)...)
	lines = append(lines, "", faint.Render(" catalog "+shortDigest(archiveCatalog.Digest())))
	return lines
}

// histogram draws one bar per label, scaled to the largest count.
func (model Model) histogram(labels []string, counts map[string]int) []string {
	labelWidth, largest := 0, 0
	for _, label := range labels {
		labelWidth = max(labelWidth, lipgloss.Width(label))
		largest = max(largest, counts[label])
	}
	bar := lipgloss.NewStyle().Foreground(model.theme.Accent)

	lines := make([]string, 0, len(labels))
	for _, label := range labels {
		count := counts[label]
		length := 0
		if largest > 0 {
			length = max(1, count*barWidth/largest)
		}
		padding := strings.Repeat(" ", labelWidth-lipgloss.Width(label))
		lines = append(lines, fmt.Sprintf("   %s%s  %s %d", label, padding, bar.Render(strings.Repeat("█", length)), count))
	}
	return lines
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// aboutLines renders the about section from its markdown source.
func (model Model) aboutLines() []string {
	width := max(20, min(model.width-4, 80))
	rendered := tui.RenderMarkdown(aboutText, model.theme, width, model.profile)
	lines := []string{""}
	for line := range strings.SplitSeq(rendered, "\n") {
		lines = append(lines, "  "+line)
	}
	return lines
}
