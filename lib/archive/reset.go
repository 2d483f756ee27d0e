// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"log/slog"

	"github.com/takeone-collective/archive/lib/broadcast"
)

// DefaultArchiveSection is the section name under which the archive
// browser is considered in view.
const DefaultArchiveSection = "archive"

// Resetter clears ephemeral browsing state. [Browser] implements it.
type Resetter interface {
	ResetView()
}

// Signals are the external inputs a [ResetCoordinator] listens to.
// Either may be nil.
type Signals struct {
	// Sections carries the name of the currently active section.
	Sections *broadcast.Broadcaster[string]
	// Visibility reports whether the enclosing surface is visible
	// at all (terminal focus, for example).
	Visibility *broadcast.Broadcaster[bool]
}

// ResetCoordinator turns "the archive left view" into one ResetView
// call per exit. The archive is in view while the active section is
// the archive section and the surface is visible. Resetting never
// tears down the map engine; it only clears selection-level state.
//
// All methods, and the broadcasters it is attached to, must be
// driven from the owner's event loop.
type ResetCoordinator struct {
	archiveSection string
	resetter       Resetter
	logger         *slog.Logger

	section string
	visible bool
	cancels []func()
}

// NewResetCoordinator returns a coordinator that starts in view.
func NewResetCoordinator(archiveSection string, resetter Resetter, logger *slog.Logger) *ResetCoordinator {
	if archiveSection == "" {
		archiveSection = DefaultArchiveSection
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResetCoordinator{
		archiveSection: archiveSection,
		resetter:       resetter,
		logger:         logger,
		section:        archiveSection,
		visible:        true,
	}
}

// InView reports whether the archive is currently in view.
func (coordinator *ResetCoordinator) InView() bool {
	return coordinator.visible && coordinator.section == coordinator.archiveSection
}

// Section records the active section name.
func (coordinator *ResetCoordinator) Section(name string) {
	coordinator.transition(func() { coordinator.section = name })
}

// Visibility records whether the surface is visible.
func (coordinator *ResetCoordinator) Visibility(visible bool) {
	coordinator.transition(func() { coordinator.visible = visible })
}

func (coordinator *ResetCoordinator) transition(apply func()) {
	wasInView := coordinator.InView()
	apply()
	if wasInView && !coordinator.InView() {
		coordinator.logger.Debug("archive left view, resetting",
			"section", coordinator.section,
			"visible", coordinator.visible,
		)
		coordinator.resetter.ResetView()
	}
}

// Attach subscribes to signals. Subscriptions accumulate until Close.
func (coordinator *ResetCoordinator) Attach(signals Signals) {
	if signals.Sections != nil {
		coordinator.cancels = append(coordinator.cancels, signals.Sections.Subscribe(coordinator.Section))
	}
	if signals.Visibility != nil {
		coordinator.cancels = append(coordinator.cancels, signals.Visibility.Subscribe(coordinator.Visibility))
	}
}

// Close detaches every subscription. Idempotent.
func (coordinator *ResetCoordinator) Close() {
	for _, cancel := range coordinator.cancels {
		cancel()
	}
	coordinator.cancels = nil
}
