// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive is the coordination layer of the archive browser:
// the state shared by the carousel, the map and the detail modal.
//
// Data flows one way:
//
//	catalog -> FilterState.Apply -> filtered events -> {ViewState, map markers}
//
// and user input flows back through [Browser] methods, which mutate
// state synchronously and notify observers. The pieces are usable on
// their own:
//
//   - [FilterState] is a pure conjunction of four optional facets.
//   - [ViewState] is the carousel index and layout mode.
//   - [Scheduler] runs the single auto-advance timer.
//   - [Modal] is the detail and gallery state machine.
//   - [ResetCoordinator] resets the browser when the archive section
//     leaves view.
//
// [Browser] composes them with a [mapview.Manager]. Nothing in this
// package blocks; timers and map callbacks re-enter the owner's event
// loop through a dispatcher and are validated by generation so that a
// superseded timer or disposed map instance can never act.
package archive
