// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal building blocks the archive
// browser composes its screens from: the color theme, fuzzy-filtered
// dropdown menus, ANSI-aware overlay splicing for modals and menus,
// scrollbars, and a markdown renderer for event descriptions.
//
// Nothing here knows about events or venues. Components take plain
// strings and a [Theme] and return rendered lines, leaving layout and
// input routing to the bubbletea model that owns them.
package tui
