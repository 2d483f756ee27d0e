// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archiveui is the bubbletea front end of the archive
// browser. It renders an [archive.Browser] as three sections
// (archive, stats, about) and translates terminal input into browser
// operations.
//
// The browser is owned by the bubbletea event loop. Timer ticks and
// map engine callbacks arrive from other goroutines and re-enter the
// loop through a [Dispatcher], which wraps each callback in a message
// so that every state change happens inside Update.
//
// The archive section is laid out top to bottom as a section bar, the
// year navigator, the filter bar, the content panes (events on the
// left, the map and venue panel on the right), and a status bar. The
// event modal and full-screen media are overlays spliced on top.
package archiveui
