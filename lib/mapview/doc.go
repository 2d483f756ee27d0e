// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapview owns the map engine instance for the archive
// browser and keeps its markers in step with the filtered catalog.
//
// The [Manager] is an explicit lifecycle object:
//
//	uninitialized --Mount+grace--> loading --load--> ready
//	                                  |
//	                                  +--unsupported context--> error --Retry--> uninitialized
//
// Construction is deferred by a short grace delay so the terminal has
// reported its size, and style resolution happens inside the engine
// off the update path. Engine callbacks arrive on arbitrary
// goroutines; the manager hands them to a [Dispatcher] that runs them
// on the owner's event loop, and every method must be called from
// that loop. A generation counter, bumped on every mount and
// teardown, discards callbacks from instances that no longer exist.
//
// Markers are rebuilt in full on every input change and on reaching
// ready. Rebuild is the only path that adds or removes markers; hover
// and selection restyle existing markers in place. Click handlers are
// stable per pin key and look up the current pin when invoked, so a
// handler created for an earlier input set never acts on stale data.
package mapview
