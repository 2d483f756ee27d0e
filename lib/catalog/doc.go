// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog is the read-only source of truth for the archive:
// past events and the venues that hosted them.
//
// A Catalog is built once from a [Document] (parsed from JSONC, YAML,
// or a compiled snapshot) and never mutated afterwards. Construction
// validates the document, normalizes performer tags, derives each
// venue's back-reference to its events, and precomputes the facet
// values (years, months, performers, venues) that the filter controls
// offer. Facets are derived from the whole catalog, never from a
// filtered subset, so narrowing one facet never hides options in
// another.
//
// Data flow:
//
//	[catalog.jsonc | catalog.yaml | snapshot.arcs]
//	        | Load / DecodeSnapshot
//	    [Document] -> New -> [Catalog]
//	        |
//	  [archive.Browser]
package catalog
