// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the archive's CBOR configuration.
//
// Catalog source files are human-edited JSONC or YAML. The compiled
// catalog snapshot written by "archive-browser --export-snapshot" is
// CBOR, encoded with Core Deterministic Encoding (RFC 8949 §4.2) so
// the same catalog always produces the same bytes and therefore the
// same snapshot digest.
//
// Types that appear in both the JSONC catalog and the snapshot carry
// only `json` tags; fxamacker/cbor falls back to them when no `cbor`
// tag is present, so one tag controls field naming in both formats.
package codec
