// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the pieces every archive command shares: the
// categorized [ToolError] with user-facing hints, [ExitError] for
// handled non-zero exits, and logger construction for both plain
// terminal commands and the full-screen browser.
package cli
