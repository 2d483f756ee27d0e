// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import "strings"

// NormalizePerformers flattens performer tags into one name per
// entry. Source data mixes proper lists with single comma-packed
// strings ("Young XTO, Loned, Alan La Rocc"), so every entry is split
// on commas, trimmed, and dropped if empty. First-seen order is kept
// and exact duplicates are removed.
func NormalizePerformers(raw []string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			name := strings.TrimSpace(part)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}
