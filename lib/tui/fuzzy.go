// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching one string. Score is zero
// when the pattern does not match. Positions are the rune offsets of
// the matched characters, ascending.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// Matched reports whether the pattern matched.
func (result FuzzyResult) Matched() bool {
	return result.Score > 0
}

// fzf's scoring tables are empty until a scheme is selected.
func init() {
	algo.Init("default")
}

// NewSlab returns scratch space for repeated FuzzyMatch calls. A slab
// is not safe for concurrent use.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyMatch scores text against pattern with fzf's V2 algorithm,
// ignoring case. An empty pattern matches everything with score 1 so
// that callers can filter unconditionally. slab may be nil.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{Score: 1}
	}
	// With case sensitivity off fzf lowercases the text but expects
	// the pattern lowercased already.
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	var matched []int
	if positions != nil {
		matched = slices.Clone(*positions)
		slices.Sort(matched)
	}
	return FuzzyResult{Score: result.Score, Positions: matched}
}

// HighlightMatches renders text with the runes at positions styled by
// highlight and the rest by base.
func HighlightMatches(text string, positions []int, base, highlight func(string) string) string {
	if len(positions) == 0 {
		return base(text)
	}
	var builder strings.Builder
	var run []rune
	runHighlighted := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if runHighlighted {
			builder.WriteString(highlight(string(run)))
		} else {
			builder.WriteString(base(string(run)))
		}
		run = run[:0]
	}
	next := 0
	for index, character := range []rune(text) {
		highlighted := next < len(positions) && positions[next] == index
		if highlighted {
			next++
		}
		if highlighted != runHighlighted {
			flush()
			runHighlighted = highlighted
		}
		run = append(run, character)
	}
	flush()
	return builder.String()
}
