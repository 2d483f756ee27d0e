// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func parser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// RenderMarkdown renders markdown as styled terminal text wrapped to
// width. Soft line breaks reflow; paragraphs are separated by one
// blank line. Fenced code is highlighted with chroma. profile picks
// the color depth; termenv.Ascii yields plain text.
func RenderMarkdown(input string, theme Theme, width int, profile termenv.Profile) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	// An explicit profile keeps output independent of whether the
	// process has a TTY.
	lipRenderer := lipgloss.NewRenderer(io.Discard)
	lipRenderer.SetColorProfile(profile)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       max(width, 10),
		profile:     profile,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks the goldmark AST directly. Inline content of
// a block accumulates in inline and is wrapped as a unit when the
// block closes.
type markdownRenderer struct {
	source      []byte
	theme       Theme
	width       int
	profile     termenv.Profile
	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	bold, italic, strike int

	// lists holds the counter of each open list; -1 for bullets.
	lists  []int
	bullet string
}

func (renderer *markdownRenderer) style() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *markdownRenderer) indent() string {
	return strings.Repeat("  ", max(0, len(renderer.lists)-1))
}

func (renderer *markdownRenderer) blankLine() {
	current := renderer.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	if strings.HasSuffix(current, "\n") {
		renderer.output.WriteString("\n")
		return
	}
	renderer.output.WriteString("\n\n")
}

// flush wraps the accumulated inline content and writes it with the
// list indentation and, for a list item's first line, its bullet.
func (renderer *markdownRenderer) flush() {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return
	}
	indent := renderer.indent()
	prefixWidth := len(indent)
	if len(renderer.lists) > 0 {
		prefixWidth += 2
	}
	wrapped := ansi.Wrap(content, max(10, renderer.width-prefixWidth), " ,.;-")
	for index, line := range strings.Split(wrapped, "\n") {
		renderer.output.WriteString(indent)
		switch {
		case index == 0 && renderer.bullet != "":
			renderer.output.WriteString(renderer.bullet)
			renderer.bullet = ""
		case len(renderer.lists) > 0:
			renderer.output.WriteString("  ")
		}
		renderer.output.WriteString(line)
		renderer.output.WriteString("\n")
	}
}

func (renderer *markdownRenderer) styled(content string) string {
	style := renderer.style().Foreground(renderer.theme.NormalText)
	if renderer.bold > 0 {
		style = style.Bold(true)
	}
	if renderer.italic > 0 {
		style = style.Italic(true)
	}
	if renderer.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// highlight syntax-highlights code, falling back to faint plain text
// for unknown languages or when the profile has no color.
func (renderer *markdownRenderer) highlight(code, language string) string {
	faint := renderer.style().Foreground(renderer.theme.FaintText)
	if language == "" || renderer.profile == termenv.Ascii {
		return faint.Render(code)
	}
	formatter := "terminal256"
	if renderer.profile == termenv.TrueColor {
		formatter = "terminal16m"
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, formatter, "monokai"); err != nil {
		return faint.Render(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			renderer.flush()
			if len(renderer.lists) == 0 {
				renderer.blankLine()
			}
		}

	case *ast.Heading:
		if !entering {
			content := renderer.inline.String()
			renderer.inline.Reset()
			heading := renderer.style().Foreground(renderer.theme.HeaderForeground).Bold(true)
			if node.Level == 1 {
				heading = heading.Foreground(renderer.theme.Accent)
			}
			renderer.output.WriteString(heading.Render(ansi.Strip(content)))
			renderer.output.WriteString("\n")
			renderer.blankLine()
		}

	case *ast.FencedCodeBlock:
		if entering {
			language := string(node.Language(renderer.source))
			renderer.writeCode(renderer.lines(node), language)
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			renderer.writeCode(renderer.lines(node), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			counter := -1
			if node.IsOrdered() {
				counter = node.Start
			}
			renderer.lists = append(renderer.lists, counter)
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
			if len(renderer.lists) == 0 {
				renderer.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			renderer.flush()
			top := len(renderer.lists) - 1
			if renderer.lists[top] < 0 {
				renderer.bullet = renderer.style().Foreground(renderer.theme.Accent).Render("•") + " "
			} else {
				renderer.bullet = fmt.Sprintf("%d.", renderer.lists[top]) + " "
				renderer.lists[top]++
			}
		} else {
			renderer.flush()
		}

	case *ast.ThematicBreak:
		if entering {
			rule := renderer.style().Foreground(renderer.theme.BorderColor).Render(strings.Repeat("─", renderer.width))
			renderer.output.WriteString(rule + "\n")
			renderer.blankLine()
		}

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			renderer.inline.WriteString(renderer.styled(string(node.Segment.Value(renderer.source))))
			if node.HardLineBreak() {
				renderer.inline.WriteString("\n")
			} else if node.SoftLineBreak() {
				renderer.inline.WriteString(renderer.styled(" "))
			}
		}

	case *ast.String:
		if entering {
			renderer.inline.WriteString(renderer.styled(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := -1
		if entering {
			delta = 1
		}
		if node.Level >= 2 {
			renderer.bold += delta
		} else {
			renderer.italic += delta
		}

	case *extast.Strikethrough:
		if entering {
			renderer.strike++
		} else {
			renderer.strike--
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if segment, ok := child.(*ast.Text); ok {
					code.Write(segment.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.MatchForeground).Render(code.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			renderer.writeLink(node, string(node.Destination))
		}
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			destination := string(node.URL(renderer.source))
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.LinkForeground).Underline(true).Render(destination))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			alt := renderer.plainText(node)
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.FaintText).Render("[image: " + alt + "]"))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// writeLink renders the link text underlined in the link color and
// the destination in faint parentheses when it differs from the text.
func (renderer *markdownRenderer) writeLink(node *ast.Link, destination string) {
	label := renderer.plainText(node)
	link := renderer.style().Foreground(renderer.theme.LinkForeground).Underline(true)
	renderer.inline.WriteString(link.Render(label))
	if destination != "" && destination != label {
		renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.FaintText).Render(" (" + destination + ")"))
	}
}

func (renderer *markdownRenderer) plainText(node ast.Node) string {
	var builder strings.Builder
	ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if segment, ok := child.(*ast.Text); ok && entering {
			builder.Write(segment.Segment.Value(renderer.source))
		}
		return ast.WalkContinue, nil
	})
	return builder.String()
}

func (renderer *markdownRenderer) lines(node ast.Node) string {
	var builder strings.Builder
	lines := node.Lines()
	for index := range lines.Len() {
		segment := lines.At(index)
		builder.Write(segment.Value(renderer.source))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func (renderer *markdownRenderer) writeCode(code, language string) {
	renderer.flush()
	for _, line := range strings.Split(renderer.highlight(code, language), "\n") {
		renderer.output.WriteString(renderer.indent() + "  " + line + "\n")
	}
	renderer.blankLine()
}
