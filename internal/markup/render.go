// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"regexp"
	"strings"
)

// =============================================================================
// DOCUMENT MODEL
// =============================================================================

// BlockKind identifies one rendered line.
type BlockKind int

const (
	// Paragraph is a plain line of text.
	Paragraph BlockKind = iota
	// OrderedItem is a "N. " list line.
	OrderedItem
	// UnorderedItem is a "- " or "* " list line.
	UnorderedItem
	// Break is a blank line.
	Break
)

// String returns the block kind name.
func (k BlockKind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case OrderedItem:
		return "ordered_item"
	case UnorderedItem:
		return "unordered_item"
	case Break:
		return "break"
	default:
		return "unknown"
	}
}

// Block is one line of a rendered reply. Text is already escaped and may
// contain <strong> tags; it is empty for Break.
type Block struct {
	Kind BlockKind
	Text string
}

// Document is a rendered reply. Consecutive items of the same list kind
// share one list container when serialized.
type Document struct {
	Blocks []Block
}

// HTML serializes the document as a single <div class='md'> fragment with
// one element per line.
func (d *Document) HTML() string {
	out := make([]string, 0, len(d.Blocks)+4)
	var inOL, inUL bool

	closeLists := func() {
		if inOL {
			out = append(out, "</ol>")
			inOL = false
		}
		if inUL {
			out = append(out, "</ul>")
			inUL = false
		}
	}

	for _, blk := range d.Blocks {
		switch blk.Kind {
		case OrderedItem:
			if !inOL {
				closeLists()
				out = append(out, "<ol>")
				inOL = true
			}
			out = append(out, "<li>"+blk.Text+"</li>")
		case UnorderedItem:
			if !inUL {
				closeLists()
				out = append(out, "<ul>")
				inUL = true
			}
			out = append(out, "<li>"+blk.Text+"</li>")
		case Break:
			closeLists()
			out = append(out, "<br>")
		default:
			closeLists()
			out = append(out, "<p>"+blk.Text+"</p>")
		}
	}
	closeLists()

	return "<div class='md'>" + strings.Join(out, "\n") + "</div>"
}

// String implements fmt.Stringer.
func (d *Document) String() string {
	return d.HTML()
}

// =============================================================================
// RENDERER
// =============================================================================

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	boldRegex          = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strayMarkerRegex   = regexp.MustCompile(`\*\*+`)
	orderedItemRegex   = regexp.MustCompile(`^\d+\.\s+`)
	unorderedItemRegex = regexp.MustCompile(`^[-*]\s+`)
)

// Render normalizes text and converts it into a Document. Markup in the
// input is escaped, so the only tags in the output are the ones Render
// produces itself. Paired "**" markers on one line become <strong>;
// leftovers are dropped.
func Render(text string) *Document {
	s := Normalize(text)
	s = htmlEscaper.Replace(s)
	s = boldRegex.ReplaceAllString(s, "<strong>$1</strong>")
	s = strayMarkerRegex.ReplaceAllLiteralString(s, "")

	lines := strings.Split(s, "\n")
	doc := &Document{Blocks: make([]Block, 0, len(lines))}
	for _, raw := range lines {
		doc.Blocks = append(doc.Blocks, classifyLine(strings.TrimSpace(raw)))
	}
	return doc
}

// RenderHTML is shorthand for Render(text).HTML().
func RenderHTML(text string) string {
	return Render(text).HTML()
}

func classifyLine(line string) Block {
	switch {
	case orderedItemRegex.MatchString(line):
		return Block{Kind: OrderedItem, Text: orderedItemRegex.ReplaceAllLiteralString(line, "")}
	case unorderedItemRegex.MatchString(line):
		return Block{Kind: UnorderedItem, Text: unorderedItemRegex.ReplaceAllLiteralString(line, "")}
	case line == "":
		return Block{Kind: Break}
	default:
		return Block{Kind: Paragraph, Text: line}
	}
}
