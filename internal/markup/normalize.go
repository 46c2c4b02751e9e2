// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"regexp"
	"strings"
)

// EscalateHeader is the canonical bold label that introduces the
// "when to hand this to a human" line of a reply.
const EscalateHeader = "**Escalate if:** "

var (
	// firstItemAfterColonRegex finds a list that starts inline after a colon.
	firstItemAfterColonRegex = regexp.MustCompile(`:\s*1\.\s`)

	// escalateRegex also swallows bold markers already around the label so
	// a reply that bolded it itself does not end up with doubled markers.
	escalateRegex = regexp.MustCompile(`(?i)(\*\*)?\bEscalate if\b[:\s]*(\*\*[ \t]*)?`)
)

// Normalize rewrites a reply into canonical line-oriented markdown. The
// rules run in a fixed order, each on the output of the one before:
//
//  1. Sanitize.
//  2. A list starting inline after a colon moves into its own block.
//  3. Every one- or two-digit "N. " marker starts a new line.
//  4. The first "Escalate if" becomes a bold header on its own block.
//  5. Lines holding nothing but a "**" marker collapse to a newline.
//  6. The result is trimmed.
//
// Canonical text passes through unchanged.
func Normalize(text string) string {
	s := Sanitize(text)
	s = firstItemAfterColonRegex.ReplaceAllLiteralString(s, ":\n\n1. ")
	s = breakNumberedItems(s)
	s = promoteEscalateHeader(s)
	s = collapseLoneEmphasis(s)
	return strings.TrimSpace(s)
}

// =============================================================================
// RULE HELPERS
// =============================================================================

// breakNumberedItems inserts a newline before every one- or two-digit list
// marker ("7. ", "12. ") that is not already at the start of a line. The
// digit group must not continue a longer number, so "1234. " or an already
// placed "\n12. " stay intact. The whitespace after the dot becomes one
// space.
func breakNumberedItems(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	i := 0
	for i < len(s) {
		if !isDigit(s[i]) || (i > 0 && (s[i-1] == '\n' || isDigit(s[i-1]))) {
			b.WriteByte(s[i])
			i++
			continue
		}

		width := markerDigits(s, i)
		if width == 0 {
			b.WriteByte(s[i])
			i++
			continue
		}

		b.WriteByte('\n')
		b.WriteString(s[i : i+width])
		b.WriteString(". ")
		i += width + 2
	}
	return b.String()
}

// markerDigits reports how many digits (1 or 2) at s[i:] form a list
// marker followed by a dot and one whitespace character, or 0.
func markerDigits(s string, i int) int {
	if i+3 < len(s) && isDigit(s[i+1]) && s[i+2] == '.' && isSpace(s[i+3]) {
		return 2
	}
	if i+2 < len(s) && s[i+1] == '.' && isSpace(s[i+2]) {
		return 1
	}
	return 0
}

// promoteEscalateHeader rewrites the first "Escalate if" occurrence into
// EscalateHeader preceded by a blank line. A closing "**" is only consumed
// when the header opened with one, so bold text right after a plain header
// survives. A header that is already in canonical form and position is left
// alone.
func promoteEscalateHeader(s string) string {
	m := escalateRegex.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	start, end := m[0], m[1]
	if m[2] < 0 && m[4] >= 0 {
		end = m[4]
	}
	if s[start:end] == EscalateHeader && (start == 0 || strings.HasSuffix(s[:start], "\n\n")) {
		return s
	}
	return s[:start] + "\n\n" + EscalateHeader + s[end:]
}

// collapseLoneEmphasis replaces each line that holds only a "**" marker
// (plus whitespace) with a single newline. A match starts at the text start
// or at a newline and ends just before the last newline that follows the
// marker, or at the end of the text.
func collapseLoneEmphasis(s string) string {
	if !strings.Contains(s, "**") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	last := 0
	for i := 0; i < len(s); {
		if i != 0 && s[i] != '\n' {
			i++
			continue
		}
		end, ok := loneEmphasisEnd(s, i)
		if !ok {
			i++
			continue
		}
		b.WriteString(s[last:i])
		b.WriteByte('\n')
		last = end
		i = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func loneEmphasisEnd(s string, i int) (int, bool) {
	j := i
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if !strings.HasPrefix(s[j:], "**") {
		return 0, false
	}
	j += 2

	lastNewline := -1
	for j < len(s) && isSpace(s[j]) {
		if s[j] == '\n' {
			lastNewline = j
		}
		j++
	}
	if j == len(s) {
		return j, true
	}
	if lastNewline >= 0 {
		return lastNewline, true
	}
	return 0, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
