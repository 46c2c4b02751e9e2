// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"regexp"
	"strings"
)

// thinkSpanRegex matches a reasoning span lazily so two spans in one reply
// are removed separately along with only their own contents.
var thinkSpanRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Sanitize removes every <think>...</think> span and trims the result.
// Markers are case-sensitive; an opening marker without a closing one is
// left in place together with the text after it.
func Sanitize(raw string) string {
	return strings.TrimSpace(thinkSpanRegex.ReplaceAllLiteralString(raw, ""))
}
