// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "strings"

// ============================================================================
// PRIORITY CLASSIFICATION
// ============================================================================

// Keyword tiers, checked in order. Matching is a lower-cased substring test,
// so "downloads" counts as "down".
var (
	highPriorityKeywords   = []string{"network", "down", "email", "outage"}
	mediumPriorityKeywords = []string{"printer", "software", "slow", "password"}
)

// Assignees are the technicians a ticket can be assigned to.
var Assignees = []string{"Alex Smith", "Jamie Lee", "Taylor Brown", "Jordan Rivera"}

// ClassifyPriority assigns a priority from the issue text:
//  1. High: network, down, email, outage
//  2. Medium: printer, software, slow, password
//  3. Low: anything else
func ClassifyPriority(issue string) Priority {
	q := strings.ToLower(issue)
	if containsAny(q, highPriorityKeywords) {
		return PriorityHigh
	}
	if containsAny(q, mediumPriorityKeywords) {
		return PriorityMedium
	}
	return PriorityLow
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
