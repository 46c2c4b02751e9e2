// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup turns free-form model replies into safe, structured HTML.
//
// The pipeline has three pure stages, each building on the previous one:
//
//   - Sanitize strips <think>...</think> reasoning spans
//   - Normalize rewrites loose text into one-item-per-line markdown
//   - Render escapes the text and groups lines into paragraphs and lists
//
// None of the stages can fail. Render returns a Document whose HTML method
// produces the final fragment:
//
//	doc := markup.Render(reply)
//	fmt.Println(doc.HTML())
package markup
