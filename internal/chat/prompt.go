// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/session"
)

// HelpPrompt is the system prompt sent ahead of every turn.
const HelpPrompt = `You are Helpie, a friendly IT helpdesk AI for non-technical employees.
Your only job is troubleshooting devices, apps, accounts, and networks.

STYLE (Markdown only):
- Start with a short, varied reassurance sentence with a fitting emoji (e.g., 🔌 power, 📶 network, 🔐 login, 🖨️ printer, 🧰 general).
- Then an ordered list (1–6), one step per line; be concrete; name the app/OS when useful; emojis OK but not spam.
- End with **Escalate if:** and 1–3 brief conditions.
- Do not leave dangling markdown like stray ** anywhere.

SCOPE CONTROL:
- If the user asks for non-IT content, briefly say you're for IT help only and ask for an IT issue instead.
`

const (
	// GreetingText is the raw greeting stored as model context.
	GreetingText = "Hi! I’m Helpie 🤖. Tell me what’s broken and I’ll walk you through quick steps."

	// greetingMarkdown is the greeting as displayed, with the name in bold.
	greetingMarkdown = "Hi! I’m **Helpie** 🤖. Tell me what’s broken and I’ll walk you through quick steps."
)

// DefaultWindow is how many stored turns are sent as context.
const DefaultWindow = 15

// Greeting returns the seed turn for a freshly opened session.
func Greeting() session.Greeting {
	return session.Greeting{
		Raw:      GreetingText,
		Rendered: markup.RenderHTML(greetingMarkdown),
	}
}
