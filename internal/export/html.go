// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts as a standalone page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(tr *storage.Transcript) ([]byte, error) {
	if err := validate(tr); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(tr.Summary))
	sb.WriteString("    <meta name=\"generator\" content=\"helpie\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", tr.CreatedAt.Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString("<body>\n")
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(tr))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, t := range tr.Turns {
		sb.WriteString(e.renderTurn(t))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            Exported from helpie on %s\n", html.EscapeString(formatTimestamp(e.options.now())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) FileExtension() string { return ".html" }

func (e *HTMLExporter) MimeType() string { return "text/html" }

func (e *HTMLExporter) renderHeader(tr *storage.Transcript) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(tr.Summary))
	sb.WriteString("            <div class=\"metadata\">\n")
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Started:</strong> %s</span>\n", html.EscapeString(formatTimestamp(tr.CreatedAt)))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Turns:</strong> %d</span>\n", len(tr.Turns))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

// renderTurn writes one turn. Assistant turns use the stored fragment when
// present and are rendered again otherwise; user text is escaped.
func (e *HTMLExporter) renderTurn(t model.Turn) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", html.EscapeString(string(t.Role)))
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", t.Role.DisplayName())
	if e.options.IncludeTimestamps && !t.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(t.Timestamp))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	switch {
	case t.Role == model.RoleAssistant && t.Rendered != "":
		sb.WriteString(t.Rendered)
	case t.Role == model.RoleAssistant:
		sb.WriteString(markup.RenderHTML(t.Raw))
	default:
		sb.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(t.Raw), "\n", "<br>") + "</p>")
	}
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            font-size: 16px;
            line-height: 1.6;
            color: #24292e;
            background: #f6f8fa;
            padding: 20px;
        }
        .container {
            max-width: 820px;
            margin: 0 auto;
            background: #ffffff;
            border-radius: 12px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header { padding: 28px 32px; background: #e1e4e8; }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; gap: 16px; color: #586069; font-size: 14px; }
        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px; border-radius: 8px; border: 1px solid #e1e4e8; }
        .user-message { background: #f6f8fa; }
        .assistant-message { background: #ffffff; border-left: 4px solid #0366d6; }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; }
        .role-label { font-weight: 600; color: #0366d6; }
        .timestamp { color: #6a737d; font-size: 13px; }
        .md ol, .md ul { margin-left: 24px; }
        .footer { padding: 16px 32px; color: #6a737d; font-size: 13px; border-top: 1px solid #e1e4e8; }
    </style>
`
