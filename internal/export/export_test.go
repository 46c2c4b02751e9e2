// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/storage"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func testTranscript() *storage.Transcript {
	reply := "Let's fix it. 1. Restart the router 2. Reconnect"
	return &storage.Transcript{
		ID:        "0f8e2c1a-1111-2222-3333-444455556666",
		Summary:   "Wi-Fi keeps dropping: <help>",
		CreatedAt: fixedNow.Add(-time.Hour),
		SavedAt:   fixedNow,
		Turns: []model.Turn{
			{Role: model.RoleAssistant, Raw: "Hi! I'm Helpie.", Timestamp: fixedNow.Add(-time.Hour)},
			{Role: model.RoleUser, Raw: "Wi-Fi keeps dropping <b>", Timestamp: fixedNow.Add(-50 * time.Minute)},
			{Role: model.RoleAssistant, Raw: reply, Rendered: markup.RenderHTML(reply), Timestamp: fixedNow.Add(-49 * time.Minute)},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"MD", ".md"},
		{"html", ".html"},
		{"htm", ".html"},
		{" json ", ".json"},
	}
	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q) error: %v", tt.format, err)
		}
		if exp.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) ext = %q, want %q", tt.format, exp.FileExtension(), tt.ext)
		}
	}

	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("")).Export(testTranscript())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"title: \"Wi-Fi keeps dropping: <help>\"",
		"turns: 3",
		"# Wi-Fi keeps dropping: <help>",
		"### You <sub>08:40:00</sub>",
		"### Helpie",
		"\n1. Restart the router",
		"\n2. Reconnect",
		"*Exported from helpie on March 14, 2025 at 9:30 AM*",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q\n%s", want, text)
		}
	}
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false
	out, err := NewMarkdownExporter(opts).Export(testTranscript())
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if strings.HasPrefix(text, "---") {
		t.Error("front matter written without IncludeMetadata")
	}
	if strings.Contains(text, "<sub>") {
		t.Error("timestamps written without IncludeTimestamps")
	}
}

func TestHTMLExport(t *testing.T) {
	tr := testTranscript()
	out, err := NewHTMLExporter(testOptions("")).Export(tr)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	page := string(out)

	if !strings.Contains(page, tr.Turns[2].Rendered) {
		t.Error("stored assistant fragment not reused")
	}
	if !strings.Contains(page, "Wi-Fi keeps dropping &lt;b&gt;") {
		t.Error("user text not escaped")
	}
	if strings.Contains(page, "<b>") || strings.Contains(page, "<help>") {
		t.Error("raw markup leaked into the page")
	}
	// The greeting has no stored fragment and is rendered on the fly.
	if !strings.Contains(page, markup.RenderHTML("Hi! I'm Helpie.")) {
		t.Error("assistant turn without fragment not rendered")
	}
	if !strings.HasSuffix(page, "</html>\n") {
		t.Error("page not closed")
	}
}

func TestJSONExport_MatchesStoreShape(t *testing.T) {
	tr := testTranscript()
	out, err := NewJSONExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	var back storage.Transcript
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("export is not a transcript: %v", err)
	}
	if back.ID != tr.ID || len(back.Turns) != 3 || back.Turns[2].Rendered != tr.Turns[2].Rendered {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestExport_EmptyTranscript(t *testing.T) {
	for _, format := range Formats {
		exp, _ := ForFormat(format, nil)
		if _, err := exp.Export(nil); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%s: nil transcript error = %v", format, err)
		}
		if _, err := exp.Export(&storage.Transcript{}); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%s: empty transcript error = %v", format, err)
		}
	}
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := testOptions(dir)

	path, err := ExportToFile(testTranscript(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	want := filepath.Join(dir, "helpie_Wi-Fi_keeps_dropping-_-help-_20250314_093000.md")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"VPN down", "VPN_down"},
		{`a/b\c:d*e?f"g<h>i|j`, "a-b-c-d-e-f-g-h-i-j"},
		{"tab\there\nnl", "tab_here_nl"},
		{"", "transcript"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
