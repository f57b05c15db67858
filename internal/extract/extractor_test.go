//nolint:testpackage // Exercising unexported helpers alongside Extract
package extract

import (
	"strings"
	"testing"
)

func TestExtract_TitlePreference(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		hint   string
		want   string
	}{
		{
			name: "og title wins",
			markup: `<html><head>
				<meta property="og:title" content="Social Title">
				<title>Doc Title</title>
			</head><body></body></html>`,
			hint: "Hint Title",
			want: "Social Title",
		},
		{
			name:   "document title when no og",
			markup: `<html><head><title>Doc Title</title></head><body></body></html>`,
			hint:   "Hint Title",
			want:   "Doc Title",
		},
		{
			name:   "hint when document is bare",
			markup: `<html><body><p>text</p></body></html>`,
			hint:   "Hint Title",
			want:   "Hint Title",
		},
		{
			name:   "empty when nothing available",
			markup: `<html><body></body></html>`,
			hint:   "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.markup, tt.hint)
			if got.Title != tt.want {
				t.Errorf("Extract() title = %q, want %q", got.Title, tt.want)
			}
		})
	}
}

func TestExtract_Description(t *testing.T) {
	markup := `<html><head>
		<meta name="description" content="  A concise description.  ">
	</head><body><p>ignored</p></body></html>`

	got := Extract(markup, "")
	if got.Description != "A concise description." {
		t.Errorf("Extract() description = %q", got.Description)
	}
}

func TestExtract_DescriptionFallsBackToParagraphs(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 12; i++ {
		sb.WriteString("<p>Paragraph number text block.</p>")
	}
	sb.WriteString("</body></html>")

	got := Extract(sb.String(), "")
	if got.Description == "" {
		t.Fatal("Extract() description empty, want paragraph fallback")
	}
	// Only the first eight blocks contribute.
	if n := strings.Count(got.Description, "Paragraph"); n != 8 {
		t.Errorf("Extract() description uses %d blocks, want 8", n)
	}
}

func TestExtract_BodyStripsNonContent(t *testing.T) {
	markup := `<html><body>
		<script>var hidden = 1;</script>
		<style>.x { color: red }</style>
		<noscript>enable js</noscript>
		<p>Visible   one.</p>
		<div>Visible two.</div>
	</body></html>`

	got := Extract(markup, "")
	if got.Body != "Visible one. Visible two." {
		t.Errorf("Extract() body = %q", got.Body)
	}
}

func TestExtract_MalformedMarkup(t *testing.T) {
	got := Extract("<<<not html>>>", "hint")
	if got.Body == "" && got.Title == "" && got.Description == "" {
		return
	}
	// goquery is lenient; whatever it parses must still be safe strings.
	if strings.ContainsAny(got.Body, "<>") && strings.Contains(got.Body, "script") {
		t.Errorf("Extract() body retained markup: %q", got.Body)
	}
}

func TestExtract_CapsTitleLength(t *testing.T) {
	long := strings.Repeat("t", 1000)
	got := Extract("<html><head><title>"+long+"</title></head></html>", "")
	if len(got.Title) != MaxTitleLen {
		t.Errorf("Extract() title length = %d, want %d", len(got.Title), MaxTitleLen)
	}
}
