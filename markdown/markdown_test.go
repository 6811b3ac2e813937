package markdown

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func render(input string) string {
	var buf bytes.Buffer
	Render(&buf, input)
	return buf.String()
}

func TestSplit(t *testing.T) {
	body := "Intro text.\n\n```csharp\n[FunctionName(\"Run\")]\npublic static void Run() {}\n```\nOutro.\n"
	got, err := Split(body)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	want := []Block{
		{Text: "Intro text.\n\n", Line: 1},
		{Code: true, Lang: "csharp", Text: "[FunctionName(\"Run\")]\npublic static void Run() {}\n", Line: 3},
		{Text: "Outro.\n", Line: 7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitFenceVariants(t *testing.T) {
	body := "~~~\n```\nnot a close\n~~~~\n````go\ncode\n````\n"
	got, err := Split(body)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(got), got)
	}
	if got[0].Text != "```\nnot a close\n" {
		t.Errorf("first block = %q", got[0].Text)
	}
	if got[1].Lang != "go" || got[1].Text != "code\n" {
		t.Errorf("second block = %+v", got[1])
	}
}

func TestSplitUnclosedFence(t *testing.T) {
	got, err := Split("text\n```js\nconsole.log(1)\n")
	if !errors.Is(err, ErrUnclosedFence) {
		t.Fatalf("expected ErrUnclosedFence, got %v", err)
	}
	if len(got) != 2 || !got[1].Code || got[1].Text != "console.log(1)\n" {
		t.Errorf("unexpected blocks: %+v", got)
	}
}

func TestRenderCodeBlockWithLanguage(t *testing.T) {
	got := render("```csharp\nvar x = a < b;\n```")
	want := `<div class="code-block-wrapper"><span class="code-lang code-lang-csharp">csharp</span><pre class="code-block"><code class="language-csharp">var x = a &lt; b;` + "\n" + `</code></pre></div>`
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderCodeBlockWithoutLanguage(t *testing.T) {
	got := render("```\nplain **code**\n```")
	if strings.Contains(got, "code-lang") || strings.Contains(got, "<strong>") {
		t.Errorf("unexpected formatting in plain code block: %q", got)
	}
}

func TestRenderHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>"},
		{"## Heading 2", "<h2>Heading 2</h2>"},
		{"#### Heading `4`", "<h4>Heading <code>4</code></h4>"},
	}
	for _, tt := range tests {
		if got := render(tt.input); got != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"list", "- item 1\n- item 2", "<ul><li>item 1</li><li>item 2</li></ul>"},
		{"ordered list", "1. first\n2. **second**", "<ol><li>first</li><li><strong>second</strong></li></ol>"},
		{"paragraph joins lines", "one\ntwo", "<p>one two</p>"},
		{"quote", "> quoted\n> text", "<blockquote>quoted text</blockquote>"},
		{"rule", "a\n\n***\n\nb", "<p>a</p><hr/><p>b</p>"},
		{"list then paragraph", "- a\n\ntext", "<ul><li>a</li></ul><p>text</p>"},
		{"fence interrupts paragraph", "text\n```\ncode\n```", "<p>text</p><pre class=\"code-block\"><code>code\n</code></pre>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(tt.input); got != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic* and _also_", "<em>italic</em> and <em>also</em>"},
		{"snake_case_name", "snake_case_name"},
		{"`**not bold**`", "<code>**not bold**</code>"},
		{"<script>", "&lt;script&gt;"},
		{"[docs](https://learn.microsoft.com/a_b_c)", `<a href="https://learn.microsoft.com/a_b_c">docs</a>`},
		{"[local](/blog/jwt/)", `<a href="/blog/jwt/">local</a>`},
		{"[bad](javascript:alert)", "bad"},
	}
	for _, tt := range tests {
		if got := FormatInline(tt.input); got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/?a=1&b=2", "https://example.com/?a=1&amp;b=2"},
		{"#section", "#section"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"data:text/html,hi", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("# Title").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "<h1>Title</h1>" {
		t.Errorf("component output = %q", buf.String())
	}
}
