// Package markdown renders post bodies to HTML as templ components.
//
// Bodies are first cut at code fence boundaries (Split); prose runs are then
// rendered line by line, code runs are escaped verbatim.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reOrderedItem = regexp.MustCompile(`^\d+\.\s`)
	reHeading     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reRule        = regexp.MustCompile(`^(\*\s*){3,}$|^(-\s*){3,}$|^(_\s*){3,}$`)
)

// Markdown returns a templ.Component that renders body as HTML.
func Markdown(body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, body)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of body to buf. An unclosed fence is
// rendered as code running to the end of the body.
func Render(buf *bytes.Buffer, body string) {
	blocks, _ := Split(body)
	for _, b := range blocks {
		if b.Code {
			renderCode(buf, b)
			continue
		}
		r := proseRenderer{buf: buf}
		r.render(b.Text)
	}
}

func renderCode(buf *bytes.Buffer, b Block) {
	lang := strings.Fields(b.Lang)
	if len(lang) > 0 {
		escaped := html.EscapeString(lang[0])
		buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + escaped + `">` + escaped + `</span>`)
		buf.WriteString(`<pre class="code-block"><code class="language-` + escaped + `">`)
	} else {
		buf.WriteString(`<pre class="code-block"><code>`)
	}
	buf.WriteString(html.EscapeString(b.Text))
	buf.WriteString("</code></pre>")
	if len(lang) > 0 {
		buf.WriteString("</div>")
	}
}

// proseRenderer tracks which container element is open while walking lines.
type proseRenderer struct {
	buf  *bytes.Buffer
	open string // "p", "ul", "ol", "blockquote" or ""
}

func (r *proseRenderer) close() {
	if r.open != "" {
		r.buf.WriteString("</" + r.open + ">")
		r.open = ""
	}
}

// enter opens tag unless it is already the open container. It reports
// whether the container was already open.
func (r *proseRenderer) enter(tag string) bool {
	if r.open == tag {
		return true
	}
	r.close()
	r.buf.WriteString("<" + tag + ">")
	r.open = tag
	return false
}

func (r *proseRenderer) render(text string) {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			r.close()
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			r.close()
			level := strconv.Itoa(len(m[1]))
			r.buf.WriteString("<h" + level + ">" + FormatInline(strings.TrimSpace(m[2])) + "</h" + level + ">")
			continue
		}

		switch {
		case reRule.MatchString(trimmed):
			r.close()
			r.buf.WriteString("<hr/>")
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			r.enter("ul")
			r.buf.WriteString("<li>" + FormatInline(strings.TrimSpace(trimmed[2:])) + "</li>")
		case reOrderedItem.MatchString(trimmed):
			r.enter("ol")
			item := reOrderedItem.ReplaceAllString(trimmed, "")
			r.buf.WriteString("<li>" + FormatInline(strings.TrimSpace(item)) + "</li>")
		case strings.HasPrefix(trimmed, ">"):
			if r.enter("blockquote") {
				r.buf.WriteString(" ")
			}
			r.buf.WriteString(FormatInline(strings.TrimSpace(trimmed[1:])))
		default:
			if r.enter("p") {
				r.buf.WriteString(" ")
			}
			r.buf.WriteString(FormatInline(trimmed))
		}
	}
	r.close()
}
