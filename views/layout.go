package views

import (
	"context"
	"io"
	"time"

	"github.com/a-h/templ"
)

// page wraps body in the site chrome.
func (s Site) page(meta PageMeta, body func(ctx context.Context, h *htmlWriter) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		title := s.Name
		if meta.Title != "" && meta.Title != s.Name {
			title = meta.Title + " | " + s.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = s.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title>`)
		if desc != "" {
			h.raw(`<meta name="description" content="`, h.attr(desc), `">`)
		}
		if meta.NoIndex {
			h.raw(`<meta name="robots" content="noindex">`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical" href="`, h.attr(meta.URL), `">`,
				`<meta property="og:url" content="`, h.attr(meta.URL), `">`)
		}
		h.raw(`<meta property="og:title" content="`, h.attr(title), `">`,
			`<meta property="og:type" content="`, h.attr(ogType), `">`,
			`<link rel="alternate" type="application/rss+xml" title="`, h.attr(s.Name), `" href="/feed.xml">`,
			`<link rel="stylesheet" href="/public/style.css">`)
		if meta.JSONLD != "" {
			h.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		h.raw(`</head><body><header class="site-header"><a href="/">`)
		h.text(s.Name)
		h.raw(`</a></header><main>`)
		if h.err != nil {
			return h.err
		}
		if err := body(ctx, h); err != nil {
			return err
		}
		h.raw(`</main><footer class="site-footer">`)
		if s.Author != "" {
			h.raw(`&copy; `, time.Now().Format("2006"), ` `)
			h.text(s.Author)
			h.raw(` &middot; `)
		}
		h.raw(`<a href="/feed.xml">RSS</a></footer></body></html>`)
		return h.err
	})
}
