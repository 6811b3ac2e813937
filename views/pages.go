package views

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/markdown"
)

// Home lists posts, optionally narrowed to activeTag, with the tag cloud.
func (s Site) Home(posts []content.Post, activeTag string, tags []string, siteURL string) templ.Component {
	meta := PageMeta{Title: s.Name, URL: buildURL(siteURL), JSONLD: WebsiteJsonLD(s)}
	if activeTag != "" {
		meta.Title = "Posts tagged " + activeTag
		meta.URL = buildURL(siteURL, "tags", content.NormalizeLabel(activeTag))
	}
	return s.page(meta, func(ctx context.Context, h *htmlWriter) error {
		active := content.NormalizeLabel(activeTag)
		h.raw(`<nav><ul class="tags"><li><a class="`, TagClass(active == ""), `" href="/">all</a></li>`)
		for _, t := range tags {
			h.raw(`<li><a class="`, TagClass(t == active), `" href="`, h.attr(TagPath(t)), `">`)
			h.text(t)
			h.raw(`</a></li>`)
		}
		h.raw(`</ul></nav>`)

		if len(posts) == 0 {
			h.raw(`<p>No posts yet.</p>`)
			return h.err
		}
		h.raw(`<ul class="post-list">`)
		for _, p := range posts {
			h.raw(`<li><h2><a href="`, h.attr(p.Link()), `">`)
			h.text(p.Title)
			h.raw(`</a></h2><p class="meta"><time datetime="`, p.Date.Format("2006-01-02"), `">`)
			h.text(FormatDate(p.Date))
			h.raw(`</time></p>`)
			if p.Description != "" {
				h.raw(`<p>`)
				h.text(p.Description)
				h.raw(`</p>`)
			}
			writeTags(h, p.Tags)
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
		return h.err
	})
}

// Post renders a single post with its related posts.
func (s Site) Post(post content.Post, related []content.Post, siteURL string) templ.Component {
	meta := PageMeta{
		Title:       post.Title,
		Description: post.Description,
		URL:         buildURL(siteURL, "blog", post.Slug),
		OGType:      "article",
		JSONLD:      BlogPostingJsonLD(s, post),
	}
	return s.page(meta, func(ctx context.Context, h *htmlWriter) error {
		h.raw(`<article><h1>`)
		h.text(post.Title)
		h.raw(`</h1><p class="meta"><time datetime="`, post.Date.Format("2006-01-02"), `">`)
		h.text(FormatDate(post.Date))
		h.raw(`</time>`)
		if mod := post.LastModified(); !mod.Equal(post.Date) {
			h.raw(` &middot; updated `)
			h.text(FormatDate(mod))
		}
		h.raw(`</p>`)
		writeTags(h, post.Tags)
		if h.err != nil {
			return h.err
		}
		if err := markdown.Markdown(post.Body).Render(ctx, h.w); err != nil {
			return err
		}
		h.raw(`</article>`)

		if len(related) > 0 {
			h.raw(`<section><h2>Related</h2><ul>`)
			for _, r := range related {
				h.raw(`<li><a href="`, h.attr(r.Link()), `">`)
				h.text(r.Title)
				h.raw(`</a></li>`)
			}
			h.raw(`</ul></section>`)
		}
		return h.err
	})
}

// NotFound is the 404 page.
func (s Site) NotFound() templ.Component {
	return s.page(PageMeta{Title: "Not found", NoIndex: true}, func(_ context.Context, h *htmlWriter) error {
		h.raw(`<h1>Not found</h1><p>The page you asked for does not exist. <a href="/">Back to all posts</a>.</p>`)
		return h.err
	})
}

// ServerError is the 5xx page.
func (s Site) ServerError() templ.Component {
	return s.page(PageMeta{Title: "Error", NoIndex: true}, func(_ context.Context, h *htmlWriter) error {
		h.raw(`<h1>Something went wrong</h1><p>Please try again in a moment.</p>`)
		return h.err
	})
}

func writeTags(h *htmlWriter, tags []string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<ul class="tags">`)
	for _, t := range tags {
		h.raw(`<li><a class="tag" href="`, h.attr(TagPath(t)), `">`)
		h.text(strings.TrimSpace(t))
		h.raw(`</a></li>`)
	}
	h.raw(`</ul>`)
}
