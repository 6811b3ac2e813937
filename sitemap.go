package pubcontent

import (
	"encoding/xml"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the home page, every tag page and every published post.
func (a *App) renderSitemap(c echo.Context, snap *Snapshot) error {
	base := a.Config.URL
	urls := []sitemapURL{{Loc: BuildURL(base)}}
	if mod := latestModification(snap.Published); !mod.IsZero() {
		urls[0].LastMod = mod.Format("2006-01-02")
	}
	for _, tag := range snap.Tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "tags", tag)})
	}
	for _, p := range snap.Published {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.LastModified().Format("2006-01-02"),
		})
	}
	return renderXML(c, "application/xml; charset=utf-8", sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

// latestModification returns the greatest LastModified of posts. An older
// post with a recent update stamp can beat the newest post.
func latestModification(posts []content.Post) time.Time {
	var latest time.Time
	for _, p := range posts {
		if mod := p.LastModified(); mod.After(latest) {
			latest = mod
		}
	}
	return latest
}
