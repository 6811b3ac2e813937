package pubcontent

import (
	"encoding/xml"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/content"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// renderRSS writes posts (already in date order) as an RSS 2.0 feed. A
// non-empty tag narrows the channel title and link.
func (a *App) renderRSS(c echo.Context, posts []content.Post, tag string) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Description,
			PubDate:     p.Date.Format(time.RFC1123Z),
			GUID:        postURL,
			Categories:  p.Tags,
		})
	}

	channel := rssChannel{
		Title:       a.Config.Name,
		Link:        BuildURL(base),
		Description: a.Config.Description,
		Items:       items,
	}
	if tag != "" {
		channel.Title = a.Config.Name + " - " + tag
		channel.Link = BuildURL(base, "tags", tag)
	}
	if mod := latestModification(posts); !mod.IsZero() {
		channel.LastBuildDate = mod.Format(time.RFC1123Z)
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", rssXML{Version: "2.0", Channel: channel})
}
